package tunnel

import (
	"context"

	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/i2ptunnelctl/lib/identity"
	"github.com/go-i2p/i2ptunnelctl/lib/staging"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

// Controller builds tunnels that share one engine and one stager.
type Controller struct {
	eng    engine.Engine
	stager *staging.Stager
	gen    *identity.Generator
	cfg    config.TunnelConfig
}

// NewController returns a Controller. An empty control host or a zero
// control port falls back to localhost:7654.
func NewController(eng engine.Engine, stager *staging.Stager, cfg config.TunnelConfig) *Controller {
	if cfg.ControlHost == "" {
		cfg.ControlHost = "localhost"
	}
	if cfg.ControlPort == 0 {
		cfg.ControlPort = config.DefaultControlPort
	}
	return &Controller{
		eng:    eng,
		stager: stager,
		gen:    identity.NewGenerator(eng),
		cfg:    cfg,
	}
}

// New builds a tunnel. Server tunnels get a freshly generated identity;
// the generator's error is returned unchanged.
func (c *Controller) New(host string, port uint16, kind Kind) (*Tunnel, error) {
	if !kind.Valid() {
		return nil, oops.Errorf("invalid tunnel kind %d", int(kind))
	}
	t := &Tunnel{
		host:   host,
		port:   port,
		kind:   kind,
		eng:    c.eng,
		stager: c.stager,
		cfg:    c.cfg,
		state:  StateConstructed,
	}
	if kind.NeedsIdentity() {
		if c.stager == nil {
			return nil, oops.Errorf("server tunnels need a stager")
		}
		kp, err := c.gen.Generate()
		if err != nil {
			return nil, err
		}
		t.identity = kp
		t.state = StateIdentityGenerated
	}
	log.WithFields(logger.Fields{
		"at":   "tunnel.New",
		"kind": kind,
		"host": host,
		"port": port,
	}).Debug("tunnel constructed")
	return t, nil
}

// StartAll starts tunnels concurrently and returns the first error. Tunnels
// not yet started when ctx is cancelled are skipped.
func (c *Controller) StartAll(ctx context.Context, tunnels ...*Tunnel) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tunnels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return t.Start()
		})
	}
	return g.Wait()
}
