package tunnel

import (
	"strconv"
	"strings"
	"sync"

	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/i2ptunnelctl/lib/identity"
	"github.com/go-i2p/i2ptunnelctl/lib/metrics"
	"github.com/go-i2p/i2ptunnelctl/lib/staging"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// State is a tunnel's position in its lifecycle.
type State int

const (
	StateConstructed State = iota
	// StateIdentityGenerated is reached by server tunnels only.
	StateIdentityGenerated
	StateStarted
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateIdentityGenerated:
		return "identity generated"
	case StateStarted:
		return "started"
	default:
		return "unknown"
	}
}

// Launcher flags: run the command list without a console and exit with
// the parent.
var launcherFlags = []string{"-die", "-nocli"}

// Tunnel is one proxy or published service.
type Tunnel struct {
	host     string
	port     uint16
	kind     Kind
	identity *identity.KeyPair

	eng    engine.Engine
	stager *staging.Stager
	cfg    config.TunnelConfig

	mu    sync.Mutex
	state State
	inst  engine.Instance
	// startErr is what the launching Start returned.
	startErr error
}

func (t *Tunnel) Host() string { return t.host }
func (t *Tunnel) Port() uint16 { return t.port }
func (t *Tunnel) Kind() Kind   { return t.kind }

// State reports the tunnel's lifecycle state.
func (t *Tunnel) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Destination returns the tunnel's .b32.i2p address. Only server tunnels
// have one.
func (t *Tunnel) Destination() (string, bool) {
	if t.identity == nil {
		return "", false
	}
	return t.identity.Destination(), true
}

// Args returns the launcher arguments. stagedPath is only used by server
// tunnels and must be absolute, since the launcher resolves relative paths
// against its own working directory.
func (t *Tunnel) Args(stagedPath string) []string {
	port := strconv.FormatUint(uint64(t.port), 10)
	args := append([]string(nil), launcherFlags...)
	switch t.kind {
	case KindServer:
		args = append(args, "-e", command("server", t.host, port, stagedPath))
	case KindHTTP:
		args = append(args,
			"-e", command("config", t.cfg.ControlHost, strconv.Itoa(t.cfg.ControlPort)),
			"-e", command("httpclient", port),
		)
	case KindSocks:
		args = append(args, "-e", command("sockstunnel", port))
	}
	return args
}

func command(tokens ...string) string {
	return strings.Join(tokens, " ")
}

// Start launches the tunnel. Once the launcher is running the tunnel is
// Started, even if Start still returns an error, as it does when the
// staged secret cannot be removed afterwards. Later calls fail with an
// engine.KindInvalidState error without touching the engine; that error
// repeats the one the launching call returned, if any. A Start that fails
// before the launcher runs may be retried.
func (t *Tunnel) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateStarted {
		if t.startErr != nil {
			return engine.InvalidState(engine.ClassI2PTunnel, "", "%s tunnel on port %d already launched; its start reported: %v", t.kind, t.port, t.startErr)
		}
		return engine.InvalidState(engine.ClassI2PTunnel, "", "%s tunnel on port %d already started", t.kind, t.port)
	}

	var err error
	if t.kind == KindServer {
		err = t.startServer()
	} else {
		err = t.launch(t.Args(""))
	}
	metrics.TunnelStarts.WithLabelValues(t.kind.String(), metrics.Outcome(err)).Inc()

	fields := logger.Fields{
		"at":   "tunnel.Start",
		"kind": t.kind,
		"host": t.host,
		"port": t.port,
	}
	if dest, ok := t.Destination(); ok {
		fields["destination"] = dest
	}
	if t.inst != nil {
		t.state = StateStarted
		t.startErr = err
	}
	if err != nil {
		log.WithError(err).WithFields(fields).Error("tunnel start failed")
		return err
	}
	log.WithFields(fields).Info("tunnel started")
	return nil
}

// startServer stages the identity for exactly as long as the launcher
// needs it. The engine is not invoked if staging fails.
func (t *Tunnel) startServer() error {
	return t.stager.With(t.identity.Secret(), func(staged *staging.StagedSecret) error {
		return t.launch(t.Args(staged.Path()))
	})
}

func (t *Tunnel) launch(args []string) error {
	argv := make([]any, len(args))
	for i, a := range args {
		argv[i] = a
	}
	inst, err := t.eng.Construct(engine.ClassI2PTunnel, argv...)
	if err != nil {
		return err
	}
	t.inst = inst
	return nil
}
