package native

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/i2ptunnelctl/lib/i2pcontrol"
	"github.com/go-i2p/i2ptunnelctl/lib/util"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// closeGrace is how long Close waits for each child after SIGTERM.
const closeGrace = 5 * time.Second

// RouterControl is the part of the I2PControl client the engine needs.
type RouterControl interface {
	WaitReady(ctx context.Context, interval time.Duration) error
	Status() (i2pcontrol.RouterStatus, error)
	Shutdown() error
}

// Engine implements engine.Engine.
type Engine struct {
	cfg config.EngineConfig
	ctl RouterControl

	mu     sync.Mutex
	procs  map[*process]struct{}
	closed bool
}

var _ engine.Engine = (*Engine)(nil)

// New returns an engine for the runtime under cfg.BasePath. Identity
// operations run in-process, so the runtime itself is only required once a
// router or tunnel launcher is constructed. ctl may be nil, in which case a
// router counts as started as soon as its process is up and shutdown is
// signal based.
func New(cfg config.EngineConfig, ctl RouterControl) (*Engine, error) {
	if cfg.BasePath == "" {
		return nil, engine.ConstructionFailed("", oops.Errorf("no runtime base path configured"))
	}
	if cfg.JavaBin == "" {
		cfg.JavaBin = "java"
	}
	log.WithFields(logger.Fields{
		"at":        "native.New",
		"base_path": cfg.BasePath,
		"java":      cfg.JavaBin,
	}).Debug("native engine ready")
	return &Engine{
		cfg:   cfg,
		ctl:   ctl,
		procs: make(map[*process]struct{}),
	}, nil
}

// Construct implements engine.Engine.
func (e *Engine) Construct(class engine.Class, args ...any) (engine.Instance, error) {
	if err := engine.CheckConstruct(class); err != nil {
		return nil, err
	}
	if e.isClosed() {
		return nil, engine.ConstructionFailed(class, oops.Errorf("engine closed"))
	}
	switch class {
	case engine.ClassRouter, engine.ClassI2PTunnel:
		if !util.CheckDirExists(e.cfg.LibDir()) {
			return nil, engine.ConstructionFailed(class, oops.Errorf("runtime library directory %s not found", e.cfg.LibDir()))
		}
	}
	switch class {
	case engine.ClassRouter:
		if len(args) != 0 {
			return nil, engine.ConstructionFailed(class, oops.Errorf("router takes no arguments"))
		}
		return &routerInstance{instance: newInstance(e, class)}, nil
	case engine.ClassI2PTunnel:
		return e.constructTunnel(args)
	default:
		return &streamInstance{instance: newInstance(e, class)}, nil
	}
}

// Invoke implements engine.Engine.
func (e *Engine) Invoke(inst engine.Instance, method engine.Method, args ...any) (any, error) {
	if inst == nil {
		return nil, &engine.Error{Op: engine.OpInvoke, Method: method, Kind: engine.KindMarshalling, Err: oops.Errorf("nil instance")}
	}
	if err := engine.CheckInvoke(inst.Class(), method); err != nil {
		return nil, err
	}
	if o, ok := inst.(interface{ engineOwner() *Engine }); !ok || o.engineOwner() != e {
		return nil, &engine.Error{
			Op:     engine.OpInvoke,
			Class:  inst.Class(),
			Method: method,
			Kind:   engine.KindMarshalling,
			Err:    oops.Errorf("instance %s does not belong to this engine", inst.ID()),
		}
	}

	switch v := inst.(type) {
	case *routerInstance:
		return e.invokeRouter(v, method)
	case *clientInstance:
		return e.createDestination(v, args)
	case *destinationInstance:
		return e.invokeDestination(v, method)
	}
	return nil, engine.CheckInvoke(inst.Class(), method)
}

// InvokeStatic implements engine.Engine.
func (e *Engine) InvokeStatic(class engine.Class, method engine.Method, args ...any) (any, error) {
	if err := engine.CheckInvokeStatic(class, method); err != nil {
		return nil, err
	}
	switch method {
	case engine.MethodCreateClient:
		return &clientInstance{instance: newInstance(e, engine.ClassClient)}, nil
	case engine.MethodEncode:
		return encode(args)
	default:
		return decode(args)
	}
}

// Close terminates every child process. The engine refuses new
// constructions afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	procs := make([]*process, 0, len(e.procs))
	for p := range e.procs {
		procs = append(procs, p)
	}
	e.procs = make(map[*process]struct{})
	e.mu.Unlock()

	var errs []error
	for _, p := range procs {
		if err := p.terminate(closeGrace); err != nil {
			errs = append(errs, err)
		}
	}
	if len(procs) > 0 {
		log.WithFields(logger.Fields{
			"at":        "native.Close",
			"processes": len(procs),
		}).Info("terminated child processes")
	}
	return errors.Join(errs...)
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) track(p *process) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return oops.Errorf("engine closed")
	}
	e.procs[p] = struct{}{}
	return nil
}

func (e *Engine) untrack(p *process) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.procs, p)
}

// spawn starts and tracks a child, killing it if the engine closed meanwhile.
func (e *Engine) spawn(class engine.Class, args []string, marker string) (*process, error) {
	p, err := startProcess(e.cfg, class, args, marker)
	if err != nil {
		return nil, err
	}
	if err := e.track(p); err != nil {
		_ = p.terminate(0)
		return nil, err
	}
	return p, nil
}
