package router

import (
	"sync"
	"sync/atomic"

	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// State is the lifecycle position of a Handle.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Handle wraps one router instance.
type Handle struct {
	eng  engine.Engine
	inst engine.Instance

	// lifecycle serializes Run and Shutdown. Probes never take it.
	lifecycle sync.Mutex
	state     atomic.Int32
}

// New constructs the router instance. Construction failures are returned
// as the engine reported them.
func New(eng engine.Engine) (*Handle, error) {
	inst, err := eng.Construct(engine.ClassRouter)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at":     "router.New",
			"phase":  "construction",
			"reason": "engine could not construct router",
		}).Error("failed to create router")
		return nil, err
	}
	log.WithFields(logger.Fields{
		"at": "router.New",
		"id": inst.ID(),
	}).Debug("router instance created")
	return &Handle{eng: eng, inst: inst}, nil
}

// State reports the current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Run starts the router and blocks until the engine returns. It is only
// valid from StateCreated. On success the handle is Running; on failure it
// stays Created so the caller may retry or shut it down.
func (h *Handle) Run() error {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	if st := h.State(); st != StateCreated {
		return engine.InvalidState(engine.ClassRouter, engine.MethodRunRouter, "router is %s", st)
	}

	log.WithFields(logger.Fields{
		"at":    "router.Run",
		"phase": "startup",
		"id":    h.inst.ID(),
	}).Info("starting router")

	if _, err := h.eng.Invoke(h.inst, engine.MethodRunRouter); err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at":    "router.Run",
			"phase": "startup",
		}).Error("router failed to start")
		return err
	}
	h.state.Store(int32(StateRunning))
	log.WithField("at", "router.Run").Info("router running")
	return nil
}

// IsAlive asks the engine whether the router is alive. It never changes state.
func (h *Handle) IsAlive() (bool, error) {
	return h.probe(engine.MethodIsAlive)
}

// IsRunningPrecheck asks the engine whether the router considers itself
// running. It never changes state.
func (h *Handle) IsRunningPrecheck() (bool, error) {
	return h.probe(engine.MethodIsRunning)
}

func (h *Handle) probe(method engine.Method) (bool, error) {
	v, err := h.eng.Invoke(h.inst, method)
	if err != nil {
		return false, err
	}
	return engine.AsBool(v)
}

// Shutdown requests graceful termination. The handle is Terminated
// afterwards whatever the engine returns; an engine error, such as the one
// a repeated shutdown may produce, is returned unchanged.
func (h *Handle) Shutdown() error {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	prev := h.State()
	log.WithFields(logger.Fields{
		"at":    "router.Shutdown",
		"phase": "shutdown",
		"state": prev,
	}).Info("shutting down router")

	_, err := h.eng.Invoke(h.inst, engine.MethodShutdownGracefully)
	h.state.Store(int32(StateTerminated))
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at":    "router.Shutdown",
			"phase": "shutdown",
			"state": prev,
		}).Warn("engine reported shutdown error")
		return err
	}
	return nil
}
