package native

import (
	"context"
	"time"

	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

func (e *Engine) invokeRouter(r *routerInstance, method engine.Method) (any, error) {
	switch method {
	case engine.MethodRunRouter:
		return nil, e.runRouter(r)
	case engine.MethodIsAlive:
		return r.alive(), nil
	case engine.MethodIsRunning:
		return e.isRunning(r), nil
	default:
		return nil, e.shutdownRouter(r)
	}
}

func (r *routerInstance) alive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proc != nil && r.proc.alive()
}

// forget detaches a process that failed to start so runRouter may be
// invoked again.
func (r *routerInstance) forget(proc *process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc == proc {
		r.proc = nil
	}
}

// runRouter launches the router and blocks until it answers I2PControl,
// exits or the startup timeout elapses.
func (e *Engine) runRouter(r *routerInstance) error {
	fail := func(err error) error {
		return engine.InvocationFailed(engine.OpInvoke, engine.ClassRouter, engine.MethodRunRouter, err)
	}

	r.mu.Lock()
	switch {
	case r.shutdown:
		r.mu.Unlock()
		return fail(oops.Errorf("router has been shut down"))
	case r.proc != nil || r.starting:
		r.mu.Unlock()
		return fail(oops.Errorf("router already started"))
	}
	r.starting = true
	r.mu.Unlock()

	proc, err := e.spawn(engine.ClassRouter, nil, "")
	r.mu.Lock()
	r.starting = false
	if err == nil {
		r.proc = proc
	}
	r.mu.Unlock()
	if err != nil {
		return fail(err)
	}

	log.WithFields(logger.Fields{
		"at":      "native.runRouter",
		"id":      r.ID(),
		"timeout": e.cfg.StartupTimeout,
	}).Info("router process started, waiting for it to come up")

	if e.ctl == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StartupTimeout)
	defer cancel()
	go func() {
		select {
		case <-proc.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := e.ctl.WaitReady(ctx, e.cfg.PollInterval); err != nil {
		if proc.alive() {
			log.WithError(err).WithField("at", "native.runRouter").Error("router did not come up, terminating it")
			_ = proc.terminate(closeGrace)
		} else {
			err = proc.exitErr()
		}
		e.untrack(proc)
		r.forget(proc)
		return fail(err)
	}
	log.WithFields(logger.Fields{
		"at": "native.runRouter",
		"id": r.ID(),
	}).Info("router is up")
	return nil
}

func (e *Engine) isRunning(r *routerInstance) bool {
	if !r.alive() {
		return false
	}
	if e.ctl == nil {
		return true
	}
	st, err := e.ctl.Status()
	if err != nil {
		log.WithError(err).WithField("at", "native.isRunning").Debug("router status unavailable")
		return false
	}
	return st.NetStatus.Running()
}

// shutdownRouter stops the router. The first call succeeds even if the
// router never ran; later calls fail.
func (e *Engine) shutdownRouter(r *routerInstance) error {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return engine.InvocationFailed(engine.OpInvoke, engine.ClassRouter, engine.MethodShutdownGracefully, oops.Errorf("router already shut down"))
	}
	r.shutdown = true
	proc := r.proc
	r.mu.Unlock()

	if proc == nil || !proc.alive() {
		return nil
	}

	grace := e.cfg.ShutdownTimeout
	if e.ctl != nil {
		if err := e.ctl.Shutdown(); err != nil {
			log.WithError(err).WithField("at", "native.shutdownRouter").Warn("I2PControl shutdown failed, signalling process")
		} else {
			select {
			case <-proc.done:
			case <-time.After(grace):
				log.WithField("at", "native.shutdownRouter").Warn("router ignored I2PControl shutdown")
			}
			grace = closeGrace
		}
	}
	err := proc.terminate(grace)
	e.untrack(proc)
	if err != nil {
		return engine.InvocationFailed(engine.OpInvoke, engine.ClassRouter, engine.MethodShutdownGracefully, err)
	}
	log.WithFields(logger.Fields{
		"at": "native.shutdownRouter",
		"id": r.ID(),
	}).Info("router stopped")
	return nil
}
