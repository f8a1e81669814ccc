package engine

import (
	"github.com/go-i2p/i2ptunnelctl/lib/metrics"
	"github.com/go-i2p/logger"
)

// instrumented decorates an Engine with call metrics and debug logging.
type instrumented struct {
	next Engine
}

// Instrument returns an Engine that records every call in metrics.EngineCalls.
// The wrapped engine is still the single underlying connection.
func Instrument(next Engine) Engine {
	if _, ok := next.(*instrumented); ok {
		return next
	}
	return &instrumented{next: next}
}

func (e *instrumented) Construct(class Class, args ...any) (Instance, error) {
	inst, err := e.next.Construct(class, args...)
	e.observe(OpConstruct, class, "", err)
	return inst, err
}

func (e *instrumented) Invoke(inst Instance, method Method, args ...any) (any, error) {
	v, err := e.next.Invoke(inst, method, args...)
	var class Class
	if inst != nil {
		class = inst.Class()
	}
	e.observe(OpInvoke, class, method, err)
	return v, err
}

func (e *instrumented) InvokeStatic(class Class, method Method, args ...any) (any, error) {
	v, err := e.next.InvokeStatic(class, method, args...)
	e.observe(OpInvokeStatic, class, method, err)
	return v, err
}

func (e *instrumented) observe(op Op, class Class, method Method, err error) {
	metrics.EngineCalls.WithLabelValues(string(op), string(method), metrics.Outcome(err)).Inc()
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at":     "engine.observe",
			"op":     op,
			"class":  class,
			"method": method,
		}).Debug("engine call failed")
	}
}
