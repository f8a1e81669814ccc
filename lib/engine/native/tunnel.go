package native

import (
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/logger"
)

// constructTunnel launches the tunnel launcher with args and waits until it
// reports the tunnel configured, so any key file it names has been read
// when Construct returns.
func (e *Engine) constructTunnel(args []any) (engine.Instance, error) {
	argv := make([]string, 0, len(args))
	for _, a := range args {
		s, err := engine.AsString(a)
		if err != nil {
			return nil, err
		}
		argv = append(argv, s)
	}

	proc, err := e.spawn(engine.ClassI2PTunnel, argv, e.cfg.ReadyMarker)
	if err != nil {
		return nil, engine.ConstructionFailed(engine.ClassI2PTunnel, err)
	}
	if err := proc.waitReady(e.cfg.ReadyTimeout); err != nil {
		_ = proc.terminate(closeGrace)
		e.untrack(proc)
		return nil, engine.ConstructionFailed(engine.ClassI2PTunnel, err)
	}

	inst := &tunnelInstance{instance: newInstance(e, engine.ClassI2PTunnel), proc: proc}
	log.WithFields(logger.Fields{
		"at": "native.constructTunnel",
		"id": inst.ID(),
	}).Info("tunnel launcher ready")
	return inst, nil
}
