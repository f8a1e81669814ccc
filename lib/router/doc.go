// Package router owns the lifecycle of one external router instance.
//
// A Handle constructs exactly one router instance on the engine it is given
// and reuses it for every operation. Run blocks until the engine reports the
// router started, so callers run it on its own goroutine:
//
//	h, err := router.New(eng)
//	if err != nil {
//		return err
//	}
//	go func() {
//		if err := h.Run(); err != nil {
//			log.WithError(err).Error("router failed")
//		}
//	}()
//	alive, _ := h.IsAlive()
//	...
//	err = h.Shutdown()
//
// Run and Shutdown are serialized; IsAlive and IsRunningPrecheck take no
// lifecycle lock and may be polled from any goroutine, including while Run
// is blocked.
package router
