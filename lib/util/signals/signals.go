// Package signals dispatches process signals to registered shutdown
// handlers. Handlers run in registration order, each protected against
// panics and bounded by a shared timeout, so a hung router shutdown cannot
// prevent staged secrets from being released.
package signals

import (
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

const defaultShutdownTimeout = 30 * time.Second

// sigChan is buffered so a signal delivered before Handle runs is not lost.
var sigChan = make(chan os.Signal, 1)

// Handler is called when an interrupt is received.
type Handler func()

// HandlerID identifies a registered handler for Deregister.
type HandlerID int

type registeredHandler struct {
	id HandlerID
	fn Handler
}

var (
	mu              sync.RWMutex
	reloaders       []registeredHandler
	interrupters    []registeredHandler
	nextID          HandlerID
	shutdownTimeout = defaultShutdownTimeout
	interrupted     = make(chan struct{})
	interruptOnce   sync.Once
	stopOnce        sync.Once
)

// RegisterReloadHandler registers f to run on SIGHUP. Nil handlers are
// ignored and return -1.
func RegisterReloadHandler(f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	reloaders = append(reloaders, registeredHandler{id: id, fn: f})
	return id
}

// DeregisterReloadHandler removes a reload handler by ID.
func DeregisterReloadHandler(id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	for i, h := range reloaders {
		if h.id == id {
			reloaders = append(reloaders[:i], reloaders[i+1:]...)
			return
		}
	}
}

// Reload runs the reload handlers as if SIGHUP had arrived.
func Reload() {
	mu.RLock()
	snapshot := make([]registeredHandler, len(reloaders))
	copy(snapshot, reloaders)
	mu.RUnlock()
	for _, h := range snapshot {
		runHandler(h)
	}
}

// RegisterInterruptHandler registers f to run on SIGINT/SIGTERM. Nil
// handlers are ignored and return -1.
func RegisterInterruptHandler(f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	interrupters = append(interrupters, registeredHandler{id: id, fn: f})
	return id
}

// DeregisterInterruptHandler removes a handler by ID.
func DeregisterInterruptHandler(id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	for i, h := range interrupters {
		if h.id == id {
			interrupters = append(interrupters[:i], interrupters[i+1:]...)
			return
		}
	}
}

// SetShutdownTimeout bounds the total time spent in interrupt handlers.
// Zero or negative restores the 30 second default.
func SetShutdownTimeout(timeout time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownTimeout = timeout
}

// Interrupted is closed once interrupt handlers have finished (or timed out).
func Interrupted() <-chan struct{} {
	return interrupted
}

// Interrupt runs the interrupt handlers as if a signal had arrived. Only
// the first call has an effect.
func Interrupt() {
	interruptOnce.Do(func() {
		handleInterrupted()
		close(interrupted)
	})
}

func handleInterrupted() {
	mu.RLock()
	snapshot := make([]registeredHandler, len(interrupters))
	copy(snapshot, interrupters)
	timeout := shutdownTimeout
	mu.RUnlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, h := range snapshot {
			runHandler(h)
		}
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.WithField("timeout", timeout).Error("interrupt handlers timed out")
	}
}

func runHandler(h registeredHandler) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("handler", h.id).Errorf("panic in signal handler: %v", r)
		}
	}()
	h.fn()
}

// Handle receives signals until StopHandle is called. Every SIGHUP runs
// the reload handlers. The first interrupt runs the interrupt handlers and
// later ones are ignored.
func Handle() {
	for {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		switch {
		case isReload(sig):
			log.WithField("signal", sig.String()).Info("received reload")
			Reload()
		case isInterrupt(sig):
			log.WithField("signal", sig.String()).Info("received interrupt")
			Interrupt()
		}
	}
}

// StopHandle stops signal delivery and makes Handle return. Safe to call
// more than once.
func StopHandle() {
	stopOnce.Do(func() {
		signal.Stop(sigChan)
		close(sigChan)
	})
}
