package signals

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func resetHandlers(t *testing.T) {
	t.Helper()
	mu.Lock()
	saved := interrupters
	savedReloaders := reloaders
	savedTimeout := shutdownTimeout
	interrupters = nil
	reloaders = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		interrupters = saved
		reloaders = savedReloaders
		shutdownTimeout = savedTimeout
		mu.Unlock()
	})
}

func TestHandlersCalledInOrder(t *testing.T) {
	resetHandlers(t)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		RegisterInterruptHandler(func() { order = append(order, i) })
	}

	handleInterrupted()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestNilHandlerIgnored(t *testing.T) {
	resetHandlers(t)
	assert.Equal(t, HandlerID(-1), RegisterInterruptHandler(nil))
	mu.RLock()
	defer mu.RUnlock()
	assert.Empty(t, interrupters)
}

func TestDeregisterInterruptHandler(t *testing.T) {
	resetHandlers(t)
	called := false
	id := RegisterInterruptHandler(func() { called = true })
	DeregisterInterruptHandler(id)
	DeregisterInterruptHandler(HandlerID(9999))

	handleInterrupted()
	assert.False(t, called)
}

func TestPanicInHandlerDoesNotStopOthers(t *testing.T) {
	resetHandlers(t)
	called := false
	RegisterInterruptHandler(func() { panic("boom") })
	RegisterInterruptHandler(func() { called = true })

	assert.NotPanics(t, handleInterrupted)
	assert.True(t, called)
}

func TestHandlersBoundedByTimeout(t *testing.T) {
	resetHandlers(t)
	SetShutdownTimeout(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	RegisterInterruptHandler(func() { <-release })

	start := time.Now()
	handleInterrupted()
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSetShutdownTimeoutDefault(t *testing.T) {
	resetHandlers(t)
	SetShutdownTimeout(-1)
	mu.RLock()
	defer mu.RUnlock()
	assert.Equal(t, defaultShutdownTimeout, shutdownTimeout)
}

func TestConcurrentRegistration(t *testing.T) {
	resetHandlers(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RegisterInterruptHandler(func() {})
		}()
	}
	wg.Wait()
	mu.RLock()
	defer mu.RUnlock()
	assert.Len(t, interrupters, 50)
}

func TestReloadRunsEveryTime(t *testing.T) {
	resetHandlers(t)
	calls := 0
	RegisterReloadHandler(func() { calls++ })
	RegisterReloadHandler(func() { panic("boom") })

	assert.NotPanics(t, Reload)
	Reload()
	assert.Equal(t, 2, calls)
}

func TestDeregisterReloadHandler(t *testing.T) {
	resetHandlers(t)
	assert.Equal(t, HandlerID(-1), RegisterReloadHandler(nil))
	called := false
	id := RegisterReloadHandler(func() { called = true })
	DeregisterReloadHandler(id)

	Reload()
	assert.False(t, called)
}
