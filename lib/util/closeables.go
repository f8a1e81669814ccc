package util

import (
	"errors"
	"io"
	"sync"
)

var (
	closeOnExit []io.Closer
	closeMutex  sync.Mutex
)

// RegisterCloser registers c to be closed by CloseAll, typically at process
// exit. Closers run in reverse registration order.
func RegisterCloser(c io.Closer) {
	if c == nil {
		return
	}
	closeMutex.Lock()
	defer closeMutex.Unlock()
	closeOnExit = append(closeOnExit, c)
	log.WithField("count", len(closeOnExit)).Debug("Registered closer")
}

// CloseAll closes every registered closer, clears the registry and returns
// the joined errors. One failing closer does not stop the others.
func CloseAll() error {
	closeMutex.Lock()
	pending := closeOnExit
	closeOnExit = nil
	closeMutex.Unlock()

	log.WithField("count", len(pending)).Debug("Closing all registered closers")

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i].Close(); err != nil {
			log.WithError(err).Warn("Error closing resource")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
