package staging

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/samber/oops"
)

// StagedSecret is one secret file on disk.
type StagedSecret struct {
	path  string
	token string
	owner *Stager

	mu       sync.Mutex
	released bool
}

// Path is the absolute path of the staged file.
func (s *StagedSecret) Path() string { return s.path }

// Token is the hex token in the file name.
func (s *StagedSecret) Token() string { return s.token }

// Release removes the file. It is safe to call more than once and from
// several goroutines; a file that is already gone is not an error. If
// removal fails the secret stays live so a later Release or Stager.Close
// can retry.
func (s *StagedSecret) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &Error{Kind: KindWriteFailed, Path: s.path, Err: oops.Wrapf(err, "failed to remove staged secret")}
	}
	s.released = true
	s.owner.forget(s)
	log.WithField("path", s.path).Debug("released staged secret")
	return nil
}

// Close is Release, so a StagedSecret is an io.Closer.
func (s *StagedSecret) Close() error { return s.Release() }
