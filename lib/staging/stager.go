package staging

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-i2p/crypto/rand"
	"github.com/go-i2p/i2ptunnelctl/lib/common/base64"
	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/i2ptunnelctl/lib/metrics"
	"github.com/go-i2p/i2ptunnelctl/lib/util"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

const (
	// TokenBytes is the entropy behind each file name.
	TokenBytes = 32
	filePrefix = "sk."
	fileSuffix = ".dat"
	fileMode   = 0o600
	dirMode    = 0o700
)

// openFile is swapped in tests to simulate I/O failures.
var openFile = func(name string) (*os.File, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
}

// Stager writes secrets into one staging directory and tracks every file
// it has not yet removed.
type Stager struct {
	dir string

	mu   sync.Mutex
	live map[*StagedSecret]struct{}
}

// NewStager resolves cfg.Dir to an absolute path, creates it and registers
// the stager for removal of leftovers at process exit.
func NewStager(cfg config.StagingConfig) (*Stager, error) {
	dir, err := util.AbsPath(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, &util.EnvironmentError{Op: "create staging directory", Err: err}
	}
	s := &Stager{
		dir:  dir,
		live: make(map[*StagedSecret]struct{}),
	}
	util.RegisterCloser(s)
	log.WithFields(logger.Fields{
		"at":  "staging.NewStager",
		"dir": dir,
	}).Debug("staging directory ready")
	return s, nil
}

// Dir is the absolute staging directory.
func (s *Stager) Dir() string { return s.dir }

// Stage decodes secretB64 and writes the raw bytes to a fresh file. The
// file is complete and closed when Stage returns. Invalid input writes
// nothing; a failed write leaves nothing behind.
func (s *Stager) Stage(secretB64 string) (*StagedSecret, error) {
	token, err := newToken()
	if err != nil {
		return nil, &Error{Kind: KindWriteFailed, Err: err}
	}
	path := filepath.Join(s.dir, filePrefix+token+fileSuffix)

	raw, err := base64.DecodeString(secretB64)
	if err != nil {
		return nil, &Error{Kind: KindDecodeFailed, Err: oops.Wrapf(err, "invalid secret encoding")}
	}

	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return nil, &Error{Kind: KindWriteFailed, Path: path, Err: err}
	}
	if err := writeFile(path, raw); err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at":   "staging.Stage",
			"path": path,
		}).Error("failed to stage secret")
		return nil, &Error{Kind: KindWriteFailed, Path: path, Err: err}
	}

	staged := &StagedSecret{path: path, token: token, owner: s}
	s.mu.Lock()
	s.live[staged] = struct{}{}
	s.mu.Unlock()
	metrics.StagedSecrets.Inc()

	log.WithFields(logger.Fields{
		"at":   "staging.Stage",
		"path": path,
	}).Debug("staged secret")
	return staged, nil
}

func newToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Wrapf(err, "failed to read staging token")
	}
	return hex.EncodeToString(b), nil
}

// writeFile creates path exclusively and writes data through to disk,
// removing the file on any failure.
func writeFile(path string, data []byte) (err error) {
	f, err := openFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				log.WithError(rmErr).WithField("path", path).Error("failed to remove partial secret")
			}
		}
	}()
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	return f.Close()
}

// With stages secretB64, runs fn and releases the staged file on every
// exit path, including a panic in fn.
func (s *Stager) With(secretB64 string, fn func(*StagedSecret) error) (err error) {
	staged, err := s.Stage(secretB64)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := staged.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn(staged)
}

// Live is the number of staged files not yet released.
func (s *Stager) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Close releases every live secret.
func (s *Stager) Close() error {
	s.mu.Lock()
	pending := make([]*StagedSecret, 0, len(s.live))
	for staged := range s.live {
		pending = append(pending, staged)
	}
	s.mu.Unlock()

	var errs []error
	for _, staged := range pending {
		if err := staged.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(pending) > 0 {
		log.WithFields(logger.Fields{
			"at":       "staging.Close",
			"released": len(pending) - len(errs),
		}).Info("released staged secrets")
	}
	return errors.Join(errs...)
}

func (s *Stager) forget(staged *StagedSecret) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[staged]; ok {
		delete(s.live, staged)
		metrics.StagedSecrets.Dec()
	}
}
