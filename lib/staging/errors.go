package staging

import (
	"fmt"
)

// Kind classifies staging failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindWriteFailed is any local I/O failure while writing the file.
	KindWriteFailed
	// KindDecodeFailed means the secret was not valid I2P base64.
	KindDecodeFailed
)

func (k Kind) String() string {
	switch k {
	case KindWriteFailed:
		return "write failed"
	case KindDecodeFailed:
		return "decode failed"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrWriteFailed  = &Error{Kind: KindWriteFailed}
	ErrDecodeFailed = &Error{Kind: KindDecodeFailed}
)

// Error is a failure to stage a secret.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("stage: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("stage %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
