package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an engine failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConstructionFailed means the runtime or one of its instances could not be created.
	KindConstructionFailed
	// KindInvocationFailed means a method call reached the runtime and failed there.
	KindInvocationFailed
	// KindMarshalling means a value could not be converted across the boundary.
	KindMarshalling
	// KindUnsupported means the call is outside the allowed class/method surface.
	KindUnsupported
	// KindInvalidState means the caller's lifecycle does not permit the call.
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindConstructionFailed:
		return "construction failed"
	case KindInvocationFailed:
		return "invocation failed"
	case KindMarshalling:
		return "marshalling failed"
	case KindUnsupported:
		return "unsupported"
	case KindInvalidState:
		return "invalid state"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrConstructionFailed = &Error{Kind: KindConstructionFailed}
	ErrInvocationFailed   = &Error{Kind: KindInvocationFailed}
	ErrMarshalling        = &Error{Kind: KindMarshalling}
	ErrUnsupported        = &Error{Kind: KindUnsupported}
	ErrInvalidState       = &Error{Kind: KindInvalidState}
)

// Error is any failure surfaced by the external engine.
type Error struct {
	Op     Op
	Class  Class
	Method Method
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("engine")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Op))
	}
	if e.Class != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Class))
	}
	if e.Method != "" {
		b.WriteString(".")
		b.WriteString(string(e.Method))
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ConstructionFailed wraps err as a construction failure of class.
func ConstructionFailed(class Class, err error) *Error {
	return &Error{Op: OpConstruct, Class: class, Kind: KindConstructionFailed, Err: err}
}

// InvocationFailed wraps err as a failed invocation of class.method.
func InvocationFailed(op Op, class Class, method Method, err error) *Error {
	return &Error{Op: op, Class: class, Method: method, Kind: KindInvocationFailed, Err: err}
}

// InvalidState reports a call the caller's lifecycle does not allow.
func InvalidState(class Class, method Method, format string, args ...any) *Error {
	return &Error{Op: OpInvoke, Class: class, Method: method, Kind: KindInvalidState, Err: fmt.Errorf(format, args...)}
}
