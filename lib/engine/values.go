package engine

import (
	"github.com/samber/oops"
)

// AsString converts a value returned by the runtime to a string.
func AsString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", marshalling("string", v)
	}
}

// AsBool converts a value returned by the runtime to a bool.
func AsBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, marshalling("bool", v)
	}
	return b, nil
}

// AsBytes converts a value returned by the runtime to a byte slice.
// The returned slice is a copy.
func AsBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case string:
		return []byte(b), nil
	default:
		return nil, marshalling("[]byte", v)
	}
}

// AsInstance converts a value returned by the runtime to an Instance of class.
func AsInstance(v any, class Class) (Instance, error) {
	inst, ok := v.(Instance)
	if !ok || inst == nil {
		return nil, marshalling("instance", v)
	}
	if inst.Class() != class {
		return nil, &Error{
			Op:    OpConvert,
			Class: class,
			Kind:  KindMarshalling,
			Err:   oops.Errorf("expected instance of %s, got %s", class, inst.Class()),
		}
	}
	return inst, nil
}

func marshalling(want string, got any) *Error {
	return &Error{
		Op:   OpConvert,
		Kind: KindMarshalling,
		Err:  oops.Errorf("cannot convert %T to %s", got, want),
	}
}
