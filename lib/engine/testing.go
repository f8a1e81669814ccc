package engine

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-i2p/i2ptunnelctl/lib/common/base64"
	"github.com/go-i2p/i2ptunnelctl/lib/keys"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Call is one recorded interaction with a MockEngine.
type Call struct {
	Op     Op
	Class  Class
	Method Method
	Args   []any
}

// MockEngine is an in-memory Engine for tests. It records every call,
// echoes constructor arguments back through Constructed, and keeps a small
// deterministic router state machine.
//
// Identity operations produce real private key files, so a secret always
// parses back to its address.
type MockEngine struct {
	// FailConstruct makes Construct of the given class return the error.
	FailConstruct map[Class]error
	// FailInvoke makes Invoke/InvokeStatic of the given method return the error.
	FailInvoke map[Method]error
	// OnConstruct runs synchronously inside Construct, before it returns.
	OnConstruct func(class Class, args []any)
	// RunGate, when set, blocks runRouter until it is closed.
	RunGate chan struct{}

	mu      sync.Mutex
	calls   []Call
	routers map[string]*mockRouter
}

type mockRouter struct {
	running    bool
	terminated bool
}

type mockInstance struct {
	id    string
	class Class
	// payload is the key file for destinations and the buffer for streams.
	payload *bytes.Buffer
	address string
}

func (m *mockInstance) ID() string   { return m.id }
func (m *mockInstance) Class() Class { return m.class }

// NewMockEngine returns an empty MockEngine.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		FailConstruct: make(map[Class]error),
		FailInvoke:    make(map[Method]error),
		routers:       make(map[string]*mockRouter),
	}
}

// Calls returns a copy of every call recorded so far.
func (m *MockEngine) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Constructed returns the argument lists passed to Construct for class, as strings.
func (m *MockEngine) Constructed(class Class) [][]string {
	var out [][]string
	for _, c := range m.Calls() {
		if c.Op != OpConstruct || c.Class != class {
			continue
		}
		args := make([]string, 0, len(c.Args))
		for _, a := range c.Args {
			args = append(args, fmt.Sprint(a))
		}
		out = append(out, args)
	}
	return out
}

// CountInvocations counts recorded calls of method.
func (m *MockEngine) CountInvocations(method Method) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *MockEngine) record(op Op, class Class, method Method, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: op, Class: class, Method: method, Args: append([]any(nil), args...)})
}

func (m *MockEngine) Construct(class Class, args ...any) (Instance, error) {
	m.record(OpConstruct, class, "", args)
	if err := CheckConstruct(class); err != nil {
		return nil, err
	}
	if err := m.FailConstruct[class]; err != nil {
		return nil, ConstructionFailed(class, err)
	}
	if m.OnConstruct != nil {
		m.OnConstruct(class, args)
	}
	inst := &mockInstance{id: uuid.NewString(), class: class, payload: &bytes.Buffer{}}
	if class == ClassRouter {
		m.mu.Lock()
		m.routers[inst.id] = &mockRouter{}
		m.mu.Unlock()
	}
	return inst, nil
}

func (m *MockEngine) Invoke(inst Instance, method Method, args ...any) (any, error) {
	if inst == nil {
		m.record(OpInvoke, "", method, args)
		return nil, &Error{Op: OpInvoke, Method: method, Kind: KindMarshalling, Err: oops.Errorf("nil instance")}
	}
	m.record(OpInvoke, inst.Class(), method, args)
	if err := CheckInvoke(inst.Class(), method); err != nil {
		return nil, err
	}
	if err := m.FailInvoke[method]; err != nil {
		return nil, InvocationFailed(OpInvoke, inst.Class(), method, err)
	}
	mi, ok := inst.(*mockInstance)
	if !ok {
		return nil, &Error{Op: OpInvoke, Class: inst.Class(), Method: method, Kind: KindMarshalling, Err: oops.Errorf("foreign instance %T", inst)}
	}

	switch inst.Class() {
	case ClassRouter:
		return m.invokeRouter(mi, method)
	case ClassClient:
		return m.createDestination(args)
	case ClassDestination:
		secret := mi.payload.Bytes()
		if method == MethodGetSk {
			return append([]byte(nil), secret...), nil
		}
		return mi.address, nil
	}
	return nil, CheckInvoke(inst.Class(), method)
}

func (m *MockEngine) InvokeStatic(class Class, method Method, args ...any) (any, error) {
	m.record(OpInvokeStatic, class, method, args)
	if err := CheckInvokeStatic(class, method); err != nil {
		return nil, err
	}
	if err := m.FailInvoke[method]; err != nil {
		return nil, InvocationFailed(OpInvokeStatic, class, method, err)
	}
	switch method {
	case MethodCreateClient:
		return &mockInstance{id: uuid.NewString(), class: ClassClient, payload: &bytes.Buffer{}}, nil
	case MethodEncode:
		if len(args) != 1 {
			return nil, InvocationFailed(OpInvokeStatic, class, method, oops.Errorf("encode takes one argument"))
		}
		raw, err := AsBytes(args[0])
		if err != nil {
			return nil, err
		}
		return base64.EncodeToString(raw), nil
	default:
		if len(args) != 1 {
			return nil, InvocationFailed(OpInvokeStatic, class, method, oops.Errorf("decode takes one argument"))
		}
		text, err := AsString(args[0])
		if err != nil {
			return nil, err
		}
		raw, err := base64.DecodeString(text)
		if err != nil {
			return nil, InvocationFailed(OpInvokeStatic, class, method, err)
		}
		return raw, nil
	}
}

func (m *MockEngine) createDestination(args []any) (any, error) {
	dk, err := keys.NewDestinationKeys()
	if err != nil {
		return nil, InvocationFailed(OpInvoke, ClassClient, MethodCreateDestination, err)
	}
	secret, err := dk.PrivateKeyFile()
	if err != nil {
		return nil, InvocationFailed(OpInvoke, ClassClient, MethodCreateDestination, err)
	}
	address, err := dk.Address()
	if err != nil {
		return nil, InvocationFailed(OpInvoke, ClassClient, MethodCreateDestination, err)
	}
	if len(args) == 1 {
		if stream, ok := args[0].(*mockInstance); ok && stream.class == ClassByteArrayOutputStream {
			stream.payload.Write(secret)
		}
	}
	return &mockInstance{id: uuid.NewString(), class: ClassDestination, payload: bytes.NewBuffer(secret), address: address}, nil
}

func (m *MockEngine) invokeRouter(inst *mockInstance, method Method) (any, error) {
	if method == MethodRunRouter && m.RunGate != nil {
		<-m.RunGate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.routers[inst.id]
	switch method {
	case MethodRunRouter:
		r.running = true
		return nil, nil
	case MethodIsAlive, MethodIsRunning:
		return r.running, nil
	default:
		if r.terminated {
			return nil, InvocationFailed(OpInvoke, ClassRouter, method, oops.Errorf("router already shut down"))
		}
		r.running = false
		r.terminated = true
		return nil, nil
	}
}
