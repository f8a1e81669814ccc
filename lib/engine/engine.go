package engine

import (
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// Class names a runtime class the controller may touch.
type Class string

const (
	ClassRouter                Class = "net.i2p.router.Router"
	ClassI2PTunnel             Class = "net.i2p.i2ptunnel.I2PTunnel"
	ClassClientFactory         Class = "net.i2p.client.I2PClientFactory"
	ClassClient                Class = "net.i2p.client.I2PClient"
	ClassDestination           Class = "net.i2p.data.Destination"
	ClassBase64                Class = "net.i2p.data.Base64"
	ClassByteArrayOutputStream Class = "java.io.ByteArrayOutputStream"
)

// Method names a runtime method the controller may invoke.
type Method string

const (
	MethodRunRouter          Method = "runRouter"
	MethodIsAlive            Method = "isAlive"
	MethodIsRunning          Method = "isRunning"
	MethodShutdownGracefully Method = "shutdownGracefully"
	MethodCreateClient       Method = "createClient"
	MethodCreateDestination  Method = "createDestination"
	MethodGetSk              Method = "getSk"
	MethodToBase32           Method = "toBase32"
	MethodEncode             Method = "encode"
	MethodDecode             Method = "decode"
)

// Op identifies which of the three primitives an error came from.
type Op string

const (
	OpConstruct    Op = "construct"
	OpInvoke       Op = "invoke"
	OpInvokeStatic Op = "invoke_static"
	OpConvert      Op = "convert"
)

// Instance is a handle to an object living inside the runtime.
type Instance interface {
	// ID uniquely identifies the instance for the lifetime of the engine.
	ID() string
	// Class is the runtime class the instance was created from.
	Class() Class
}

// Engine is one logical connection to the external runtime.
//
// Implementations must be safe for concurrent use: probes may run while a
// blocking runRouter invocation is in flight on another goroutine.
type Engine interface {
	// Construct creates an instance of class with the given constructor arguments.
	Construct(class Class, args ...any) (Instance, error)
	// Invoke calls method on inst.
	Invoke(inst Instance, method Method, args ...any) (any, error)
	// InvokeStatic calls a static method on class.
	InvokeStatic(class Class, method Method, args ...any) (any, error)
}

var constructible = map[Class]bool{
	ClassRouter:                true,
	ClassI2PTunnel:             true,
	ClassByteArrayOutputStream: true,
}

var instanceMethods = map[Class][]Method{
	ClassRouter:      {MethodRunRouter, MethodIsAlive, MethodIsRunning, MethodShutdownGracefully},
	ClassClient:      {MethodCreateDestination},
	ClassDestination: {MethodGetSk, MethodToBase32},
}

var staticMethods = map[Class][]Method{
	ClassClientFactory: {MethodCreateClient},
	ClassBase64:        {MethodEncode, MethodDecode},
}

// CheckConstruct reports whether class may be constructed through an Engine.
func CheckConstruct(class Class) error {
	if constructible[class] {
		return nil
	}
	return &Error{Op: OpConstruct, Class: class, Kind: KindUnsupported}
}

// CheckInvoke reports whether method may be invoked on an instance of class.
func CheckInvoke(class Class, method Method) error {
	if contains(instanceMethods[class], method) {
		return nil
	}
	return &Error{Op: OpInvoke, Class: class, Method: method, Kind: KindUnsupported}
}

// CheckInvokeStatic reports whether method may be invoked statically on class.
func CheckInvokeStatic(class Class, method Method) error {
	if contains(staticMethods[class], method) {
		return nil
	}
	return &Error{Op: OpInvokeStatic, Class: class, Method: method, Kind: KindUnsupported}
}

func contains(methods []Method, m Method) bool {
	for _, candidate := range methods {
		if candidate == m {
			return true
		}
	}
	return false
}
