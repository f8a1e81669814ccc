// Package engine defines the boundary between the controller and the external
// router/tunnel runtime.
//
// The runtime is opaque. It exposes three primitives: constructing an
// instance of a class, invoking a method on an instance, and invoking a
// static method on a class. Rather than passing free-form method names
// around, the package models the classes and methods the controller is
// allowed to touch as a closed set of typed constants, so every call site
// is auditable from this one package.
//
// # Surface
//
//	Construct(ClassRouter)                            -> router instance
//	Invoke(router, MethodRunRouter)                   -> blocks until started
//	Invoke(router, MethodIsAlive | MethodIsRunning)   -> bool
//	Invoke(router, MethodShutdownGracefully)
//	Construct(ClassI2PTunnel, "-die", "-nocli", ...)  -> tunnel launcher
//	InvokeStatic(ClassClientFactory, MethodCreateClient)
//	Invoke(client, MethodCreateDestination, stream)   -> destination
//	Invoke(destination, MethodGetSk | MethodToBase32)
//	InvokeStatic(ClassBase64, MethodEncode | MethodDecode, value)
//
// # Connection reuse
//
// An Engine value is one logical connection to the runtime. Components
// receive it by reference and never construct their own; creating an
// engine per call duplicates runtime state.
//
// # Errors
//
// Every failure at the boundary is reported as *Error carrying the
// operation, class, method and a Kind. Errors are returned to the caller
// untouched: the package never retries.
package engine
