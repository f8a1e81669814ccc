package i2pcontrol

import (
	"errors"
	"fmt"
)

// Method names understood by the router.
const (
	MethodAuthenticate  = "Authenticate"
	MethodEcho          = "Echo"
	MethodRouterInfo    = "RouterInfo"
	MethodRouterManager = "RouterManager"
)

// APIVersion is the I2PControl API level this client speaks.
const APIVersion = 1

// JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// I2PControl error codes, from the implementation-defined range.
const (
	ErrCodeInvalidPassword     = -32001
	ErrCodeNoToken             = -32002
	ErrCodeNonexistentToken    = -32003
	ErrCodeExpiredToken        = -32004
	ErrCodeAPIVersionMissing   = -32005
	ErrCodeAPIVersionUnsupport = -32006
)

// RPCError is an error object returned by the router.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    interface{}
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("i2pcontrol %s: error %d: %s (data: %v)", e.Method, e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("i2pcontrol %s: error %d: %s", e.Method, e.Code, e.Message)
}

// IsTokenError reports whether err means the session token must be renewed.
func IsTokenError(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	switch rpcErr.Code {
	case ErrCodeNoToken, ErrCodeNonexistentToken, ErrCodeExpiredToken:
		return true
	}
	return false
}

// NetStatus is the value of i2p.router.net.status.
type NetStatus int

// Status codes 0 through 4 mean the router is up.
const (
	NetStatusOK NetStatus = iota
	NetStatusTesting
	NetStatusFirewalled
	NetStatusHidden
	NetStatusWarning
	NetStatusError
)

func (s NetStatus) String() string {
	switch s {
	case NetStatusOK:
		return "ok"
	case NetStatusTesting:
		return "testing"
	case NetStatusFirewalled:
		return "firewalled"
	case NetStatusHidden:
		return "hidden"
	case NetStatusWarning:
		return "warning"
	case NetStatusError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Running reports whether the status describes a router that is up.
func (s NetStatus) Running() bool {
	return s >= NetStatusOK && s < NetStatusError
}

// RouterStatus is the subset of RouterInfo the controller reports.
type RouterStatus struct {
	Status    string    `json:"status"`
	NetStatus NetStatus `json:"net_status"`
	Version   string    `json:"version"`
	Uptime    int64     `json:"uptime_ms"`
}
