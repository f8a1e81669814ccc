package tunnel

import (
	"strings"

	"github.com/samber/oops"
)

// Kind is the closed set of tunnel types.
type Kind int

const (
	// KindHTTP is an outbound HTTP proxy.
	KindHTTP Kind = iota + 1
	// KindSocks is an outbound SOCKS proxy.
	KindSocks
	// KindServer publishes a local service under its own identity.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindSocks:
		return "socks"
	case KindServer:
		return "server"
	default:
		return "invalid"
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= KindHTTP && k <= KindServer
}

// NeedsIdentity reports whether tunnels of this kind carry a KeyPair.
func (k Kind) NeedsIdentity() bool {
	return k == KindServer
}

// ParseKind maps "http", "socks" or "server" (any case) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http":
		return KindHTTP, nil
	case "socks":
		return KindSocks, nil
	case "server":
		return KindServer, nil
	default:
		return 0, oops.Errorf("unknown tunnel kind %q", s)
	}
}
