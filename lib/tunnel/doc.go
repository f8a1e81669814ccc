// Package tunnel assembles tunnel launcher invocations and starts them.
//
// A Controller holds the shared engine and stager. Controller.New builds a
// Tunnel, generating an identity for server tunnels; Tunnel.Start turns it
// into the launcher's argument list and constructs the launcher on the
// engine. Every launcher runs non-interactively and dies with its parent:
//
//	server:  -die -nocli -e "server <host> <port> <abs key path>"
//	http:    -die -nocli -e "config <control host> <control port>" -e "httpclient <port>"
//	socks:   -die -nocli -e "sockstunnel <port>"
//
// Commands are tokens joined by single spaces. Hosts are not checked for
// whitespace; callers pass well-formed values.
//
// For server tunnels the secret is staged only for the duration of the
// construct call and released on every path. A staging failure aborts the
// start before the engine is touched, so a tunnel is never left half up.
package tunnel
