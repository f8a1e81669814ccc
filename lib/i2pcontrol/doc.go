// Package i2pcontrol is a client for the router's I2PControl JSON-RPC 2.0
// interface.
//
// The native engine uses it to observe and stop a router it launched:
// readiness is an authenticated Echo, liveness is the i2p.router.net.status
// field of RouterInfo, and graceful shutdown is RouterManager{"Shutdown"}.
//
// Session tokens returned by Authenticate are cached until TokenExpiration.
// When the router reports a missing, unknown or expired token the client
// drops the cached token, authenticates again and retries the call once.
//
// Example:
//
//	c := i2pcontrol.NewClient(cfg.I2PControl)
//	if err := c.WaitReady(ctx, time.Second); err != nil {
//		return err
//	}
//	status, err := c.Status()
package i2pcontrol
