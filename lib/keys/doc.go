// Package keys generates I2P destination identities and serializes them in
// the private key file layout the tunnel runtime reads:
//
//	Destination (KeysAndCert) || X25519 private key || Ed25519 private key
//
// Destinations use Ed25519 signing and X25519 encryption. Nothing in this
// package writes to disk; callers decide where, and for how long, the bytes
// live.
package keys
