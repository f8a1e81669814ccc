// Package staging materializes tunnel secrets on disk for as long as the
// engine needs to read them.
//
// A staged secret is the raw private key file, decoded from its I2P base64
// text and written to <dir>/sk.<token>.dat, where token is 256 random bits
// in hex. The file is created exclusively with mode 0600 inside a 0700
// directory, and it is synced and closed before Stage returns, so its path
// can be handed straight to the engine.
//
// Every staged file must be removed. Callers release it as soon as the
// engine has consumed it, preferably through With, which releases on every
// exit path including panics. As a backstop each Stager registers itself
// with util.RegisterCloser so util.CloseAll removes whatever is still live
// at process exit.
package staging
