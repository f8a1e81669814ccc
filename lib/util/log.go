// Package util holds small process-level helpers: the exit-time closer
// registry, home directory lookup and environment errors.
package util

import "github.com/go-i2p/logger"

var log = logger.GetGoI2PLogger()
