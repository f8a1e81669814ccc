//go:build !windows

package signals

import (
	"os"
	"os/signal"
	"syscall"
)

func init() {
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

func isInterrupt(sig os.Signal) bool {
	return sig == syscall.SIGINT || sig == syscall.SIGTERM
}

func isReload(sig os.Signal) bool {
	return sig == syscall.SIGHUP
}
