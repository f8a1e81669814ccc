package main

import (
	"fmt"
	"os"

	"github.com/go-i2p/i2ptunnelctl/lib/util"
	"github.com/go-i2p/i2ptunnelctl/lib/util/signals"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

func main() {
	err := newRootCmd().Execute()
	signals.StopHandle()
	if closeErr := util.CloseAll(); closeErr != nil {
		log.WithError(closeErr).Warn("cleanup incomplete")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
