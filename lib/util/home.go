package util

import (
	"os"
)

// UserHome returns the current user's home directory, falling back to
// $HOME and then to the working directory. It panics only when none of
// these can be determined.
func UserHome() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return homeDir
	}
	if home := os.Getenv("HOME"); home != "" {
		log.WithError(err).Warn("os.UserHomeDir failed, falling back to $HOME")
		return home
	}
	if wd, wdErr := WorkingDir(); wdErr == nil {
		log.WithError(err).Warn("home directory unavailable; falling back to working directory")
		return wd
	}
	panic("i2ptunnelctl: unable to determine home directory; set $HOME")
}
