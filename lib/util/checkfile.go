package util

import (
	"os"
)

// CheckFileExists reports whether fpath can be stat'ed.
func CheckFileExists(fpath string) bool {
	_, e := os.Stat(fpath)
	return e == nil
}

// CheckDirExists reports whether fpath exists and is a directory.
func CheckDirExists(fpath string) bool {
	info, err := os.Stat(fpath)
	return err == nil && info.IsDir()
}
