package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvironmentError is a local filesystem or OS failure unrelated to the
// engine, such as an unreadable working directory.
type EnvironmentError struct {
	Op  string
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment: %s: %v", e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// WorkingDir returns the current working directory.
func WorkingDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", &EnvironmentError{Op: "getwd", Err: err}
	}
	return wd, nil
}

// AbsPath resolves p against the working directory.
func AbsPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	wd, err := WorkingDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}
