package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultBasePath is used when no base path is configured.
	DefaultBasePath = "/tmp/opt/i2ptunnelctl"
	// BasePathEnv overrides the engine base path.
	BasePathEnv = "I2PTUNNELCTL_BASE_PATH"
	// DefaultControlPort is the router's client protocol port.
	DefaultControlPort = 7654
	// DefaultI2PControlPort is the standard I2PControl RPC port.
	DefaultI2PControlPort = 7650
)

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			BasePath:        DefaultBasePath,
			JavaBin:         "java",
			StartupTimeout:  5 * time.Minute,
			PollInterval:    time.Second,
			ReadyTimeout:    30 * time.Second,
			ReadyMarker:     "Ready",
			ShutdownTimeout: 2 * time.Minute,
		},
		Staging: StagingConfig{
			Dir: filepath.Join(os.TempDir(), "i2ptunnelctl"),
		},
		Tunnel: TunnelConfig{
			ControlHost: "localhost",
			ControlPort: DefaultControlPort,
		},
		I2PControl: I2PControlConfig{
			Address:            "127.0.0.1:7650",
			Path:               "/jsonrpc/",
			Password:           "itoopie",
			UseHTTPS:           true,
			InsecureSkipVerify: true,
			TokenExpiration:    10 * time.Minute,
			Timeout:            10 * time.Second,
		},
	}
}
