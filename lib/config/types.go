package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config is the complete controller configuration.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Staging    StagingConfig    `yaml:"staging"`
	Tunnel     TunnelConfig     `yaml:"tunnel"`
	I2PControl I2PControlConfig `yaml:"i2pcontrol"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// EngineConfig locates and bounds the external runtime.
type EngineConfig struct {
	// BasePath is the directory containing the runtime assets.
	BasePath string `yaml:"base_path"`
	// JavaBin is the JVM launcher used for router and tunnel processes.
	JavaBin string `yaml:"java_bin"`
	// StartupTimeout bounds how long runRouter waits for the router to answer.
	StartupTimeout time.Duration `yaml:"startup_timeout"`
	// PollInterval is the minimum spacing between readiness probes.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ReadyTimeout bounds how long a tunnel launcher may take to report ready.
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
	// ReadyMarker is the launcher output substring that means "configured".
	ReadyMarker string `yaml:"ready_marker"`
	// ShutdownTimeout bounds a graceful router shutdown before it is killed.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LibDir is the directory holding the runtime's jars.
func (c EngineConfig) LibDir() string {
	return filepath.Join(c.BasePath, "lib")
}

// ClassPath is the JVM class path covering every jar in LibDir.
func (c EngineConfig) ClassPath() string {
	return filepath.Join(c.LibDir(), "*")
}

// StagingConfig controls where secret key files are materialized.
type StagingConfig struct {
	// Dir holds staged key files. Relative paths resolve against the
	// working directory when the stager is created.
	Dir string `yaml:"dir"`
}

// TunnelConfig holds settings shared by every tunnel.
type TunnelConfig struct {
	// ControlHost and ControlPort are the router client endpoint HTTP
	// proxies are pointed at before they start.
	ControlHost string `yaml:"control_host"`
	ControlPort int    `yaml:"control_port"`
}

// I2PControlConfig describes how to reach the router's I2PControl endpoint.
type I2PControlConfig struct {
	Address  string `yaml:"address"`
	Path     string `yaml:"path"`
	Password string `yaml:"password"`
	UseHTTPS bool   `yaml:"use_https"`
	// InsecureSkipVerify accepts the router's self-signed certificate.
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	TokenExpiration    time.Duration `yaml:"token_expiration"`
	Timeout            time.Duration `yaml:"timeout"`
}

// URL is the JSON-RPC endpoint.
func (c I2PControlConfig) URL() string {
	scheme := "http"
	if c.UseHTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, c.Address, c.Path)
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Address to serve /metrics on; empty disables the endpoint.
	Address string `yaml:"address"`
}
