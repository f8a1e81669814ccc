// Package config loads controller configuration through viper.
//
// Configuration is read once, at startup, from $HOME/.i2ptunnelctl/config.yaml
// (or the file named by CfgFile) and from the environment. The result is an
// explicit *Config whose sections are handed to each component at
// construction time; no component reads process environment on its own, so
// tests build a Config directly instead of mutating the environment.
//
// The engine base path is the one setting most deployments override. It
// names the directory holding the tunnel runtime's assets and is bound to
// the I2PTUNNELCTL_BASE_PATH environment variable, falling back to
// DefaultBasePath when unset.
package config
