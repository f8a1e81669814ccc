package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-i2p/i2ptunnelctl/lib/util"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	// CfgFile, when set, is the only config file read.
	CfgFile string
	log     = logger.GetGoI2PLogger()
)

// ConfigDirName is the per-user configuration directory under $HOME.
const ConfigDirName = ".i2ptunnelctl"

// InitConfig prepares the global viper instance: defaults, environment
// binding and, if present, the config file. A missing default config file
// is not an error; a missing explicit CfgFile is.
func InitConfig() error {
	if CfgFile != "" {
		viper.SetConfigFile(CfgFile)
	} else {
		viper.AddConfigPath(BuildConfigDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && CfgFile == "" {
			log.WithField("dir", BuildConfigDirPath()).Debug("no config file, using defaults")
			return nil
		}
		return oops.Wrapf(err, "failed to read config file")
	}
	log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	return nil
}

func setDefaults() {
	d := Defaults()

	viper.SetDefault("engine.base_path", d.Engine.BasePath)
	viper.SetDefault("engine.java_bin", d.Engine.JavaBin)
	viper.SetDefault("engine.startup_timeout", d.Engine.StartupTimeout)
	viper.SetDefault("engine.poll_interval", d.Engine.PollInterval)
	viper.SetDefault("engine.ready_timeout", d.Engine.ReadyTimeout)
	viper.SetDefault("engine.ready_marker", d.Engine.ReadyMarker)
	viper.SetDefault("engine.shutdown_timeout", d.Engine.ShutdownTimeout)

	viper.SetDefault("staging.dir", d.Staging.Dir)

	viper.SetDefault("tunnel.control_host", d.Tunnel.ControlHost)
	viper.SetDefault("tunnel.control_port", d.Tunnel.ControlPort)

	viper.SetDefault("i2pcontrol.address", d.I2PControl.Address)
	viper.SetDefault("i2pcontrol.path", d.I2PControl.Path)
	viper.SetDefault("i2pcontrol.password", d.I2PControl.Password)
	viper.SetDefault("i2pcontrol.use_https", d.I2PControl.UseHTTPS)
	viper.SetDefault("i2pcontrol.insecure_skip_verify", d.I2PControl.InsecureSkipVerify)
	viper.SetDefault("i2pcontrol.token_expiration", d.I2PControl.TokenExpiration)
	viper.SetDefault("i2pcontrol.timeout", d.I2PControl.Timeout)

	viper.SetDefault("metrics.address", d.Metrics.Address)
}

func bindEnv() {
	viper.SetEnvPrefix("I2PTUNNELCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// The base path keeps its short, historical variable name.
	if err := viper.BindEnv("engine.base_path", BasePathEnv); err != nil {
		log.WithError(err).Warn("failed to bind base path environment variable")
	}
}

// NewConfigFromViper builds a Config from the current viper settings.
func NewConfigFromViper() *Config {
	return &Config{
		Engine: EngineConfig{
			BasePath:        viper.GetString("engine.base_path"),
			JavaBin:         viper.GetString("engine.java_bin"),
			StartupTimeout:  viper.GetDuration("engine.startup_timeout"),
			PollInterval:    viper.GetDuration("engine.poll_interval"),
			ReadyTimeout:    viper.GetDuration("engine.ready_timeout"),
			ReadyMarker:     viper.GetString("engine.ready_marker"),
			ShutdownTimeout: viper.GetDuration("engine.shutdown_timeout"),
		},
		Staging: StagingConfig{
			Dir: viper.GetString("staging.dir"),
		},
		Tunnel: TunnelConfig{
			ControlHost: viper.GetString("tunnel.control_host"),
			ControlPort: viper.GetInt("tunnel.control_port"),
		},
		I2PControl: I2PControlConfig{
			Address:            viper.GetString("i2pcontrol.address"),
			Path:               viper.GetString("i2pcontrol.path"),
			Password:           viper.GetString("i2pcontrol.password"),
			UseHTTPS:           viper.GetBool("i2pcontrol.use_https"),
			InsecureSkipVerify: viper.GetBool("i2pcontrol.insecure_skip_verify"),
			TokenExpiration:    viper.GetDuration("i2pcontrol.token_expiration"),
			Timeout:            viper.GetDuration("i2pcontrol.timeout"),
		},
		Metrics: MetricsConfig{
			Address: viper.GetString("metrics.address"),
		},
	}
}

// Validate checks values a component cannot work around.
func (c *Config) Validate() error {
	if c.Engine.BasePath == "" {
		return oops.Errorf("engine.base_path must not be empty")
	}
	if c.Tunnel.ControlPort <= 0 || c.Tunnel.ControlPort > 65535 {
		return oops.Errorf("tunnel.control_port %d out of range", c.Tunnel.ControlPort)
	}
	if c.Staging.Dir == "" {
		return oops.Errorf("staging.dir must not be empty")
	}
	return nil
}

// YAML renders the configuration. The I2PControl password is masked.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	if masked.I2PControl.Password != "" {
		masked.I2PControl.Password = "********"
	}
	return yaml.Marshal(&masked)
}

// WriteDefault writes the default configuration to dir/config.yaml with
// 0600 permissions, creating dir if needed. An existing file is left alone.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, "config.yaml")
	if util.CheckFileExists(path) {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", oops.Wrapf(err, "could not create config directory")
	}
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return "", oops.Wrapf(err, "could not render default config")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", oops.Wrapf(err, "could not write default config")
	}
	log.WithField("file", path).Info("wrote default configuration")
	return path, nil
}

// BuildConfigDirPath returns $HOME/.i2ptunnelctl.
func BuildConfigDirPath() string {
	return filepath.Join(util.UserHome(), ConfigDirName)
}
