package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	CfgFile = ""
	t.Cleanup(func() {
		viper.Reset()
		CfgFile = ""
	})
}

func TestDefaultsFromViper(t *testing.T) {
	resetViper(t)
	t.Setenv(BasePathEnv, "")
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, InitConfig())
	cfg := NewConfigFromViper()

	d := Defaults()
	assert.Equal(t, d.Engine.JavaBin, cfg.Engine.JavaBin)
	assert.Equal(t, 5*time.Minute, cfg.Engine.StartupTimeout)
	assert.Equal(t, "Ready", cfg.Engine.ReadyMarker)
	assert.Equal(t, "localhost", cfg.Tunnel.ControlHost)
	assert.Equal(t, DefaultControlPort, cfg.Tunnel.ControlPort)
	assert.Equal(t, d.Staging.Dir, cfg.Staging.Dir)
	assert.Equal(t, "itoopie", cfg.I2PControl.Password)
	assert.NoError(t, cfg.Validate())
}

func TestBasePathFromEnvironment(t *testing.T) {
	resetViper(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(BasePathEnv, "/srv/i2p")

	require.NoError(t, InitConfig())
	cfg := NewConfigFromViper()
	assert.Equal(t, "/srv/i2p", cfg.Engine.BasePath)
	assert.Equal(t, filepath.Join("/srv/i2p", "lib"), cfg.Engine.LibDir())
	assert.Equal(t, filepath.Join("/srv/i2p", "lib", "*"), cfg.Engine.ClassPath())
}

func TestBasePathDefaultWhenUnset(t *testing.T) {
	resetViper(t)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.Unsetenv(BasePathEnv))

	require.NoError(t, InitConfig())
	assert.Equal(t, DefaultBasePath, NewConfigFromViper().Engine.BasePath)
}

func TestConfigFileOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv(BasePathEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("engine:\n  base_path: /opt/i2p\n  ready_marker: Configured\ntunnel:\n  control_port: 17654\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	CfgFile = path
	require.NoError(t, InitConfig())
	cfg := NewConfigFromViper()
	assert.Equal(t, "/opt/i2p", cfg.Engine.BasePath)
	assert.Equal(t, "Configured", cfg.Engine.ReadyMarker)
	assert.Equal(t, 17654, cfg.Tunnel.ControlPort)
}

func TestExplicitMissingConfigFileFails(t *testing.T) {
	resetViper(t)
	CfgFile = filepath.Join(t.TempDir(), "absent.yaml")
	assert.Error(t, InitConfig())
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	bad := Defaults()
	bad.Engine.BasePath = ""
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Tunnel.ControlPort = 70000
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Staging.Dir = ""
	assert.Error(t, bad.Validate())
}

func TestYAMLMasksPassword(t *testing.T) {
	cfg := Defaults()
	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "itoopie")
	assert.Equal(t, "itoopie", cfg.I2PControl.Password, "YAML must not modify the receiver")

	var decoded Config
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, cfg.Engine.BasePath, decoded.Engine.BasePath)
	assert.Equal(t, cfg.Tunnel.ControlPort, decoded.Tunnel.ControlPort)
}

func TestI2PControlURL(t *testing.T) {
	c := I2PControlConfig{Address: "127.0.0.1:7650", Path: "/jsonrpc/", UseHTTPS: true}
	assert.Equal(t, "https://127.0.0.1:7650/jsonrpc/", c.URL())
	c.UseHTTPS = false
	assert.Equal(t, "http://127.0.0.1:7650/jsonrpc/", c.URL())
}

func TestWriteDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ConfigDirName)
	path, err := WriteDefault(dir)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(path, []byte("custom: true\n"), 0o600))
	again, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom: true\n", string(data), "existing file must not be overwritten")
}
