package tunnel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/i2ptunnelctl/lib/metrics"
	"github.com/go-i2p/i2ptunnelctl/lib/staging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, m *engine.MockEngine) (*Controller, *staging.Stager) {
	t.Helper()
	stager, err := staging.NewStager(config.StagingConfig{Dir: filepath.Join(t.TempDir(), "staging")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = stager.Close() })
	return NewController(m, stager, config.Defaults().Tunnel), stager
}

func TestServerTunnelArguments(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, stager := newTestController(t, m)

	var (
		existedDuringConstruct bool
		stagedPath             string
	)
	m.OnConstruct = func(class engine.Class, args []any) {
		if class != engine.ClassI2PTunnel {
			return
		}
		cmd := args[len(args)-1].(string)
		stagedPath = cmd[strings.LastIndex(cmd, " ")+1:]
		_, err := os.Stat(stagedPath)
		existedDuringConstruct = err == nil
	}

	tun, err := ctl.New("127.0.0.1", 8080, KindServer)
	require.NoError(t, err)
	assert.Equal(t, StateIdentityGenerated, tun.State())
	require.NoError(t, tun.Start())
	assert.Equal(t, StateStarted, tun.State())

	captured := m.Constructed(engine.ClassI2PTunnel)
	require.Len(t, captured, 1)
	args := captured[0]
	require.Len(t, args, 4)
	assert.Equal(t, []string{"-die", "-nocli", "-e"}, args[:3])

	require.True(t, filepath.IsAbs(stagedPath), "staged path %q must be absolute", stagedPath)
	assert.Equal(t, "server 127.0.0.1 8080 "+stagedPath, args[3])
	assert.Equal(t, stager.Dir(), filepath.Dir(stagedPath))

	assert.True(t, existedDuringConstruct, "secret must be on disk while the launcher starts")
	assert.NoFileExists(t, stagedPath, "secret must be released after the launcher starts")
	assert.Zero(t, stager.Live())
}

func TestSocksTunnelArguments(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, _ := newTestController(t, m)

	tun, err := ctl.New("", 1080, KindSocks)
	require.NoError(t, err)
	require.NoError(t, tun.Start())

	assert.Equal(t, [][]string{{"-die", "-nocli", "-e", "sockstunnel 1080"}}, m.Constructed(engine.ClassI2PTunnel))
}

func TestHTTPTunnelArguments(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, _ := newTestController(t, m)

	tun, err := ctl.New("", 4444, KindHTTP)
	require.NoError(t, err)
	require.NoError(t, tun.Start())

	assert.Equal(t,
		[][]string{{"-die", "-nocli", "-e", "config localhost 7654", "-e", "httpclient 4444"}},
		m.Constructed(engine.ClassI2PTunnel))
}

func TestHTTPTunnelCustomControlEndpoint(t *testing.T) {
	m := engine.NewMockEngine()
	ctl := NewController(m, nil, config.TunnelConfig{ControlHost: "127.0.0.1", ControlPort: 17654})

	tun, err := ctl.New("", 4444, KindHTTP)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"-die", "-nocli", "-e", "config 127.0.0.1 17654", "-e", "httpclient 4444"},
		tun.Args(""))
}

func TestIdentityPresentOnlyForServers(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, _ := newTestController(t, m)

	for _, kind := range []Kind{KindHTTP, KindSocks, KindServer} {
		tun, err := ctl.New("127.0.0.1", 9000, kind)
		require.NoError(t, err)
		dest, ok := tun.Destination()
		assert.Equal(t, kind == KindServer, ok, kind.String())
		assert.Equal(t, ok, tun.identity != nil)
		if ok {
			assert.True(t, strings.HasSuffix(dest, ".b32.i2p"))
		} else {
			assert.Empty(t, dest)
			assert.Equal(t, StateConstructed, tun.State())
		}
	}
	assert.Equal(t, 1, m.CountInvocations(engine.MethodCreateDestination), "only the server generates an identity")
}

func TestIdentityFailureFailsConstruction(t *testing.T) {
	m := engine.NewMockEngine()
	m.FailInvoke[engine.MethodGetSk] = errors.New("no key")
	ctl, _ := newTestController(t, m)

	tun, err := ctl.New("127.0.0.1", 8080, KindServer)
	assert.Nil(t, tun)
	assert.ErrorIs(t, err, engine.ErrInvocationFailed)
}

func TestStagingFailureNeverInvokesEngine(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, stager := newTestController(t, m)

	tun, err := ctl.New("127.0.0.1", 8080, KindServer)
	require.NoError(t, err)
	// Replace the staging directory with a file so every write fails.
	require.NoError(t, os.RemoveAll(stager.Dir()))
	require.NoError(t, os.WriteFile(stager.Dir(), []byte("x"), 0o600))

	err = tun.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, staging.ErrWriteFailed)
	assert.Empty(t, m.Constructed(engine.ClassI2PTunnel))
	assert.Equal(t, StateIdentityGenerated, tun.State())
}

func TestEngineFailureReleasesSecret(t *testing.T) {
	m := engine.NewMockEngine()
	m.FailConstruct[engine.ClassI2PTunnel] = errors.New("launcher crashed")
	ctl, stager := newTestController(t, m)

	tun, err := ctl.New("127.0.0.1", 8080, KindServer)
	require.NoError(t, err)
	err = tun.Start()
	assert.ErrorIs(t, err, engine.ErrConstructionFailed)
	assert.Equal(t, StateIdentityGenerated, tun.State())
	assert.Zero(t, stager.Live())

	entries, err := os.ReadDir(stager.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSecondStartIsInvalidState(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, _ := newTestController(t, m)

	tun, err := ctl.New("", 1080, KindSocks)
	require.NoError(t, err)
	require.NoError(t, tun.Start())

	err = tun.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidState)
	assert.Len(t, m.Constructed(engine.ClassI2PTunnel), 1)
}

func TestStartAfterLaunchWithReleaseFailure(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, stager := newTestController(t, m)
	m.OnConstruct = func(class engine.Class, args []any) {
		if class != engine.ClassI2PTunnel {
			return
		}
		cmd := args[len(args)-1].(string)
		path := cmd[strings.LastIndex(cmd, " ")+1:]
		// A non-empty directory in place of the key file cannot be removed.
		require.NoError(t, os.Remove(path))
		require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o700))
	}

	tun, err := ctl.New("127.0.0.1", 8080, KindServer)
	require.NoError(t, err)
	err = tun.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, staging.ErrWriteFailed)
	assert.Equal(t, StateStarted, tun.State(), "the launcher is running")
	assert.Equal(t, 1, stager.Live())

	err = tun.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidState)
	assert.Contains(t, err.Error(), "its start reported")
	assert.Len(t, m.Constructed(engine.ClassI2PTunnel), 1)
}

func TestStartAll(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, stager := newTestController(t, m)

	var tunnels []*Tunnel
	for i := 0; i < 10; i++ {
		tun, err := ctl.New("127.0.0.1", uint16(8000+i), KindServer)
		require.NoError(t, err)
		tunnels = append(tunnels, tun)
	}
	socks, err := ctl.New("", 1080, KindSocks)
	require.NoError(t, err)
	tunnels = append(tunnels, socks)

	var mu sync.Mutex
	paths := make(map[string]bool)
	m.OnConstruct = func(_ engine.Class, args []any) {
		cmd := args[len(args)-1].(string)
		if strings.HasPrefix(cmd, "server ") {
			mu.Lock()
			paths[cmd[strings.LastIndex(cmd, " ")+1:]] = true
			mu.Unlock()
		}
	}

	require.NoError(t, ctl.StartAll(context.Background(), tunnels...))
	for _, tun := range tunnels {
		assert.Equal(t, StateStarted, tun.State())
	}
	assert.Len(t, paths, 10, "each server stages its own file")
	assert.Zero(t, stager.Live())
}

func TestStartAllCancelled(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, _ := newTestController(t, m)
	tun, err := ctl.New("", 1080, KindSocks)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ctl.StartAll(ctx, tun), context.Canceled)
	assert.Empty(t, m.Constructed(engine.ClassI2PTunnel))
}

func TestTunnelStartsMetric(t *testing.T) {
	m := engine.NewMockEngine()
	ctl, _ := newTestController(t, m)
	ok := metrics.TunnelStarts.WithLabelValues("socks", metrics.ResultOK)
	before := testutil.ToFloat64(ok)

	tun, err := ctl.New("", 1080, KindSocks)
	require.NoError(t, err)
	require.NoError(t, tun.Start())
	assert.Equal(t, before+1, testutil.ToFloat64(ok))
}

func TestInvalidKind(t *testing.T) {
	ctl, _ := newTestController(t, engine.NewMockEngine())
	_, err := ctl.New("", 1, Kind(42))
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"http": KindHTTP, "SOCKS": KindSocks, " server ": KindServer} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(in)), got.String())
	}
	_, err := ParseKind("irc")
	assert.Error(t, err)
}
