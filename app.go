package main

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/i2ptunnelctl/lib/engine/native"
	"github.com/go-i2p/i2ptunnelctl/lib/i2pcontrol"
	"github.com/go-i2p/i2ptunnelctl/lib/metrics"
	"github.com/go-i2p/i2ptunnelctl/lib/staging"
	"github.com/go-i2p/i2ptunnelctl/lib/util"
	"github.com/go-i2p/i2ptunnelctl/lib/util/signals"
	"github.com/go-i2p/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// app holds the process-wide collaborators. Each is built at most once and
// shared by every command.
type app struct {
	cfg *config.Config

	ctl    *i2pcontrol.Client
	eng    engine.Engine
	stager *staging.Stager

	// mu guards runtime, which the signal goroutine reads.
	mu      sync.Mutex
	runtime *native.Engine
	// starting is set while a command blocks on a router or tunnel start.
	starting atomic.Bool
}

func loadApp(cfgFile, envFile, metricsAddr string) (*app, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, oops.Wrapf(err, "failed to load %s", envFile)
		}
	}
	config.CfgFile = cfgFile
	if err := config.InitConfig(); err != nil {
		return nil, err
	}
	cfg := config.NewConfigFromViper()
	if metricsAddr != "" {
		cfg.Metrics.Address = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &app{cfg: cfg}, nil
}

func (a *app) control() *i2pcontrol.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctl == nil {
		a.ctl = i2pcontrol.NewClient(a.cfg.I2PControl)
	}
	return a.ctl
}

func (a *app) engine() (engine.Engine, error) {
	if a.eng != nil {
		return a.eng, nil
	}
	eng, err := native.New(a.cfg.Engine, a.control())
	if err != nil {
		return nil, err
	}
	util.RegisterCloser(eng)
	a.mu.Lock()
	a.runtime = eng
	a.mu.Unlock()
	a.eng = engine.Instrument(eng)
	return a.eng, nil
}

func (a *app) staging() (*staging.Stager, error) {
	if a.stager != nil {
		return a.stager, nil
	}
	s, err := staging.NewStager(a.cfg.Staging)
	if err != nil {
		return nil, err
	}
	a.stager = s
	return s, nil
}

// serveMetrics exposes /metrics when an address is configured.
func (a *app) serveMetrics() error {
	if a.cfg.Metrics.Address == "" {
		return nil
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return oops.Wrapf(err, "failed to register metrics")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.cfg.Metrics.Address, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).WithField("address", srv.Addr).Error("metrics server stopped")
		}
	}()
	util.RegisterCloser(srv)
	log.WithFields(logger.Fields{
		"at":      "serveMetrics",
		"address": srv.Addr,
	}).Info("serving metrics")
	return nil
}

var handleSignals sync.Once

// handleInterrupts starts signal handling for the life of the process. An
// interrupt that arrives while a start is in progress closes the runtime,
// so the blocked start fails and the command returns; otherwise it only
// releases waitForInterrupt. A SIGHUP re-reads the configuration.
func (a *app) handleInterrupts() {
	signals.RegisterInterruptHandler(a.abortStartup)
	signals.RegisterReloadHandler(a.reload)
	handleSignals.Do(func() { go signals.Handle() })
}

// whileStarting runs a blocking start step that an interrupt may abort.
func (a *app) whileStarting(step func() error) error {
	a.starting.Store(true)
	defer a.starting.Store(false)
	return step()
}

func (a *app) abortStartup() {
	if !a.starting.Load() {
		return
	}
	a.mu.Lock()
	rt := a.runtime
	a.mu.Unlock()
	if rt == nil {
		return
	}
	log.WithField("at", "abortStartup").Warn("interrupted during startup, terminating child processes")
	if err := rt.Close(); err != nil {
		log.WithError(err).Warn("terminating child processes failed")
	}
}

// reload re-reads the configuration and applies what can change while
// running: the I2PControl password.
func (a *app) reload() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Error("reload: keeping previous configuration")
		return
	}
	cfg := config.NewConfigFromViper()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("reload: keeping previous configuration")
		return
	}
	a.mu.Lock()
	ctl := a.ctl
	a.mu.Unlock()
	if ctl != nil {
		ctl.SetPassword(cfg.I2PControl.Password)
	}
	log.WithField("at", "reload").Info("configuration reloaded")
}

// waitForInterrupt blocks until an interrupt has been handled. Cleanup of
// everything registered with util happens when the command returns.
func waitForInterrupt() {
	<-signals.Interrupted()
}
