// Package metrics holds the Prometheus collectors shared by the controller.
// Collectors live in a standalone package so engine, staging and tunnel can
// record without importing each other.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EngineCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "i2ptunnelctl",
		Name:      "engine_calls_total",
		Help:      "Calls made across the engine boundary",
	}, []string{"op", "method", "result"})

	StagedSecrets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "i2ptunnelctl",
		Name:      "staged_secrets",
		Help:      "Secret key files currently present on disk",
	})

	TunnelStarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "i2ptunnelctl",
		Name:      "tunnel_starts_total",
		Help:      "Tunnel start attempts by kind and outcome",
	}, []string{"kind", "result"})
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Outcome maps an error to a result label.
func Outcome(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// Register registers all collectors on reg, or the default registerer if nil.
// Collectors already registered are not an error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{EngineCalls, StagedSecrets, TunnelStarts} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
