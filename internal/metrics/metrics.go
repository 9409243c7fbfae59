// Package metrics collects and exposes Prometheus metrics for Corral.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Corral-specific Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	SignalsRelayed      *prometheus.CounterVec
	ChildExits          *prometheus.CounterVec
	ChildRunning        prometheus.Gauge
	TeardownKillRetries prometheus.Counter
	TeardownSurvivors   prometheus.Gauge
	BuildInfo           *prometheus.GaugeVec
}

// New creates and registers all Corral metrics.
func New() *Collector {
	reg := prometheus.NewRegistry()

	// Register default Go runtime metrics.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,

		SignalsRelayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corral_signals_relayed_total",
				Help: "Signals observed through the relay channel.",
			},
			[]string{"signal"},
		),

		ChildExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corral_child_exits_total",
				Help: "Supervised child terminations by outcome.",
			},
			[]string{"outcome"},
		),

		ChildRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corral_child_running",
				Help: "1 while the supervised child is running.",
			},
		),

		TeardownKillRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corral_teardown_kill_retries_total",
				Help: "Kill-burst iterations needed during teardown.",
			},
		),

		TeardownSurvivors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corral_teardown_survivors",
				Help: "Processes still listed in membership files after both kill bursts.",
			},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corral_info",
				Help: "Build information about Corral.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		c.SignalsRelayed,
		c.ChildExits,
		c.ChildRunning,
		c.TeardownKillRetries,
		c.TeardownSurvivors,
		c.BuildInfo,
	)

	return c
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetBuildInfo sets the constant build info gauge.
func (c *Collector) SetBuildInfo(version, goVersion string) {
	c.BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// ObserveSignal counts one relayed signal.
func (c *Collector) ObserveSignal(name string) {
	c.SignalsRelayed.WithLabelValues(name).Inc()
}

// ObserveChildExit counts a child termination. Outcome is "exited" for a
// normal exit, "signaled" for death by signal.
func (c *Collector) ObserveChildExit(outcome string) {
	c.ChildExits.WithLabelValues(outcome).Inc()
	c.ChildRunning.Set(0)
}
