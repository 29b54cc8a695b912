// Package metrics exposes Prometheus collectors for the tank daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	LevelPercent  prometheus.Gauge
	PumpRunning   prometheus.Gauge
	DaysRemaining prometheus.Gauge

	PumpStartsTotal  prometheus.Counter
	PumpStopsTotal   prometheus.Counter
	HardOffTotal     prometheus.Counter
	FailsafeTotal    prometheus.Counter
	SensorFaultTotal prometheus.Counter

	ScansTotal *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		LevelPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tank",
			Name:      "level_percent",
			Help:      "Smoothed tank level",
		}),
		PumpRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tank",
			Name:      "pump_running_binary",
			Help:      "Registers when the pump is commanded on",
		}),
		DaysRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tank",
			Name:      "days_remaining",
			Help:      "Predicted days until depletion (0 when insufficient data)",
		}),
		PumpStartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tank",
			Name:      "pump_starts_total",
			Help:      "Increase when the pump turns on",
		}),
		PumpStopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tank",
			Name:      "pump_stops_total",
			Help:      "Increase when the pump turns off at the off threshold",
		}),
		HardOffTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tank",
			Name:      "hard_off_total",
			Help:      "Increase when the overfill cutoff stopped the pump",
		}),
		FailsafeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tank",
			Name:      "failsafe_total",
			Help:      "Increase when sensor failure forced the pump off",
		}),
		SensorFaultTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tank",
			Name:      "sensor_fault_total",
			Help:      "Increase when a sensor read is missing or garbled",
		}),
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tank",
			Name:      "leak_scans_total",
			Help:      "Leak scans by classification",
		}, []string{"classification"}),
	}

	reg.MustRegister(
		m.LevelPercent,
		m.PumpRunning,
		m.DaysRemaining,
		m.PumpStartsTotal,
		m.PumpStopsTotal,
		m.HardOffTotal,
		m.FailsafeTotal,
		m.SensorFaultTotal,
		m.ScansTotal,
	)
	return m
}

// Handler returns the /metrics HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
