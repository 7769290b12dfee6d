package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	daemonStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oratr",
			Subsystem: "daemon",
			Name:      "starts_total",
			Help:      "Daemon start attempts by outcome (ok, already_running, timeout, error).",
		}, []string{"outcome"},
	)
	daemonStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oratr",
			Subsystem: "daemon",
			Name:      "stops_total",
			Help:      "Daemon stop attempts by outcome (graceful, term, kill, not_running).",
		}, []string{"outcome"},
	)
	daemonStartupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "oratr",
			Subsystem: "daemon",
			Name:      "startup_duration_seconds",
			Help:      "Time from launch until the daemon answered its readiness probe.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	synthRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oratr",
			Subsystem: "synth",
			Name:      "requests_total",
			Help:      "Synthesis requests by status (ok, error, bad_request).",
		}, []string{"status"},
	)
	synthDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "oratr",
			Subsystem: "synth",
			Name:      "duration_seconds",
			Help:      "Wall time of synthesis requests.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oratr",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served by the daemon, by path and status code.",
		}, []string{"path", "code"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{daemonStarts, daemonStops, daemonStartupDuration, synthRequests, synthDuration, httpRequests}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// already registered is fine with the default registry
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// RegisterDefault registers the collectors with the default registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncDaemonStart(outcome string) {
	if regOK.Load() {
		daemonStarts.WithLabelValues(outcome).Inc()
	}
}

func IncDaemonStop(outcome string) {
	if regOK.Load() {
		daemonStops.WithLabelValues(outcome).Inc()
	}
}

func ObserveStartupDuration(seconds float64) {
	if regOK.Load() {
		daemonStartupDuration.Observe(seconds)
	}
}

func ObserveSynthesis(status string, seconds float64) {
	if regOK.Load() {
		synthRequests.WithLabelValues(status).Inc()
		synthDuration.Observe(seconds)
	}
}

func IncHTTPRequest(path, code string) {
	if regOK.Load() {
		httpRequests.WithLabelValues(path, code).Inc()
	}
}
