// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the application collectors.
type Metrics struct {
	Registrations   *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	GateRejections  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a dedicated registry with Go/process collectors and the
// application metrics registered on it.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "students_registrations_total",
				Help: "Total number of registration attempts by result",
			},
			[]string{"result"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "students_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		GateRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "students_gate_rejections_total",
				Help: "Total number of requests rejected by the auth gate by reason",
			},
			[]string{"reason"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "students_http_request_duration_seconds",
				Help:    "HTTP request latency by method, route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		registry: registry,
	}

	registry.MustRegister(m.Registrations, m.Logins, m.GateRejections, m.RequestDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
