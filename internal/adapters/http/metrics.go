package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's Prometheus instruments and the /metrics
// handler that exposes them.
type metrics struct {
	renders  *prometheus.CounterVec
	duration prometheus.Histogram
	tokens   prometheus.Histogram
	handler  http.Handler
}

func newMetrics(reg *prometheus.Registry) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &metrics{
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_renders_total",
				Help: "Total number of render requests",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "espalier_render_duration_seconds",
				Help: "Duration of render requests",
			},
		),
		tokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "espalier_prompt_tokens",
				Help:    "Token counts of rendered prompts",
				Buckets: prometheus.ExponentialBuckets(64, 2, 12),
			},
		),
	}
	reg.MustRegister(m.renders, m.duration, m.tokens)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}
