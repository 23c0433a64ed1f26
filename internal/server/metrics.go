// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elastic/sensorchart/internal/chart"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	renders        *prometheus.CounterVec
	renderLatency  prometheus.Histogram
	samples        prometheus.Gauge
	gaps           prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorchart_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sensorchart_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorchart_renders_total",
				Help: "Chart renders by outcome.",
			},
			[]string{"outcome"},
		),
		renderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sensorchart_render_duration_seconds",
			Help:    "Fetch plus render latency.",
			Buckets: prometheus.DefBuckets,
		}),
		samples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorchart_last_render_samples",
			Help: "Readings in the last successful render.",
		}),
		gaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorchart_last_render_gaps",
			Help: "Missing readings in the last successful render.",
		}),
	}
	reg.MustRegister(m.requests, m.requestLatency, m.renders, m.renderLatency, m.samples, m.gaps)
	return m
}

func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		m.requests.WithLabelValues(route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.requestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) observeRender(out *chart.RenderOutput, err error, took time.Duration) {
	m.renders.WithLabelValues(outcome(err)).Inc()
	m.renderLatency.Observe(took.Seconds())
	if err == nil && out != nil {
		m.samples.Set(float64(out.SampleCount))
		m.gaps.Set(float64(out.GapCount))
	}
}
