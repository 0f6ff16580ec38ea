// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lentos"

// Metrics contains the application's Prometheus metrics.
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	Registrations  *prometheus.CounterVec
	SessionsPruned prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers the application metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of registration attempts by result",
			},
			[]string{"result"},
		),
		SessionsPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_pruned_total",
				Help:      "Total number of expired sessions removed",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(m.LoginAttempts, m.Registrations, m.SessionsPruned, m.HTTPRequests, m.HTTPDuration)
	return m
}

// LoginAttempt records a login by result.
func (m *Metrics) LoginAttempt(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// Registration records a registration by result.
func (m *Metrics) Registration(result string) {
	m.Registrations.WithLabelValues(result).Inc()
}

// Pruned records removed sessions.
func (m *Metrics) Pruned(n int64) {
	if n > 0 {
		m.SessionsPruned.Add(float64(n))
	}
}

// ObserveHTTP records one served request. route is the matched route
// pattern, never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
