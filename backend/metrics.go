// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics. Each instance has its
// own registry so that tests can create servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	actions        *prometheus.CounterVec
	actionDuration prometheus.Histogram
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	wsClients      prometheus.Gauge
	hubs           prometheus.Gauge
}

// NewMetrics registers the collectors. matchCount, if set, is sampled on
// every scrape.
func NewMetrics(matchCount func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wicketkeeper",
			Name:      "actions_total",
			Help:      "Scoring actions handled, by type and outcome.",
		}, []string{"type", "outcome"}),
		actionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wicketkeeper",
			Name:      "action_duration_seconds",
			Help:      "Time spent applying one action inside a hub.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wicketkeeper",
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method and status code.",
		}, []string{"method", "code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wicketkeeper",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wicketkeeper",
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
		hubs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wicketkeeper",
			Name:      "active_hubs",
			Help:      "Matches with a running hub.",
		}),
	}
	m.registry.MustRegister(m.actions, m.actionDuration, m.requests, m.requestLatency, m.wsClients, m.hubs)
	if matchCount != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "wicketkeeper",
			Name:      "matches",
			Help:      "Matches known to the registry.",
		}, func() float64 { return float64(matchCount()) }))
	}
	return m
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeAction(actionType string, err error, start time.Time) {
	if actionType == "" {
		actionType = "invalid"
	}
	outcome := "ok"
	if err != nil {
		outcome = errorName(err)
	}
	m.actions.WithLabelValues(actionType, outcome).Inc()
	m.actionDuration.Observe(time.Since(start).Seconds())
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the hijacker for websockets.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// metricsMiddleware counts requests and records their latency.
func metricsMiddleware(m *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/ws" {
			// Hijacked connections have no meaningful status or duration.
			m.requests.WithLabelValues(r.Method, "101").Inc()
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		m.requestLatency.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
