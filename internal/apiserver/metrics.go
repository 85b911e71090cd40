// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apiserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsSet is the API Server's Prometheus instrumentation: request
// counts and latencies by route and status.
type metricsSet struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// newMetricsSet builds a fresh, private Prometheus registry per Server
// instance rather than registering into the global default one, so
// standing up more than one Server in the same process (every test in
// this package does) never panics on a duplicate metric registration.
func newMetricsSet() *metricsSet {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metricsSet{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jac",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API Server requests by route and status.",
		}, []string{"route", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jac",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API Server request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *metricsSet) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(route, statusBucket(c.Writer.Status())).Inc()
	}
}

func (m *metricsSet) handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}

func statusBucket(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
