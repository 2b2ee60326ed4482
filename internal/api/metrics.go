// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentdeck_http_requests_total",
		Help: "Number of HTTP requests processed, by method, route and status code",
	}, []string{"method", "route", "code"})

	httpRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agentdeck_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2.0, 12), // 1ms .. ~4s
	})
)

func recordHTTPRequest(r *http.Request, status int, elapsed time.Duration) {
	route := "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			route = pattern
		}
	}
	httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.Observe(elapsed.Seconds())
}
