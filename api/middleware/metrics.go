package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unmatchedRoute = "unmatched"

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_api_requests_total",
			Help: "Chat API requests by route, status class and whether the caller was identified",
		},
		[]string{"service", "method", "route", "status_class", "caller"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_api_request_duration_seconds",
			Help:    "Chat API request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "method", "route"},
	)

	apiRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_api_requests_in_flight",
			Help: "Chat API requests currently being served",
		},
		[]string{"service"},
	)
)

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// callerLabel is read after the handler chain, so it reflects AuthMiddleware.
func callerLabel(c *gin.Context) string {
	if _, ok := CurrentUser(c); ok {
		return "identified"
	}
	return "anonymous"
}

// RequestMetrics records chat API traffic under the given service label.
func RequestMetrics(service string) gin.HandlerFunc {
	inFlight := apiRequestsInFlight.WithLabelValues(service)
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		inFlight.Inc()
		defer inFlight.Dec()

		c.Next()

		apiRequestsTotal.WithLabelValues(
			service,
			c.Request.Method,
			route,
			statusClass(c.Writer.Status()),
			callerLabel(c),
		).Inc()
		apiRequestDuration.WithLabelValues(service, c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}
