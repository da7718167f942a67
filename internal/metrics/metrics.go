// Package metrics provides Prometheus instrumentation for the riskcore platform.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskcore",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskcore",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReportsPurchasedTotal counts paywall purchases by result.
	ReportsPurchasedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskcore",
			Name:      "reports_purchased_total",
			Help:      "Total report purchase attempts by result.",
		},
		[]string{"result"}, // purchased, already_owned, insufficient_credits, error
	)

	// CreditsConsumedTotal counts credits spent on report purchases.
	CreditsConsumedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riskcore",
		Name:      "credits_consumed_total",
		Help:      "Total credits consumed by report purchases.",
	})

	// CreditsToppedUpTotal counts credits added by top-ups.
	CreditsToppedUpTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riskcore",
		Name:      "credits_topped_up_total",
		Help:      "Total credits added via top-ups.",
	})

	// RiskDataFetchesTotal counts risk data cache lookups by outcome.
	RiskDataFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskcore",
			Name:      "risk_data_fetches_total",
			Help:      "Risk data cache lookups by outcome.",
		},
		[]string{"outcome"}, // hit, miss, coalesced, aborted, error
	)

	// RiskDataFetchDuration observes upstream risk data fetch latency.
	RiskDataFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "riskcore",
		Name:      "risk_data_fetch_duration_seconds",
		Help:      "Upstream risk data fetch duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// ScoresComputedTotal counts scoring engine runs.
	ScoresComputedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "riskcore",
		Name:      "scores_computed_total",
		Help:      "Total profile score computations.",
	})

	// ActiveWebSocketClients tracks connected dashboard clients.
	ActiveWebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "riskcore",
		Name:      "active_websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ReportsPurchasedTotal,
		CreditsConsumedTotal,
		CreditsToppedUpTotal,
		RiskDataFetchesTotal,
		RiskDataFetchDuration,
		ScoresComputedTotal,
		ActiveWebSocketClients,
	)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
