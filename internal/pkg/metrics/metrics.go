package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "app_idea_analyzer"

// Outcome labels
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeDegraded  = "degraded"
	OutcomeMalformed = "malformed"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_provider_calls_total",
			Help:      "Total number of search provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_provider_duration_seconds",
			Help:      "Duration of search provider calls in seconds",
		},
		[]string{"provider"},
	)

	ProviderResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_provider_results",
			Help:      "Number of normalized results returned per provider call",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		},
		[]string{"provider"},
	)

	LLMCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_completions_total",
			Help:      "Total number of LLM completions by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_completion_duration_seconds",
			Help:      "Duration of LLM completions in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"step"},
	)

	IdeaUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idea_upserts_total",
			Help:      "Total number of idea upserts by store driver and outcome",
		},
		[]string{"driver", "outcome"},
	)
)

// ObserveProvider records one provider call
func ObserveProvider(provider, outcome string, took time.Duration, results int) {
	ProviderCalls.WithLabelValues(provider, outcome).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(took.Seconds())
	if outcome == OutcomeSuccess {
		ProviderResults.WithLabelValues(provider).Observe(float64(results))
	}
}

// ObserveLLM records one completion
func ObserveLLM(step, outcome string, took time.Duration) {
	LLMCompletions.WithLabelValues(step, outcome).Inc()
	LLMDuration.WithLabelValues(step).Observe(took.Seconds())
}

// GinMiddleware records request count and latency by matched route
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
