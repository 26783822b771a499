package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interviewer"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_requests_total",
		Help:      "Total number of LLM requests by agent, model and status",
	}, []string{"agent", "model", "status"})

	llmTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_tokens_total",
		Help:      "Total number of tokens used in LLM requests",
	}, []string{"agent", "model", "type"})

	llmCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_cost_usd_total",
		Help:      "Estimated LLM cost in USD",
	}, []string{"agent", "model"})

	llmLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Duration of LLM requests in seconds",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40, 60},
	}, []string{"agent", "model"})

	llmRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_retries_total",
		Help:      "Total number of retried LLM requests",
	}, []string{"agent"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_cache_lookups_total",
		Help:      "LLM response cache lookups by result",
	}, []string{"result"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interview_transitions_total",
		Help:      "Interview lifecycle transitions",
	}, []string{"from", "to"})

	turns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversation_turns_total",
		Help:      "Processed candidate messages by classification",
	}, []string{"classification", "complete"})
)

// Middleware records request metrics labelled by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		httpLatency.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// ObserveLLMRequest records one provider round trip. Token and cost counters
// only move on success.
func ObserveLLMRequest(agent, model string, promptTokens, completionTokens int, cost float64, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	llmRequests.WithLabelValues(agent, model, status).Inc()
	llmLatency.WithLabelValues(agent, model).Observe(d.Seconds())
	if err != nil {
		return
	}
	llmTokens.WithLabelValues(agent, model, "prompt").Add(float64(promptTokens))
	llmTokens.WithLabelValues(agent, model, "completion").Add(float64(completionTokens))
	llmCost.WithLabelValues(agent, model).Add(cost)
}

func IncLLMRetry(agent string) {
	llmRetries.WithLabelValues(agent).Inc()
}

func ObserveCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func ObserveTransition(from, to string) {
	transitions.WithLabelValues(from, to).Inc()
}

func ObserveTurn(classification string, complete bool) {
	turns.WithLabelValues(classification, strconv.FormatBool(complete)).Inc()
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
