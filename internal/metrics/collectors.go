package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "search_requests_total",
			Help:      "Total number of knowledge search requests",
		},
		[]string{"status"}, // "success" / "error" / "rate_limited"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "draftmill",
			Name:      "search_duration_seconds",
			Help:      "Knowledge search duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "search_cache_total",
			Help:      "Knowledge search cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	StrategyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "strategy_requests_total",
			Help:      "Per-strategy retrieval outcomes",
		},
		[]string{"strategy", "status"}, // "success" / "error"
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the fixed-window limiter",
		},
		[]string{"api"},
	)
)

// Workflow Prometheus metrics.
var (
	WorkflowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "workflows_total",
			Help:      "Completed workflows by terminal status",
		},
		[]string{"status"}, // "completed" / "failed"
	)

	ActiveWorkflows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "draftmill",
			Name:      "active_workflows",
			Help:      "Workflows currently in flight",
		},
	)

	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "draftmill",
			Name:      "phase_duration_seconds",
			Help:      "Workflow phase duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"phase"},
	)

	TaskResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "task_results_total",
			Help:      "Delegated task outcomes",
		},
		[]string{"agent", "status"}, // "success" / "error"
	)

	RefinementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "refinements_total",
			Help:      "Refinement passes by outcome",
		},
		[]string{"outcome"}, // "met" / "not_met"
	)
)

// Embedding Prometheus metrics (specialized strategy transport).
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "draftmill",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draftmill",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var collectorsRegistered bool

// RegisterCollectors registers all draftmill collectors. Must be called once from main.
func RegisterCollectors() {
	if collectorsRegistered {
		return
	}
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDuration,
		SearchCacheTotal,
		StrategyRequestsTotal,
		RateLimitHitsTotal,
		WorkflowsTotal,
		ActiveWorkflows,
		PhaseDuration,
		TaskResultsTotal,
		RefinementsTotal,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingCacheTotal,
	)
	collectorsRegistered = true
}
