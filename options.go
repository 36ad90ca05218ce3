package draftmill

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Embedder vectorizes text for the specialized retrieval strategy.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TaskFunc executes one delegated task. outputs holds prior task outputs
// by task name.
type TaskFunc func(ctx context.Context, agent, task string, payload map[string]any, outputs map[string]string) (string, error)

// ScoreFunc evaluates integrated content, returning a score in [0,1] and
// the agent names whose output needs rework.
type ScoreFunc func(ctx context.Context, content, domain string) (score float64, targets []string, err error)

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	embedder         Embedder
	embedderDims     int
	queryInstruction string

	rateLimitMax    int
	rateLimitWindow time.Duration
	maxConcurrent   int64
	strategyTimeout time.Duration

	taskTimeout      time.Duration
	qualityThreshold float64
	delegate         TaskFunc
	score            ScoreFunc

	logger *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis sets the Redis corpus store addresses.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithPassword sets the corpus store password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithKeyPrefix overrides the corpus key prefix (default "draftmill:").
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithEmbedder enables semantic search for the specialized strategy.
// dims is the embedding dimensionality used for the vector index.
func WithEmbedder(e Embedder, dims int) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.embedderDims = dims
	}
}

// WithQueryInstruction prepends an instruction to embedded queries (some
// models expect a query prefix).
func WithQueryInstruction(instruction string) Option {
	return func(c *clientConfig) { c.queryInstruction = instruction }
}

// WithRateLimit overrides the search rate limit (default 100 per 60s).
func WithRateLimit(maxRequests int, window time.Duration) Option {
	return func(c *clientConfig) {
		c.rateLimitMax = maxRequests
		c.rateLimitWindow = window
	}
}

// WithConcurrency caps in-flight retrievals (default 8).
func WithConcurrency(n int64) Option {
	return func(c *clientConfig) { c.maxConcurrent = n }
}

// WithStrategyTimeout bounds each strategy lookup (default 30s).
func WithStrategyTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.strategyTimeout = d }
}

// WithTaskTimeout bounds each delegated task (default 30s).
func WithTaskTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.taskTimeout = d }
}

// WithQualityThreshold sets the refinement trigger score (default 0.8).
func WithQualityThreshold(threshold float64) Option {
	return func(c *clientConfig) { c.qualityThreshold = threshold }
}

// WithDelegator replaces the built-in simulated task delegator.
func WithDelegator(fn TaskFunc) Option {
	return func(c *clientConfig) { c.delegate = fn }
}

// WithScorer replaces the built-in heuristic quality scorer.
func WithScorer(fn ScoreFunc) Option {
	return func(c *clientConfig) { c.score = fn }
}

// WithLogger sets the client logger (default zap.NewNop).
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
