// Package retrieval implements the multi-strategy knowledge search facade:
// cache lookup, rate limiting, query enhancement, concurrent strategy
// dispatch, and composite ranking.
package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/draftmill-io/draftmill/internal/cache"
	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/request"
	"github.com/draftmill-io/draftmill/internal/metrics"
	"github.com/draftmill-io/draftmill/internal/ratelimit"
)

// apiName is the logical API name used for rate limiting.
const apiName = "search"

// minStrategyLimit is the per-strategy candidate floor: strategies fetch
// more than matchCount so ranking has something to choose from.
const minStrategyLimit = 10

// Config holds retrieval service settings.
type Config struct {
	MaxConcurrentRequests int64
	StrategyTimeout       time.Duration
}

// Service is the retrieval facade. A single strategy failure degrades the
// result; it never fails the call.
type Service struct {
	sources []Source
	cache   *cache.Cache
	limiter *ratelimit.Limiter
	tracker *metrics.Tracker
	slots   *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a retrieval service.
func New(
	sources []Source,
	c *cache.Cache,
	limiter *ratelimit.Limiter,
	tracker *metrics.Tracker,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 8
	}
	if cfg.StrategyTimeout <= 0 {
		cfg.StrategyTimeout = 30 * time.Second
	}
	return &Service{
		sources: sources,
		cache:   c,
		limiter: limiter,
		tracker: tracker,
		slots:   semaphore.NewWeighted(cfg.MaxConcurrentRequests),
		timeout: cfg.StrategyTimeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Search returns up to req.MatchCount() ranked candidates.
// Cache hits are idempotent for the TTL window. Strategy failures are
// tolerated: an empty result is a valid outcome, not an error. Errors are
// returned only for rate limiting and caller cancellation.
func (s *Service) Search(ctx context.Context, req request.Request) ([]document.Document, error) {
	if req.MatchCount() == 0 {
		return nil, nil
	}

	key := cache.Key(req.CacheKey())
	if !req.NoCache() {
		if docs, ok := s.cache.Get(key); ok {
			s.tracker.RecordCacheHit()
			metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
			return docs, nil
		}
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
	}

	if err := s.limiter.Allow(apiName); err != nil {
		s.tracker.RecordRateLimitHit()
		metrics.RateLimitHitsTotal.WithLabelValues(apiName).Inc()
		metrics.SearchRequestsTotal.WithLabelValues("rate_limited").Inc()
		return nil, err
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire search slot: %w", err)
	}
	defer s.slots.Release(1)

	start := s.now()
	ranked := s.dispatch(ctx, req)
	elapsed := s.now().Sub(start)

	metrics.SearchDuration.Observe(elapsed.Seconds())
	metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
	s.tracker.RecordSearch(true, float64(elapsed.Milliseconds()))

	if !req.NoCache() {
		s.cache.Put(key, ranked, req.TTL())
	}
	return ranked, nil
}

// dispatch fans the enhanced query out to all strategies concurrently and
// ranks the merged results. Per-strategy errors and timeouts degrade to
// empty lists.
func (s *Service) dispatch(ctx context.Context, req request.Request) []document.Document {
	enhanced := enhanceQuery(req.Query(), req.Domain())

	limit := req.MatchCount() * 2
	if limit < minStrategyLimit {
		limit = minStrategyLimit
	}

	results := make([][]document.Document, len(s.sources))
	var wg sync.WaitGroup

	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			sctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			docs, err := src.Search(sctx, enhanced, req.Domain(), limit)
			if err != nil {
				metrics.StrategyRequestsTotal.WithLabelValues(string(src.Strategy()), "error").Inc()
				s.logger.Warn("Strategy search failed",
					zap.String("strategy", string(src.Strategy())),
					zap.String("domain", req.Domain()),
					zap.Error(err),
				)
				return
			}
			metrics.StrategyRequestsTotal.WithLabelValues(string(src.Strategy()), "success").Inc()
			results[i] = docs
		}(i, src)
	}
	wg.Wait()

	return aggregate(results, req.Query(), req.Domain(), req.Threshold(), req.MatchCount(), s.now())
}

// CacheSize returns the number of live cache entries for status reporting.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}

// ResetCache drops all cached results.
func (s *Service) ResetCache() {
	s.cache.Reset()
}
