package request

import (
	"fmt"
	"time"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength    = 4096
	DefaultMatchCount = 5
	MaxMatchCount     = 50
	DefaultTTL        = 300 * time.Second
	DefaultThreshold  = 0.7
)

// Request is a validated knowledge search request.
// Immutable once issued; constructed fresh per retrieval call.
type Request struct {
	query      string
	domain     string
	matchCount int
	threshold  float64
	ttl        time.Duration
	noCache    bool
}

// Option overrides a request default.
type Option func(*Request)

// WithTTL overrides the cache TTL for this request's entry.
func WithTTL(ttl time.Duration) Option {
	return func(r *Request) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithThreshold overrides the minimum raw relevance kept by ranking.
func WithThreshold(threshold float64) Option {
	return func(r *Request) { r.threshold = threshold }
}

// WithoutCache disables cache reads and writes for this request.
func WithoutCache() Option {
	return func(r *Request) { r.noCache = true }
}

// New validates and normalizes search parameters.
// matchCount < 0 falls back to the default; matchCount == 0 is a valid
// request for an empty result.
func New(query, domain string, matchCount int, opts ...Option) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if matchCount < 0 {
		matchCount = DefaultMatchCount
	}
	if matchCount > MaxMatchCount {
		matchCount = MaxMatchCount
	}

	r := Request{
		query:      query,
		domain:     domain,
		matchCount: matchCount,
		threshold:  DefaultThreshold,
		ttl:        DefaultTTL,
	}
	for _, o := range opts {
		o(&r)
	}

	if r.threshold < 0 || r.threshold > 1 {
		return Request{}, fmt.Errorf("threshold must be between 0 and 1")
	}
	return r, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// Domain returns the requested knowledge domain.
func (r *Request) Domain() string { return r.domain }

// MatchCount returns the maximum number of candidates to return.
func (r *Request) MatchCount() int { return r.matchCount }

// Threshold returns the minimum raw relevance kept by ranking.
func (r *Request) Threshold() float64 { return r.threshold }

// TTL returns the cache entry lifetime for this request.
func (r *Request) TTL() time.Duration { return r.ttl }

// NoCache reports whether caching is disabled for this request.
func (r *Request) NoCache() bool { return r.noCache }

// CacheKey returns the canonical cache key material for this request.
// Identical (query, domain, options) yield an identical key.
func (r *Request) CacheKey() string {
	return fmt.Sprintf("%s|%s|%d|%.2f", r.query, r.domain, r.matchCount, r.threshold)
}
