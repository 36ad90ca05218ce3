// Package ratelimit provides a fixed-window request limiter keyed by
// logical API name. Rejections surface as domain.ErrRateLimited so callers
// can treat them as retryable failures.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/draftmill-io/draftmill/internal/domain"
)

// Defaults for the request window.
const (
	DefaultMaxRequests = 100
	DefaultWindow      = 60 * time.Second
)

type window struct {
	start time.Time
	count int
}

// Limiter is a mutex-protected fixed-window counter per API name.
type Limiter struct {
	mu          sync.Mutex
	windows     map[string]window
	maxRequests int
	windowSize  time.Duration
	now         func() time.Time
}

// New creates a limiter. Non-positive arguments fall back to defaults.
func New(maxRequests int, windowSize time.Duration) *Limiter {
	return NewWithClock(maxRequests, windowSize, time.Now)
}

// NewWithClock creates a limiter with an injectable clock for tests.
func NewWithClock(maxRequests int, windowSize time.Duration, now func() time.Time) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}
	return &Limiter{
		windows:     make(map[string]window),
		maxRequests: maxRequests,
		windowSize:  windowSize,
		now:         now,
	}
}

// Allow records a request against apiName's current window.
// Returns domain.ErrRateLimited once the window budget is exceeded.
func (l *Limiter) Allow(apiName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[apiName]
	if !ok || now.Sub(w.start) >= l.windowSize {
		l.windows[apiName] = window{start: now, count: 1}
		return nil
	}

	if w.count >= l.maxRequests {
		return fmt.Errorf("%w: %s exceeded %d requests per %s",
			domain.ErrRateLimited, apiName, l.maxRequests, l.windowSize)
	}

	w.count++
	l.windows[apiName] = w
	return nil
}

// Remaining returns how many requests are left in apiName's current window.
func (l *Limiter) Remaining(apiName string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[apiName]
	if !ok || l.now().Sub(w.start) >= l.windowSize {
		return l.maxRequests
	}
	return l.maxRequests - w.count
}
