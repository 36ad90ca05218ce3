// Package cache provides the in-process TTL cache for ranked retrieval
// results. Entries are immutable snapshots: slices are copied on write and
// on read so cached documents are never shared with live callers.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/draftmill-io/draftmill/internal/domain/document"
)

// DefaultTTL is the entry lifetime used when the request does not
// override it.
const DefaultTTL = 300 * time.Second

type entry struct {
	docs      []document.Document
	expiresAt time.Time
}

// Cache is a mutex-protected TTL cache keyed by request fingerprint.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache using wall-clock time.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock creates a cache with an injectable clock for tests.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Key derives the cache key from canonical request material.
func Key(material string) string {
	h := sha256.Sum256([]byte(material))
	return hex.EncodeToString(h[:])
}

// Get returns the cached snapshot for key. Expired entries are removed
// and reported as a miss; an entry is never served past its expiry.
func (c *Cache) Get(key string) ([]document.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return append([]document.Document(nil), e.docs...), true
}

// Put stores a snapshot of docs under key for the given TTL.
// A non-positive TTL falls back to DefaultTTL. Last write wins.
func (c *Cache) Put(key string, docs []document.Document, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		docs:      append([]document.Document(nil), docs...),
		expiresAt: c.now().Add(ttl),
	}
}

// Len returns the number of entries, including not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// Reset removes all entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
