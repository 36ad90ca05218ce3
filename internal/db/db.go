// Package db defines the storage contract for the knowledge corpus.
// Consumers depend on the narrow sub-interfaces, not on Store.
package db

import (
	"context"
	"time"
)

// Store is the corpus database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based document storage.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// IndexDefinition describes a corpus FT index: text content plus domain
// and category tags, optionally a vector field for semantic search.
type IndexDefinition struct {
	Name       string
	Prefixes   []string
	VectorDims int // 0 disables the vector field
}

// TextQuery is a BM25 text search over a corpus index.
type TextQuery struct {
	IndexName    string
	Query        string
	Domain       string // optional tag pre-filter
	TopK         int
	ReturnFields []string
}

// KNNQuery is a vector similarity search over a corpus index.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	Domain       string // optional tag pre-filter
	K            int
	ReturnFields []string
}

// SearchEntry is a single raw hit: redis key, normalized score, fields.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult holds raw FT.SEARCH output.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
