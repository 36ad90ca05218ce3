// Package embcache caches query embeddings in the corpus store so repeated
// searches do not re-vectorize the same text through the provider.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/draftmill-io/draftmill/internal/domain"
	"github.com/draftmill-io/draftmill/internal/metrics"
)

// vectorField is the hash field holding the serialized embedding.
const vectorField = "v"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// CachedEmbedder decorates an embedder with a store-backed vector cache.
type CachedEmbedder struct {
	inner     domain.Embedder
	store     store
	keyPrefix string
	logger    *zap.Logger
}

// New creates a caching decorator. Cache keys live under keyPrefix+"embcache:".
func New(inner domain.Embedder, s store, keyPrefix string, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:     inner,
		store:     s,
		keyPrefix: keyPrefix + "embcache:",
		logger:    logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hits report zero token usage since no provider call happened.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.putToCache(ctx, key, result.Embedding)
	return result, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return c.keyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	fields, err := c.store.HGetAll(ctx, key)
	if err != nil {
		return nil, false
	}

	raw, ok := fields[vectorField]
	if !ok || raw == "" {
		return nil, false
	}

	vec, err := bytesToVector([]byte(raw))
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	fields := map[string]string{vectorField: string(vectorToBytes(vec))}
	if err := c.store.HSet(ctx, key, fields); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
