package knowledge

import (
	"encoding/binary"
	"math"
	"strings"
	"time"

	"github.com/draftmill-io/draftmill/internal/db"
	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/strategy"
)

// returnFields are the hash fields fetched for candidates.
var returnFields = []string{"title", "content", "domain", "categories", "published_at"}

// buildHashFields converts an IngestDoc into a flat map[string]string for HSET.
func buildHashFields(doc IngestDoc) map[string]string {
	m := map[string]string{
		"title":   doc.Title,
		"content": doc.Content,
		"domain":  doc.Domain,
	}
	if len(doc.Categories) > 0 {
		m["categories"] = strings.Join(doc.Categories, ",")
	}
	if !doc.PublishedAt.IsZero() {
		m["published_at"] = doc.PublishedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// parseEntries converts raw search entries into domain documents.
// normalize maps the backend score to rawRelevance in [0,1].
func (r *Repo) parseEntries(
	sr *db.SearchResult, strat strategy.Strategy, normalize func(float64) float64,
) []document.Document {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	prefix := r.docPrefix(sections[strat])
	retrievedAt := r.now()
	docs := make([]document.Document, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)

		var categories []string
		if raw := entry.Fields["categories"]; raw != "" {
			categories = strings.Split(raw, ",")
		}

		var publishedAt time.Time
		if raw := entry.Fields["published_at"]; raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				publishedAt = t
			}
		}

		docs = append(docs, document.New(
			id,
			entry.Fields["title"],
			entry.Fields["content"],
			strat,
			entry.Fields["domain"],
			normalize(entry.Score),
			categories,
			publishedAt,
			retrievedAt,
		))
	}

	return docs
}

// normalizeBM25 squashes an unbounded BM25 score into [0,1).
func normalizeBM25(score float64) float64 {
	if score <= 0 {
		return 0
	}
	return score / (score + 1)
}

// identityScore passes through scores already in [0,1] (cosine similarity).
func identityScore(score float64) float64 { return score }

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
