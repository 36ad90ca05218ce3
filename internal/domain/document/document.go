package document

import (
	"time"

	"github.com/draftmill-io/draftmill/internal/domain/search/strategy"
)

// Document is a single knowledge retrieval candidate.
// Immutable after ranking; the cache stores snapshots, not live references.
type Document struct {
	id           string
	title        string
	content      string
	strategy     strategy.Strategy
	domain       string
	rawRelevance float64
	categories   []string
	publishedAt  time.Time // zero when the source carries no date
	retrievedAt  time.Time
	finalScore   float64
}

// New creates a retrieval candidate as produced by a strategy executor.
// rawRelevance is clamped to [0,1]; finalScore is zero until ranking.
func New(
	id, title, content string,
	s strategy.Strategy,
	domain string,
	rawRelevance float64,
	categories []string,
	publishedAt, retrievedAt time.Time,
) Document {
	if rawRelevance < 0 {
		rawRelevance = 0
	}
	if rawRelevance > 1 {
		rawRelevance = 1
	}
	return Document{
		id:           id,
		title:        title,
		content:      content,
		strategy:     s,
		domain:       domain,
		rawRelevance: rawRelevance,
		categories:   categories,
		publishedAt:  publishedAt,
		retrievedAt:  retrievedAt,
	}
}

// WithFinalScore returns a copy carrying the composite relevance score.
func (d Document) WithFinalScore(score float64) Document {
	d.finalScore = score
	return d
}

// ID returns the candidate identifier.
func (d *Document) ID() string { return d.id }

// Title returns the candidate title.
func (d *Document) Title() string { return d.title }

// Content returns the candidate content.
func (d *Document) Content() string { return d.content }

// Strategy returns the strategy that produced the candidate.
func (d *Document) Strategy() strategy.Strategy { return d.strategy }

// Domain returns the candidate's knowledge domain.
func (d *Document) Domain() string { return d.domain }

// RawRelevance returns the source-reported relevance in [0,1].
func (d *Document) RawRelevance() float64 { return d.rawRelevance }

// Categories returns the candidate's category labels.
func (d *Document) Categories() []string { return d.categories }

// PublishedAt returns the source publication date (zero if unknown).
func (d *Document) PublishedAt() time.Time { return d.publishedAt }

// RetrievedAt returns when the candidate was produced.
func (d *Document) RetrievedAt() time.Time { return d.retrievedAt }

// FinalScore returns the composite relevance score set by the aggregator.
func (d *Document) FinalScore() float64 { return d.finalScore }

// InDomain reports whether the candidate matches the requested domain,
// either directly or through one of its categories.
func (d *Document) InDomain(requested string) bool {
	if requested == "" {
		return false
	}
	if d.domain == requested {
		return true
	}
	for _, c := range d.categories {
		if c == requested {
			return true
		}
	}
	return false
}
