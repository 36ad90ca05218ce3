package retrieval

import (
	"sort"
	"strings"
	"time"

	"github.com/draftmill-io/draftmill/internal/domain/document"
)

// Composite score weights. They may sum above 1; the final score is
// clamped to 1.0.
const (
	rawRelevanceWeight = 0.4
	domainMatchBonus   = 0.2
	termCoverageWeight = 0.1
	maxRecencyBonus    = 0.05
	recencyWindow      = 24 * 30 * 24 * time.Hour // 24 months
)

// aggregate merges per-strategy candidate lists into a ranked, truncated
// sequence: fingerprint dedup (first occurrence wins), relevance threshold
// filter, composite scoring, stable sort, truncation.
//
// Pure given its inputs: identical candidate lists yield an identical
// ordered sequence regardless of strategy completion timing.
func aggregate(
	strategyResults [][]document.Document,
	query, domain string,
	threshold float64,
	matchCount int,
	now time.Time,
) []document.Document {
	if matchCount <= 0 {
		return nil
	}

	queryTerms := splitTerms(query)

	seen := make(map[string]struct{})
	var kept []document.Document

	// Flatten in strategy dispatch order so dedup ties break toward the
	// earlier strategy.
	for _, docs := range strategyResults {
		for _, d := range docs {
			fp := fingerprint(&d)
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}

			if d.RawRelevance() < threshold {
				continue
			}
			kept = append(kept, d.WithFinalScore(compositeScore(&d, queryTerms, domain, now)))
		}
	}

	// Stable: equal scores keep discovery order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].FinalScore() > kept[j].FinalScore()
	})

	if len(kept) > matchCount {
		kept = kept[:matchCount]
	}
	return kept
}

// fingerprint derives a cheap duplicate-detection key: the strategy name
// plus the sorted first ten words longer than three characters taken from
// the first hundred characters of content.
func fingerprint(d *document.Document) string {
	content := d.Content()
	if len(content) > 100 {
		content = content[:100]
	}

	var words []string
	for _, w := range strings.Fields(strings.ToLower(content)) {
		if len(w) > 3 {
			words = append(words, w)
			if len(words) == 10 {
				break
			}
		}
	}
	sort.Strings(words)

	return string(d.Strategy()) + ":" + strings.Join(words, " ")
}

func compositeScore(d *document.Document, queryTerms []string, domain string, now time.Time) float64 {
	score := rawRelevanceWeight * d.RawRelevance()
	score += d.Strategy().Weight()

	if d.InDomain(domain) {
		score += domainMatchBonus
	}

	score += termCoverageWeight * termCoverage(d, queryTerms)
	score += recencyBonus(d.PublishedAt(), now)

	if score > 1 {
		score = 1
	}
	return score
}

// termCoverage is the fraction of query terms found in the candidate's
// title or content, case-insensitive.
func termCoverage(d *document.Document, queryTerms []string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}

	haystack := strings.ToLower(d.Title() + " " + d.Content())
	found := 0
	for _, term := range queryTerms {
		if strings.Contains(haystack, term) {
			found++
		}
	}
	return float64(found) / float64(len(queryTerms))
}

// recencyBonus decays linearly from maxRecencyBonus to zero over the
// recency window. Candidates without a publication date get no bonus.
func recencyBonus(publishedAt, now time.Time) float64 {
	if publishedAt.IsZero() || publishedAt.After(now) {
		return 0
	}
	age := now.Sub(publishedAt)
	if age >= recencyWindow {
		return 0
	}
	return maxRecencyBonus * (1 - float64(age)/float64(recencyWindow))
}

func splitTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}
