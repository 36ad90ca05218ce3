package retrieval

import (
	"context"

	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/strategy"
)

// Source produces candidates for one retrieval strategy.
// Implementations must be safe for concurrent use: the three sources are
// dispatched in parallel.
type Source interface {
	Strategy() strategy.Strategy
	Search(ctx context.Context, query, domain string, limit int) ([]document.Document, error)
}
