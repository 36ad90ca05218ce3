// Package knowledge provides the corpus-backed retrieval strategy sources.
// Each strategy owns one corpus section: an FT index over hash documents.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/draftmill-io/draftmill/internal/db"
	"github.com/draftmill-io/draftmill/internal/domain"
	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/strategy"
)

// store is the consumer interface for corpus operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// sections maps each strategy to its corpus section name.
var sections = map[strategy.Strategy]string{
	strategy.KnowledgeBase: "kb",
	strategy.CodeExamples:  "code",
	strategy.Specialized:   "spec",
}

// Repo provides strategy sources over a shared corpus store.
type Repo struct {
	store      store
	keyPrefix  string
	embed      domain.Embedder // nil disables semantic search for the specialized section
	vectorDims int
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a knowledge repository. embed may be nil; the specialized
// source then falls back to text search over its section.
func New(s store, keyPrefix string, embed domain.Embedder, vectorDims int, logger *zap.Logger) *Repo {
	return &Repo{
		store:      s,
		keyPrefix:  keyPrefix,
		embed:      embed,
		vectorDims: vectorDims,
		logger:     logger,
		now:        time.Now,
	}
}

// EnsureIndexes creates the per-section FT indexes if missing.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for strat, section := range sections {
		dims := 0
		if strat == strategy.Specialized && r.embed != nil {
			dims = r.vectorDims
		}
		def := &db.IndexDefinition{
			Name:       r.indexName(section),
			Prefixes:   []string{r.docPrefix(section)},
			VectorDims: dims,
		}
		if err := r.store.CreateIndex(ctx, def); err != nil {
			if errors.Is(err, db.ErrIndexExists) {
				continue
			}
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}

// IngestDoc is a corpus document to store in a strategy section.
type IngestDoc struct {
	ID          string
	Title       string
	Content     string
	Domain      string
	Categories  []string
	PublishedAt time.Time
}

// Upsert writes a document into the section owned by the given strategy.
// For the specialized section the content is embedded when an embedder is
// configured.
func (r *Repo) Upsert(ctx context.Context, strat strategy.Strategy, doc IngestDoc) error {
	section, ok := sections[strat]
	if !ok {
		return fmt.Errorf("unknown strategy %q", strat)
	}
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	fields := buildHashFields(doc)

	if strat == strategy.Specialized && r.embed != nil {
		res, err := r.embed.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		fields["vector"] = vectorToBytes(res.Embedding)
	}

	key := r.docPrefix(section) + doc.ID
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Source adapts one strategy section to the retrieval usecase contract.
type Source struct {
	repo  *Repo
	strat strategy.Strategy
}

// Sources returns the strategy sources in dispatch order.
func (r *Repo) Sources() []*Source {
	out := make([]*Source, 0, len(sections))
	for _, strat := range strategy.All() {
		out = append(out, &Source{repo: r, strat: strat})
	}
	return out
}

// Strategy returns the strategy this source serves.
func (s *Source) Strategy() strategy.Strategy { return s.strat }

// Search returns up to limit candidates for the query, scoped to the
// source's corpus section.
func (s *Source) Search(ctx context.Context, query, dom string, limit int) ([]document.Document, error) {
	if s.strat == strategy.Specialized && s.repo.embed != nil {
		return s.repo.searchSemantic(ctx, query, dom, limit)
	}
	return s.repo.searchText(ctx, s.strat, query, dom, limit)
}

func (r *Repo) searchText(
	ctx context.Context, strat strategy.Strategy, query, dom string, limit int,
) ([]document.Document, error) {
	section := sections[strat]
	q := &db.TextQuery{
		IndexName:    r.indexName(section),
		Query:        query,
		Domain:       dom,
		TopK:         limit,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", section, err)
	}
	return r.parseEntries(sr, strat, normalizeBM25), nil
}

func (r *Repo) searchSemantic(ctx context.Context, query, dom string, limit int) ([]document.Document, error) {
	res, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	q := &db.KNNQuery{
		IndexName:    r.indexName(sections[strategy.Specialized]),
		Vector:       res.Embedding,
		Domain:       dom,
		K:            limit,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search spec: %w", err)
	}
	return r.parseEntries(sr, strategy.Specialized, identityScore), nil
}

func (r *Repo) indexName(section string) string {
	return r.keyPrefix + section + ":idx"
}

func (r *Repo) docPrefix(section string) string {
	return r.keyPrefix + section + ":doc:"
}
