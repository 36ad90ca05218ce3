package knowledge

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/draftmill-io/draftmill/internal/db"
	"github.com/draftmill-io/draftmill/internal/domain"
	"github.com/draftmill-io/draftmill/internal/domain/search/strategy"
)

// --- Mocks ---

type mockStore struct {
	hsetKeys    []string
	hsetFields  []map[string]string
	created     []*db.IndexDefinition
	textQueries []*db.TextQuery
	knnQueries  []*db.KNNQuery
	textResult  *db.SearchResult
	knnResult   *db.SearchResult
	textErr     error
	knnErr      error
	createErr   error
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.hsetKeys = append(m.hsetKeys, key)
	m.hsetFields = append(m.hsetFields, fields)
	return nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.created = append(m.created, def)
	return m.createErr
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockStore) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.textQueries = append(m.textQueries, q)
	return m.textResult, m.textErr
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.knnQueries = append(m.knnQueries, q)
	return m.knnResult, m.knnErr
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

// --- Tests ---

func TestSourcesOrder(t *testing.T) {
	repo := New(&mockStore{}, "draftmill:", nil, 0, zap.NewNop())
	srcs := repo.Sources()
	if len(srcs) != 3 {
		t.Fatalf("Sources = %d, want 3", len(srcs))
	}
	want := []strategy.Strategy{strategy.KnowledgeBase, strategy.CodeExamples, strategy.Specialized}
	for i, s := range want {
		if srcs[i].Strategy() != s {
			t.Errorf("Sources[%d] = %q, want %q", i, srcs[i].Strategy(), s)
		}
	}
}

func TestEnsureIndexes(t *testing.T) {
	store := &mockStore{}
	repo := New(store, "draftmill:", &mockEmbedder{vec: []float32{0.1}}, 128, zap.NewNop())

	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	if len(store.created) != 3 {
		t.Fatalf("created %d indexes, want 3", len(store.created))
	}
	for _, def := range store.created {
		if def.Name == "draftmill:spec:idx" && def.VectorDims != 128 {
			t.Errorf("spec index VectorDims = %d, want 128", def.VectorDims)
		}
		if def.Name == "draftmill:kb:idx" && def.VectorDims != 0 {
			t.Errorf("kb index VectorDims = %d, want 0", def.VectorDims)
		}
	}
}

func TestEnsureIndexesToleratesExisting(t *testing.T) {
	store := &mockStore{createErr: db.ErrIndexExists}
	repo := New(store, "draftmill:", nil, 0, zap.NewNop())
	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Errorf("EnsureIndexes with existing indexes: %v", err)
	}
}

func TestTextSourceSearch(t *testing.T) {
	store := &mockStore{
		textResult: &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:   "draftmill:kb:doc:a1",
				Score: 3.0,
				Fields: map[string]string{
					"title":        "Stress basics",
					"content":      "body",
					"domain":       "clinical-psychology",
					"categories":   "mental-health,therapy",
					"published_at": "2025-01-10T00:00:00Z",
				},
			}},
		},
	}
	repo := New(store, "draftmill:", nil, 0, zap.NewNop())

	src := repo.Sources()[0]
	docs, err := src.Search(context.Background(), "stress", "clinical-psychology", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}

	d := docs[0]
	if d.ID() != "a1" {
		t.Errorf("ID = %q, want a1 (prefix stripped)", d.ID())
	}
	if d.Strategy() != strategy.KnowledgeBase {
		t.Errorf("Strategy = %q", d.Strategy())
	}
	if d.RawRelevance() != 0.75 { // 3/(3+1)
		t.Errorf("RawRelevance = %v, want 0.75", d.RawRelevance())
	}
	if len(d.Categories()) != 2 {
		t.Errorf("Categories = %v", d.Categories())
	}
	if d.PublishedAt().IsZero() {
		t.Error("PublishedAt not parsed")
	}

	if len(store.textQueries) != 1 || store.textQueries[0].Domain != "clinical-psychology" {
		t.Error("domain filter not passed to the text query")
	}
}

func TestSpecializedSourceUsesKNN(t *testing.T) {
	store := &mockStore{
		knnResult: &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:    "draftmill:spec:doc:s1",
				Score:  0.92,
				Fields: map[string]string{"title": "t", "content": "c", "domain": "cardio"},
			}},
		},
	}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	repo := New(store, "draftmill:", embed, 2, zap.NewNop())

	src := repo.Sources()[2]
	docs, err := src.Search(context.Background(), "query", "cardio", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if embed.called != 1 {
		t.Errorf("embedder called %d times, want 1", embed.called)
	}
	if len(store.knnQueries) != 1 {
		t.Fatalf("knn queries = %d, want 1", len(store.knnQueries))
	}
	if len(store.textQueries) != 0 {
		t.Error("specialized source fell back to text search despite embedder")
	}
	if docs[0].RawRelevance() != 0.92 {
		t.Errorf("RawRelevance = %v, want 0.92 (identity)", docs[0].RawRelevance())
	}
}

func TestSpecializedFallsBackToTextWithoutEmbedder(t *testing.T) {
	store := &mockStore{textResult: &db.SearchResult{}}
	repo := New(store, "draftmill:", nil, 0, zap.NewNop())

	src := repo.Sources()[2]
	if _, err := src.Search(context.Background(), "query", "", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(store.textQueries) != 1 {
		t.Error("specialized source without embedder must use text search")
	}
}

func TestUpsertSpecializedEmbedsContent(t *testing.T) {
	store := &mockStore{}
	embed := &mockEmbedder{vec: []float32{0.5, 0.5}}
	repo := New(store, "draftmill:", embed, 2, zap.NewNop())

	doc := IngestDoc{
		ID: "s1", Title: "t", Content: "body", Domain: "cardio",
		PublishedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.Upsert(context.Background(), strategy.Specialized, doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if store.hsetKeys[0] != "draftmill:spec:doc:s1" {
		t.Errorf("key = %q", store.hsetKeys[0])
	}
	if _, ok := store.hsetFields[0]["vector"]; !ok {
		t.Error("specialized upsert missing vector field")
	}
	if store.hsetFields[0]["published_at"] != "2025-03-01T00:00:00Z" {
		t.Errorf("published_at = %q", store.hsetFields[0]["published_at"])
	}
}

func TestUpsertTextSectionSkipsVector(t *testing.T) {
	store := &mockStore{}
	repo := New(store, "draftmill:", &mockEmbedder{vec: []float32{0.5}}, 1, zap.NewNop())

	if err := repo.Upsert(context.Background(), strategy.KnowledgeBase, IngestDoc{ID: "a", Content: "c"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, ok := store.hsetFields[0]["vector"]; ok {
		t.Error("kb upsert must not embed content")
	}
}
