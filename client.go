package draftmill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/draftmill-io/draftmill/internal/cache"
	"github.com/draftmill-io/draftmill/internal/collab"
	"github.com/draftmill-io/draftmill/internal/db"
	dbRedis "github.com/draftmill-io/draftmill/internal/db/redis"
	"github.com/draftmill-io/draftmill/internal/domain"
	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/request"
	"github.com/draftmill-io/draftmill/internal/domain/search/strategy"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/plan"
	"github.com/draftmill-io/draftmill/internal/metrics"
	"github.com/draftmill-io/draftmill/internal/ratelimit"
	"github.com/draftmill-io/draftmill/internal/repository/embcache"
	"github.com/draftmill-io/draftmill/internal/repository/knowledge"
	retrievaluc "github.com/draftmill-io/draftmill/internal/usecase/retrieval"
	workflowuc "github.com/draftmill-io/draftmill/internal/usecase/workflow"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the draftmill library entry point.
type Client struct {
	store     db.Store
	corpus    *knowledge.Repo
	retrieval *retrievaluc.Service
	workflows *workflowuc.Service
	tracker   *metrics.Tracker
}

// New creates a draftmill Client and connects to the corpus store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix: "draftmill:",
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("draftmill: corpus store address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("draftmill: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("draftmill: corpus store not ready: %w", err)
	}

	c, err := wireClient(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := c.corpus.EnsureIndexes(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("draftmill: ensure indexes: %w", err)
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	var embedder domain.Embedder
	if cfg.embedder != nil {
		embedder = embcache.New(&embedderAdapter{inner: cfg.embedder}, store, cfg.keyPrefix, cfg.logger)
		if cfg.queryInstruction != "" {
			embedder = domain.NewInstructionEmbedder(embedder, cfg.queryInstruction)
		}
	}

	corpus := knowledge.New(store, cfg.keyPrefix, embedder, cfg.embedderDims, cfg.logger)

	sources := make([]retrievaluc.Source, 0, 3)
	for _, src := range corpus.Sources() {
		sources = append(sources, src)
	}

	tracker := metrics.NewTracker()
	limiter := ratelimit.New(cfg.rateLimitMax, cfg.rateLimitWindow)

	retrievalSvc := retrievaluc.New(sources, cache.New(), limiter, tracker,
		retrievaluc.Config{
			MaxConcurrentRequests: cfg.maxConcurrent,
			StrategyTimeout:       cfg.strategyTimeout,
		}, cfg.logger)

	var delegator workflowuc.TaskDelegator = collab.SimulatedDelegator{}
	if cfg.delegate != nil {
		delegator = &delegatorAdapter{fn: cfg.delegate}
	}
	var scorer workflowuc.QualityScorer = collab.HeuristicScorer{}
	if cfg.score != nil {
		scorer = &scorerAdapter{fn: cfg.score}
	}

	workflowSvc, err := workflowuc.New(
		collab.TemplatePlanner{},
		delegator,
		collab.MarkdownIntegrator{},
		scorer,
		retrievalSvc,
		nil,
		tracker,
		workflowuc.Config{
			TaskTimeout:      cfg.taskTimeout,
			QualityThreshold: cfg.qualityThreshold,
		},
		cfg.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("draftmill: wire workflow service: %w", err)
	}

	return &Client{
		store:     store,
		corpus:    corpus,
		retrieval: retrievalSvc,
		workflows: workflowSvc,
		tracker:   tracker,
	}, nil
}

// Close shuts down the corpus store connection.
func (c *Client) Close() {
	c.store.Close()
}

// SearchParams configures one knowledge search.
type SearchParams struct {
	Query      string
	Domain     string
	MatchCount int     // 0 means the default of 5; negative is rejected
	Threshold  float64 // 0 means the default of 0.7
	NoCache    bool
}

// SearchResult is one ranked knowledge candidate.
type SearchResult struct {
	ID          string
	Title       string
	Content     string
	Strategy    string
	Domain      string
	Score       float64
	Categories  []string
	PublishedAt time.Time
}

// Search runs a multi-strategy knowledge search and returns ranked
// candidates. An empty result with a nil error means no strategy produced
// a candidate above the relevance threshold.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	if params.MatchCount < 0 {
		return nil, fmt.Errorf("draftmill: match count must not be negative")
	}
	matchCount := params.MatchCount
	if matchCount == 0 {
		matchCount = request.DefaultMatchCount
	}

	var opts []request.Option
	if params.Threshold > 0 {
		opts = append(opts, request.WithThreshold(params.Threshold))
	}
	if params.NoCache {
		opts = append(opts, request.WithoutCache())
	}

	req, err := request.New(params.Query, params.Domain, matchCount, opts...)
	if err != nil {
		return nil, fmt.Errorf("draftmill: %w", err)
	}

	docs, err := c.retrieval.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return toSearchResults(docs), nil
}

// ContentParams configures one content workflow.
type ContentParams struct {
	Topic        string
	Domain       string
	ContentType  string
	Requirements map[string]any
}

// ContentResult is the terminal outcome of a content workflow.
type ContentResult struct {
	WorkflowID   string
	Success      bool
	Content      string
	QualityScore float64
	QualityMet   bool
	Refined      bool
	Error        string
	Duration     time.Duration
	Metrics      metrics.Snapshot
}

// CreateContent runs the full phase workflow for a topic. Failed workflows
// come back with Success=false and the failure in Error; the error return
// covers invalid parameters and cancellation.
func (c *Client) CreateContent(ctx context.Context, params ContentParams) (ContentResult, error) {
	report, err := c.workflows.CreateContent(ctx, workflowuc.Request{
		Topic:        params.Topic,
		Domain:       params.Domain,
		ContentType:  params.ContentType,
		Requirements: params.Requirements,
	})
	if err != nil {
		return ContentResult{}, err
	}

	return ContentResult{
		WorkflowID:   report.WorkflowID,
		Success:      report.Success,
		Content:      report.Content,
		QualityScore: report.QualityScore,
		QualityMet:   report.QualityMet,
		Refined:      report.Refined,
		Error:        report.Error,
		Duration:     report.Duration,
		Metrics:      c.tracker.Snapshot(),
	}, nil
}

// Document is a corpus document for ingestion.
type Document struct {
	ID          string
	Title       string
	Content     string
	Domain      string
	Categories  []string
	PublishedAt time.Time
}

// IngestDocument stores a document in one strategy's corpus section.
// strategyName is one of "knowledge-base", "code-examples", "specialized".
func (c *Client) IngestDocument(ctx context.Context, strategyName string, doc Document) error {
	strat := strategy.Strategy(strategyName)
	if !strat.IsValid() {
		return fmt.Errorf("draftmill: unknown strategy %q", strategyName)
	}
	return c.corpus.Upsert(ctx, strat, knowledge.IngestDoc{
		ID:          doc.ID,
		Title:       doc.Title,
		Content:     doc.Content,
		Domain:      doc.Domain,
		Categories:  doc.Categories,
		PublishedAt: doc.PublishedAt,
	})
}

// Status is a read-only service snapshot.
type Status struct {
	ActiveWorkflows int
	CacheSize       int
	Metrics         metrics.Snapshot
}

// ResetCache drops all cached search results.
func (c *Client) ResetCache() {
	c.retrieval.ResetCache()
}

// GetStatus returns current workload and counter values.
func (c *Client) GetStatus() Status {
	return Status{
		ActiveWorkflows: c.workflows.ActiveCount(),
		CacheSize:       c.retrieval.CacheSize(),
		Metrics:         c.tracker.Snapshot(),
	}
}

func toSearchResults(docs []document.Document) []SearchResult {
	out := make([]SearchResult, len(docs))
	for i := range docs {
		d := &docs[i]
		out[i] = SearchResult{
			ID:          d.ID(),
			Title:       d.Title(),
			Content:     d.Content(),
			Strategy:    string(d.Strategy()),
			Domain:      d.Domain(),
			Score:       d.FinalScore(),
			Categories:  d.Categories(),
			PublishedAt: d.PublishedAt(),
		}
	}
	return out
}

// embedderAdapter bridges the public Embedder to the domain contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// delegatorAdapter bridges a TaskFunc to the workflow delegator contract.
type delegatorAdapter struct {
	fn TaskFunc
}

func (a *delegatorAdapter) Delegate(ctx context.Context, task plan.Task, ec *workflowuc.ExecutionContext) (string, error) {
	return a.fn(ctx, task.Agent(), task.Name(), task.Payload(), ec.Outputs())
}

// scorerAdapter bridges a ScoreFunc to the quality scorer contract.
type scorerAdapter struct {
	fn ScoreFunc
}

func (a *scorerAdapter) Score(ctx context.Context, content, dom string) (workflowuc.Assessment, error) {
	score, targets, err := a.fn(ctx, content, dom)
	if err != nil {
		return workflowuc.Assessment{}, err
	}
	return workflowuc.Assessment{Score: score, Targets: targets}, nil
}
