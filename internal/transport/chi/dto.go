package chi

import (
	"time"

	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/request"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
	"github.com/draftmill-io/draftmill/internal/metrics"
)

type errorCode string

const (
	codeBadRequest             errorCode = "bad_request"
	codeValidationFailed       errorCode = "validation_failed"
	codeRateLimited            errorCode = "rate_limited"
	codeWorkflowNotFound       errorCode = "workflow_not_found"
	codeNotConfigured          errorCode = "not_configured"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codeInternalError          errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type searchRequest struct {
	Query      string   `json:"query"`
	Domain     string   `json:"domain,omitempty"`
	MatchCount *int     `json:"match_count,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
	TTLSeconds *int     `json:"ttl_seconds,omitempty"`
	NoCache    bool     `json:"no_cache,omitempty"`
}

func searchRequestFromJSON(req searchRequest, defaults SearchDefaults) (request.Request, error) {
	matchCount := -1
	if req.MatchCount != nil {
		matchCount = *req.MatchCount
	}

	var opts []request.Option
	switch {
	case req.Threshold != nil:
		opts = append(opts, request.WithThreshold(*req.Threshold))
	case defaults.Threshold > 0:
		opts = append(opts, request.WithThreshold(defaults.Threshold))
	}
	switch {
	case req.TTLSeconds != nil:
		opts = append(opts, request.WithTTL(time.Duration(*req.TTLSeconds)*time.Second))
	case defaults.TTL > 0:
		opts = append(opts, request.WithTTL(defaults.TTL))
	}
	if req.NoCache {
		opts = append(opts, request.WithoutCache())
	}

	return request.New(req.Query, req.Domain, matchCount, opts...)
}

type documentJSON struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Strategy     string     `json:"strategy"`
	Domain       string     `json:"domain,omitempty"`
	Score        float64    `json:"score"`
	RawRelevance float64    `json:"raw_relevance"`
	Categories   []string   `json:"categories,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	RetrievedAt  time.Time  `json:"retrieved_at"`
}

type searchResponse struct {
	Results []documentJSON `json:"results"`
	Count   int            `json:"count"`
}

func searchResponseToJSON(docs []document.Document) searchResponse {
	items := make([]documentJSON, len(docs))
	for i := range docs {
		items[i] = documentToJSON(&docs[i])
	}
	return searchResponse{Results: items, Count: len(items)}
}

func documentToJSON(d *document.Document) documentJSON {
	item := documentJSON{
		ID:           d.ID(),
		Title:        d.Title(),
		Content:      d.Content(),
		Strategy:     string(d.Strategy()),
		Domain:       d.Domain(),
		Score:        d.FinalScore(),
		RawRelevance: d.RawRelevance(),
		Categories:   d.Categories(),
		RetrievedAt:  d.RetrievedAt(),
	}
	if !d.PublishedAt().IsZero() {
		published := d.PublishedAt()
		item.PublishedAt = &published
	}
	return item
}

type contentRequest struct {
	Topic        string         `json:"topic"`
	Domain       string         `json:"domain,omitempty"`
	ContentType  string         `json:"content_type,omitempty"`
	Requirements map[string]any `json:"requirements,omitempty"`
}

type taskResultJSON struct {
	Task       string `json:"task"`
	Agent      string `json:"agent"`
	Success    bool   `json:"success"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type phaseResultJSON struct {
	Name        string           `json:"name"`
	Success     bool             `json:"success"`
	FailedTasks int              `json:"failed_tasks"`
	DurationMs  int64            `json:"duration_ms"`
	Tasks       []taskResultJSON `json:"tasks"`
}

type contentResponse struct {
	WorkflowID   string            `json:"workflow_id"`
	State        string            `json:"state"`
	Success      bool              `json:"success"`
	Content      string            `json:"content,omitempty"`
	QualityScore float64           `json:"quality_score"`
	QualityMet   bool              `json:"quality_met"`
	Refined      bool              `json:"refined"`
	Error        string            `json:"error,omitempty"`
	DurationMs   int64             `json:"duration_ms"`
	Phases       []phaseResultJSON `json:"phases"`
	Metrics      metrics.Snapshot  `json:"metrics"`
}

func reportToJSON(r result.Report) contentResponse {
	phases := make([]phaseResultJSON, len(r.Phases))
	for i := range r.Phases {
		phases[i] = phaseResultToJSON(&r.Phases[i])
	}
	return contentResponse{
		WorkflowID:   r.WorkflowID,
		State:        string(r.State),
		Success:      r.Success,
		Content:      r.Content,
		QualityScore: r.QualityScore,
		QualityMet:   r.QualityMet,
		Refined:      r.Refined,
		Error:        r.Error,
		DurationMs:   r.Duration.Milliseconds(),
		Phases:       phases,
	}
}

func phaseResultToJSON(pr *result.PhaseResult) phaseResultJSON {
	taskResults := pr.TaskResults()
	tasks := make([]taskResultJSON, len(taskResults))
	for i := range taskResults {
		tr := &taskResults[i]
		tasks[i] = taskResultJSON{
			Task:       tr.Task(),
			Agent:      tr.Agent(),
			Success:    tr.Success(),
			Output:     tr.Output(),
			Error:      tr.Err(),
			DurationMs: tr.Duration().Milliseconds(),
		}
	}
	return phaseResultJSON{
		Name:        pr.Name(),
		Success:     pr.Success(),
		FailedTasks: pr.FailedTasks(),
		DurationMs:  pr.Duration().Milliseconds(),
		Tasks:       tasks,
	}
}

type statusResponse struct {
	ActiveWorkflows int              `json:"active_workflows"`
	CacheSize       int              `json:"cache_size"`
	Metrics         metrics.Snapshot `json:"metrics"`
}

type workflowStatusResponse struct {
	WorkflowID string `json:"workflow_id"`
	State      string `json:"state"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
