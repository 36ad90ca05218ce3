package metrics

import "sync"

// Snapshot is a point-in-time view of service counters for GetStatus.
type Snapshot struct {
	TotalSearches      int64   `json:"total_searches"`
	SuccessfulSearches int64   `json:"successful_searches"`
	CacheHits          int64   `json:"cache_hits"`
	RateLimitHits      int64   `json:"rate_limit_hits"`
	AvgSearchMillis    float64 `json:"avg_search_ms"`
	WorkflowsStarted   int64   `json:"workflows_started"`
	WorkflowsCompleted int64   `json:"workflows_completed"`
	WorkflowsFailed    int64   `json:"workflows_failed"`
	RefinementPasses   int64   `json:"refinement_passes"`
}

// Tracker accumulates in-process counters behind a mutex. Prometheus
// collectors cover scraping; the tracker feeds the status endpoint, which
// needs readable numbers rather than exposition format.
type Tracker struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordSearch records a finished search and folds its latency into the
// running average.
func (t *Tracker) RecordSearch(success bool, millis float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.TotalSearches++
	if success {
		t.snap.SuccessfulSearches++
	}
	// Incremental running average over all searches.
	n := float64(t.snap.TotalSearches)
	t.snap.AvgSearchMillis += (millis - t.snap.AvgSearchMillis) / n
}

// RecordCacheHit records a cache hit.
func (t *Tracker) RecordCacheHit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.CacheHits++
}

// RecordRateLimitHit records a rejected request.
func (t *Tracker) RecordRateLimitHit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.RateLimitHits++
}

// RecordWorkflowStart records a workflow entering the running state.
func (t *Tracker) RecordWorkflowStart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.WorkflowsStarted++
}

// RecordWorkflowEnd records a workflow reaching a terminal state.
func (t *Tracker) RecordWorkflowEnd(failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if failed {
		t.snap.WorkflowsFailed++
	} else {
		t.snap.WorkflowsCompleted++
	}
}

// RecordRefinement records one refinement pass.
func (t *Tracker) RecordRefinement() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.RefinementPasses++
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}
