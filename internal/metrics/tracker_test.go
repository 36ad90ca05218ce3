package metrics

import (
	"math"
	"sync"
	"testing"
)

func TestTrackerSearchAverage(t *testing.T) {
	tr := NewTracker()
	tr.RecordSearch(true, 100)
	tr.RecordSearch(true, 200)
	tr.RecordSearch(false, 300)

	s := tr.Snapshot()
	if s.TotalSearches != 3 {
		t.Errorf("TotalSearches = %d, want 3", s.TotalSearches)
	}
	if s.SuccessfulSearches != 2 {
		t.Errorf("SuccessfulSearches = %d, want 2", s.SuccessfulSearches)
	}
	if math.Abs(s.AvgSearchMillis-200) > 1e-9 {
		t.Errorf("AvgSearchMillis = %v, want 200", s.AvgSearchMillis)
	}
}

func TestTrackerWorkflowCounters(t *testing.T) {
	tr := NewTracker()
	tr.RecordWorkflowStart()
	tr.RecordWorkflowStart()
	tr.RecordWorkflowEnd(false)
	tr.RecordWorkflowEnd(true)
	tr.RecordRefinement()

	s := tr.Snapshot()
	if s.WorkflowsStarted != 2 || s.WorkflowsCompleted != 1 || s.WorkflowsFailed != 1 {
		t.Errorf("workflow counters = %d/%d/%d, want 2/1/1",
			s.WorkflowsStarted, s.WorkflowsCompleted, s.WorkflowsFailed)
	}
	if s.RefinementPasses != 1 {
		t.Errorf("RefinementPasses = %d, want 1", s.RefinementPasses)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordSearch(true, 10)
			tr.RecordCacheHit()
			tr.RecordRateLimitHit()
		}()
	}
	wg.Wait()

	s := tr.Snapshot()
	if s.TotalSearches != 50 || s.CacheHits != 50 || s.RateLimitHits != 50 {
		t.Errorf("counters = %d/%d/%d, want 50/50/50",
			s.TotalSearches, s.CacheHits, s.RateLimitHits)
	}
}
