package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/draftmill-io/draftmill/internal/domain"
	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/request"
	"github.com/draftmill-io/draftmill/internal/domain/search/strategy"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/state"
	"github.com/draftmill-io/draftmill/internal/metrics"
	healthuc "github.com/draftmill-io/draftmill/internal/usecase/health"
	workflowuc "github.com/draftmill-io/draftmill/internal/usecase/workflow"
)

// --- Mocks ---

type mockRetrieval struct {
	docs []document.Document
	err  error
	last request.Request
}

func (m *mockRetrieval) Search(_ context.Context, req request.Request) ([]document.Document, error) {
	m.last = req
	return m.docs, m.err
}

func (m *mockRetrieval) CacheSize() int { return 2 }

type mockWorkflows struct {
	report result.Report
	err    error
	states map[string]state.State
}

func (m *mockWorkflows) CreateContent(context.Context, workflowuc.Request) (result.Report, error) {
	return m.report, m.err
}

func (m *mockWorkflows) Status(workflowID string) (state.State, error) {
	st, ok := m.states[workflowID]
	if !ok {
		return "", domain.ErrWorkflowNotFound
	}
	return st, nil
}

func (m *mockWorkflows) ActiveCount() int { return 1 }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestServer(retrieval *mockRetrieval, workflows *mockWorkflows, h *mockHealth) http.Handler {
	if retrieval == nil {
		retrieval = &mockRetrieval{}
	}
	if workflows == nil {
		workflows = &mockWorkflows{}
	}
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	return NewServer(retrieval, workflows, h, metrics.NewTracker(), zap.NewNop()).Routes()
}

// --- Tests ---

func TestSearchKnowledge(t *testing.T) {
	doc := document.New("d1", "Stress basics", "structured overview of stress management",
		strategy.KnowledgeBase, "clinical-psychology", 0.9, nil, time.Time{}, time.Now()).
		WithFinalScore(0.88)
	retrieval := &mockRetrieval{docs: []document.Document{doc}}
	handler := newTestServer(retrieval, nil, nil)

	body := `{"query":"stress management","domain":"clinical-psychology","match_count":3}`
	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Results) != 1 {
		t.Fatalf("count = %d, results = %d, want 1/1", resp.Count, len(resp.Results))
	}
	if resp.Results[0].ID != "d1" || resp.Results[0].Score != 0.88 {
		t.Errorf("result = %+v", resp.Results[0])
	}
	if retrieval.last.MatchCount() != 3 {
		t.Errorf("matchCount passed = %d, want 3", retrieval.last.MatchCount())
	}
}

func TestSearchKnowledgeAppliesServerDefaults(t *testing.T) {
	retrieval := &mockRetrieval{}
	server := NewServer(retrieval, &mockWorkflows{}, &mockHealth{}, metrics.NewTracker(), zap.NewNop()).
		WithSearchDefaults(SearchDefaults{Threshold: 0.9, TTL: 120 * time.Second})
	handler := server.Routes()

	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(`{"query":"q"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if retrieval.last.Threshold() != 0.9 {
		t.Errorf("threshold = %v, want server default 0.9", retrieval.last.Threshold())
	}
	if retrieval.last.TTL() != 120*time.Second {
		t.Errorf("ttl = %v, want server default 120s", retrieval.last.TTL())
	}

	// An explicit request value wins over the server default.
	body := `{"query":"q","threshold":0.5,"ttl_seconds":30}`
	req = httptest.NewRequest("POST", "/v1/search", strings.NewReader(body))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if retrieval.last.Threshold() != 0.5 {
		t.Errorf("threshold = %v, want explicit 0.5", retrieval.last.Threshold())
	}
	if retrieval.last.TTL() != 30*time.Second {
		t.Errorf("ttl = %v, want explicit 30s", retrieval.last.TTL())
	}
}

func TestSearchKnowledgeValidation(t *testing.T) {
	handler := newTestServer(nil, nil, nil)

	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(`{"domain":"x"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSearchKnowledgeRateLimited(t *testing.T) {
	retrieval := &mockRetrieval{err: domain.ErrRateLimited}
	handler := newTestServer(retrieval, nil, nil)

	req := httptest.NewRequest("POST", "/v1/search", strings.NewReader(`{"query":"q"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != codeRateLimited {
		t.Errorf("code = %s, want %s", errResp.Code, codeRateLimited)
	}
}

func TestCreateContent(t *testing.T) {
	workflows := &mockWorkflows{report: result.Report{
		WorkflowID:   "wf-1",
		State:        state.Completed,
		Success:      true,
		Content:      "final content",
		QualityScore: 0.9,
		QualityMet:   true,
	}}
	handler := newTestServer(nil, workflows, nil)

	body := `{"topic":"stress management","domain":"clinical-psychology"}`
	req := httptest.NewRequest("POST", "/v1/content", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp contentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Content != "final content" || resp.WorkflowID != "wf-1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreateContentFailedWorkflowStillOK(t *testing.T) {
	workflows := &mockWorkflows{report: result.Report{
		WorkflowID: "wf-2",
		State:      state.Failed,
		Error:      `critical phase "core" failed`,
	}}
	handler := newTestServer(nil, workflows, nil)

	req := httptest.NewRequest("POST", "/v1/content", strings.NewReader(`{"topic":"t"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (failed workflow is a report, not a transport error)", rr.Code)
	}
	var resp contentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.State != "failed" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreateContentRequiresTopic(t *testing.T) {
	handler := newTestServer(nil, nil, nil)

	req := httptest.NewRequest("POST", "/v1/content", strings.NewReader(`{"domain":"x"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestGetStatus(t *testing.T) {
	handler := newTestServer(nil, nil, nil)

	req := httptest.NewRequest("GET", "/v1/status", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp statusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ActiveWorkflows != 1 || resp.CacheSize != 2 {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetWorkflow(t *testing.T) {
	workflows := &mockWorkflows{states: map[string]state.State{"wf-1": state.Running}}
	handler := newTestServer(nil, workflows, nil)

	req := httptest.NewRequest("GET", "/v1/workflows/wf-1", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest("GET", "/v1/workflows/missing", http.NoBody)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown workflow status = %d, want 404", rr.Code)
	}
}

func TestReadyz(t *testing.T) {
	h := &mockHealth{report: healthuc.Report{
		Status: healthuc.Unhealthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
	}}
	handler := newTestServer(nil, nil, h)

	req := httptest.NewRequest("GET", "/readyz", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(nil, nil, nil)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
