// Package workflow implements phase-based content orchestration: a planner
// builds a phase plan, tasks are delegated to logical agents, outputs are
// integrated and quality-scored, and a single refinement pass reworks the
// weakest parts when the score falls short.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftmill-io/draftmill/internal/domain"
	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/request"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/state"
	"github.com/draftmill-io/draftmill/internal/metrics"
)

// Defaults for workflow execution.
const (
	DefaultTaskTimeout      = 30 * time.Second
	DefaultQualityThreshold = 0.8

	// contextMatchCount is how many knowledge documents are retrieved as
	// context before the first phase.
	contextMatchCount = 5
)

// Request is a content creation request.
type Request struct {
	Topic        string
	Domain       string
	ContentType  string
	Requirements map[string]any
}

// Config holds workflow service settings.
type Config struct {
	TaskTimeout      time.Duration
	QualityThreshold float64
}

// Service orchestrates content workflows end to end.
type Service struct {
	planner    Planner
	integrator ContentIntegrator
	scorer     QualityScorer
	searcher   KnowledgeSearcher
	refiner    RefinementPlanner
	exec       *executor
	tracker    *metrics.Tracker
	threshold  float64
	logger     *zap.Logger

	mu     sync.Mutex
	states map[string]state.State
	active int
}

// New creates a workflow service. Every required collaborator is checked
// up front so a misconfigured service fails before any phase runs.
// The searcher is optional: without it workflows run with no retrieved
// context. A nil refiner gets the default target-based planner.
func New(
	planner Planner,
	delegator TaskDelegator,
	integrator ContentIntegrator,
	scorer QualityScorer,
	searcher KnowledgeSearcher,
	refiner RefinementPlanner,
	tracker *metrics.Tracker,
	cfg Config,
	logger *zap.Logger,
) (*Service, error) {
	switch {
	case planner == nil:
		return nil, fmt.Errorf("%w: planner", domain.ErrMissingCollaborator)
	case delegator == nil:
		return nil, fmt.Errorf("%w: task delegator", domain.ErrMissingCollaborator)
	case integrator == nil:
		return nil, fmt.Errorf("%w: content integrator", domain.ErrMissingCollaborator)
	case scorer == nil:
		return nil, fmt.Errorf("%w: quality scorer", domain.ErrMissingCollaborator)
	}

	if refiner == nil {
		refiner = defaultRefinementPlanner{}
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultTaskTimeout
	}
	if cfg.QualityThreshold <= 0 || cfg.QualityThreshold > 1 {
		cfg.QualityThreshold = DefaultQualityThreshold
	}

	return &Service{
		planner:    planner,
		integrator: integrator,
		scorer:     scorer,
		searcher:   searcher,
		refiner:    refiner,
		exec: &executor{
			delegator:   delegator,
			taskTimeout: cfg.TaskTimeout,
			logger:      logger,
			now:         time.Now,
		},
		tracker:   tracker,
		threshold: cfg.QualityThreshold,
		logger:    logger,
		states:    make(map[string]state.State),
	}, nil
}

// CreateContent runs the full workflow for a content request. Expected
// failures (critical phase abort, integration errors) come back inside the
// report with Success=false; the error return covers invalid requests and
// caller cancellation only.
func (s *Service) CreateContent(ctx context.Context, req Request) (result.Report, error) {
	if req.Topic == "" {
		return result.Report{}, fmt.Errorf("%w: topic is required", domain.ErrInvalidRequest)
	}

	workflowID := uuid.NewString()
	s.transition(workflowID, state.Pending)

	start := time.Now()
	s.begin(workflowID)
	report := s.execute(ctx, workflowID, req)
	report.WorkflowID = workflowID
	report.Duration = time.Since(start)
	s.finish(workflowID, report.State)

	return report, nil
}

func (s *Service) execute(ctx context.Context, workflowID string, req Request) result.Report {
	p, err := s.planner.Plan(ctx, req)
	if err != nil {
		s.logger.Error("Planning failed",
			zap.String("workflow_id", workflowID),
			zap.String("topic", req.Topic),
			zap.Error(err),
		)
		return failedReport(err)
	}

	ec := newExecution(workflowID, p, s.gatherKnowledge(ctx, req))

	if err := s.exec.run(ctx, ec); err != nil {
		return result.Report{
			State:   state.Failed,
			Phases:  ec.PhaseResults(),
			Error:   err.Error(),
			Success: false,
		}
	}

	content, err := s.integrator.Merge(ctx, ec.PhaseResults())
	if err != nil {
		s.logger.Error("Content integration failed",
			zap.String("workflow_id", workflowID),
			zap.Error(err),
		)
		return result.Report{
			State:  state.Failed,
			Phases: ec.PhaseResults(),
			Error:  fmt.Errorf("integrate content: %w", err).Error(),
		}
	}

	report := result.Report{
		State:   state.Completed,
		Success: true,
		Content: content,
		Phases:  ec.PhaseResults(),
	}

	assessment, err := s.scorer.Score(ctx, content, req.Domain)
	if err != nil {
		// A broken scorer degrades the quality gate, not the content.
		s.logger.Warn("Quality scoring failed",
			zap.String("workflow_id", workflowID),
			zap.Error(err),
		)
		return report
	}
	report.QualityScore = assessment.Score
	report.QualityMet = assessment.Score >= s.threshold

	if !report.QualityMet {
		report = s.refineOnce(ctx, req, ec, assessment, report)
	}
	return report
}

// refineOnce runs exactly one refinement pass over a reduced plan. A score
// still below threshold afterwards is reported as a flagged success, never
// retried.
func (s *Service) refineOnce(
	ctx context.Context,
	req Request,
	ec *ExecutionContext,
	assessment Assessment,
	report result.Report,
) result.Report {
	reduced, ok := s.refiner.Refine(ec.plan, assessment)
	if !ok {
		return report
	}

	s.logger.Info("Starting refinement pass",
		zap.String("workflow_id", ec.workflowID),
		zap.Float64("score", assessment.Score),
		zap.Float64("threshold", s.threshold),
		zap.Int("tasks", reduced.TaskCount()),
	)
	s.tracker.RecordRefinement()
	report.Refined = true

	// The refinement executes against the same context so refined tasks
	// see the original outputs and knowledge.
	rec := &ExecutionContext{
		workflowID: ec.workflowID,
		plan:       reduced,
		outputs:    ec.Outputs(),
		knowledge:  ec.Knowledge(),
	}
	if err := s.exec.run(ctx, rec); err != nil {
		// Refined phases are non-critical; this is cancellation.
		metrics.RefinementsTotal.WithLabelValues("not_met").Inc()
		return report
	}

	merged := append(ec.PhaseResults(), rec.PhaseResults()...)
	content, err := s.integrator.Merge(ctx, merged)
	if err != nil {
		metrics.RefinementsTotal.WithLabelValues("not_met").Inc()
		s.logger.Warn("Refined content integration failed, keeping original",
			zap.String("workflow_id", ec.workflowID),
			zap.Error(err),
		)
		return report
	}
	report.Content = content
	report.Phases = merged

	rescored, err := s.scorer.Score(ctx, content, req.Domain)
	if err != nil {
		metrics.RefinementsTotal.WithLabelValues("not_met").Inc()
		return report
	}
	report.QualityScore = rescored.Score
	report.QualityMet = rescored.Score >= s.threshold

	if report.QualityMet {
		metrics.RefinementsTotal.WithLabelValues("met").Inc()
	} else {
		metrics.RefinementsTotal.WithLabelValues("not_met").Inc()
	}
	return report
}

// gatherKnowledge retrieves domain context for the workflow. Retrieval
// failure is tolerated: the workflow proceeds without context.
func (s *Service) gatherKnowledge(ctx context.Context, req Request) []document.Document {
	if s.searcher == nil {
		return nil
	}

	sreq, err := request.New(req.Topic, req.Domain, contextMatchCount)
	if err != nil {
		return nil
	}
	docs, err := s.searcher.Search(ctx, sreq)
	if err != nil {
		s.logger.Warn("Knowledge retrieval failed, continuing without context",
			zap.String("topic", req.Topic),
			zap.String("domain", req.Domain),
			zap.Error(err),
		)
		return nil
	}
	return docs
}

// Status returns the lifecycle state of a known workflow.
func (s *Service) Status(workflowID string) (state.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[workflowID]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, workflowID)
	}
	return st, nil
}

// ActiveCount returns the number of in-flight workflows.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Service) begin(workflowID string) {
	s.transition(workflowID, state.Running)
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
	s.tracker.RecordWorkflowStart()
	metrics.ActiveWorkflows.Inc()
}

func (s *Service) finish(workflowID string, terminal state.State) {
	s.transition(workflowID, terminal)
	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	failed := terminal == state.Failed
	s.tracker.RecordWorkflowEnd(failed)
	metrics.ActiveWorkflows.Dec()
	if failed {
		metrics.WorkflowsTotal.WithLabelValues("failed").Inc()
	} else {
		metrics.WorkflowsTotal.WithLabelValues("completed").Inc()
	}
}

func (s *Service) transition(workflowID string, st state.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[workflowID] = st
}

func failedReport(err error) result.Report {
	return result.Report{State: state.Failed, Error: err.Error()}
}
