package workflow

import (
	"context"

	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/request"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/plan"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
)

// Planner builds the phase plan for a content request.
type Planner interface {
	Plan(ctx context.Context, req Request) (plan.Plan, error)
}

// TaskDelegator executes one delegated task. Failures must come back as an
// error value; the executor converts them to task results and never panics.
// Implementations may read prior outputs and retrieved knowledge from the
// execution context.
type TaskDelegator interface {
	Delegate(ctx context.Context, task plan.Task, ec *ExecutionContext) (string, error)
}

// ContentIntegrator merges per-phase outcomes into the final content.
type ContentIntegrator interface {
	Merge(ctx context.Context, phases []result.PhaseResult) (string, error)
}

// Assessment is the quality scorer's verdict on integrated content.
// Targets names the agents whose output needs rework; the default
// refinement planner selects tasks by these names.
type Assessment struct {
	Score    float64
	Feedback string
	Targets  []string
}

// QualityScorer evaluates integrated content for a domain.
type QualityScorer interface {
	Score(ctx context.Context, content, domain string) (Assessment, error)
}

// RefinementPlanner reduces the original plan to the tasks relevant to the
// assessment. Returning false means no reduced plan could be built and the
// refinement pass is skipped.
type RefinementPlanner interface {
	Refine(original plan.Plan, assessment Assessment) (plan.Plan, bool)
}

// KnowledgeSearcher is the retrieval facade consumed by the workflow to
// gather context before the first phase runs.
type KnowledgeSearcher interface {
	Search(ctx context.Context, req request.Request) ([]document.Document, error)
}
