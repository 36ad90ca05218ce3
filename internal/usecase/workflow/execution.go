package workflow

import (
	"sync"

	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/plan"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
)

// ExecutionContext is the mutable per-workflow state. One instance exists
// per in-flight workflow (including its refinement pass) and is destroyed
// with it. Only the owning executor writes; delegators read concurrently
// during parallel phases, so reads go through the mutex.
type ExecutionContext struct {
	workflowID string
	plan       plan.Plan

	mu        sync.RWMutex
	outputs   map[string]string
	phases    []result.PhaseResult
	knowledge []document.Document
}

func newExecution(workflowID string, p plan.Plan, knowledge []document.Document) *ExecutionContext {
	return &ExecutionContext{
		workflowID: workflowID,
		plan:       p,
		outputs:    make(map[string]string),
		knowledge:  knowledge,
	}
}

// WorkflowID returns the owning workflow identifier.
func (ec *ExecutionContext) WorkflowID() string { return ec.workflowID }

// Output returns a completed task's output by task name.
func (ec *ExecutionContext) Output(task string) (string, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	out, ok := ec.outputs[task]
	return out, ok
}

// Outputs returns a copy of all completed task outputs keyed by task name.
func (ec *ExecutionContext) Outputs() map[string]string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	copied := make(map[string]string, len(ec.outputs))
	for k, v := range ec.outputs {
		copied[k] = v
	}
	return copied
}

// Knowledge returns the documents retrieved before the first phase.
func (ec *ExecutionContext) Knowledge() []document.Document {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return append([]document.Document(nil), ec.knowledge...)
}

// PhaseResults returns completed phase outcomes in execution order.
func (ec *ExecutionContext) PhaseResults() []result.PhaseResult {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return append([]result.PhaseResult(nil), ec.phases...)
}

func (ec *ExecutionContext) setOutput(task, output string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.outputs[task] = output
}

func (ec *ExecutionContext) recordPhase(pr result.PhaseResult) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.phases = append(ec.phases, pr)
}
