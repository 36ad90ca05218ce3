package result

import (
	"time"

	"github.com/draftmill-io/draftmill/internal/domain/workflow/state"
)

// TaskResult is the outcome of a single delegated task.
type TaskResult struct {
	task     string
	agent    string
	success  bool
	output   string
	err      string
	duration time.Duration
}

// NewTaskResult creates a task outcome. err is empty on success.
func NewTaskResult(task, agent string, success bool, output, err string, duration time.Duration) TaskResult {
	return TaskResult{
		task:     task,
		agent:    agent,
		success:  success,
		output:   output,
		err:      err,
		duration: duration,
	}
}

// Task returns the task name.
func (r *TaskResult) Task() string { return r.task }

// Agent returns the agent the task was delegated to.
func (r *TaskResult) Agent() string { return r.agent }

// Success reports whether the task succeeded.
func (r *TaskResult) Success() bool { return r.success }

// Output returns the task output (empty on failure).
func (r *TaskResult) Output() string { return r.output }

// Err returns the failure description (empty on success).
func (r *TaskResult) Err() string { return r.err }

// Duration returns the task execution time.
func (r *TaskResult) Duration() time.Duration { return r.duration }

// PhaseResult is the outcome of one workflow phase.
// taskResults preserves the phase's declared task order regardless of
// completion order.
type PhaseResult struct {
	name        string
	success     bool
	taskResults []TaskResult
	failedTasks int
	duration    time.Duration
	err         string
}

// NewPhaseResult creates a phase outcome from its task results.
// The phase succeeds only if every task succeeded.
func NewPhaseResult(name string, taskResults []TaskResult, duration time.Duration, err string) PhaseResult {
	failed := 0
	for i := range taskResults {
		if !taskResults[i].success {
			failed++
		}
	}
	return PhaseResult{
		name:        name,
		success:     failed == 0 && err == "",
		taskResults: taskResults,
		failedTasks: failed,
		duration:    duration,
		err:         err,
	}
}

// Name returns the phase name.
func (r *PhaseResult) Name() string { return r.name }

// Success reports whether every task in the phase succeeded.
func (r *PhaseResult) Success() bool { return r.success }

// TaskResults returns per-task outcomes in declared task order.
func (r *PhaseResult) TaskResults() []TaskResult { return r.taskResults }

// FailedTasks returns the number of failed tasks in the phase.
func (r *PhaseResult) FailedTasks() int { return r.failedTasks }

// Duration returns the phase wall-clock time.
func (r *PhaseResult) Duration() time.Duration { return r.duration }

// Err returns the phase-level failure description (empty when only
// individual tasks failed).
func (r *PhaseResult) Err() string { return r.err }

// Report is the terminal outcome of a content workflow, including at most
// one refinement pass.
type Report struct {
	WorkflowID   string
	State        state.State
	Success      bool
	Content      string
	QualityScore float64
	QualityMet   bool
	Refined      bool
	Phases       []PhaseResult
	Error        string
	Duration     time.Duration
}
