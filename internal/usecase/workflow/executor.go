package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftmill-io/draftmill/internal/domain"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/plan"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
	"github.com/draftmill-io/draftmill/internal/metrics"
)

// executor runs a plan's phases strictly in order. Parallel phases settle
// all tasks; sequential phases feed each task's output forward through the
// execution context. A critical phase failure aborts the run.
type executor struct {
	delegator   TaskDelegator
	taskTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// run executes every phase of ec's plan. Non-critical failures are
// recorded in phase results and execution continues; only a failed
// critical phase returns an error.
func (e *executor) run(ctx context.Context, ec *ExecutionContext) error {
	for _, phase := range ec.plan.Phases() {
		phase := phase
		start := e.now()

		var taskResults []result.TaskResult
		if phase.Parallel() {
			taskResults = e.runParallel(ctx, &phase, ec)
		} else {
			taskResults = e.runSequential(ctx, &phase, ec)
		}

		pr := result.NewPhaseResult(phase.Name(), taskResults, e.now().Sub(start), "")
		ec.recordPhase(pr)
		metrics.PhaseDuration.WithLabelValues(phase.Name()).Observe(pr.Duration().Seconds())

		if !pr.Success() {
			e.logger.Warn("Phase completed with failures",
				zap.String("workflow_id", ec.workflowID),
				zap.String("phase", phase.Name()),
				zap.Int("failed_tasks", pr.FailedTasks()),
			)
			if phase.Critical() {
				return domain.NewCriticalPhaseFailure(phase.Name(), firstFailure(taskResults))
			}
		}
	}
	return nil
}

// runParallel dispatches all tasks concurrently and settles every one of
// them; a task failure never cancels its siblings. Results land at their
// task's declared index regardless of completion order.
func (e *executor) runParallel(ctx context.Context, phase *plan.Phase, ec *ExecutionContext) []result.TaskResult {
	tasks := phase.Tasks()
	results := make([]result.TaskResult, len(tasks))

	var g errgroup.Group
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = e.runTask(ctx, task, ec)
			return nil
		})
	}
	// Task failures are carried in the results, never as errors.
	_ = g.Wait()

	for i := range results {
		if results[i].Success() {
			ec.setOutput(results[i].Task(), results[i].Output())
		}
	}
	return results
}

// runSequential executes tasks in declared order; each task's output is
// visible to the next through the execution context.
func (e *executor) runSequential(ctx context.Context, phase *plan.Phase, ec *ExecutionContext) []result.TaskResult {
	tasks := phase.Tasks()
	results := make([]result.TaskResult, 0, len(tasks))

	for _, task := range tasks {
		tr := e.runTask(ctx, task, ec)
		if tr.Success() {
			ec.setOutput(tr.Task(), tr.Output())
		}
		results = append(results, tr)
	}
	return results
}

// runTask delegates one task under the configured timeout. Timeouts and
// delegator errors both become failed task results.
func (e *executor) runTask(ctx context.Context, task plan.Task, ec *ExecutionContext) result.TaskResult {
	tctx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	start := e.now()
	output, err := e.delegator.Delegate(tctx, task, ec)
	duration := e.now().Sub(start)

	if err != nil {
		metrics.TaskResultsTotal.WithLabelValues(task.Agent(), "error").Inc()
		e.logger.Warn("Task failed",
			zap.String("workflow_id", ec.workflowID),
			zap.String("task", task.Name()),
			zap.String("agent", task.Agent()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return result.NewTaskResult(task.Name(), task.Agent(), false, "", err.Error(), duration)
	}

	metrics.TaskResultsTotal.WithLabelValues(task.Agent(), "success").Inc()
	return result.NewTaskResult(task.Name(), task.Agent(), true, output, "", duration)
}

func firstFailure(results []result.TaskResult) error {
	for i := range results {
		if !results[i].Success() {
			return errors.New(results[i].Err())
		}
	}
	return nil
}
