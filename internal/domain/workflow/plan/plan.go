package plan

import "fmt"

// Task is a single unit of delegated work. The payload is opaque to the
// executor and passed through to the task delegator unchanged.
type Task struct {
	name    string
	agent   string
	payload map[string]any
}

// NewTask creates a task bound to a logical agent.
func NewTask(name, agent string, payload map[string]any) (Task, error) {
	if name == "" {
		return Task{}, fmt.Errorf("task name is required")
	}
	if agent == "" {
		return Task{}, fmt.Errorf("task %q: agent is required", name)
	}
	return Task{name: name, agent: agent, payload: payload}, nil
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Agent returns the logical agent the task is delegated to.
func (t *Task) Agent() string { return t.agent }

// Payload returns the opaque task payload.
func (t *Task) Payload() map[string]any { return t.payload }

// Phase is an ordered group of tasks executed together.
type Phase struct {
	name     string
	parallel bool
	critical bool
	tasks    []Task
}

// NewPhase creates a phase. Critical phases abort the workflow on failure;
// parallel phases dispatch all tasks concurrently.
func NewPhase(name string, parallel, critical bool, tasks []Task) (Phase, error) {
	if name == "" {
		return Phase{}, fmt.Errorf("phase name is required")
	}
	if len(tasks) == 0 {
		return Phase{}, fmt.Errorf("phase %q: at least one task is required", name)
	}
	return Phase{
		name:     name,
		parallel: parallel,
		critical: critical,
		tasks:    append([]Task(nil), tasks...),
	}, nil
}

// Name returns the phase name.
func (p *Phase) Name() string { return p.name }

// Parallel reports whether tasks run concurrently.
func (p *Phase) Parallel() bool { return p.parallel }

// Critical reports whether a phase failure aborts the workflow.
func (p *Phase) Critical() bool { return p.critical }

// Tasks returns the tasks in declared order.
func (p *Phase) Tasks() []Task { return p.tasks }

// Plan is an ordered sequence of phases. Read-only for the executor.
type Plan struct {
	phases []Phase
}

// New creates a plan. Phase names must be unique: per-phase results are
// keyed by name.
func New(phases []Phase) (Plan, error) {
	if len(phases) == 0 {
		return Plan{}, fmt.Errorf("at least one phase is required")
	}
	seen := make(map[string]struct{}, len(phases))
	for _, p := range phases {
		if _, dup := seen[p.name]; dup {
			return Plan{}, fmt.Errorf("duplicate phase name %q", p.name)
		}
		seen[p.name] = struct{}{}
	}
	return Plan{phases: append([]Phase(nil), phases...)}, nil
}

// Phases returns the phases in execution order.
func (p *Plan) Phases() []Phase { return p.phases }

// TaskCount returns the total number of tasks across all phases.
func (p *Plan) TaskCount() int {
	n := 0
	for _, ph := range p.phases {
		n += len(ph.tasks)
	}
	return n
}
