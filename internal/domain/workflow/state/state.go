package state

// State is the lifecycle state of a workflow.
type State string

// Workflow state constants.
const (
	Pending   State = "pending"
	Running   State = "running"
	Completed State = "completed"
	Failed    State = "failed"
)

// IsValid checks if the state is one of the supported values.
func (s State) IsValid() bool {
	return s == Pending || s == Running || s == Completed || s == Failed
}

// Terminal reports whether the workflow has finished.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}
