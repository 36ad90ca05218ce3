// Package domain holds the core value types and error contracts shared
// between the usecase, repository, and transport layers.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across layers. Transport maps them to HTTP
// status codes with errors.Is.
var (
	// ErrInvalidRequest marks client-side validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRateLimited marks requests rejected by the fixed-window limiter.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrMissingCollaborator marks a workflow plan that names an agent no
	// registered delegator can serve.
	ErrMissingCollaborator = errors.New("missing collaborator")

	// ErrCriticalPhaseFailed marks a workflow aborted by a critical phase.
	ErrCriticalPhaseFailed = errors.New("critical phase failed")

	// ErrWorkflowNotFound marks a status lookup for an unknown workflow.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrEmbeddingProviderError marks upstream embedding API failures.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// CriticalPhaseError reports which phase aborted the workflow and why.
type CriticalPhaseError struct {
	Phase string
	Cause error
}

// NewCriticalPhaseFailure creates a workflow abort error for a phase.
func NewCriticalPhaseFailure(phase string, cause error) *CriticalPhaseError {
	return &CriticalPhaseError{Phase: phase, Cause: cause}
}

// Error implements the error interface.
func (e *CriticalPhaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("critical phase %q failed: %v", e.Phase, e.Cause)
	}
	return fmt.Sprintf("critical phase %q failed", e.Phase)
}

// Unwrap makes errors.Is(err, ErrCriticalPhaseFailed) work.
func (e *CriticalPhaseError) Unwrap() error { return ErrCriticalPhaseFailed }
