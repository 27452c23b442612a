package types

import (
	"errors"
	"fmt"
)

// DiscoveryError wraps the first failing phase's underlying error. A failed
// discovery run yields no ServiceConfig.
type DiscoveryError struct {
	// Phase names the pipeline phase that failed.
	Phase string

	// Err is the underlying cause.
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed in phase %s: %v", e.Phase, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ErrLoginFailed is the fatal login outcome within discovery. It is never
// retried; discovery cannot continue without an authenticated session.
var ErrLoginFailed = errors.New("login failed: cannot continue discovery")

// OperationNotFoundError reports a caller asking for an operation id the
// service's stored config does not contain.
type OperationNotFoundError struct {
	ServiceID   string
	OperationID string
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("operation %q not found for service %q", e.OperationID, e.ServiceID)
}

// StepExecutionError reports a non-optional step failing. It is fatal to the
// task it occurred in but never to the worker processing the queue.
type StepExecutionError struct {
	// Index is the step's position in the program.
	Index int

	// Action is the step kind that failed.
	Action StepAction

	// Err is the underlying cause.
	Err error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Action, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }

// ResponseTimeoutError reports the completion-polling loop exhausting its
// budget without the submit control re-enabling.
type ResponseTimeoutError struct {
	// TimeoutMs is the budget that was exhausted.
	TimeoutMs float64
}

func (e *ResponseTimeoutError) Error() string {
	return fmt.Sprintf("response not complete after %.0fms", e.TimeoutMs)
}

// ErrExtractionFailed is raised when both extraction strategies (AI-semantic
// and plain text) failed or returned empty content. There is no third
// fallback.
var ErrExtractionFailed = errors.New("response extraction failed: all strategies exhausted")
