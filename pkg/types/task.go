package types

import "time"

// TaskStatus represents the lifecycle state of an execution task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// ExecutionTask tracks one submitted operation invocation. It is created at
// submission time, mutated only by the worker that owns the service's queue,
// and read by any caller through the queue's status lookup.
type ExecutionTask struct {
	// TaskID is generated at submission.
	TaskID string `json:"task_id"`

	// ServiceID names the service the operation targets.
	ServiceID string `json:"service_id"`

	// OperationID names the program to run.
	OperationID string `json:"operation_id"`

	// Parameters are the caller-supplied runtime parameters.
	Parameters map[string]interface{} `json:"parameters,omitempty"`

	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`

	// Result holds the extracted response once the task completes.
	Result string `json:"result,omitempty"`

	// Error holds the failure message once the task fails.
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}
