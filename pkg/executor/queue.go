package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pilotlabs/webops/pkg/logging"
	"github.com/pilotlabs/webops/pkg/progress"
	"github.com/pilotlabs/webops/pkg/types"
)

// queueCapacity bounds how many tasks may wait per service. AddTask must
// never block on execution, so a full queue is rejected instead of queued.
const queueCapacity = 64

// ConfigSource resolves the stored config for a service. The queue loads
// programs through it at execution time so re-discovery between submission
// and execution is picked up.
type ConfigSource interface {
	GetServiceConfig(ctx context.Context, serviceID string) (*types.ServiceConfig, error)
}

// worker is one service's queue and the goroutine draining it. A nil task
// on the channel is the stop sentinel.
type worker struct {
	serviceID string
	queue     chan *types.ExecutionTask
	cancel    context.CancelFunc
	done      chan struct{}
}

// ExecutionQueue serializes operation execution per service: each service
// gets exactly one worker goroutine draining its queue in FIFO order, so at
// most one task per service is ever running. Workers for different services
// run concurrently and independently.
type ExecutionQueue struct {
	mu      sync.Mutex // guards workers create-if-absent
	workers map[string]*worker

	tasksMu sync.RWMutex
	tasks   map[string]*types.ExecutionTask

	executor *OperationExecutor
	configs  ConfigSource
	sink     progress.Sink
	logger   *logging.Logger
}

// NewExecutionQueue creates a queue dispatching to the given executor.
func NewExecutionQueue(exec *OperationExecutor, configs ConfigSource, sink progress.Sink) *ExecutionQueue {
	logger, _ := logging.NewLogger("queue")
	return &ExecutionQueue{
		workers:  make(map[string]*worker),
		tasks:    make(map[string]*types.ExecutionTask),
		executor: exec,
		configs:  configs,
		sink:     sink,
		logger:   logger,
	}
}

// AddTask enqueues an operation invocation for a service and returns the
// new task's id immediately. The service's worker is created lazily and
// exactly once; a stopped service gets a fresh worker on the next AddTask.
func (q *ExecutionQueue) AddTask(serviceID, operationID string, parameters map[string]interface{}) (string, error) {
	task := &types.ExecutionTask{
		TaskID:      uuid.New().String(),
		ServiceID:   serviceID,
		OperationID: operationID,
		Parameters:  parameters,
		Status:      types.TaskPending,
		CreatedAt:   time.Now(),
	}

	q.tasksMu.Lock()
	q.tasks[task.TaskID] = task
	q.tasksMu.Unlock()

	w := q.workerFor(serviceID)

	select {
	case w.queue <- task:
	default:
		q.tasksMu.Lock()
		delete(q.tasks, task.TaskID)
		q.tasksMu.Unlock()
		return "", fmt.Errorf("queue for service %s is full", serviceID)
	}

	q.logger.Infof("service %s: task %s queued (%s)", serviceID, task.TaskID, operationID)
	return task.TaskID, nil
}

// workerFor returns the service's worker, creating it if absent. One mutex
// covers the check-then-create so concurrent AddTask calls cannot spawn two
// workers for the same service.
func (q *ExecutionQueue) workerFor(serviceID string) *worker {
	q.mu.Lock()
	defer q.mu.Unlock()

	if w, ok := q.workers[serviceID]; ok {
		return w
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		serviceID: serviceID,
		queue:     make(chan *types.ExecutionTask, queueCapacity),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	q.workers[serviceID] = w
	go q.runWorker(ctx, w)

	q.logger.Infof("service %s: worker started", serviceID)
	return w
}

// GetTaskStatus returns a copy of the task, or nil if the id is unknown.
func (q *ExecutionQueue) GetTaskStatus(taskID string) *types.ExecutionTask {
	q.tasksMu.RLock()
	defer q.tasksMu.RUnlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return nil
	}
	copied := *task
	return &copied
}

// StopQueue stops the service's worker: sentinel first so an idle worker
// exits cleanly, then cancel for one stuck mid-task, then await. The worker
// entry is removed, so a later AddTask re-creates a fresh worker rather
// than enqueueing onto a dead one.
func (q *ExecutionQueue) StopQueue(serviceID string) {
	q.mu.Lock()
	w, ok := q.workers[serviceID]
	if ok {
		delete(q.workers, serviceID)
	}
	q.mu.Unlock()

	if !ok {
		return
	}

	select {
	case w.queue <- nil:
	default:
	}
	w.cancel()
	<-w.done

	q.logger.Infof("service %s: worker stopped", serviceID)
}

// Shutdown stops every known service's worker.
func (q *ExecutionQueue) Shutdown() {
	q.mu.Lock()
	serviceIDs := make([]string, 0, len(q.workers))
	for serviceID := range q.workers {
		serviceIDs = append(serviceIDs, serviceID)
	}
	q.mu.Unlock()

	for _, serviceID := range serviceIDs {
		q.StopQueue(serviceID)
	}
}

// runWorker drains one service's queue until the sentinel or cancellation.
// A failing task never crashes the worker; it is marked failed and the
// worker moves on to the next queued task.
func (q *ExecutionQueue) runWorker(ctx context.Context, w *worker) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			if task == nil {
				return
			}
			q.runTask(ctx, w.serviceID, task)
		}
	}
}

func (q *ExecutionQueue) runTask(ctx context.Context, serviceID string, task *types.ExecutionTask) {
	q.tasksMu.Lock()
	task.Status = types.TaskRunning
	task.StartedAt = time.Now()
	q.tasksMu.Unlock()

	q.sink.SendExecutionLog(serviceID, "info",
		fmt.Sprintf("task %s started: %s", task.TaskID, task.OperationID))

	result, err := q.execute(ctx, serviceID, task)

	q.tasksMu.Lock()
	task.CompletedAt = time.Now()
	if err != nil {
		task.Status = types.TaskFailed
		task.Error = err.Error()
	} else {
		task.Status = types.TaskCompleted
		task.Result = result
	}
	duration := task.CompletedAt.Sub(task.StartedAt)
	q.tasksMu.Unlock()

	if err != nil {
		q.logger.Errorf("service %s: task %s failed after %s: %v", serviceID, task.TaskID, duration, err)
		q.sink.SendExecutionLog(serviceID, "error",
			fmt.Sprintf("task %s failed: %v", task.TaskID, err))
		return
	}

	q.logger.Infof("service %s: task %s completed in %s", serviceID, task.TaskID, duration)
	q.sink.SendExecutionLog(serviceID, "info",
		fmt.Sprintf("task %s completed in %s", task.TaskID, duration))
}

// execute resolves the task's program from the stored config and runs it.
// The browser context id is the service id; that one-to-one mapping plus
// per-service serialization is what keeps concurrent operations off the
// same context.
func (q *ExecutionQueue) execute(ctx context.Context, serviceID string, task *types.ExecutionTask) (string, error) {
	config, err := q.configs.GetServiceConfig(ctx, serviceID)
	if err != nil {
		return "", fmt.Errorf("failed to load service config: %w", err)
	}

	program := config.Operation(task.OperationID)
	if program == nil {
		return "", &types.OperationNotFoundError{ServiceID: serviceID, OperationID: task.OperationID}
	}

	return q.executor.Execute(ctx, program, task.Parameters, serviceID)
}
