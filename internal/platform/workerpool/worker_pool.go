// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mailscout/internal/platform/logx"
)

// DefaultWorkers is used when the configured worker count is not positive.
const DefaultWorkers = 10

// Task is a unit of work executed by the pool.
type Task interface {
	// Execute runs the task. The context is canceled when the run is aborted.
	Execute(ctx context.Context) error

	// Name identifies the task in logs.
	Name() string
}

// TaskResult is the outcome of one task. Results are returned in the same
// order as the submitted tasks, whatever the completion order was.
type TaskResult struct {
	Task     Task
	Index    int
	Error    error
	Skipped  bool // never started because the context was canceled
	Duration time.Duration
}

// WorkerPoolConfig configures the pool.
type WorkerPoolConfig struct {
	Workers int
	Logger  logx.Logger
}

// WorkerPool runs tasks on a fixed number of goroutines.
type WorkerPool struct {
	workers int
	logger  logx.Logger
}

// NewWorkerPool creates a pool.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.NewNop()
	}

	return &WorkerPool{
		workers: cfg.Workers,
		logger:  cfg.Logger.With("component", "worker-pool"),
	}
}

// Workers returns the configured pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Run executes every task on min(Workers, len(tasks)) goroutines and blocks
// until all of them have finished. Once ctx is canceled no new task is
// started; the remaining ones are returned with Skipped set. In-flight tasks
// are allowed to complete.
func (wp *WorkerPool) Run(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	n := min(wp.workers, len(tasks))
	wp.logger.Debug("starting worker pool", "workers", n, "tasks", len(tasks))

	queue := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go wp.worker(ctx, i, tasks, queue, results, &wg)
	}

	next := 0
feed:
	for ; next < len(tasks); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case queue <- next:
		}
	}
	close(queue)
	wg.Wait()

	if next < len(tasks) {
		wp.logger.Warn("run canceled, skipping remaining tasks", "skipped", len(tasks)-next)
	}
	for i := next; i < len(tasks); i++ {
		results[i] = TaskResult{
			Task:    tasks[i],
			Index:   i,
			Error:   ctx.Err(),
			Skipped: true,
		}
	}

	return results
}

func (wp *WorkerPool) worker(ctx context.Context, id int, tasks []Task, queue <-chan int, results []TaskResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for idx := range queue {
		results[idx] = wp.execute(ctx, id, idx, tasks[idx])
	}

	wp.logger.Debug("worker stopped", "worker_id", id)
}

func (wp *WorkerPool) execute(ctx context.Context, workerID, idx int, task Task) (res TaskResult) {
	start := time.Now()
	res = TaskResult{Task: task, Index: idx}

	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Errorf("task %s panicked: %v", task.Name(), r)
			wp.logger.Warn("task panicked", "worker_id", workerID, "task", task.Name(), "panic", r)
		}
		res.Duration = time.Since(start)
	}()

	res.Error = task.Execute(ctx)

	wp.logger.Debug("task completed",
		"worker_id", workerID,
		"task", task.Name(),
		"duration_ms", time.Since(start).Milliseconds(),
		"error", res.Error != nil,
	)
	return res
}
