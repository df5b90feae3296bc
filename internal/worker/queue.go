// Package worker provides a small in-process task queue for advisory
// background work (stat recomputation, streak cache writes). Task failure
// is logged and retried a bounded number of times; it never affects the
// user-facing response that enqueued it.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ritualhq/ritual/backend/internal/logger"
)

// Task is one unit of background work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a buffered channel drained by a fixed pool of workers.
type Queue struct {
	tasks       chan Task
	wg          sync.WaitGroup
	log         logger.Logger
	maxAttempts int
	retryDelay  time.Duration

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewQueue creates a queue with the given buffer size and worker count.
func NewQueue(size, workers int, log logger.Logger) *Queue {
	if size < 1 {
		size = 64
	}
	if workers < 1 {
		workers = 2
	}

	q := &Queue{
		tasks:       make(chan Task, size),
		log:         log,
		maxAttempts: 3,
		retryDelay:  time.Second,
	}

	q.start(workers)
	return q
}

func (q *Queue) start(workers int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for task := range q.tasks {
		q.run(task)
	}
}

func (q *Queue) run(task Task) {
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		err := q.attempt(task)
		if err == nil {
			return
		}

		if attempt < q.maxAttempts {
			q.log.Warn("background task failed, retrying",
				logger.String("task", task.Name),
				logger.Int("attempt", attempt),
				logger.Err(err),
			)
			time.Sleep(q.retryDelay)
			continue
		}

		q.log.Error("background task gave up",
			logger.String("task", task.Name),
			logger.Int("attempts", attempt),
			logger.Err(err),
		)
	}
}

func (q *Queue) attempt(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return task.Run(ctx)
}

// Submit enqueues a task. It never blocks; when the buffer is full the
// task is dropped with a warning, since all queued work is advisory.
func (q *Queue) Submit(task Task) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.mu.Unlock()

	select {
	case q.tasks <- task:
		return true
	default:
		q.log.Warn("task queue full, dropping task", logger.String("task", task.Name))
		return false
	}
}

// Shutdown stops accepting tasks and waits for in-flight work to drain,
// bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
