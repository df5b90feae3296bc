package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ritualhq/ritual/backend/internal/logger"
)

func testQueue(size, workers int) *Queue {
	q := NewQueue(size, workers, logger.Default())
	q.retryDelay = time.Millisecond
	return q
}

func TestQueue_RunsSubmittedTasks(t *testing.T) {
	q := testQueue(8, 2)

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := q.Submit(Task{
			Name: "count",
			Run: func(ctx context.Context) error {
				defer wg.Done()
				atomic.AddInt32(&ran, 1)
				return nil
			},
		})
		if !ok {
			t.Fatal("Submit should accept tasks while the buffer has room")
		}
	}
	wg.Wait()

	if atomic.LoadInt32(&ran) != 5 {
		t.Errorf("Expected 5 tasks run, got %d", ran)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestQueue_RetriesFailedTasks(t *testing.T) {
	q := testQueue(8, 1)

	var attempts int32
	done := make(chan struct{})
	q.Submit(Task{
		Name: "flaky",
		Run: func(ctx context.Context) error {
			if atomic.AddInt32(&attempts, 1) < 3 {
				return errors.New("transient")
			}
			close(done)
			return nil
		},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Task was not retried to success")
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = q.Shutdown(ctx)
}

func TestQueue_RecoversFromPanic(t *testing.T) {
	q := testQueue(8, 1)

	q.Submit(Task{
		Name: "boom",
		Run: func(ctx context.Context) error {
			panic("unexpected")
		},
	})

	// A panicking task must not kill the worker
	done := make(chan struct{})
	q.Submit(Task{
		Name: "after",
		Run: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not survive a panicking task")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = q.Shutdown(ctx)
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := testQueue(1, 1)

	block := make(chan struct{})
	running := make(chan struct{})
	q.Submit(Task{
		Name: "blocker",
		Run: func(ctx context.Context) error {
			close(running)
			<-block
			return nil
		},
	})

	// Wait until the worker holds the blocker so the buffer is empty
	select {
	case <-running:
	case <-time.After(2 * time.Second):
		t.Fatal("Blocker task never started")
	}

	// Fill the single buffer slot, then overflow it
	filled := false
	dropped := false
	for i := 0; i < 10; i++ {
		if q.Submit(Task{Name: "filler", Run: func(ctx context.Context) error { return nil }}) {
			filled = true
		} else {
			dropped = true
			break
		}
	}
	close(block)

	if !filled || !dropped {
		t.Errorf("Expected the buffer to fill and then drop, filled=%v dropped=%v", filled, dropped)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = q.Shutdown(ctx)
}

func TestQueue_SubmitAfterShutdownIsRejected(t *testing.T) {
	q := testQueue(8, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if q.Submit(Task{Name: "late", Run: func(ctx context.Context) error { return nil }}) {
		t.Error("Expected Submit to reject tasks after shutdown")
	}
}
