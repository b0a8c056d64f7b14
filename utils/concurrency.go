package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs jobs on at most maxWorkers goroutines, optionally spacing
// job starts by a minimum gap. It records the first job error; once a job has
// failed or the context is done, jobs that have not started are skipped.
type WorkerPool struct {
	sem chan struct{}
	gap time.Duration
	wg  sync.WaitGroup

	mu        sync.Mutex
	lastStart time.Time
	err       error
}

// NewWorkerPool creates a pool. A non-positive maxWorkers is treated as 1.
func NewWorkerPool(maxWorkers int, gap time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{sem: make(chan struct{}, maxWorkers), gap: gap}
}

// Go schedules job, blocking while all workers are busy.
func (wp *WorkerPool) Go(ctx context.Context, job func(ctx context.Context) error) {
	wp.wg.Add(1)
	select {
	case wp.sem <- struct{}{}:
	case <-ctx.Done():
		wp.fail(ctx.Err())
		wp.wg.Done()
		return
	}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.sem }()

		if wp.failed() {
			return
		}
		if err := wp.wait(ctx); err != nil {
			wp.fail(err)
			return
		}
		if err := job(ctx); err != nil {
			wp.fail(err)
		}
	}()
}

// Wait blocks until every scheduled job has returned and reports the first error.
func (wp *WorkerPool) Wait() error {
	wp.wg.Wait()
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.err
}

func (wp *WorkerPool) fail(err error) {
	wp.mu.Lock()
	if wp.err == nil {
		wp.err = err
	}
	wp.mu.Unlock()
}

func (wp *WorkerPool) failed() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.err != nil
}

// wait holds the job until gap has passed since the previous start.
func (wp *WorkerPool) wait(ctx context.Context) error {
	if wp.gap <= 0 {
		return ctx.Err()
	}

	wp.mu.Lock()
	next := wp.lastStart.Add(wp.gap)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	wp.lastStart = next
	wp.mu.Unlock()

	t := time.NewTimer(time.Until(next))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
