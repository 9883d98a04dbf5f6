package queue

import (
	"context"
	"sync"
	"time"
)

// Memory is an unbounded in-process queue for single-process deployments
// and tests.
type Memory struct {
	mu    sync.Mutex
	jobs  []Job
	ready chan struct{} // closed and replaced whenever a job arrives
}

// NewMemory creates an empty in-process queue.
func NewMemory() *Memory {
	return &Memory{ready: make(chan struct{})}
}

// Push appends a job and wakes every blocked Pop.
func (q *Memory) Push(_ context.Context, job Job) error {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	close(q.ready)
	q.ready = make(chan struct{})
	q.mu.Unlock()
	return nil
}

// Pop removes the oldest job, waiting up to timeout for one to arrive.
func (q *Memory) Pop(ctx context.Context, timeout time.Duration) (Job, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return job, nil
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-deadline:
			return Job{}, ErrEmpty
		case <-ctx.Done():
			return Job{}, ctx.Err()
		}
	}
}

// Len reports the number of queued jobs.
func (q *Memory) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.jobs)), nil
}
