package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmpty is returned by Pop when no job arrived within the timeout.
var ErrEmpty = errors.New("queue is empty")

// Job is one queued documentation build request.
type Job struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"` // empty means latest
}

// NewJob creates a Job with a fresh id.
func NewJob(name, version string) Job {
	return Job{ID: uuid.NewString(), Name: name, Version: version}
}

// Queue is a FIFO build queue shared between producers and workers.
//
// Pop blocks until a job is available, the timeout elapses (ErrEmpty), or
// the context is cancelled. A timeout of zero blocks indefinitely.
type Queue interface {
	Push(ctx context.Context, job Job) error
	Pop(ctx context.Context, timeout time.Duration) (Job, error)
	Len(ctx context.Context) (int64, error)
}
