package jobx

import (
	"context"
	"encoding/json"
	"time"
)

// Command is a single unit of business logic a job's task type resolves to.
// A Command is constructed fresh per job attempt and executed exactly once.
type Command interface {
	// Execute runs the mutation and returns a result value that will be
	// marshaled and stored verbatim as the job's result.
	Execute(ctx context.Context) (any, error)
}

// Claim identifies a uniqueness-cache claim: a namespace-scoped business key.
type Claim struct {
	Namespace string
	Key       string
}

// Claimer is implemented by create-class commands that must pass the
// uniqueness guard before executing. The worker claims (namespace, key)
// atomically; a conflict short-circuits the job with a duplicate result.
type Claimer interface {
	Claim() (Claim, bool)
}

// CommandFactory translates a (taskType, data) pair into an executable
// Command. Unknown task types fail with ErrUnsupportedTask.
type CommandFactory interface {
	Create(taskType string, data json.RawMessage) (Command, error)
}

// JobEnqueuer enqueues jobs for processing.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job Job) (string, error)
	EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, error)
}

// JobStatusReader reads job status.
type JobStatusReader interface {
	GetJob(ctx context.Context, jobID string) (*JobInfo, error)

	// ListJobs returns the jobs matching any of the given statuses at call
	// time. With no statuses it returns every job.
	ListJobs(ctx context.Context, statuses ...Status) ([]*JobInfo, error)
}

// JobProcessor provides backend operations for the worker loop.
type JobProcessor interface {
	// Dequeue blocks up to timeout for a job from one of the queues. It
	// returns (nil, nil) on timeout and while the queue is paused. A
	// dequeued job is marked active with its attempt count incremented:
	// the caller holds the lease.
	Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*JobInfo, error)

	// Complete transitions the job to its completed terminal state and
	// stores the result exactly as given.
	Complete(ctx context.Context, jobID string, result []byte) error

	// Fail records a failure. When retriable is true and attempts remain the
	// job is parked as delayed and true is returned so the caller schedules
	// the retry; otherwise the job reaches its failed terminal state.
	Fail(ctx context.Context, jobID string, errMsg string, retriable bool) (retry bool, err error)

	// Retry schedules a parked job to re-enter the waiting state after delay.
	Retry(ctx context.Context, jobID string, delay time.Duration) error

	// PromoteScheduled moves due delayed jobs back to their ready queues.
	PromoteScheduled(ctx context.Context, queues []string) error

	// Pause puts the whole queue on hold: dequeues return empty until Resume.
	// Job states are not touched.
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Paused(ctx context.Context) (bool, error)
}

// Queue combines all backend operations.
type Queue interface {
	JobEnqueuer
	JobStatusReader
	JobProcessor
}
