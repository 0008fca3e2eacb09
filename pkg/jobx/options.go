package jobx

import (
	"time"

	"github.com/ucbscz/registro/pkg/notifx"
	"github.com/ucbscz/registro/pkg/uniquex"
)

// WorkerOptions configures the worker pool.
type WorkerOptions struct {
	Queues          []string
	Concurrency     int
	PollInterval    time.Duration
	DequeueTimeout  time.Duration
	ShutdownTimeout time.Duration

	// JobTimeout bounds a single command execution; an expired job is failed
	// as transient and its lease released.
	JobTimeout time.Duration

	// RetryDelay is the base backoff for transient failures; the effective
	// delay doubles per attempt.
	RetryDelay time.Duration

	unique   uniquex.Store
	notifier *notifx.Client
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Queues:          []string{"default"},
		Concurrency:     4,
		PollInterval:    time.Second,
		DequeueTimeout:  5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		JobTimeout:      30 * time.Second,
		RetryDelay:      30 * time.Second,
	}
}

// WorkerOption is a functional option for configuring the worker.
type WorkerOption func(*WorkerOptions)

// WithQueues sets the queues to process.
func WithQueues(queues ...string) WorkerOption {
	return func(o *WorkerOptions) {
		if len(queues) > 0 {
			o.Queues = queues
		}
	}
}

// WithConcurrency sets the number of simultaneous job leases.
func WithConcurrency(n int) WorkerOption {
	return func(o *WorkerOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithPollInterval sets the scheduler promotion interval.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

// WithDequeueTimeout sets the timeout passed to the blocking dequeue call.
func WithDequeueTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.DequeueTimeout = d
		}
	}
}

// WithShutdownTimeout sets the maximum time Stop waits for in-flight jobs.
func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithJobTimeout sets the per-job processing timeout.
func WithJobTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.JobTimeout = d
		}
	}
}

// WithRetryDelay sets the base delay before retrying a transient failure.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.RetryDelay = d
		}
	}
}

// WithUniqueStore enables the uniqueness guard for commands that declare a claim.
func WithUniqueStore(store uniquex.Store) WorkerOption {
	return func(o *WorkerOptions) {
		o.unique = store
	}
}

// WithNotifier enables outbound callback notifications on terminal states.
func WithNotifier(client *notifx.Client) WorkerOption {
	return func(o *WorkerOptions) {
		o.notifier = client
	}
}
