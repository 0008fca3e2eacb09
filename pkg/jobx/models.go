package jobx

import (
	"encoding/json"
	"time"
)

// Status represents the current state of a job.
type Status string

const (
	// StatusWaiting is the initial state: enqueued, visible to workers.
	StatusWaiting Status = "waiting"
	// StatusActive means a worker holds the lease and is processing the job.
	StatusActive Status = "active"
	// StatusDelayed means the job is scheduled for a future time (initial
	// delay or retry backoff) and not yet eligible for dequeue.
	StatusDelayed Status = "delayed"
	// StatusCompleted is terminal: the command executed and its result is stored.
	StatusCompleted Status = "completed"
	// StatusFailed is terminal: the job exhausted its attempts or failed permanently.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Statuses lists every job status, in lifecycle order.
func Statuses() []Status {
	return []Status{StatusWaiting, StatusActive, StatusDelayed, StatusCompleted, StatusFailed}
}

// Job represents a unit of work to be enqueued.
type Job struct {
	Type    string          `json:"type"`
	Queue   string          `json:"queue"`
	Payload json.RawMessage `json:"payload"`

	// CallbackURL, when set, receives an outbound notification once the job
	// reaches a terminal state.
	CallbackURL string `json:"callback_url,omitempty"`

	// MaxRetries is the maximum number of attempts for transient failures.
	// Default is 3.
	MaxRetries int `json:"max_retries"`
}

// JobInfo is the full representation of a job stored in the backend.
// The queue backend is the single source of truth for Status; only the
// worker holding the active lease mutates a job past enqueue.
type JobInfo struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Status      Status          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	MaxRetries  int             `json:"max_retries"`
	Attempts    int             `json:"attempts"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// DuplicateResult is the soft outcome recorded when the uniqueness cache
// already holds the job's business key. The job completes normally with this
// result so callers can tell "already exists" apart from a system error.
type DuplicateResult struct {
	Success   bool   `json:"success"`
	Duplicate bool   `json:"duplicate"`
	Message   string `json:"message"`
}
