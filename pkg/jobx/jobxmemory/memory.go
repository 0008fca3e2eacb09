// Package jobxmemory provee una implementacion en memoria de jobx.Queue.
// Pensada para desarrollo y tests; no es durable.
package jobxmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ucbscz/registro/pkg/jobx"
)

const pollEvery = 10 * time.Millisecond

// MemoryQueue implements jobx.Queue with plain maps behind a mutex.
type MemoryQueue struct {
	mu        sync.Mutex
	jobs      map[string]*jobx.JobInfo
	ready     map[string][]string  // queue name -> job ids, FIFO
	scheduled map[string]time.Time // job id -> due time
	paused    bool
}

var _ jobx.Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		jobs:      make(map[string]*jobx.JobInfo),
		ready:     make(map[string][]string),
		scheduled: make(map[string]time.Time),
	}
}

func newJobInfo(job jobx.Job) *jobx.JobInfo {
	now := time.Now().UTC()
	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &jobx.JobInfo{
		ID:          uuid.New().String(),
		Type:        job.Type,
		Queue:       job.Queue,
		Payload:     job.Payload,
		CallbackURL: job.CallbackURL,
		Status:      jobx.StatusWaiting,
		MaxRetries:  maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Enqueue adds a job to the ready queue immediately.
func (q *MemoryQueue) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	info := newJobInfo(job)
	q.jobs[info.ID] = info
	q.ready[job.Queue] = append(q.ready[job.Queue], info.ID)
	return info.ID, nil
}

// EnqueueDelayed schedules a job for a future time.
func (q *MemoryQueue) EnqueueDelayed(_ context.Context, job jobx.Job, delay time.Duration) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	info := newJobInfo(job)
	info.Status = jobx.StatusDelayed
	q.jobs[info.ID] = info
	q.scheduled[info.ID] = time.Now().UTC().Add(delay)
	return info.ID, nil
}

// GetJob retrieves job info by ID.
func (q *MemoryQueue) GetJob(_ context.Context, jobID string) (*jobx.JobInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	info, ok := q.jobs[jobID]
	if !ok {
		return nil, jobx.Errors().New(jobx.ErrJobNotFound).WithDetail("job_id", jobID)
	}
	cp := *info
	return &cp, nil
}

// ListJobs returns jobs in any of the given statuses, oldest first.
func (q *MemoryQueue) ListJobs(_ context.Context, statuses ...jobx.Status) ([]*jobx.JobInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	match := func(s jobx.Status) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, want := range statuses {
			if s == want {
				return true
			}
		}
		return false
	}

	var jobs []*jobx.JobInfo
	for _, info := range q.jobs {
		if match(info.Status) {
			cp := *info
			jobs = append(jobs, &cp)
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs, nil
}

// Dequeue polls for a ready job until one appears, the timeout expires or the
// context is cancelled. While paused it never hands out jobs.
func (q *MemoryQueue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	deadline := time.Now().Add(timeout)

	for {
		if info := q.tryDequeue(queues); info != nil {
			return info, nil
		}

		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(pollEvery):
		}
	}
}

func (q *MemoryQueue) tryDequeue(queues []string) *jobx.JobInfo {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.paused {
		return nil
	}

	for _, name := range queues {
		ids := q.ready[name]
		if len(ids) == 0 {
			continue
		}
		id := ids[0]
		q.ready[name] = ids[1:]

		info, ok := q.jobs[id]
		if !ok {
			continue
		}

		now := time.Now().UTC()
		info.Status = jobx.StatusActive
		info.Attempts++
		info.UpdatedAt = now
		if info.StartedAt == nil {
			started := now
			info.StartedAt = &started
		}

		cp := *info
		return &cp
	}
	return nil
}

// Complete marks a job as successfully completed and stores its result.
func (q *MemoryQueue) Complete(_ context.Context, jobID string, result []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	info, ok := q.jobs[jobID]
	if !ok {
		return jobx.Errors().New(jobx.ErrJobNotFound).WithDetail("job_id", jobID)
	}
	if info.Status.Terminal() {
		return jobx.Errors().New(jobx.ErrAlreadyTerminal).WithDetail("job_id", jobID)
	}

	now := time.Now().UTC()
	info.Status = jobx.StatusCompleted
	info.Result = result
	info.UpdatedAt = now
	info.FinishedAt = &now
	return nil
}

// Fail records a failure, parking the job as delayed when a retry is due.
func (q *MemoryQueue) Fail(_ context.Context, jobID string, errMsg string, retriable bool) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	info, ok := q.jobs[jobID]
	if !ok {
		return false, jobx.Errors().New(jobx.ErrJobNotFound).WithDetail("job_id", jobID)
	}
	if info.Status.Terminal() {
		return false, jobx.Errors().New(jobx.ErrAlreadyTerminal).WithDetail("job_id", jobID)
	}

	shouldRetry := retriable && info.Attempts < info.MaxRetries

	now := time.Now().UTC()
	info.Error = errMsg
	info.UpdatedAt = now
	if shouldRetry {
		info.Status = jobx.StatusDelayed
	} else {
		info.Status = jobx.StatusFailed
		info.FinishedAt = &now
	}
	return shouldRetry, nil
}

// Retry schedules a parked job to re-enter its ready queue after delay.
func (q *MemoryQueue) Retry(_ context.Context, jobID string, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.jobs[jobID]; !ok {
		return jobx.Errors().New(jobx.ErrJobNotFound).WithDetail("job_id", jobID)
	}
	q.scheduled[jobID] = time.Now().UTC().Add(delay)
	return nil
}

// PromoteScheduled moves due delayed jobs back to their ready queues.
func (q *MemoryQueue) PromoteScheduled(_ context.Context, queues []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	inScope := func(name string) bool {
		for _, n := range queues {
			if n == name {
				return true
			}
		}
		return false
	}

	for id, due := range q.scheduled {
		if due.After(now) {
			continue
		}
		info, ok := q.jobs[id]
		if !ok {
			delete(q.scheduled, id)
			continue
		}
		if !inScope(info.Queue) {
			continue
		}
		// Only delayed jobs are promoted; a job a consumer already leased
		// keeps its lease and the stale scheduled entry is dropped.
		if info.Status != jobx.StatusDelayed {
			delete(q.scheduled, id)
			continue
		}

		delete(q.scheduled, id)
		info.Status = jobx.StatusWaiting
		info.UpdatedAt = now
		q.ready[info.Queue] = append(q.ready[info.Queue], id)
	}
	return nil
}

// Pause puts the whole queue on hold. Job states are untouched.
func (q *MemoryQueue) Pause(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = true
	return nil
}

// Resume lifts a previous Pause.
func (q *MemoryQueue) Resume(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = false
	return nil
}

// Paused reports whether the queue is currently paused.
func (q *MemoryQueue) Paused(_ context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused, nil
}
