// Package jobxredis implementa jobx.Queue sobre Redis. Los trabajos se
// guardan como JSON bajo una clave por id, las colas listas son listas
// (LPUSH/BRPOP), los trabajos diferidos viven en un sorted set por cola y un
// set por estado mantiene el indice para listados.
package jobxredis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/ucbscz/registro/pkg/jobx"
)

// DefaultPrefix is the key namespace used when none is given.
const DefaultPrefix = "registro:jobs"

// RedisQueue implements jobx.Queue backed by Redis.
type RedisQueue struct {
	rdb    *redis.Client
	prefix string
}

var _ jobx.Queue = (*RedisQueue)(nil)

// NewRedisQueue creates a new Redis-backed queue under the given key prefix.
func NewRedisQueue(rdb *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisQueue{rdb: rdb, prefix: prefix}
}

// Key helpers
func (q *RedisQueue) jobKey(id string) string { return fmt.Sprintf("%s:job:%s", q.prefix, id) }
func (q *RedisQueue) queueKey(name string) string {
	return fmt.Sprintf("%s:queue:%s", q.prefix, name)
}
func (q *RedisQueue) scheduledKey(name string) string {
	return fmt.Sprintf("%s:scheduled:%s", q.prefix, name)
}
func (q *RedisQueue) stateKey(s jobx.Status) string {
	return fmt.Sprintf("%s:state:%s", q.prefix, s)
}
func (q *RedisQueue) pausedKey() string { return q.prefix + ":paused" }

// save persists the job document and keeps the state index in sync. prev is
// the status the job held before this write; pass the same status when it did
// not change.
func (q *RedisQueue) save(ctx context.Context, info *jobx.JobInfo, prev jobx.Status) error {
	data, err := json.Marshal(info)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", info.ID)
	}

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, q.jobKey(info.ID), data, 0)
	if prev != info.Status {
		pipe.SRem(ctx, q.stateKey(prev), info.ID)
	}
	pipe.SAdd(ctx, q.stateKey(info.Status), info.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// Enqueue adds a job to the ready queue immediately.
func (q *RedisQueue) Enqueue(ctx context.Context, job jobx.Job) (string, error) {
	info := newJobInfo(job)

	data, err := json.Marshal(info)
	if err != nil {
		return "", redisErrors.NewWithCause(ErrMarshal, err)
	}

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, q.jobKey(info.ID), data, 0)
	pipe.SAdd(ctx, q.stateKey(jobx.StatusWaiting), info.ID)
	pipe.LPush(ctx, q.queueKey(job.Queue), info.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).WithDetail("queue", job.Queue)
	}

	return info.ID, nil
}

// EnqueueDelayed adds a job to the scheduled set with a future execution time.
func (q *RedisQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, delay time.Duration) (string, error) {
	info := newJobInfo(job)
	info.Status = jobx.StatusDelayed

	data, err := json.Marshal(info)
	if err != nil {
		return "", redisErrors.NewWithCause(ErrMarshal, err)
	}

	score := float64(time.Now().UTC().Add(delay).Unix())

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, q.jobKey(info.ID), data, 0)
	pipe.SAdd(ctx, q.stateKey(jobx.StatusDelayed), info.ID)
	pipe.ZAdd(ctx, q.scheduledKey(job.Queue), redis.Z{Score: score, Member: info.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).
			WithDetail("queue", job.Queue).
			WithDetail("delay", delay.String())
	}

	return info.ID, nil
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
		Attempts:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GetJob retrieves job info by ID.
func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*jobx.JobInfo, error) {
	data, err := q.rdb.Get(ctx, q.jobKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, redisErrors.New(ErrNotFound).WithDetail("job_id", jobID)
		}
		return nil, redisErrors.NewWithCause(ErrGetJob, err).WithDetail("job_id", jobID)
	}

	var info jobx.JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", jobID)
	}

	return &info, nil
}

// ListJobs returns jobs in any of the given statuses, oldest first. With no
// statuses every job is returned.
func (q *RedisQueue) ListJobs(ctx context.Context, statuses ...jobx.Status) ([]*jobx.JobInfo, error) {
	if len(statuses) == 0 {
		statuses = jobx.Statuses()
	}

	var jobs []*jobx.JobInfo
	for _, status := range statuses {
		ids, err := q.rdb.SMembers(ctx, q.stateKey(status)).Result()
		if err != nil {
			return nil, redisErrors.NewWithCause(ErrListJobs, err).WithDetail("status", string(status))
		}
		if len(ids) == 0 {
			continue
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = q.jobKey(id)
		}

		values, err := q.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, redisErrors.NewWithCause(ErrListJobs, err).WithDetail("status", string(status))
		}

		for _, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue // job document expired or removed, skip the index entry
			}
			var info jobx.JobInfo
			if err := json.Unmarshal([]byte(raw), &info); err != nil {
				return nil, redisErrors.NewWithCause(ErrUnmarshal, err)
			}
			jobs = append(jobs, &info)
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs, nil
}

// Dequeue blocks until a job is available from one of the given queues or the
// timeout expires. While the queue is paused it waits out the timeout and
// returns empty without touching Redis lists.
func (q *RedisQueue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	paused, err := q.Paused(ctx)
	if err != nil {
		return nil, err
	}
	if paused {
		select {
		case <-ctx.Done():
		case <-time.After(timeout):
		}
		return nil, nil
	}

	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = q.queueKey(name)
	}

	result, err := q.rdb.BRPop(ctx, timeout, keys...).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // timeout, no job
		}
		if ctx.Err() != nil {
			return nil, nil // context cancelled
		}
		return nil, redisErrors.NewWithCause(ErrDequeue, err)
	}

	// result[0] = key, result[1] = job ID
	jobID := result[1]

	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	prev := info.Status
	now := time.Now().UTC()
	info.Status = jobx.StatusActive
	info.Attempts++
	info.UpdatedAt = now
	if info.StartedAt == nil {
		info.StartedAt = &now
	}

	if err := q.save(ctx, info, prev); err != nil {
		return nil, redisErrors.NewWithCause(ErrDequeue, err).WithDetail("job_id", jobID)
	}

	return info, nil
}

// Complete marks a job as successfully completed and stores its result.
func (q *RedisQueue) Complete(ctx context.Context, jobID string, result []byte) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if info.Status.Terminal() {
		return jobx.Errors().New(jobx.ErrAlreadyTerminal).WithDetail("job_id", jobID)
	}

	prev := info.Status
	now := time.Now().UTC()
	info.Status = jobx.StatusCompleted
	info.Result = result
	info.UpdatedAt = now
	info.FinishedAt = &now

	if err := q.save(ctx, info, prev); err != nil {
		return redisErrors.NewWithCause(ErrComplete, err).WithDetail("job_id", jobID)
	}
	return nil
}

// Fail records a failure. A retriable failure with attempts left parks the
// job as delayed and returns true; otherwise the job is failed for good.
func (q *RedisQueue) Fail(ctx context.Context, jobID string, errMsg string, retriable bool) (bool, error) {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if info.Status.Terminal() {
		return false, jobx.Errors().New(jobx.ErrAlreadyTerminal).WithDetail("job_id", jobID)
	}

	shouldRetry := retriable && info.Attempts < info.MaxRetries

	prev := info.Status
	now := time.Now().UTC()
	info.Error = errMsg
	info.UpdatedAt = now
	if shouldRetry {
		info.Status = jobx.StatusDelayed
	} else {
		info.Status = jobx.StatusFailed
		info.FinishedAt = &now
	}

	if err := q.save(ctx, info, prev); err != nil {
		return false, redisErrors.NewWithCause(ErrFail, err).WithDetail("job_id", jobID)
	}

	return shouldRetry, nil
}

// Retry schedules a parked job to re-enter its ready queue after delay.
func (q *RedisQueue) Retry(ctx context.Context, jobID string, delay time.Duration) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	score := float64(time.Now().UTC().Add(delay).Unix())

	if err := q.rdb.ZAdd(ctx, q.scheduledKey(info.Queue), redis.Z{
		Score:  score,
		Member: jobID,
	}).Err(); err != nil {
		return redisErrors.NewWithCause(ErrRetry, err).WithDetail("job_id", jobID)
	}

	return nil
}

// promoteScript atomically claims every due id from the scheduled set. The
// claimed ids are not yet visible to consumers; they enter the ready list only
// after their job document says waiting.
var promoteScript = redis.NewScript(`
local scheduled_key = KEYS[1]
local now = tonumber(ARGV[1])
local ids = redis.call('ZRANGEBYSCORE', scheduled_key, '-inf', now)
if #ids > 0 then
    redis.call('ZREMRANGEBYSCORE', scheduled_key, '-inf', now)
end
return ids
`)

// PromoteScheduled moves jobs whose scheduled time has passed from the sorted
// set to the ready queue. Each job document is flipped to waiting before its
// id is pushed, so a consumer can never lease a job and then have a stale
// promotion write clobber its active record. Ids whose job is no longer
// delayed are dropped.
func (q *RedisQueue) PromoteScheduled(ctx context.Context, queues []string) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)

	for _, name := range queues {
		res, err := promoteScript.Run(ctx, q.rdb,
			[]string{q.scheduledKey(name)},
			now,
		).StringSlice()
		if err != nil && err != redis.Nil {
			return redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", name)
		}

		for _, id := range res {
			info, err := q.GetJob(ctx, id)
			if err != nil {
				return err
			}
			if info.Status != jobx.StatusDelayed {
				continue
			}
			info.Status = jobx.StatusWaiting
			info.UpdatedAt = time.Now().UTC()
			if err := q.save(ctx, info, jobx.StatusDelayed); err != nil {
				return redisErrors.NewWithCause(ErrPromote, err).WithDetail("job_id", id)
			}
			if err := q.rdb.LPush(ctx, q.queueKey(name), id).Err(); err != nil {
				return redisErrors.NewWithCause(ErrPromote, err).WithDetail("job_id", id)
			}
		}
	}

	return nil
}

// Pause puts the whole queue on hold. Job states are untouched.
func (q *RedisQueue) Pause(ctx context.Context) error {
	if err := q.rdb.Set(ctx, q.pausedKey(), "1", 0).Err(); err != nil {
		return redisErrors.NewWithCause(ErrPause, err)
	}
	return nil
}

// Resume lifts a previous Pause. Resuming a non-paused queue is a no-op.
func (q *RedisQueue) Resume(ctx context.Context) error {
	if err := q.rdb.Del(ctx, q.pausedKey()).Err(); err != nil {
		return redisErrors.NewWithCause(ErrPause, err)
	}
	return nil
}

// Paused reports whether the queue is currently paused.
func (q *RedisQueue) Paused(ctx context.Context) (bool, error) {
	v, err := q.rdb.Get(ctx, q.pausedKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, redisErrors.NewWithCause(ErrPause, err)
	}
	return v == "1", nil
}
