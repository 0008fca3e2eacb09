package jobx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ucbscz/registro/pkg/asyncx"
	"github.com/ucbscz/registro/pkg/errx"
	"github.com/ucbscz/registro/pkg/logx"
	"github.com/ucbscz/registro/pkg/notifx"
	"github.com/ucbscz/registro/pkg/uniquex"
)

// maxRetryBackoff caps the exponential backoff for transient failures.
const maxRetryBackoff = 10 * time.Minute

// Worker continuously claims waiting jobs, dispatches them through the
// command factory and publishes terminal state plus a callback notification.
// It is an explicit object with injected dependencies, owned by the
// process's composition root.
type Worker struct {
	queue   Queue
	factory CommandFactory
	opts    WorkerOptions

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
}

// NewWorker creates a worker pool over the given queue and command factory.
func NewWorker(queue Queue, factory CommandFactory, options ...WorkerOption) *Worker {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Worker{
		queue:   queue,
		factory: factory,
		opts:    opts,
	}
}

// Start begins leasing jobs, up to Concurrency simultaneous leases, plus one
// scheduler goroutine that promotes due delayed jobs. Starting an already
// running worker is not an error; the call is logged and ignored.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		logx.Warn("jobx: worker already running, start ignored")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg = &sync.WaitGroup{}
	w.running = true

	w.wg.Add(1)
	go w.schedulerLoop(ctx, w.wg)

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i, w.wg)
	}

	logx.WithFields(logx.Fields{
		"concurrency": w.opts.Concurrency,
		"queues":      fmt.Sprintf("%v", w.opts.Queues),
	}).Info("jobx: worker started")
}

// Stop gracefully drains the pool: claim loops stop leasing new jobs and
// in-flight jobs run to a terminal state, bounded by ShutdownTimeout.
// Waiting jobs are left untouched. Stopping a stopped worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		logx.Warn("jobx: worker not running, stop ignored")
		return
	}
	cancel := w.cancel
	wg := w.wg
	w.mu.Unlock()

	logx.Info("jobx: stopping worker, draining in-flight jobs...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("jobx: worker stopped")
	case <-time.After(w.opts.ShutdownTimeout):
		logx.Warn("jobx: shutdown timed out, some jobs may still be running")
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// Running reports whether the worker pool is started. It is a liveness
// probe, not a job-level status.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// schedulerLoop periodically promotes due delayed jobs to their ready queues.
func (w *Worker) schedulerLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.queue.PromoteScheduled(ctx, w.opts.Queues); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("jobx: failed to promote scheduled jobs")
			}
		}
	}
}

func (w *Worker) workerLoop(ctx context.Context, id int, wg *sync.WaitGroup) {
	defer wg.Done()

	logx.Debugf("jobx: consumer %d started", id)

	for {
		select {
		case <-ctx.Done():
			logx.Debugf("jobx: consumer %d stopped", id)
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.opts.Queues, w.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("jobx: consumer %d dequeue error", id)
			time.Sleep(w.opts.PollInterval)
			continue
		}
		if job == nil {
			continue
		}

		w.processJob(id, job)
	}
}

// processJob runs a single leased job to a terminal state. The steps are
// strictly ordered: resolve command, uniqueness check, execute, report,
// notify. A job failure never escapes this method.
func (w *Worker) processJob(workerID int, job *JobInfo) {
	// Detached from the claim-loop context so Stop drains instead of killing
	// an executing command.
	ctx := context.Background()

	log := logx.WithFields(logx.Fields{
		"tarea_id":  job.ID,
		"task":      job.Type,
		"worker_id": workerID,
		"attempt":   job.Attempts,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("jobx: command panicked: %v", r)
			w.finishFail(ctx, job, fmt.Sprintf("panic: %v", r), false, log)
		}
	}()

	log.Info("jobx: processing job")

	cmd, err := w.factory.Create(job.Type, job.Payload)
	if err != nil {
		log.WithError(err).Warn("jobx: could not resolve command")
		w.finishFail(ctx, job, err.Error(), false, log)
		return
	}

	claimed, dup, claim := w.claimUnique(ctx, cmd, job, log)
	if dup != nil {
		w.finishComplete(ctx, job, dup, log)
		return
	}
	if claim.failed {
		return
	}

	execCtx, cancelExec := context.WithTimeout(ctx, w.opts.JobTimeout)
	result, execErr := cmd.Execute(execCtx)
	cancelExec()

	if execErr != nil {
		if claimed {
			w.releaseClaim(ctx, claim.c, log)
		}
		transient := errx.TypeOf(execErr) == errx.TypeExternal ||
			errors.Is(execErr, context.DeadlineExceeded)
		log.WithError(execErr).Warn("jobx: command failed")
		w.finishFail(ctx, job, execErr.Error(), transient, log)
		return
	}

	w.finishComplete(ctx, job, result, log)
}

// claimOutcome carries the uniqueness-guard result through processJob.
type claimOutcome struct {
	c      Claim
	failed bool
}

// claimUnique applies the uniqueness guard for commands that declare a claim.
// It returns (claimed, duplicateResult, outcome); a non-nil duplicateResult
// means the job short-circuits with a soft duplicate outcome.
func (w *Worker) claimUnique(ctx context.Context, cmd Command, job *JobInfo, log *logx.Entry) (bool, *DuplicateResult, claimOutcome) {
	if w.opts.unique == nil {
		return false, nil, claimOutcome{}
	}
	claimer, ok := cmd.(Claimer)
	if !ok {
		return false, nil, claimOutcome{}
	}
	c, hasClaim := claimer.Claim()
	if !hasClaim {
		return false, nil, claimOutcome{}
	}

	err := w.opts.unique.SaveUnique(ctx, c.Namespace, c.Key, job.Payload)
	if err == nil {
		return true, nil, claimOutcome{c: c}
	}

	if uniquex.IsDuplicate(err) {
		message := fmt.Sprintf("Ya existe un registro en %s con clave %s", c.Namespace, c.Key)
		var e *errx.Error
		if errx.As(err, &e) {
			message = e.Message
		}
		log.WithFields(logx.Fields{"namespace": c.Namespace, "key": c.Key}).
			Info("jobx: duplicate claim, skipping command execution")
		return false, &DuplicateResult{Success: false, Duplicate: true, Message: message}, claimOutcome{}
	}

	// Cache outage: transient, retry-eligible.
	log.WithError(err).Error("jobx: uniqueness store unavailable")
	w.finishFail(ctx, job, err.Error(), true, log)
	return false, nil, claimOutcome{failed: true}
}

func (w *Worker) releaseClaim(ctx context.Context, c Claim, log *logx.Entry) {
	if err := w.opts.unique.DeleteUnique(ctx, c.Namespace, c.Key); err != nil {
		log.WithError(err).WithFields(logx.Fields{"namespace": c.Namespace, "key": c.Key}).
			Error("jobx: failed to release uniqueness claim")
	}
}

// finishComplete stores the command's result verbatim and notifies the callback.
func (w *Worker) finishComplete(ctx context.Context, job *JobInfo, result any, log *logx.Entry) {
	data, err := json.Marshal(result)
	if err != nil {
		w.finishFail(ctx, job, fmt.Sprintf("failed to marshal result: %v", err), false, log)
		return
	}

	if err := w.queue.Complete(ctx, job.ID, data); err != nil {
		log.WithError(err).Error("jobx: failed to mark job completed")
		return
	}

	log.Info("jobx: job completed")

	job.Status = StatusCompleted
	job.Result = data
	w.notify(job)
}

// finishFail records the failure; transient failures with attempts left are
// re-scheduled with exponential backoff instead of reaching a terminal state.
func (w *Worker) finishFail(ctx context.Context, job *JobInfo, reason string, retriable bool, log *logx.Entry) {
	retry, err := w.queue.Fail(ctx, job.ID, reason, retriable)
	if err != nil {
		log.WithError(err).Error("jobx: failed to mark job failed")
		return
	}

	if retry {
		delay := w.backoff(job.Attempts)
		if retryErr := w.queue.Retry(ctx, job.ID, delay); retryErr != nil {
			log.WithError(retryErr).Error("jobx: failed to schedule retry")
			return
		}
		log.WithField("delay", delay.String()).Info("jobx: transient failure, retry scheduled")
		return
	}

	log.WithField("reason", reason).Warn("jobx: job failed")

	job.Status = StatusFailed
	job.Error = reason
	w.notify(job)
}

// notify dispatches the callback asynchronously so a slow endpoint cannot
// block the claim loop. The goroutine is tracked so Stop drains it.
func (w *Worker) notify(job *JobInfo) {
	if w.opts.notifier == nil || job.CallbackURL == "" {
		return
	}

	n := notifx.Notification{
		TareaID: job.ID,
		Estado:  string(job.Status),
		Result:  job.Result,
		Error:   job.Error,
	}

	w.mu.Lock()
	wg := w.wg
	w.mu.Unlock()

	wg.Add(1)
	asyncx.Do(func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = w.opts.notifier.Notify(ctx, job.CallbackURL, n)
	})
}

func (w *Worker) backoff(attempts int) time.Duration {
	delay := w.opts.RetryDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return delay
}
