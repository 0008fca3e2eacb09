package jobxmemory_test

import (
	"context"
	"testing"
	"time"

	"github.com/ucbscz/registro/pkg/jobx"
	"github.com/ucbscz/registro/pkg/jobx/jobxmemory"
)

func TestMemoryQueue_EnqueueAndDequeue(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()
	ctx := context.Background()

	id, err := q.Enqueue(ctx, jobx.Job{Type: "create_facultad", Queue: "tasksQueue", Payload: []byte(`{"sigla":"FIN"}`)})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	info, err := q.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if info.Status != jobx.StatusWaiting {
		t.Fatalf("expected waiting, got %s", info.Status)
	}

	leased, err := q.Dequeue(ctx, []string{"tasksQueue"}, time.Second)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if leased == nil || leased.ID != id {
		t.Fatalf("expected job %s, got %+v", id, leased)
	}
	if leased.Status != jobx.StatusActive || leased.Attempts != 1 {
		t.Fatalf("lease should mark active with one attempt, got %s/%d", leased.Status, leased.Attempts)
	}
	if leased.StartedAt == nil {
		t.Fatal("lease should record StartedAt")
	}
}

func TestMemoryQueue_DequeueTimeout(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()

	start := time.Now()
	job, err := q.Dequeue(context.Background(), []string{"tasksQueue"}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected empty dequeue, got %+v", job)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatal("dequeue returned before the timeout")
	}
}

func TestMemoryQueue_GetJobNotFound(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()

	if _, err := q.GetJob(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestMemoryQueue_CompleteStoresResultVerbatim(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()
	ctx := context.Background()

	id, _ := q.Enqueue(ctx, jobx.Job{Type: "get_facultad", Queue: "q"})
	if _, err := q.Dequeue(ctx, []string{"q"}, time.Second); err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}

	result := []byte(`{"success":true,"facultad":{"id":1}}`)
	if err := q.Complete(ctx, id, result); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	info, _ := q.GetJob(ctx, id)
	if info.Status != jobx.StatusCompleted {
		t.Fatalf("expected completed, got %s", info.Status)
	}
	if string(info.Result) != string(result) {
		t.Fatalf("result was altered: %s", info.Result)
	}
	if info.FinishedAt == nil {
		t.Fatal("completed job should record FinishedAt")
	}

	// Terminal states admit no further transitions.
	if err := q.Complete(ctx, id, nil); err == nil {
		t.Fatal("expected error completing a terminal job")
	}
	if _, err := q.Fail(ctx, id, "x", true); err == nil {
		t.Fatal("expected error failing a terminal job")
	}
}

func TestMemoryQueue_FailRetriesThenExhausts(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()
	ctx := context.Background()

	id, _ := q.Enqueue(ctx, jobx.Job{Type: "create_estudiante", Queue: "q", MaxRetries: 2})

	// Attempt 1: transient failure, one retry left.
	if _, err := q.Dequeue(ctx, []string{"q"}, time.Second); err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	retry, err := q.Fail(ctx, id, "db unavailable", true)
	if err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	if !retry {
		t.Fatal("expected retry after first transient failure")
	}

	info, _ := q.GetJob(ctx, id)
	if info.Status != jobx.StatusDelayed {
		t.Fatalf("retrying job should be delayed, got %s", info.Status)
	}

	// Promote the retry and exhaust the attempts.
	if err := q.Retry(ctx, id, 0); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if err := q.PromoteScheduled(ctx, []string{"q"}); err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if _, err := q.Dequeue(ctx, []string{"q"}, time.Second); err != nil {
		t.Fatalf("second dequeue failed: %v", err)
	}
	retry, err = q.Fail(ctx, id, "db unavailable", true)
	if err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	if retry {
		t.Fatal("expected no retry after exhausting attempts")
	}

	info, _ = q.GetJob(ctx, id)
	if info.Status != jobx.StatusFailed {
		t.Fatalf("expected failed, got %s", info.Status)
	}
	if info.Error != "db unavailable" {
		t.Fatalf("expected error message preserved, got %q", info.Error)
	}
}

func TestMemoryQueue_PermanentFailureSkipsRetry(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()
	ctx := context.Background()

	id, _ := q.Enqueue(ctx, jobx.Job{Type: "create_facultad", Queue: "q", MaxRetries: 3})
	if _, err := q.Dequeue(ctx, []string{"q"}, time.Second); err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}

	retry, err := q.Fail(ctx, id, "Tipo de tarea no soportado: foo", false)
	if err != nil {
		t.Fatalf("fail failed: %v", err)
	}
	if retry {
		t.Fatal("permanent failures must not retry")
	}

	info, _ := q.GetJob(ctx, id)
	if info.Status != jobx.StatusFailed {
		t.Fatalf("expected failed, got %s", info.Status)
	}
}

func TestMemoryQueue_DelayedPromotion(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()
	ctx := context.Background()

	id, err := q.EnqueueDelayed(ctx, jobx.Job{Type: "get_materia", Queue: "q"}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("enqueue delayed failed: %v", err)
	}

	info, _ := q.GetJob(ctx, id)
	if info.Status != jobx.StatusDelayed {
		t.Fatalf("expected delayed, got %s", info.Status)
	}

	time.Sleep(15 * time.Millisecond)
	if err := q.PromoteScheduled(ctx, []string{"q"}); err != nil {
		t.Fatalf("promote failed: %v", err)
	}

	job, err := q.Dequeue(ctx, []string{"q"}, time.Second)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if job == nil || job.ID != id {
		t.Fatalf("expected promoted job, got %+v", job)
	}
}

func TestMemoryQueue_PromoteDoesNotRevertLeasedJob(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()
	ctx := context.Background()

	id, _ := q.Enqueue(ctx, jobx.Job{Type: "create_facultad", Queue: "q"})

	// Leave a due scheduled entry behind, then lease the job before the
	// scheduler gets to it.
	if err := q.Retry(ctx, id, 0); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	leased, err := q.Dequeue(ctx, []string{"q"}, time.Second)
	if err != nil || leased == nil {
		t.Fatalf("dequeue failed: %+v err=%v", leased, err)
	}

	if err := q.PromoteScheduled(ctx, []string{"q"}); err != nil {
		t.Fatalf("promote failed: %v", err)
	}

	info, _ := q.GetJob(ctx, id)
	if info.Status != jobx.StatusActive {
		t.Fatalf("promotion clobbered an active lease, got %s", info.Status)
	}
	if info.Attempts != 1 {
		t.Fatalf("lease accounting lost, got %d attempts", info.Attempts)
	}

	// The stale entry must not hand the job out a second time either.
	if job, _ := q.Dequeue(ctx, []string{"q"}, 50*time.Millisecond); job != nil {
		t.Fatalf("leased job was re-queued: %+v", job)
	}
}

func TestMemoryQueue_PauseBlocksDequeue(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()
	ctx := context.Background()

	id, _ := q.Enqueue(ctx, jobx.Job{Type: "get_facultad", Queue: "q"})

	if err := q.Pause(ctx); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	paused, err := q.Paused(ctx)
	if err != nil || !paused {
		t.Fatalf("expected paused, got %v err=%v", paused, err)
	}

	if job, _ := q.Dequeue(ctx, []string{"q"}, 50*time.Millisecond); job != nil {
		t.Fatalf("paused queue handed out a job: %+v", job)
	}

	// The job itself stays waiting.
	info, _ := q.GetJob(ctx, id)
	if info.Status != jobx.StatusWaiting {
		t.Fatalf("pause must not touch job states, got %s", info.Status)
	}

	if err := q.Resume(ctx); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	job, err := q.Dequeue(ctx, []string{"q"}, time.Second)
	if err != nil || job == nil {
		t.Fatalf("expected job after resume, got %+v err=%v", job, err)
	}
}

func TestMemoryQueue_ListJobsFiltersByStatus(t *testing.T) {
	q := jobxmemory.NewMemoryQueue()
	ctx := context.Background()

	id1, _ := q.Enqueue(ctx, jobx.Job{Type: "a", Queue: "q"})
	q.Enqueue(ctx, jobx.Job{Type: "b", Queue: "q"})

	if _, err := q.Dequeue(ctx, []string{"q"}, time.Second); err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if err := q.Complete(ctx, id1, []byte(`{}`)); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	completed, err := q.ListJobs(ctx, jobx.StatusCompleted)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != id1 {
		t.Fatalf("expected only the completed job, got %d", len(completed))
	}

	all, err := q.ListJobs(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
}
