package notifx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ucbscz/registro/pkg/notifx"
)

// --- test doubles ---

type senderFunc func(ctx context.Context, callbackURL string, n notifx.Notification) error

func (f senderFunc) Send(ctx context.Context, callbackURL string, n notifx.Notification) error {
	return f(ctx, callbackURL, n)
}

type deadLetterEntry struct {
	url    string
	n      notifx.Notification
	reason string
}

type recordingSink struct {
	entries []deadLetterEntry
}

func (s *recordingSink) DeadLetter(_ context.Context, callbackURL string, n notifx.Notification, reason string) error {
	s.entries = append(s.entries, deadLetterEntry{url: callbackURL, n: n, reason: reason})
	return nil
}

// --- tests ---

func TestNotify_ExhaustedDeliveryIsDeadLettered(t *testing.T) {
	var attempts atomic.Int32
	sender := senderFunc(func(context.Context, string, notifx.Notification) error {
		attempts.Add(1)
		return errors.New("connection refused")
	})
	sink := &recordingSink{}

	client := notifx.NewClient(sender,
		notifx.WithMaxAttempts(3),
		notifx.WithRetryDelay(time.Millisecond),
		notifx.WithDeadLetter(sink),
	)

	n := notifx.Notification{TareaID: "tarea-1", Estado: "completed"}
	err := client.Notify(context.Background(), "http://callback.local/hook", n)
	if err == nil {
		t.Fatal("exhausted delivery should report the last error")
	}

	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected exactly 3 delivery attempts, got %d", got)
	}
	if len(sink.entries) != 1 {
		t.Fatalf("expected 1 dead-letter entry, got %d", len(sink.entries))
	}
	entry := sink.entries[0]
	if entry.url != "http://callback.local/hook" || entry.n.TareaID != "tarea-1" {
		t.Fatalf("dead-letter entry lost context: %+v", entry)
	}
	if entry.reason != "connection refused" {
		t.Fatalf("expected the last send error as reason, got %q", entry.reason)
	}
}

func TestNotify_SucceedsAfterRetry(t *testing.T) {
	var attempts atomic.Int32
	sender := senderFunc(func(context.Context, string, notifx.Notification) error {
		if attempts.Add(1) == 1 {
			return errors.New("temporarily unavailable")
		}
		return nil
	})
	sink := &recordingSink{}

	client := notifx.NewClient(sender,
		notifx.WithMaxAttempts(3),
		notifx.WithRetryDelay(time.Millisecond),
		notifx.WithDeadLetter(sink),
	)

	err := client.Notify(context.Background(), "http://callback.local/hook", notifx.Notification{TareaID: "tarea-2"})
	if err != nil {
		t.Fatalf("expected delivery to recover, got %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
	if len(sink.entries) != 0 {
		t.Fatalf("successful delivery must not be dead-lettered, got %d entries", len(sink.entries))
	}
}

func TestNotify_EmptyCallbackIsSkipped(t *testing.T) {
	var attempts atomic.Int32
	sender := senderFunc(func(context.Context, string, notifx.Notification) error {
		attempts.Add(1)
		return nil
	})

	client := notifx.NewClient(sender)
	if err := client.Notify(context.Background(), "", notifx.Notification{TareaID: "tarea-3"}); err != nil {
		t.Fatalf("empty callback should be a no-op, got %v", err)
	}
	if attempts.Load() != 0 {
		t.Fatal("no delivery should happen without a callback URL")
	}
}

func TestNotify_CancelledContextStopsRetrying(t *testing.T) {
	var attempts atomic.Int32
	sender := senderFunc(func(context.Context, string, notifx.Notification) error {
		attempts.Add(1)
		return errors.New("still failing")
	})
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := notifx.NewClient(sender,
		notifx.WithMaxAttempts(5),
		notifx.WithRetryDelay(time.Millisecond),
		notifx.WithDeadLetter(sink),
	)

	if err := client.Notify(ctx, "http://callback.local/hook", notifx.Notification{TareaID: "tarea-4"}); err == nil {
		t.Fatal("expected the delivery error")
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("a cancelled context must not keep retrying, got %d attempts", got)
	}
	if len(sink.entries) != 1 {
		t.Fatalf("aborted delivery should still be dead-lettered, got %d entries", len(sink.entries))
	}
}
