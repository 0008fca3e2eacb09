package asyncx_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ucbscz/registro/pkg/asyncx"
)

func TestRunAndAwait(t *testing.T) {
	f := asyncx.Run(func() (int, error) {
		return 42, nil
	})

	v, err := f.Await()
	if err != nil {
		t.Fatalf("await failed: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}

	// Await is repeatable and returns the cached result.
	v, err = f.Await()
	if err != nil || v != 42 {
		t.Fatalf("second await changed the result: %d err=%v", v, err)
	}
}

func TestAwaitPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	f := asyncx.Run(func() (string, error) {
		return "", boom
	})

	if _, err := f.Await(); !errors.Is(err, boom) {
		t.Fatalf("expected the computation error, got %v", err)
	}
}

func TestRunExecutesConcurrently(t *testing.T) {
	release := make(chan struct{})
	a := asyncx.Run(func() (bool, error) {
		<-release
		return true, nil
	})
	b := asyncx.Run(func() (bool, error) {
		close(release)
		return true, nil
	})

	// If Run were sequential, a would block on release forever.
	if _, err := a.Await(); err != nil {
		t.Fatalf("await a failed: %v", err)
	}
	if _, err := b.Await(); err != nil {
		t.Fatalf("await b failed: %v", err)
	}
}

func TestDoFiresAndForgets(t *testing.T) {
	var ran atomic.Bool
	done := make(chan struct{})
	asyncx.Do(func() {
		ran.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do never ran the function")
	}
	if !ran.Load() {
		t.Fatal("Do did not execute the function")
	}
}
