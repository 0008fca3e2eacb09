package uniquexmemory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ucbscz/registro/pkg/uniquex"
	"github.com/ucbscz/registro/pkg/uniquex/uniquexmemory"
)

func TestMemoryStore_SaveUnique(t *testing.T) {
	store := uniquexmemory.NewMemoryStore()
	ctx := context.Background()

	if err := store.SaveUnique(ctx, "estudiantes", "123456", []byte(`{"ci":"123456"}`)); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	err := store.SaveUnique(ctx, "estudiantes", "123456", []byte(`{"ci":"123456"}`))
	if !uniquex.IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	// Same key under another namespace is a different claim.
	if err := store.SaveUnique(ctx, "facultades", "123456", []byte(`{}`)); err != nil {
		t.Fatalf("claim in other namespace failed: %v", err)
	}
}

func TestMemoryStore_ConcurrentClaims(t *testing.T) {
	store := uniquexmemory.NewMemoryStore()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	wins := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := store.SaveUnique(ctx, "estudiantes", "777", []byte(`{}`)); err == nil {
				wins <- n
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one successful claim, got %d", count)
	}
}

func TestMemoryStore_GetAndExists(t *testing.T) {
	store := uniquexmemory.NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "materias", "MAT101"); err == nil {
		t.Fatal("expected error for missing claim")
	}

	exists, err := store.Exists(ctx, "materias", "MAT101")
	if err != nil || exists {
		t.Fatalf("expected no claim, got exists=%v err=%v", exists, err)
	}

	snapshot := []byte(`{"sigla":"MAT101"}`)
	if err := store.SaveUnique(ctx, "materias", "MAT101", snapshot); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	got, err := store.Get(ctx, "materias", "MAT101")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != string(snapshot) {
		t.Fatalf("snapshot mismatch: %s", got)
	}

	exists, err = store.Exists(ctx, "materias", "MAT101")
	if err != nil || !exists {
		t.Fatalf("expected claim to exist, got exists=%v err=%v", exists, err)
	}
}

func TestMemoryStore_UpdateRefreshesSnapshot(t *testing.T) {
	store := uniquexmemory.NewMemoryStore()
	ctx := context.Background()

	if err := store.SaveUnique(ctx, "estudiantes", "55", []byte(`{"nombre":"Ana"}`)); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.Update(ctx, "estudiantes", "55", []byte(`{"nombre":"Ana Maria"}`)); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.Get(ctx, "estudiantes", "55")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != `{"nombre":"Ana Maria"}` {
		t.Fatalf("snapshot not refreshed: %s", got)
	}
}

func TestMemoryStore_DeleteUniqueIsIdempotent(t *testing.T) {
	store := uniquexmemory.NewMemoryStore()
	ctx := context.Background()

	if err := store.SaveUnique(ctx, "facultades", "FIN", []byte(`{}`)); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := store.DeleteUnique(ctx, "facultades", "FIN"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.DeleteUnique(ctx, "facultades", "FIN"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}

	// Key is claimable again after release.
	if err := store.SaveUnique(ctx, "facultades", "FIN", []byte(`{}`)); err != nil {
		t.Fatalf("re-claim after delete failed: %v", err)
	}
}
