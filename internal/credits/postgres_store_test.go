package credits

import (
	"context"
	"sync"
	"testing"

	"github.com/lendiq/riskcore/internal/testutil"
)

func TestPostgresStore_AddAndConsume(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)

	bal, err := store.Balance(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal != 0 {
		t.Errorf("fresh balance should be 0, got %d", bal)
	}

	bal, err = store.Add(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal != 3 {
		t.Errorf("balance after add should be 3, got %d", bal)
	}

	ok, err := store.ConsumeOne(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("consume should succeed with credits available")
	}

	bal, _ = store.Balance(ctx)
	if bal != 2 {
		t.Errorf("balance should be 2, got %d", bal)
	}
}

func TestPostgresStore_ConcurrentConsume(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)
	if _, err := store.Add(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	consumed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.ConsumeOne(ctx)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if consumed != 5 {
		t.Errorf("exactly 5 consumes should succeed, got %d", consumed)
	}
	bal, _ := store.Balance(ctx)
	if bal != 0 {
		t.Errorf("final balance should be 0, got %d", bal)
	}
}
