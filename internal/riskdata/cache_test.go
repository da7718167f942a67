package riskdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// blockingSource blocks each fetch until released, counting calls.
type blockingSource struct {
	calls   atomic.Int64
	release chan struct{}
	err     error
}

func newBlockingSource() *blockingSource {
	return &blockingSource{release: make(chan struct{})}
}

func (s *blockingSource) Fetch(ctx context.Context, typ MapType) (*RiskData, error) {
	s.calls.Add(1)
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &RiskData{Type: typ, OverallRisk: 42, GeneratedAt: time.Now()}, nil
}

// instantSource resolves immediately, counting calls.
type instantSource struct {
	calls atomic.Int64
}

func (s *instantSource) Fetch(ctx context.Context, typ MapType) (*RiskData, error) {
	s.calls.Add(1)
	return &RiskData{Type: typ, OverallRisk: 10, GeneratedAt: time.Now()}, nil
}

func TestConcurrentFetchesShareOneUpstreamCall(t *testing.T) {
	src := newBlockingSource()
	cache := NewCache(src)
	ctx := context.Background()

	const waiters = 10
	var wg sync.WaitGroup
	results := make([]*RiskData, waiters)
	errs := make([]error, waiters)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Fetch(ctx, MapGeneral, false)
		}(i)
	}

	// Let all waiters attach to the flight before releasing it.
	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("coalesced fetches should hit upstream once, got %d", got)
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("all waiters should receive the same result")
		}
	}
}

func TestCacheHitWithinTTL(t *testing.T) {
	src := &instantSource{}
	cache := NewCache(src)
	ctx := context.Background()

	first, err := cache.Fetch(ctx, MapGeneral, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cache.Fetch(ctx, MapGeneral, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls.Load() != 1 {
		t.Errorf("second fetch should be served from cache, upstream calls: %d", src.calls.Load())
	}
	if first != second {
		t.Errorf("cache hit should return the cached instance")
	}
}

func TestExpiredSlotRefetches(t *testing.T) {
	src := &instantSource{}
	cache := NewCache(src).WithTTL(10 * time.Millisecond)
	ctx := context.Background()

	if _, err := cache.Fetch(ctx, MapGeneral, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if cache.Cached(MapGeneral) != nil {
		t.Error("expired slot should not be served")
	}
	if _, err := cache.Fetch(ctx, MapGeneral, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls.Load() != 2 {
		t.Errorf("expired slot should refetch, upstream calls: %d", src.calls.Load())
	}
}

func TestSwitchingTypeAbortsInFlightFetch(t *testing.T) {
	src := newBlockingSource()
	cache := NewCache(src)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(ctx, MapGeneral, false)
		errCh <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	// Requesting a different type supersedes the in-flight fetch.
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(src.release)
	}()
	if _, err := cache.Fetch(ctx, MapEquipment, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrAborted) {
			t.Errorf("superseded fetch should return ErrAborted, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch never resolved")
	}

	if data := cache.Cached(MapEquipment); data == nil {
		t.Error("fetch for the new type should populate the slot")
	}
	if data := cache.Cached(MapGeneral); data != nil {
		t.Error("aborted fetch must not populate the slot")
	}
}

func TestForceBypassesCache(t *testing.T) {
	src := &instantSource{}
	cache := NewCache(src)
	ctx := context.Background()

	if _, err := cache.Fetch(ctx, MapGeneral, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.Fetch(ctx, MapGeneral, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls.Load() != 2 {
		t.Errorf("force should refetch, upstream calls: %d", src.calls.Load())
	}
}

func TestClearWipesSlot(t *testing.T) {
	src := &instantSource{}
	cache := NewCache(src)
	ctx := context.Background()

	if _, err := cache.Fetch(ctx, MapGeneral, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cache.Clear()
	if cache.Cached(MapGeneral) != nil {
		t.Error("clear should empty the slot")
	}
	if _, err := cache.Fetch(ctx, MapGeneral, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls.Load() != 2 {
		t.Errorf("fetch after clear should hit upstream, calls: %d", src.calls.Load())
	}
}

func TestUnknownMapTypeRejected(t *testing.T) {
	cache := NewCache(&instantSource{})
	if _, err := cache.Fetch(context.Background(), "payday", false); !errors.Is(err, ErrUnknownMapType) {
		t.Errorf("expected ErrUnknownMapType, got %v", err)
	}
}

func TestUpstreamErrorIsNotCached(t *testing.T) {
	src := newBlockingSource()
	src.err = errors.New("upstream down")
	close(src.release)

	cache := NewCache(src)
	ctx := context.Background()

	if _, err := cache.Fetch(ctx, MapGeneral, false); err == nil {
		t.Fatal("upstream error should surface")
	}
	if cache.Cached(MapGeneral) != nil {
		t.Error("failed fetch must not populate the slot")
	}
	if _, err := cache.Fetch(ctx, MapGeneral, false); err == nil {
		t.Fatal("second fetch should retry and fail again")
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("errors should not be cached, upstream calls: %d", got)
	}
}

func TestSampleSourceIsDeterministicPerType(t *testing.T) {
	src := NewSampleSource()
	ctx := context.Background()

	a, err := src.Fetch(ctx, MapEquipment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := src.Fetch(ctx, MapEquipment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.OverallRisk != b.OverallRisk {
		t.Errorf("sample data should be deterministic per type: %f vs %f", a.OverallRisk, b.OverallRisk)
	}
	if len(a.Factors) == 0 {
		t.Error("sample data should carry factors")
	}
}
