package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryGetOrComputeCachesWithinTTL(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	computes := 0
	compute := func(context.Context) ([]byte, error) {
		computes++
		return []byte("value"), nil
	}

	v, err := m.GetOrCompute(ctx, "k", 30*time.Second, compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if string(v) != "value" {
		t.Fatalf("unexpected value: %q", v)
	}

	if _, err := m.GetOrCompute(ctx, "k", 30*time.Second, compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if computes != 1 {
		t.Fatalf("expected one compute within TTL, got %d", computes)
	}
}

func TestMemoryExpiresByTTL(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	computes := 0
	compute := func(context.Context) ([]byte, error) {
		computes++
		return []byte("value"), nil
	}

	if _, err := m.GetOrCompute(ctx, "k", 10*time.Second, compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}

	now = now.Add(11 * time.Second)
	if _, err := m.GetOrCompute(ctx, "k", 10*time.Second, compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if computes != 2 {
		t.Fatalf("expected recompute after expiry, got %d computes", computes)
	}
}

func TestMemoryInvalidate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	computes := 0
	compute := func(context.Context) ([]byte, error) {
		computes++
		return []byte("value"), nil
	}

	if _, err := m.GetOrCompute(ctx, "k", time.Minute, compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if err := m.Invalidate(ctx, "k", "unknown-key"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := m.GetOrCompute(ctx, "k", time.Minute, compute); err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if computes != 2 {
		t.Fatalf("expected recompute after invalidation, got %d computes", computes)
	}
}

func TestMemoryComputeErrorNotCached(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	boom := func(context.Context) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}
	if _, err := m.GetOrCompute(ctx, "k", time.Minute, boom); err == nil {
		t.Fatal("expected compute error to surface")
	}

	v, err := m.GetOrCompute(ctx, "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	if err != nil || string(v) != "ok" {
		t.Fatalf("failed compute must not poison the key: %q, %v", v, err)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var computes atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.GetOrCompute(ctx, "k", time.Minute, func(context.Context) ([]byte, error) {
				computes.Add(1)
				return []byte("value"), nil
			})
			_ = m.Invalidate(ctx, "k")
		}()
	}
	wg.Wait()

	// duplicate recomputation is allowed, unbounded blow-up is not
	if computes.Load() > 32 {
		t.Fatalf("more computes than callers: %d", computes.Load())
	}
}
