package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_NoLimit(t *testing.T) {
	l := NewLimiter(0, 0)
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("unlimited limiter blocked for %v", elapsed)
	}
}

func TestLimiter_Paces(t *testing.T) {
	// 50 rps gives a 20ms interval
	l := NewLimiter(50, 0)
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected at least 40ms for 3 waits at 50rps, got %v", elapsed)
	}
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := NewLimiter(0.1, 0) // 10s interval, will not tick during the test
	defer l.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestLimiter_JitterClamped(t *testing.T) {
	l := NewLimiter(100, 5)
	defer l.Stop()
	if l.jitter != 1 {
		t.Errorf("jitter = %v, want clamped to 1", l.jitter)
	}

	l2 := NewLimiter(100, -1)
	defer l2.Stop()
	if l2.jitter != 0 {
		t.Errorf("jitter = %v, want clamped to 0", l2.jitter)
	}
}
