package queue

import (
	"context"
	"testing"
	"time"
)

func TestPutPoll_FIFO(t *testing.T) {
	q := New[string](4)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		if err := q.Put(ctx, v); err != nil {
			t.Fatalf("Put(%q): %v", v, err)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Poll(ctx, time.Second)
		if !ok {
			t.Fatalf("Poll: expected %q, got sentinel", want)
		}
		if got != want {
			t.Errorf("Poll() = %q, want %q", got, want)
		}
	}
}

func TestPoll_TimesOutWithSentinelWhenEmpty(t *testing.T) {
	q := New[string](1)
	ctx := context.Background()

	start := time.Now()
	_, ok := q.Poll(ctx, 50*time.Millisecond)
	if ok {
		t.Fatal("expected sentinel (ok=false) on empty queue")
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Poll returned after %v, expected to wait out the timeout", elapsed)
	}
}

func TestPut_BlocksAtCapacity(t *testing.T) {
	q := New[int](2)
	ctx := context.Background()
	_ = q.Put(ctx, 1)
	_ = q.Put(ctx, 2)

	putDone := make(chan error, 1)
	go func() {
		putDone <- q.Put(ctx, 3)
	}()

	select {
	case <-putDone:
		t.Fatal("Put should have blocked at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	if _, ok := q.Poll(ctx, time.Second); !ok {
		t.Fatal("expected to drain a value")
	}

	select {
	case err := <-putDone:
		if err != nil {
			t.Errorf("Put after drain: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Put did not unblock after room freed up")
	}
}

func TestLen_NeverExceedsCapacity(t *testing.T) {
	q := New[int](4)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if q.Len() > q.Cap() {
			t.Fatalf("Len()=%d exceeded Cap()=%d", q.Len(), q.Cap())
		}
	}
}
