package ocr

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreaker_Transitions(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	b := NewBreaker(2, time.Minute)
	b.now = func() time.Time { return now }

	fail := func() error { return errors.New("boom") }
	ok := func() error { return nil }

	_ = b.Execute(fail)
	if b.State() != BreakerClosed {
		t.Fatalf("expected closed after one failure, got %s", b.State())
	}
	_ = b.Execute(fail)
	if b.State() != BreakerOpen {
		t.Fatalf("expected open after two failures, got %s", b.State())
	}

	if err := b.Execute(ok); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable during cooldown, got %v", err)
	}

	now = now.Add(time.Minute)
	_ = b.Execute(fail)
	if b.State() != BreakerOpen {
		t.Fatalf("expected failed trial to reopen, got %s", b.State())
	}

	now = now.Add(time.Minute)
	if err := b.Execute(ok); err != nil {
		t.Fatalf("expected trial to run, got %v", err)
	}
	if b.State() != BreakerClosed {
		t.Fatalf("expected closed after successful trial, got %s", b.State())
	}
}

func TestBreaker_IgnoresCancellation(t *testing.T) {
	b := NewBreaker(1, time.Minute)

	_ = b.Execute(func() error { return context.Canceled })
	if b.State() != BreakerClosed {
		t.Errorf("expected cancellation to keep breaker closed, got %s", b.State())
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(2, time.Minute)

	_ = b.Execute(func() error { return errors.New("boom") })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errors.New("boom") })

	if b.State() != BreakerClosed {
		t.Errorf("expected non-consecutive failures to keep breaker closed, got %s", b.State())
	}

	b.Reset()
	if b.State() != BreakerClosed {
		t.Errorf("expected closed after reset, got %s", b.State())
	}
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(0)
	if l.MaxConcurrent() != 1 {
		t.Fatalf("expected 1 slot, got %d", l.MaxConcurrent())
	}

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ActiveCount() != 1 {
		t.Errorf("expected 1 active, got %d", l.ActiveCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded while full, got %v", err)
	}

	l.Release()
	if l.ActiveCount() != 0 {
		t.Errorf("expected 0 active, got %d", l.ActiveCount())
	}
}
