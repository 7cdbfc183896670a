package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newFakeClockBudget(ceiling int) (*Budget, *time.Time) {
	b := NewBudget(ceiling)
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	b.sleep = func(_ context.Context, d time.Duration) error {
		now = now.Add(d)
		return nil
	}
	return b, &now
}

func TestBudget_AdmitsImmediatelyUnderCeiling(t *testing.T) {
	b, _ := newFakeClockBudget(3)

	for i := 0; i < 3; i++ {
		if err := b.Admit(t.Context()); err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
	}
	if got := b.InWindow(); got != 3 {
		t.Fatalf("expected 3 admissions in window, got %d", got)
	}
}

func TestBudget_WindowNeverExceedsCeiling(t *testing.T) {
	const ceiling = 20
	b, now := newFakeClockBudget(ceiling)

	var admitted []time.Time
	for i := 0; i < 75; i++ {
		if err := b.Admit(t.Context()); err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		admitted = append(admitted, *now)
	}

	for i, start := range admitted {
		count := 0
		for _, stamp := range admitted[i:] {
			if stamp.Sub(start) <= time.Second {
				count++
			}
		}
		if count > ceiling {
			t.Fatalf("window starting at %s holds %d admissions, ceiling is %d", start, count, ceiling)
		}
	}
}

func TestBudget_WaitsForOldestToLeaveWindow(t *testing.T) {
	b, now := newFakeClockBudget(1)

	first := *now
	if err := b.Admit(t.Context()); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	if err := b.Admit(t.Context()); err != nil {
		t.Fatalf("second admit: %v", err)
	}
	if elapsed := now.Sub(first); elapsed <= time.Second {
		t.Fatalf("second admit should wait past the window, elapsed %s", elapsed)
	}
}

func TestBudget_AdmitCancelled(t *testing.T) {
	b := NewBudget(1)
	if err := b.Admit(t.Context()); err != nil {
		t.Fatalf("first admit: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := b.Admit(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBudget_ConcurrentAdmits(t *testing.T) {
	b := NewBudget(50)

	var wg sync.WaitGroup
	errCh := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- b.Admit(context.Background())
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent admit: %v", err)
		}
	}
	if got := b.InWindow(); got != 40 {
		t.Fatalf("expected 40 admissions in window, got %d", got)
	}
}
