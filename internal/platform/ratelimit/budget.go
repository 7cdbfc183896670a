package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	window      = time.Second
	wakeupSlack = 100 * time.Millisecond
)

// Budget admits at most ceiling requests per sliding one-second window.
// One instance is shared by every caller that targets the same venue.
type Budget struct {
	mu      sync.Mutex
	ceiling int
	stamps  []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewBudget(ceiling int) *Budget {
	if ceiling <= 0 {
		ceiling = 1
	}
	return &Budget{
		ceiling: ceiling,
		stamps:  make([]time.Time, 0, ceiling),
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Admit blocks until one request may be issued, then records its timestamp.
// The wait is re-evaluated after every sleep, so concurrent callers that woke
// up together cannot push the window past the ceiling. The lock is never held
// across a sleep.
func (b *Budget) Admit(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()
		b.evictExpired(now)
		if len(b.stamps) < b.ceiling {
			b.stamps = append(b.stamps, now)
			b.mu.Unlock()
			return nil
		}
		// Wait until the oldest stamp leaves the window, plus slack so the
		// re-check does not race the eviction boundary.
		wait := window + wakeupSlack - now.Sub(b.stamps[0])
		b.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := b.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow reports how many admissions the current window holds.
func (b *Budget) InWindow() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evictExpired(b.now())
	return len(b.stamps)
}

func (b *Budget) evictExpired(now time.Time) {
	cut := 0
	for cut < len(b.stamps) && now.Sub(b.stamps[cut]) > window {
		cut++
	}
	if cut > 0 {
		b.stamps = append(b.stamps[:0], b.stamps[cut:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
