package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
)

type stubPriceFetcher struct {
	calls   atomic.Int32
	failID  string
	panicID string
	delay   time.Duration
}

func (f *stubPriceFetcher) FetchGamePrices(_ context.Context, d market.Descriptor) (market.PriceHistory, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if d.GameID == f.panicID {
		panic("fetcher blew up")
	}
	if d.GameID == f.failID {
		return market.PriceHistory{}, fmt.Errorf("venue unreachable for %s", d.GameID)
	}
	return market.PriceHistory{
		Found: true,
		History: []market.PriceObservation{
			{Timestamp: d.Date.Unix(), AwayProb: 0.4, HomeProb: 0.6},
		},
	}, nil
}

func batchDescriptors(n int) []market.Descriptor {
	out := make([]market.Descriptor, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, market.Descriptor{
			GameID:   fmt.Sprintf("nba-%03d", i),
			Sport:    "NBA",
			Date:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			AwayTeam: "lal",
			HomeTeam: "bos",
		})
	}
	return out
}

func TestFetchMany_OneEntryPerDescriptor(t *testing.T) {
	fetcher := &stubPriceFetcher{failID: "nba-002"}
	svc := NewPriceHistoryService(fetcher, 10, logging.NewNop())

	results := svc.FetchMany(t.Context(), batchDescriptors(5))
	if len(results) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(results))
	}

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("nba-%03d", i)
		history, ok := results[id]
		if !ok {
			t.Fatalf("missing entry for %s", id)
		}
		if id == "nba-002" {
			if history.Found || len(history.History) != 0 {
				t.Fatalf("failed item must degrade to empty history, got %+v", history)
			}
			continue
		}
		if !history.Found || len(history.History) != 1 {
			t.Fatalf("item %s not populated: %+v", id, history)
		}
	}
}

func TestFetchMany_PanicIsolatedToItsOwnItem(t *testing.T) {
	fetcher := &stubPriceFetcher{panicID: "nba-001"}
	svc := NewPriceHistoryService(fetcher, 10, logging.NewNop())

	results := svc.FetchMany(t.Context(), batchDescriptors(3))
	if len(results) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(results))
	}
	if results["nba-001"].Found {
		t.Fatal("panicking item must keep its empty placeholder")
	}
	if !results["nba-000"].Found || !results["nba-002"].Found {
		t.Fatal("siblings of a panicking item must still resolve")
	}
}

func TestFetchMany_EmptyInput(t *testing.T) {
	fetcher := &stubPriceFetcher{}
	svc := NewPriceHistoryService(fetcher, 10, logging.NewNop())

	results := svc.FetchMany(t.Context(), nil)
	if len(results) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(results))
	}
	if got := fetcher.calls.Load(); got != 0 {
		t.Fatalf("no fetches expected, got %d", got)
	}
}

func TestFetchMany_AllDescriptorsFetched(t *testing.T) {
	fetcher := &stubPriceFetcher{delay: time.Millisecond}
	svc := NewPriceHistoryService(fetcher, 4, logging.NewNop())

	results := svc.FetchMany(t.Context(), batchDescriptors(25))
	if len(results) != 25 {
		t.Fatalf("expected 25 entries, got %d", len(results))
	}
	if got := fetcher.calls.Load(); got != 25 {
		t.Fatalf("expected 25 fetches, got %d", got)
	}
}
