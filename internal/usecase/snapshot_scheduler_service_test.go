package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/domain/jobdispatch"
	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	"github.com/riskibarqy/matchup-markets/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
)

type capturingJobQueue struct {
	path    string
	delay   time.Duration
	dedupID string
	calls   int
	err     error
}

func (q *capturingJobQueue) Enqueue(_ context.Context, path string, _ any, delay time.Duration, deduplicationID string) error {
	q.calls++
	q.path = path
	q.delay = delay
	q.dedupID = deduplicationID
	return q.err
}

type stubSeriesFetcher struct {
	series map[string][]market.PriceObservation
	err    error
}

func (f *stubSeriesFetcher) PriceSeries(_ context.Context, tokenID string, _, _ int64) ([]market.PriceObservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.series[tokenID], nil
}

func seedOpenMarketRepo(t *testing.T) *memory.GameRepository {
	t.Helper()
	repo := memory.NewGameRepository(memory.SeedGames())
	err := repo.AttachMarket(t.Context(), "NBA", "nba-2025-0001", game.MarketInfo{
		Slug:     "nba-lal-bos-2026-01-10",
		TokenIDs: []string{"token-a", "token-b"},
	})
	if err != nil {
		t.Fatalf("attach market: %v", err)
	}
	err = repo.AttachMarket(t.Context(), "NBA", "nba-2025-0002", game.MarketInfo{
		Slug:     "nba-phx-den-2026-01-11",
		TokenIDs: []string{"token-c", "token-d"},
		Closed:   true,
	})
	if err != nil {
		t.Fatalf("attach closed market: %v", err)
	}
	return repo
}

func TestRunSnapshot_RecordsLatestPointPerOpenMarket(t *testing.T) {
	repo := seedOpenMarketRepo(t)
	observations := memory.NewObservationRepository()
	queue := &capturingJobQueue{}
	dispatches := memory.NewJobDispatchRepository()

	fetcher := &stubSeriesFetcher{series: map[string][]market.PriceObservation{
		"token-a": {
			{Timestamp: 1700000000, AwayProb: 0.45, HomeProb: 0.55},
			{Timestamp: 1700000060, AwayProb: 0.48, HomeProb: 0.52},
		},
	}}

	svc := NewSnapshotSchedulerService(repo, observations, fetcher, queue, dispatches,
		SnapshotSchedulerConfig{Interval: time.Minute}, logging.NewNop())

	result, err := svc.RunSnapshot(t.Context())
	if err != nil {
		t.Fatalf("run snapshot: %v", err)
	}
	if result.OpenMarkets != 1 || result.RecordedGames != 1 || result.FailedGames != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !result.NextRunQueued {
		t.Fatal("next run was not queued")
	}

	recorded := observations.ListByGame("NBA", "nba-2025-0001")
	if len(recorded) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(recorded))
	}
	if recorded[0].Timestamp != 1700000060 {
		t.Fatalf("latest point not recorded, got ts=%d", recorded[0].Timestamp)
	}

	if queue.calls != 1 || queue.path != snapshotJobPath || queue.delay != time.Minute {
		t.Fatalf("unexpected enqueue: %+v", queue)
	}
	if queue.dedupID == "" {
		t.Fatal("dedup id must be set")
	}

	events := dispatches.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 dispatch event, got %d", len(events))
	}
	if events[0].Status != jobdispatch.StatusSent || events[0].DispatchID != queue.dedupID {
		t.Fatalf("unexpected dispatch event: %+v", events[0])
	}
}

func TestRunSnapshot_FetchFailureCountedNotFatal(t *testing.T) {
	repo := seedOpenMarketRepo(t)
	observations := memory.NewObservationRepository()
	fetcher := &stubSeriesFetcher{err: errors.New("venue down")}

	svc := NewSnapshotSchedulerService(repo, observations, fetcher, nil, nil,
		SnapshotSchedulerConfig{}, logging.NewNop())

	result, err := svc.RunSnapshot(t.Context())
	if err != nil {
		t.Fatalf("per-market failure must not fail the sweep: %v", err)
	}
	if result.FailedGames != 1 || result.RecordedGames != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunSnapshot_EnqueueFailureRecordsFailedDispatch(t *testing.T) {
	repo := seedOpenMarketRepo(t)
	queue := &capturingJobQueue{err: errors.New("queue rejected")}
	dispatches := memory.NewJobDispatchRepository()
	fetcher := &stubSeriesFetcher{}

	svc := NewSnapshotSchedulerService(repo, memory.NewObservationRepository(), fetcher, queue, dispatches,
		SnapshotSchedulerConfig{Interval: time.Minute}, logging.NewNop())

	result, err := svc.RunSnapshot(t.Context())
	if err != nil {
		t.Fatalf("run snapshot: %v", err)
	}
	if result.NextRunQueued {
		t.Fatal("enqueue failed, next run must not be marked queued")
	}

	events := dispatches.Events()
	if len(events) != 1 || events[0].Status != jobdispatch.StatusFailed {
		t.Fatalf("expected one failed dispatch event, got %+v", events)
	}
}

func TestRunSnapshot_RequiresConfiguredDependencies(t *testing.T) {
	repo := seedOpenMarketRepo(t)
	svc := NewSnapshotSchedulerService(repo, nil, nil, nil, nil, SnapshotSchedulerConfig{}, logging.NewNop())

	if _, err := svc.RunSnapshot(t.Context()); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestSnapshotDedupKey_StableWithinSlot(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 3, 17, 0, time.UTC)

	a := snapshotDedupKey(base, 5*time.Minute)
	b := snapshotDedupKey(base.Add(90*time.Second), 5*time.Minute)
	if a != b {
		t.Fatalf("same slot must dedup to the same key: %s vs %s", a, b)
	}

	c := snapshotDedupKey(base.Add(5*time.Minute), 5*time.Minute)
	if a == c {
		t.Fatal("next slot must produce a distinct key")
	}
}
