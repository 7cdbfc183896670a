package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/domain/jobdispatch"
	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
	"go.opentelemetry.io/otel/trace"
)

const snapshotJobPath = "/internal/jobs/prices/snapshot"

// JobQueue enqueues deferred internal job invocations.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// PriceSeriesFetcher reads one token's recent price points from the venue.
type PriceSeriesFetcher interface {
	PriceSeries(ctx context.Context, tokenID string, startTS, endTS int64) ([]market.PriceObservation, error)
}

type SnapshotSchedulerConfig struct {
	Interval time.Duration
}

type SnapshotResult struct {
	OpenMarkets   int  `json:"open_markets"`
	RecordedGames int  `json:"recorded_games"`
	FailedGames   int  `json:"failed_games"`
	NextRunQueued bool `json:"next_run_queued"`
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SnapshotSchedulerService appends a price observation for every open market
// and re-enqueues itself, turning the queue into a poor man's cron.
type SnapshotSchedulerService struct {
	games        game.Repository
	observations market.ObservationRepository
	prices       PriceSeriesFetcher
	queue        JobQueue
	dispatchRepo jobdispatch.Repository
	cfg          SnapshotSchedulerConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewSnapshotSchedulerService(
	games game.Repository,
	observations market.ObservationRepository,
	prices PriceSeriesFetcher,
	queue JobQueue,
	dispatchRepo jobdispatch.Repository,
	cfg SnapshotSchedulerConfig,
	logger *logging.Logger,
) *SnapshotSchedulerService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}

	return &SnapshotSchedulerService{
		games:        games,
		observations: observations,
		prices:       prices,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// RunSnapshot records the latest price point for each open market, then
// queues the next run. Per-market failures are counted and skipped; the
// sweep itself only fails when the store is unreachable.
func (s *SnapshotSchedulerService) RunSnapshot(ctx context.Context) (SnapshotResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SnapshotSchedulerService.RunSnapshot")
	defer span.End()

	if s.prices == nil || s.observations == nil {
		return SnapshotResult{}, fmt.Errorf("%w: price snapshot tracking is not configured", ErrDependencyUnavailable)
	}

	open, err := s.games.ListOpenMarkets(ctx)
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("list open markets: %w", err)
	}

	now := s.now().UTC()
	result := SnapshotResult{OpenMarkets: len(open)}

	for _, row := range open {
		if row.Market == nil || len(row.Market.TokenIDs) == 0 {
			continue
		}
		since := now.Add(-s.cfg.Interval).Unix()
		series, err := s.prices.PriceSeries(ctx, row.Market.TokenIDs[0], since, now.Unix())
		if err != nil {
			if ctx.Err() != nil {
				return SnapshotResult{}, ctx.Err()
			}
			result.FailedGames++
			s.logger.WarnContext(ctx, "price snapshot fetch failed",
				"sport", row.Sport, "game_id", row.ID, "error", err)
			continue
		}
		if len(series) == 0 {
			continue
		}

		latest := series[len(series)-1]
		if err := s.observations.Append(ctx, row.Sport, row.ID, []market.PriceObservation{latest}); err != nil {
			result.FailedGames++
			s.logger.WarnContext(ctx, "price snapshot append failed",
				"sport", row.Sport, "game_id", row.ID, "error", err)
			continue
		}
		result.RecordedGames++
	}

	if err := s.enqueueNext(ctx, now); err != nil {
		s.logger.WarnContext(ctx, "enqueue next price snapshot failed", "error", err)
	} else {
		result.NextRunQueued = true
	}

	return result, nil
}

func (s *SnapshotSchedulerService) enqueueNext(ctx context.Context, now time.Time) error {
	dedupID := snapshotDedupKey(now.Add(s.cfg.Interval), s.cfg.Interval)
	payload := map[string]any{"dispatch_id": dedupID}

	if err := s.queue.Enqueue(ctx, snapshotJobPath, payload, s.cfg.Interval, dedupID); err != nil {
		s.recordDispatchEvent(ctx, jobdispatch.Event{
			DispatchID:   dedupID,
			JobName:      "prices-snapshot",
			JobPath:      snapshotJobPath,
			Status:       jobdispatch.StatusFailed,
			Payload:      payload,
			ErrorMessage: err.Error(),
			OccurredAt:   now,
		})
		return fmt.Errorf("enqueue prices snapshot: %w", err)
	}

	s.recordDispatchEvent(ctx, jobdispatch.Event{
		DispatchID: dedupID,
		JobName:    "prices-snapshot",
		JobPath:    snapshotJobPath,
		Status:     jobdispatch.StatusSent,
		Payload:    payload,
		OccurredAt: now,
	})
	return nil
}

func snapshotDedupKey(at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	return "prices-snapshot-" + sanitizeDedupSegment(slot)
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func (s *SnapshotSchedulerService) recordDispatchEvent(ctx context.Context, event jobdispatch.Event) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if spanContext.IsValid() {
		event.TraceID = spanContext.TraceID().String()
		event.SpanID = spanContext.SpanID().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}
