package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	"github.com/riskibarqy/matchup-markets/internal/domain/team"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
)

const defaultBackfillWorkers = 8

// StatsSource delivers one season of tabular game rows for a sport. The
// per-provider scraping behind it is not this service's concern.
type StatsSource interface {
	FetchSeasonGames(ctx context.Context, sport, season string) ([]game.Game, error)
}

// MarketResolver attaches venue market metadata to a stored game.
type MarketResolver interface {
	ResolveMarket(ctx context.Context, d market.Descriptor) (game.MarketInfo, bool, bool, error)
}

type BackfillInput struct {
	Sport      string `json:"sport" validate:"required"`
	Season     string `json:"season" validate:"required"`
	MaxWorkers int    `json:"max_workers"`
}

type BackfillResult struct {
	Sport        string `json:"sport"`
	Season       string `json:"season"`
	TotalRows    int    `json:"total_rows"`
	SuccessCount int    `json:"success_count"`
	FailedCount  int    `json:"failed_count"`
	SkippedCount int    `json:"skipped_count"`
	WorkerCount  int    `json:"worker_count"`
	DurationMs   int64  `json:"duration_ms"`
}

// IngestionService writes season backfills into the game store and owns the
// one cache-invalidation call the similarity side exposes.
type IngestionService struct {
	games      game.Repository
	source     StatsSource
	resolver   MarketResolver
	similarity *SimilarityService
	logger     *logging.Logger
}

func NewIngestionService(
	games game.Repository,
	source StatsSource,
	resolver MarketResolver,
	similarity *SimilarityService,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestionService{
		games:      games,
		source:     source,
		resolver:   resolver,
		similarity: similarity,
		logger:     logger,
	}
}

// BackfillSeason loads one (sport, season) from the stats source, upserts the
// rows on a worker pool, attaches venue market metadata where a market exists,
// and clears the similarity cache so the next query rebuilds over the new
// population.
func (s *IngestionService) BackfillSeason(ctx context.Context, input BackfillInput) (BackfillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.BackfillSeason")
	defer span.End()

	sport := game.NormalizeSport(input.Sport)
	if sport == "" {
		return BackfillResult{}, fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}
	season := strings.TrimSpace(input.Season)
	if season == "" {
		return BackfillResult{}, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if s.source == nil {
		return BackfillResult{}, fmt.Errorf("%w: stats source is not configured", ErrDependencyUnavailable)
	}

	started := time.Now()
	rows, err := s.source.FetchSeasonGames(ctx, sport, season)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("fetch season games sport=%s season=%s: %w", sport, season, err)
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 {
		workerCount = defaultBackfillWorkers
	}

	result := BackfillResult{
		Sport:       sport,
		Season:      season,
		TotalRows:   len(rows),
		WorkerCount: workerCount,
	}

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	for _, row := range rows {
		row := row
		if strings.TrimSpace(row.ID) == "" {
			skippedCount.Add(1)
			continue
		}
		row.Sport = sport
		row.Season = season

		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			if err := s.games.Upsert(ctx, row); err != nil {
				failedCount.Add(1)
				s.logger.WarnContext(ctx, "backfill upsert failed",
					"sport", sport, "game_id", row.ID, "error", err)
				return
			}
			s.attachMarket(ctx, row)
			successCount.Add(1)
		}); err != nil {
			workers.Done()
			return BackfillResult{}, fmt.Errorf("submit backfill task: %w", err)
		}
	}
	workers.Wait()

	if s.similarity != nil {
		s.similarity.ClearCache(ctx)
	}

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	result.DurationMs = time.Since(started).Milliseconds()

	s.logger.InfoContext(ctx, "season backfill finished",
		"sport", sport, "season", season,
		"total", result.TotalRows,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
	return result, nil
}

// attachMarket is best-effort: games without a listed market, or with team
// names outside the venue token tables, simply stay bare.
func (s *IngestionService) attachMarket(ctx context.Context, row game.Game) {
	if s.resolver == nil {
		return
	}
	awayToken, okAway := team.VenueToken(row.Sport, row.AwayTeam)
	homeToken, okHome := team.VenueToken(row.Sport, row.HomeTeam)
	if !okAway || !okHome {
		return
	}

	info, _, found, err := s.resolver.ResolveMarket(ctx, market.Descriptor{
		GameID:   row.ID,
		Sport:    row.Sport,
		Date:     row.Date,
		AwayTeam: awayToken,
		HomeTeam: homeToken,
	})
	if err != nil || !found {
		return
	}
	if err := s.games.AttachMarket(ctx, row.Sport, row.ID, info); err != nil {
		s.logger.WarnContext(ctx, "attach market metadata failed",
			"sport", row.Sport, "game_id", row.ID, "error", err)
	}
}
