package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
)

// MarketService lists games whose venue market is currently open.
type MarketService struct {
	games  game.Repository
	logger *logging.Logger
}

func NewMarketService(games game.Repository, logger *logging.Logger) *MarketService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MarketService{games: games, logger: logger}
}

// ListOpen returns open markets sorted by game start, soonest first.
func (s *MarketService) ListOpen(ctx context.Context) ([]game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "MarketService.ListOpen")
	defer span.End()

	rows, err := s.games.ListOpenMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open markets: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		left, right := rows[i], rows[j]
		if left.Market == nil || right.Market == nil {
			return right.Market == nil && left.Market != nil
		}
		return left.Market.GameStartTS < right.Market.GameStartTS
	})
	return rows, nil
}
