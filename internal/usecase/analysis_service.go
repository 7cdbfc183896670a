package usecase

import (
	"context"

	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	"github.com/riskibarqy/matchup-markets/internal/domain/team"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
)

// GameAnalysis pairs comparable games with what the market priced for them.
type GameAnalysis struct {
	Sport     string
	TargetID  string
	Target    *game.Game
	Similar   []SimilarGame
	Histories map[string]market.PriceHistory
}

// AnalysisService composes similarity lookup with the batch price fetch.
type AnalysisService struct {
	games      game.Repository
	similarity *SimilarityService
	prices     *PriceHistoryService
	logger     *logging.Logger
}

func NewAnalysisService(games game.Repository, similarity *SimilarityService, prices *PriceHistoryService, logger *logging.Logger) *AnalysisService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AnalysisService{
		games:      games,
		similarity: similarity,
		prices:     prices,
		logger:     logger,
	}
}

// Analyze resolves k comparable games and fetches their price histories. A
// target with no comparable history yields a well-formed empty analysis.
// Candidates whose team names have no venue token are skipped with a warning
// rather than failing the request.
func (s *AnalysisService) Analyze(ctx context.Context, sport, gameID string, k int) (GameAnalysis, error) {
	ctx, span := startUsecaseSpan(ctx, "AnalysisService.Analyze")
	defer span.End()

	similar, err := s.similarity.FindSimilar(ctx, sport, gameID, k, true)
	if err != nil {
		return GameAnalysis{}, err
	}

	analysis := GameAnalysis{
		Sport:     similar.Sport,
		TargetID:  gameID,
		Similar:   similar.Games,
		Histories: map[string]market.PriceHistory{},
	}

	if target, exists, err := s.games.GetByID(ctx, similar.Sport, gameID); err == nil && exists {
		analysis.Target = &target
	}

	descriptors := make([]market.Descriptor, 0, len(similar.Games))
	for _, candidate := range similar.Games {
		awayToken, okAway := team.VenueToken(similar.Sport, candidate.Game.AwayTeam)
		homeToken, okHome := team.VenueToken(similar.Sport, candidate.Game.HomeTeam)
		if !okAway || !okHome {
			s.logger.WarnContext(ctx, "skip candidate without venue token mapping",
				"game_id", candidate.GameID,
				"away_team", candidate.Game.AwayTeam,
				"home_team", candidate.Game.HomeTeam,
			)
			continue
		}
		descriptors = append(descriptors, market.Descriptor{
			GameID:   candidate.GameID,
			Sport:    similar.Sport,
			Date:     candidate.Game.Date,
			AwayTeam: awayToken,
			HomeTeam: homeToken,
		})
	}

	if len(descriptors) > 0 {
		analysis.Histories = s.prices.FetchMany(ctx, descriptors)
	}
	return analysis, nil
}
