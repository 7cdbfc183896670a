package usecase

import (
	"errors"
	"testing"

	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
)

func newAnalysisService(t *testing.T, games []game.Game, fetcher PriceFetcher) *AnalysisService {
	t.Helper()
	repo := memory.NewGameRepository(games)
	similarity := NewSimilarityService(repo, logging.NewNop())
	prices := NewPriceHistoryService(fetcher, 10, logging.NewNop())
	return NewAnalysisService(repo, similarity, prices, logging.NewNop())
}

func TestAnalyze_FetchesHistoriesForComparableGames(t *testing.T) {
	svc := newAnalysisService(t, seedNBAPopulation(t, 12), &stubPriceFetcher{})

	analysis, err := svc.Analyze(t.Context(), "NBA", "nba-004", 4)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Target == nil || analysis.Target.ID != "nba-004" {
		t.Fatalf("target not resolved: %+v", analysis.Target)
	}
	if len(analysis.Similar) != 4 {
		t.Fatalf("expected 4 comparable games, got %d", len(analysis.Similar))
	}
	if len(analysis.Histories) != 4 {
		t.Fatalf("expected 4 histories, got %d", len(analysis.Histories))
	}
	for _, candidate := range analysis.Similar {
		history, ok := analysis.Histories[candidate.GameID]
		if !ok {
			t.Fatalf("missing history for %s", candidate.GameID)
		}
		if !history.Found {
			t.Fatalf("history for %s not populated", candidate.GameID)
		}
	}
}

func TestAnalyze_UnknownTargetYieldsEmptyAnalysis(t *testing.T) {
	fetcher := &stubPriceFetcher{}
	svc := newAnalysisService(t, seedNBAPopulation(t, 8), fetcher)

	analysis, err := svc.Analyze(t.Context(), "NBA", "unknown-id", 4)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Target != nil || len(analysis.Similar) != 0 || len(analysis.Histories) != 0 {
		t.Fatalf("expected empty analysis, got %+v", analysis)
	}
	if got := fetcher.calls.Load(); got != 0 {
		t.Fatalf("no fetches expected for unknown target, got %d", got)
	}
}

func TestAnalyze_UnknownSportRejected(t *testing.T) {
	svc := newAnalysisService(t, seedNBAPopulation(t, 8), &stubPriceFetcher{})

	if _, err := svc.Analyze(t.Context(), "MLB", "nba-001", 4); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyze_SkipsCandidatesWithoutVenueTokens(t *testing.T) {
	games := seedNBAPopulation(t, 8)
	games[3].HomeTeam = "Globetrotters" // no venue token mapping

	fetcher := &stubPriceFetcher{}
	svc := newAnalysisService(t, games, fetcher)

	analysis, err := svc.Analyze(t.Context(), "NBA", "nba-000", 7)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(analysis.Similar) != 7 {
		t.Fatalf("ranking itself must keep the unmappable candidate, got %d", len(analysis.Similar))
	}
	if len(analysis.Histories) != 6 {
		t.Fatalf("expected 6 histories after skipping one candidate, got %d", len(analysis.Histories))
	}
	if _, ok := analysis.Histories["nba-003"]; ok {
		t.Fatal("unmappable candidate must not be fetched")
	}
}
