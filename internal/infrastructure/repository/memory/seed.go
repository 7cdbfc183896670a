package memory

import (
	"time"

	"github.com/riskibarqy/matchup-markets/internal/domain/game"
)

// SeedGames returns a small NBA/NFL population for local runs and tests.
func SeedGames() []game.Game {
	return []game.Game{
		{
			Sport: game.SportNBA, ID: "nba-2025-0001", Season: "2025",
			Date:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			HomeTeam: "Boston Celtics", AwayTeam: "Los Angeles Lakers",
			Stats: map[string]float64{
				"home_avg_pts": 118.2, "away_avg_pts": 112.9,
				"home_fg_pct": 0.481, "away_fg_pct": 0.472,
				"home_avg_reb": 45.1, "away_avg_reb": 43.8,
				"home_avg_ast": 26.7, "away_avg_ast": 27.9,
			},
		},
		{
			Sport: game.SportNBA, ID: "nba-2025-0002", Season: "2025",
			Date:     time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
			HomeTeam: "Denver Nuggets", AwayTeam: "Phoenix Suns",
			Stats: map[string]float64{
				"home_avg_pts": 114.5, "away_avg_pts": 113.1,
				"home_fg_pct": 0.495, "away_fg_pct": 0.468,
				"home_avg_reb": 44.2, "away_avg_reb": 42.5,
				"home_avg_ast": 29.3, "away_avg_ast": 26.1,
			},
		},
		{
			Sport: game.SportNBA, ID: "nba-2025-0003", Season: "2025",
			Date:     time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			HomeTeam: "Milwaukee Bucks", AwayTeam: "Miami Heat",
			Stats: map[string]float64{
				"home_avg_pts": 116.8, "away_avg_pts": 108.4,
				"home_fg_pct": 0.477, "away_fg_pct": 0.461,
				"home_avg_reb": 46.9, "away_avg_reb": 41.7,
				"home_avg_ast": 25.4, "away_avg_ast": 25.9,
			},
		},
		{
			Sport: game.SportNFL, ID: "nfl-2025-0001", Season: "2025",
			Date:     time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC),
			HomeTeam: "Kansas City Chiefs", AwayTeam: "Buffalo Bills",
			Stats: map[string]float64{
				"home_yards_per_play": 5.9, "away_yards_per_play": 5.6,
				"home_third_down_eff": 0.46, "away_third_down_eff": 0.41,
				"home_first_downs": 22, "away_first_downs": 20,
			},
		},
		{
			Sport: game.SportNFL, ID: "nfl-2025-0002", Season: "2025",
			Date:     time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC),
			HomeTeam: "Philadelphia Eagles", AwayTeam: "Dallas Cowboys",
			Stats: map[string]float64{
				"home_yards_per_play": 5.4, "away_yards_per_play": 5.1,
				"home_third_down_eff": 0.44, "away_third_down_eff": 0.38,
				"home_first_downs": 21, "away_first_downs": 18,
			},
		},
	}
}
