package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchup-markets/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the starter game population on an empty database so
// local runs have something to query before the first backfill job.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM games WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count games for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, g := range memory.SeedGames() {
		stats, err := sonic.Marshal(g.Stats)
		if err != nil {
			return fmt.Errorf("marshal seed stats for game %s: %w", g.ID, err)
		}

		sqlQuery, args, err := sqlx.Named(`
INSERT INTO games (sport, game_id, season, game_date, home_team, away_team, stats)
VALUES (:sport, :game_id, :season, :game_date, :home_team, :away_team, :stats)
ON CONFLICT (sport, game_id) WHERE deleted_at IS NULL DO NOTHING`, map[string]any{
			"sport":     g.Sport,
			"game_id":   g.ID,
			"season":    g.Season,
			"game_date": g.Date.UTC(),
			"home_team": g.HomeTeam,
			"away_team": g.AwayTeam,
			"stats":     string(stats),
		})
		if err != nil {
			return fmt.Errorf("bind seed game %s query: %w", g.ID, err)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("insert seed game %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
