package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	qb "github.com/riskibarqy/matchup-markets/internal/platform/querybuilder"
)

var gameSelectColumns = []string{
	"sport",
	"game_id",
	"season",
	"game_date",
	"home_team",
	"away_team",
	"stats",
	"market_slug",
	"market_token_ids",
	"market_open_ts",
	"market_close_ts",
	"game_start_ts",
	"market_closed",
}

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) ListBySport(ctx context.Context, sport string) ([]game.Game, error) {
	query, args, err := qb.Select(gameSelectColumns...).From("games").
		Where(
			qb.Eq("sport", game.NormalizeSport(sport)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("game_date", "game_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games by sport query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games by sport: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *GameRepository) GetByID(ctx context.Context, sport, id string) (game.Game, bool, error) {
	query, args, err := qb.Select(gameSelectColumns...).From("games").
		Where(
			qb.Eq("sport", game.NormalizeSport(sport)),
			qb.Eq("game_id", id),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build select game by id query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("select game by id: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return game.Game{}, false, err
	}
	return item, true, nil
}

func (r *GameRepository) Upsert(ctx context.Context, g game.Game) error {
	stats, err := sonic.Marshal(g.Stats)
	if err != nil {
		return fmt.Errorf("marshal game stats: %w", err)
	}

	model := gameInsertModel{
		Sport:    game.NormalizeSport(g.Sport),
		GameID:   g.ID,
		Season:   g.Season,
		GameDate: g.Date.UTC(),
		HomeTeam: g.HomeTeam,
		AwayTeam: g.AwayTeam,
		Stats:    string(stats),
	}

	query, args, err := qb.InsertModel("games", model, `ON CONFLICT (sport, game_id) WHERE deleted_at IS NULL
DO UPDATE SET
    season = EXCLUDED.season,
    game_date = EXCLUDED.game_date,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    stats = EXCLUDED.stats,
    updated_at = NOW(),
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert game query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert game sport=%s game_id=%s: %w", model.Sport, model.GameID, err)
	}
	return nil
}

func (r *GameRepository) AttachMarket(ctx context.Context, sport, id string, m game.MarketInfo) error {
	tokens, err := sonic.Marshal(m.TokenIDs)
	if err != nil {
		return fmt.Errorf("marshal market token ids: %w", err)
	}

	query, args, err := qb.Update("games").
		Set("market_slug", m.Slug).
		Set("market_token_ids", string(tokens)).
		Set("market_open_ts", m.MarketOpenTS).
		Set("market_close_ts", m.MarketCloseTS).
		Set("game_start_ts", m.GameStartTS).
		Set("market_closed", m.Closed).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("sport", game.NormalizeSport(sport)),
			qb.Eq("game_id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build attach market query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("attach market sport=%s game_id=%s: %w", sport, id, err)
	}
	return nil
}

func (r *GameRepository) ListOpenMarkets(ctx context.Context) ([]game.Game, error) {
	query, args, err := qb.Select(gameSelectColumns...).From("games").
		Where(
			qb.Expr("market_slug IS NOT NULL"),
			qb.Eq("market_closed", false),
			qb.IsNull("deleted_at"),
		).
		OrderBy("game_start_ts", "game_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select open markets query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select open markets: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
