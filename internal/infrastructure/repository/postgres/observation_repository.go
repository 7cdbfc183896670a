package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	qb "github.com/riskibarqy/matchup-markets/internal/platform/querybuilder"
)

type ObservationRepository struct {
	db *sqlx.DB
}

func NewObservationRepository(db *sqlx.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// Append inserts one row per observation. Re-delivered points are ignored via
// the (sport, game_id, observed_ts) conflict target.
func (r *ObservationRepository) Append(ctx context.Context, sport, gameID string, observations []market.PriceObservation) error {
	if len(observations) == 0 {
		return nil
	}

	builder := qb.InsertInto("price_observations").
		Columns("sport", "game_id", "observed_ts", "away_prob", "home_prob")
	for _, point := range observations {
		builder.Values(game.NormalizeSport(sport), gameID, point.Timestamp, point.AwayProb, point.HomeProb)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (sport, game_id, observed_ts) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert price observations query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert price observations sport=%s game_id=%s: %w", sport, gameID, err)
	}
	return nil
}

// ListByGame returns stored observations ordered by time, oldest first.
func (r *ObservationRepository) ListByGame(ctx context.Context, sport, gameID string) ([]market.PriceObservation, error) {
	query, args, err := qb.Select("observed_ts", "away_prob", "home_prob").
		From("price_observations").
		Where(
			qb.Eq("sport", game.NormalizeSport(sport)),
			qb.Eq("game_id", gameID),
		).
		OrderBy("observed_ts").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select price observations query: %w", err)
	}

	var rows []observationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select price observations: %w", err)
	}

	out := make([]market.PriceObservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, market.PriceObservation{
			Timestamp: row.ObservedTS,
			AwayProb:  row.AwayProb,
			HomeProb:  row.HomeProb,
		})
	}
	return out, nil
}

type observationTableModel struct {
	ObservedTS int64   `db:"observed_ts"`
	AwayProb   float64 `db:"away_prob"`
	HomeProb   float64 `db:"home_prob"`
}
