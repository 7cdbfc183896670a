package postgres

import (
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchup-markets/internal/domain/game"
)

type gameTableModel struct {
	Sport         string         `db:"sport"`
	GameID        string         `db:"game_id"`
	Season        string         `db:"season"`
	GameDate      time.Time      `db:"game_date"`
	HomeTeam      string         `db:"home_team"`
	AwayTeam      string         `db:"away_team"`
	Stats         string         `db:"stats"`
	MarketSlug    sql.NullString `db:"market_slug"`
	MarketTokens  sql.NullString `db:"market_token_ids"`
	MarketOpenTS  sql.NullInt64  `db:"market_open_ts"`
	MarketCloseTS sql.NullInt64  `db:"market_close_ts"`
	GameStartTS   sql.NullInt64  `db:"game_start_ts"`
	MarketClosed  sql.NullBool   `db:"market_closed"`
}

func (m gameTableModel) toDomain() (game.Game, error) {
	stats := map[string]float64{}
	if m.Stats != "" {
		if err := sonic.Unmarshal([]byte(m.Stats), &stats); err != nil {
			return game.Game{}, fmt.Errorf("decode stats for game %s/%s: %w", m.Sport, m.GameID, err)
		}
	}

	out := game.Game{
		Sport:    m.Sport,
		ID:       m.GameID,
		Season:   m.Season,
		Date:     m.GameDate.UTC(),
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		Stats:    stats,
	}

	if m.MarketSlug.Valid {
		var tokens []string
		if m.MarketTokens.Valid && m.MarketTokens.String != "" {
			if err := sonic.Unmarshal([]byte(m.MarketTokens.String), &tokens); err != nil {
				return game.Game{}, fmt.Errorf("decode market tokens for game %s/%s: %w", m.Sport, m.GameID, err)
			}
		}
		out.Market = &game.MarketInfo{
			Slug:          m.MarketSlug.String,
			TokenIDs:      tokens,
			MarketOpenTS:  m.MarketOpenTS.Int64,
			MarketCloseTS: m.MarketCloseTS.Int64,
			GameStartTS:   m.GameStartTS.Int64,
			Closed:        m.MarketClosed.Bool,
		}
	}

	return out, nil
}

type gameInsertModel struct {
	Sport    string    `db:"sport"`
	GameID   string    `db:"game_id"`
	Season   string    `db:"season"`
	GameDate time.Time `db:"game_date"`
	HomeTeam string    `db:"home_team"`
	AwayTeam string    `db:"away_team"`
	Stats    string    `db:"stats"`
}
