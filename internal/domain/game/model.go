package game

import (
	"strings"
	"time"
)

const (
	SportNBA = "NBA"
	SportNFL = "NFL"
	SportMLB = "MLB"
)

// Game is one historical or upcoming matchup with its per-side statistics.
// Rows are written by ingestion and never mutated afterwards, except to
// attach market fields once the venue lists the matchup.
type Game struct {
	Sport    string
	ID       string
	Season   string
	Date     time.Time
	HomeTeam string
	AwayTeam string

	// Stats holds named numeric statistics. An absent key means the stat
	// was never recorded for this game.
	Stats map[string]float64

	Market *MarketInfo
}

// MarketInfo is the venue-side attachment for a game.
type MarketInfo struct {
	Slug          string
	TokenIDs      []string
	MarketOpenTS  int64
	MarketCloseTS int64
	GameStartTS   int64
	Closed        bool
}

func NormalizeSport(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Stat returns the named statistic, defaulting to 0 when absent.
func (g Game) Stat(field string) float64 {
	return g.Stats[field]
}

// HasStat reports whether the named statistic was recorded.
func (g Game) HasStat(field string) bool {
	_, ok := g.Stats[field]
	return ok
}
