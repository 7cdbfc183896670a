package market

import "time"

// PriceObservation is one point of a market's implied win-probability series.
// The two sides are complementary; AwayProb + HomeProb is always 1.
type PriceObservation struct {
	Timestamp int64
	AwayProb  float64
	HomeProb  float64
}

// PriceHistory is the fetched series plus the market's lifecycle timestamps.
// Found=false means the venue lists no market for the matchup under either
// team ordering, a frequent and unexceptional condition.
type PriceHistory struct {
	Found         bool
	History       []PriceObservation
	MarketOpenTS  int64
	MarketCloseTS int64
	GameStartTS   int64
	SwappedOrder  bool
}

// Descriptor identifies one matchup to fetch from the venue. Team fields are
// venue tokens (lowercase abbreviations), not display names.
type Descriptor struct {
	GameID   string
	Sport    string
	Date     time.Time
	AwayTeam string
	HomeTeam string
}
