package game

import "context"

// Repository is the game store. Similarity reads it; only ingestion writes.
type Repository interface {
	ListBySport(ctx context.Context, sport string) ([]Game, error)
	GetByID(ctx context.Context, sport, id string) (Game, bool, error)
	Upsert(ctx context.Context, g Game) error
	AttachMarket(ctx context.Context, sport, id string, m MarketInfo) error
	ListOpenMarkets(ctx context.Context) ([]Game, error)
}
