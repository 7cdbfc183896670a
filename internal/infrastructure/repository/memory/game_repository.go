package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchup-markets/internal/domain/game"
)

type GameRepository struct {
	mu           sync.RWMutex
	gamesBySport map[string][]game.Game
}

func NewGameRepository(games []game.Game) *GameRepository {
	r := &GameRepository{gamesBySport: make(map[string][]game.Game)}
	for _, item := range games {
		sport := game.NormalizeSport(item.Sport)
		item.Sport = sport
		r.gamesBySport[sport] = append(r.gamesBySport[sport], item)
	}
	return r
}

func (r *GameRepository) ListBySport(_ context.Context, sport string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.gamesBySport[game.NormalizeSport(sport)]
	out := make([]game.Game, 0, len(items))
	out = append(out, items...)
	return out, nil
}

func (r *GameRepository) GetByID(_ context.Context, sport, id string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.gamesBySport[game.NormalizeSport(sport)] {
		if item.ID == id {
			return item, true, nil
		}
	}
	return game.Game{}, false, nil
}

func (r *GameRepository) Upsert(_ context.Context, g game.Game) error {
	sport := game.NormalizeSport(g.Sport)
	g.Sport = sport

	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.gamesBySport[sport]
	for i, item := range items {
		if item.ID == g.ID {
			items[i] = g
			return nil
		}
	}
	r.gamesBySport[sport] = append(items, g)
	return nil
}

func (r *GameRepository) AttachMarket(_ context.Context, sport, id string, m game.MarketInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.gamesBySport[game.NormalizeSport(sport)]
	for i, item := range items {
		if item.ID == id {
			info := m
			items[i].Market = &info
			return nil
		}
	}
	return nil
}

func (r *GameRepository) ListOpenMarkets(_ context.Context) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, items := range r.gamesBySport {
		for _, item := range items {
			if item.Market != nil && !item.Market.Closed {
				out = append(out, item)
			}
		}
	}
	return out, nil
}
