package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchup-markets/internal/domain/market"
)

type ObservationRepository struct {
	mu           sync.RWMutex
	observations map[string][]market.PriceObservation
}

func NewObservationRepository() *ObservationRepository {
	return &ObservationRepository{observations: make(map[string][]market.PriceObservation)}
}

func (r *ObservationRepository) Append(_ context.Context, sport, gameID string, observations []market.PriceObservation) error {
	key := sport + ":" + gameID

	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations[key] = append(r.observations[key], observations...)
	return nil
}

// ListByGame is a test helper; the production read path lives in postgres.
func (r *ObservationRepository) ListByGame(sport, gameID string) []market.PriceObservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.observations[sport+":"+gameID]
	out := make([]market.PriceObservation, 0, len(items))
	out = append(out, items...)
	return out
}
