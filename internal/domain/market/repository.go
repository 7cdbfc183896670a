package market

import "context"

// ObservationRepository persists tracked price snapshots.
type ObservationRepository interface {
	Append(ctx context.Context, sport, gameID string, observations []PriceObservation) error
}
