package usecase

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const defaultMaxInFlight = 100

// PriceFetcher is the single-matchup fetch operation of the venue client.
type PriceFetcher interface {
	FetchGamePrices(ctx context.Context, d market.Descriptor) (market.PriceHistory, error)
}

// PriceHistoryService fans one fetch task out per matchup descriptor. The
// in-flight cap bounds memory and connections; the venue client's shared
// budget bounds request rate.
type PriceHistoryService struct {
	fetcher     PriceFetcher
	maxInFlight int
	logger      *logging.Logger
}

func NewPriceHistoryService(fetcher PriceFetcher, maxInFlight int, logger *logging.Logger) *PriceHistoryService {
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PriceHistoryService{
		fetcher:     fetcher,
		maxInFlight: maxInFlight,
		logger:      logger,
	}
}

// FetchMany returns one entry per input descriptor, always. A failing or
// panicking item degrades to an empty history for its own key and never
// disturbs its siblings.
func (s *PriceHistoryService) FetchMany(ctx context.Context, descriptors []market.Descriptor) map[string]market.PriceHistory {
	ctx, span := startUsecaseSpan(ctx, "PriceHistoryService.FetchMany")
	defer span.End()

	results := make(map[string]market.PriceHistory, len(descriptors))
	for _, d := range descriptors {
		results[d.GameID] = market.PriceHistory{}
	}

	var mu sync.Mutex
	tasks := pool.New().WithMaxGoroutines(s.maxInFlight)
	for _, d := range descriptors {
		d := d
		tasks.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.ErrorContext(ctx, "price history task panicked",
						"game_id", d.GameID, "panic", r)
				}
			}()

			history, err := s.fetcher.FetchGamePrices(ctx, d)
			if err != nil {
				s.logger.WarnContext(ctx, "price history fetch failed",
					"game_id", d.GameID, "sport", d.Sport, "error", err)
				return
			}

			mu.Lock()
			results[d.GameID] = history
			mu.Unlock()
		})
	}
	tasks.Wait()

	return results
}
