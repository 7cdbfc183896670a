package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	"github.com/riskibarqy/matchup-markets/internal/usecase"
)

const defaultSimilarK = 5

type Handler struct {
	marketService     *usecase.MarketService
	similarityService *usecase.SimilarityService
	analysisService   *usecase.AnalysisService
	ingestionService  *usecase.IngestionService
	snapshotService   *usecase.SnapshotSchedulerService
	logger            *slog.Logger
	validator         *validator.Validate
}

func NewHandler(
	marketService *usecase.MarketService,
	similarityService *usecase.SimilarityService,
	analysisService *usecase.AnalysisService,
	ingestionService *usecase.IngestionService,
	snapshotService *usecase.SnapshotSchedulerService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		marketService:     marketService,
		similarityService: similarityService,
		analysisService:   analysisService,
		ingestionService:  ingestionService,
		snapshotService:   snapshotService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// parseKParam reads the neighbor-count query parameter, defaulting when absent.
func parseKParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("k"))
	if raw == "" {
		return defaultSimilarK, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: k must be an integer: %v", usecase.ErrInvalidInput, err)
	}
	if k <= 0 {
		return 0, fmt.Errorf("%w: k must be > 0", usecase.ErrInvalidInput)
	}
	return k, nil
}

type gameDTO struct {
	ID       string             `json:"id"`
	Sport    string             `json:"sport"`
	Season   string             `json:"season"`
	Date     string             `json:"date"`
	HomeTeam string             `json:"homeTeam"`
	AwayTeam string             `json:"awayTeam"`
	Stats    map[string]float64 `json:"stats,omitempty"`
}

type marketInfoDTO struct {
	Slug          string   `json:"slug"`
	TokenIDs      []string `json:"tokenIds"`
	MarketOpenTS  int64    `json:"marketOpenTs"`
	MarketCloseTS int64    `json:"marketCloseTs"`
	GameStartTS   int64    `json:"gameStartTs"`
	Closed        bool     `json:"closed"`
}

type openMarketDTO struct {
	Game   gameDTO       `json:"game"`
	Market marketInfoDTO `json:"market"`
}

type similarGameDTO struct {
	GameID  string  `json:"gameId"`
	Score   float64 `json:"score"`
	Mapping string  `json:"mapping"`
	Game    gameDTO `json:"game"`
}

type priceObservationDTO struct {
	Timestamp int64   `json:"t"`
	AwayProb  float64 `json:"awayProb"`
	HomeProb  float64 `json:"homeProb"`
}

type priceHistoryDTO struct {
	Found         bool                  `json:"found"`
	SwappedOrder  bool                  `json:"swappedOrder"`
	MarketOpenTS  int64                 `json:"marketOpenTs,omitempty"`
	MarketCloseTS int64                 `json:"marketCloseTs,omitempty"`
	GameStartTS   int64                 `json:"gameStartTs,omitempty"`
	History       []priceObservationDTO `json:"history"`
}

type analysisDTO struct {
	Sport     string                     `json:"sport"`
	TargetID  string                     `json:"targetId"`
	Target    *gameDTO                   `json:"target,omitempty"`
	Similar   []similarGameDTO           `json:"similar"`
	Histories map[string]priceHistoryDTO `json:"histories"`
}

func gameToDTO(v game.Game) gameDTO {
	return gameDTO{
		ID:       v.ID,
		Sport:    v.Sport,
		Season:   v.Season,
		Date:     v.Date.UTC().Format(time.RFC3339),
		HomeTeam: v.HomeTeam,
		AwayTeam: v.AwayTeam,
		Stats:    v.Stats,
	}
}

func marketInfoToDTO(v game.MarketInfo) marketInfoDTO {
	return marketInfoDTO{
		Slug:          v.Slug,
		TokenIDs:      append([]string(nil), v.TokenIDs...),
		MarketOpenTS:  v.MarketOpenTS,
		MarketCloseTS: v.MarketCloseTS,
		GameStartTS:   v.GameStartTS,
		Closed:        v.Closed,
	}
}

func similarGameToDTO(v usecase.SimilarGame) similarGameDTO {
	return similarGameDTO{
		GameID:  v.GameID,
		Score:   v.Score,
		Mapping: string(v.Mapping),
		Game:    gameToDTO(v.Game),
	}
}

func priceHistoryToDTO(v market.PriceHistory) priceHistoryDTO {
	history := make([]priceObservationDTO, 0, len(v.History))
	for _, point := range v.History {
		history = append(history, priceObservationDTO{
			Timestamp: point.Timestamp,
			AwayProb:  point.AwayProb,
			HomeProb:  point.HomeProb,
		})
	}
	return priceHistoryDTO{
		Found:         v.Found,
		SwappedOrder:  v.SwappedOrder,
		MarketOpenTS:  v.MarketOpenTS,
		MarketCloseTS: v.MarketCloseTS,
		GameStartTS:   v.GameStartTS,
		History:       history,
	}
}
