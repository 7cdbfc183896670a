package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchup-markets/internal/usecase"
)

type backfillJobRequest struct {
	Sport      string `json:"sport" validate:"required"`
	Season     string `json:"season" validate:"required"`
	MaxWorkers int    `json:"max_workers" validate:"gte=0"`
}

func (h *Handler) RunClearCacheJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunClearCacheJob")
	defer span.End()

	if h.similarityService == nil {
		writeError(ctx, w, fmt.Errorf("%w: similarity service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	h.similarityService.ClearCache(ctx)
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) RunBackfillJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBackfillJob")
	defer span.End()

	if h.ingestionService == nil {
		writeError(ctx, w, fmt.Errorf("%w: ingestion service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req backfillJobRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.ingestionService.BackfillSeason(ctx, usecase.BackfillInput{
		Sport:      req.Sport,
		Season:     req.Season,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run backfill job failed",
			"sport", req.Sport, "season", req.Season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunSnapshotJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSnapshotJob")
	defer span.End()

	if h.snapshotService == nil {
		writeError(ctx, w, fmt.Errorf("%w: snapshot scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.snapshotService.RunSnapshot(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run price snapshot job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
