package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) GetGameAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGameAnalysis")
	defer span.End()

	sport := r.PathValue("sport")
	gameID := strings.TrimSpace(r.PathValue("gameID"))

	k, err := parseKParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	analysis, err := h.analysisService.Analyze(ctx, sport, gameID, k)
	if err != nil {
		h.logger.WarnContext(ctx, "game analysis failed",
			"sport", sport, "game_id", gameID, "k", k, "error", err)
		writeError(ctx, w, err)
		return
	}

	similar := make([]similarGameDTO, 0, len(analysis.Similar))
	for _, candidate := range analysis.Similar {
		similar = append(similar, similarGameToDTO(candidate))
	}

	histories := make(map[string]priceHistoryDTO, len(analysis.Histories))
	for id, history := range analysis.Histories {
		histories[id] = priceHistoryToDTO(history)
	}

	dto := analysisDTO{
		Sport:     analysis.Sport,
		TargetID:  analysis.TargetID,
		Similar:   similar,
		Histories: histories,
	}
	if analysis.Target != nil {
		target := gameToDTO(*analysis.Target)
		dto.Target = &target
	}

	writeSuccess(ctx, w, http.StatusOK, dto)
}
