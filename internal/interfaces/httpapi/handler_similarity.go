package httpapi

import (
	"net/http"
	"strings"
)

type similarResponseDTO struct {
	Sport     string           `json:"sport"`
	TargetID  string           `json:"targetId"`
	Symmetric bool             `json:"symmetric"`
	Games     []similarGameDTO `json:"games"`
}

func (h *Handler) GetSimilarGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSimilarGames")
	defer span.End()

	sport := r.PathValue("sport")
	gameID := strings.TrimSpace(r.PathValue("gameID"))

	k, err := parseKParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.similarityService.FindSimilar(ctx, sport, gameID, k, true)
	if err != nil {
		h.logger.WarnContext(ctx, "find similar games failed",
			"sport", sport, "game_id", gameID, "k", k, "error", err)
		writeError(ctx, w, err)
		return
	}

	games := make([]similarGameDTO, 0, len(result.Games))
	for _, candidate := range result.Games {
		games = append(games, similarGameToDTO(candidate))
	}

	writeSuccess(ctx, w, http.StatusOK, similarResponseDTO{
		Sport:     result.Sport,
		TargetID:  result.TargetID,
		Symmetric: result.Symmetric,
		Games:     games,
	})
}
