package httpapi

import "net/http"

func (h *Handler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMarkets")
	defer span.End()

	rows, err := h.marketService.ListOpen(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list open markets failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]openMarketDTO, 0, len(rows))
	for _, row := range rows {
		if row.Market == nil {
			continue
		}
		items = append(items, openMarketDTO{
			Game:   gameToDTO(row),
			Market: marketInfoToDTO(*row.Market),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
