package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/markets", handler.ListMarkets)
	mux.HandleFunc("GET /api/games/{sport}/{gameID}/similar", handler.GetSimilarGames)
	mux.HandleFunc("GET /api/games/{sport}/{gameID}/analysis", handler.GetGameAnalysis)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /internal/jobs/cache/clear", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunClearCacheJob)))
	mux.Handle("POST /internal/jobs/ingestion/backfill", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBackfillJob)))
	mux.Handle("POST /internal/jobs/prices/snapshot", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSnapshotJob)))
}
