package handlers

import (
	"net/http"

	"ecopoweratlas/internal/services"

	"go.uber.org/zap"
)

type StatsHandler struct {
	service *services.StatsService
	logr    *zap.Logger
}

func NewStatsHandler(svc *services.StatsService, logr *zap.Logger) *StatsHandler {
	return &StatsHandler{service: svc, logr: logr}
}

// GET /api/stats
func (h *StatsHandler) Global(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Global(r.Context())
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/stats/by_country?iso3=KEN
func (h *StatsHandler) ByCountry(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ByCountry(r.Context(), r.URL.Query().Get("iso3"))
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
