package handlers

import (
	"net/http"

	"ecopoweratlas/internal/query"
	"ecopoweratlas/internal/services"

	"go.uber.org/zap"
)

type ClimateSeriesHandler struct {
	service *services.ClimateSeriesService
	pager   query.Pager
	logr    *zap.Logger
}

func NewClimateSeriesHandler(svc *services.ClimateSeriesService, pager query.Pager, logr *zap.Logger) *ClimateSeriesHandler {
	return &ClimateSeriesHandler{service: svc, pager: pager, logr: logr}
}

func (h *ClimateSeriesHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.ClimateSeriesSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	series, count, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(count, series))
}

// GET /api/climate-series/timeline — filtered rows, capped.
func (h *ClimateSeriesHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.ClimateSeriesSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	series, err := h.service.Timeline(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"limit":   services.TimeseriesRowCap,
		"results": series,
	})
}

func (h *ClimateSeriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	series, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *ClimateSeriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.ClimateSeriesInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	series, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusCreated, series)
}

func (h *ClimateSeriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	var input services.ClimateSeriesInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	series, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *ClimateSeriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
