package handlers

import (
	"net/http"

	"ecopoweratlas/internal/export"
	"ecopoweratlas/internal/query"
	"ecopoweratlas/internal/services"

	"go.uber.org/zap"
)

type HydroSiteHandler struct {
	service *services.HydroSiteService
	stats   *services.StatsService
	pager   query.Pager
	logr    *zap.Logger
}

func NewHydroSiteHandler(svc *services.HydroSiteService, stats *services.StatsService, pager query.Pager, logr *zap.Logger) *HydroSiteHandler {
	return &HydroSiteHandler{service: svc, stats: stats, pager: pager, logr: logr}
}

func (h *HydroSiteHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.HydroSiteSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	sites, count, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(count, sites))
}

// GET /api/hydro-sites/summary — aggregate figures over the filtered set.
func (h *HydroSiteHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.HydroSiteSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	summary, err := h.stats.HydroSummary(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GET /api/hydro-sites/export — the filtered set as a CSV attachment.
func (h *HydroSiteHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.HydroSiteSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	sites, err := h.service.ListFiltered(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="hydro_sites.csv"`)
	if err := export.WriteHydroSitesCSV(w, sites); err != nil {
		h.logr.Error("csv export failed", zap.Error(err))
	}
}

func (h *HydroSiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	site, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

func (h *HydroSiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.HydroSiteInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	site, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusCreated, site)
}

func (h *HydroSiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	var input services.HydroSiteInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	site, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

func (h *HydroSiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
