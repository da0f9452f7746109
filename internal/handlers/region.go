package handlers

import (
	"net/http"

	"ecopoweratlas/internal/query"
	"ecopoweratlas/internal/services"

	"go.uber.org/zap"
)

type RegionHandler struct {
	service *services.RegionService
	pager   query.Pager
	logr    *zap.Logger
}

func NewRegionHandler(svc *services.RegionService, pager query.Pager, logr *zap.Logger) *RegionHandler {
	return &RegionHandler{service: svc, pager: pager, logr: logr}
}

func (h *RegionHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.RegionSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	regions, count, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(count, regions))
}

func (h *RegionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	region, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, region)
}

func (h *RegionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.RegionInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	region, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusCreated, region)
}

func (h *RegionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	var input services.RegionInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	region, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, region)
}

func (h *RegionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
