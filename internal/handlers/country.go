package handlers

import (
	"net/http"

	"ecopoweratlas/internal/query"
	"ecopoweratlas/internal/services"

	"go.uber.org/zap"
)

type CountryHandler struct {
	service *services.CountryService
	pager   query.Pager
	logr    *zap.Logger
}

func NewCountryHandler(svc *services.CountryService, pager query.Pager, logr *zap.Logger) *CountryHandler {
	return &CountryHandler{service: svc, pager: pager, logr: logr}
}

// GET /api/countries
func (h *CountryHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.CountrySpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	countries, count, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(count, countries))
}

// GET /api/countries/{id}
func (h *CountryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	country, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, country)
}

// POST /api/countries
func (h *CountryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CountryInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	country, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusCreated, country)
}

// PUT /api/countries/{id}
func (h *CountryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	var input services.CountryInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	country, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, country)
}

// DELETE /api/countries/{id}
func (h *CountryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
