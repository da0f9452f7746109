package handlers

import (
	"net/http"

	"ecopoweratlas/internal/query"
	"ecopoweratlas/internal/services"

	"go.uber.org/zap"
)

type DatasetHandler struct {
	service *services.DatasetService
	pager   query.Pager
	logr    *zap.Logger
}

func NewDatasetHandler(svc *services.DatasetService, pager query.Pager, logr *zap.Logger) *DatasetHandler {
	return &DatasetHandler{service: svc, pager: pager, logr: logr}
}

func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.DatasetSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	datasets, count, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(count, datasets))
}

func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	dataset, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

func (h *DatasetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.DatasetInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	dataset, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataset)
}

func (h *DatasetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	var input services.DatasetInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	dataset, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
