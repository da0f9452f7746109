package handlers

import (
	"net/http"

	"ecopoweratlas/internal/export"
	"ecopoweratlas/internal/jobs"
	"ecopoweratlas/internal/query"
	"ecopoweratlas/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ResourceMetricHandler struct {
	service *services.ResourceMetricService
	queue   jobs.Queue
	pager   query.Pager
	logr    *zap.Logger
}

func NewResourceMetricHandler(svc *services.ResourceMetricService, queue jobs.Queue, pager query.Pager, logr *zap.Logger) *ResourceMetricHandler {
	return &ResourceMetricHandler{service: svc, queue: queue, pager: pager, logr: logr}
}

func (h *ResourceMetricHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.ResourceMetricSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	metrics, count, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(count, metrics))
}

// GET /api/resource-metrics/timeseries — filtered rows, capped.
func (h *ResourceMetricHandler) Timeseries(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.ResourceMetricSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	metrics, err := h.service.Timeseries(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"limit":   services.TimeseriesRowCap,
		"results": metrics,
	})
}

// GET /api/resource-metrics/export — the filtered set as a CSV attachment.
func (h *ResourceMetricHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.ResourceMetricSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	metrics, err := h.service.ListFiltered(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="resource_metrics.csv"`)
	if err := export.WriteResourceMetricsCSV(w, metrics); err != nil {
		h.logr.Error("csv export failed", zap.Error(err))
	}
}

// GET /api/resource-metrics/export_pdf — short PDF report of the filtered set.
func (h *ResourceMetricHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	p, err := parseList(r, services.ResourceMetricSpec, h.pager)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	metrics, err := h.service.ListFiltered(r.Context(), p)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="resource_metrics.pdf"`)
	if err := export.WriteResourceMetricsPDF(w, metrics, "Resource Metrics Report"); err != nil {
		h.logr.Error("pdf export failed", zap.Error(err))
	}
}

// POST /api/resource-metrics/enqueue_snapshot — 202 with the task id.
func (h *ResourceMetricHandler) EnqueueSnapshot(w http.ResponseWriter, r *http.Request) {
	var req jobs.SnapshotRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, h.logr, err)
			return
		}
	}
	taskID, err := h.queue.Enqueue(req)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// GET /api/resource-metrics/snapshots/{id}
func (h *ResourceMetricHandler) SnapshotStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	status, err := h.queue.Status(taskID)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *ResourceMetricHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	metric, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, metric)
}

func (h *ResourceMetricHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.ResourceMetricInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	metric, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusCreated, metric)
}

func (h *ResourceMetricHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	var input services.ResourceMetricInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, h.logr, err)
		return
	}
	metric, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, h.logr, err)
		return
	}
	writeJSON(w, http.StatusOK, metric)
}

func (h *ResourceMetricHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
