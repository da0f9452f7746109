package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ecopoweratlas/internal/apperrors"
	"ecopoweratlas/internal/query"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(data)
}

// writeError maps a service error onto its HTTP status. Unrecognized errors
// become opaque 500s.
func writeError(w http.ResponseWriter, logr *zap.Logger, err error) {
	code := apperrors.CodeOf(err)
	if code == http.StatusInternalServerError {
		logr.Error("request failed", zap.Error(err))
		writeJSON(w, code, map[string]any{"error": "internal server error"})
		return
	}

	body := map[string]any{"error": err.Error()}
	if fields := apperrors.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	writeJSON(w, code, body)
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.BadRequest("invalid id %q", raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.BadRequest("invalid payload: %v", err)
	}
	return nil
}

// listResponse is the common paginated envelope.
func listResponse(count int, results any) map[string]any {
	return map[string]any{"count": count, "results": results}
}

func parseList(r *http.Request, spec query.Spec, pager query.Pager) (query.ListParams, error) {
	return query.Parse(r.URL.Query(), spec, pager)
}
