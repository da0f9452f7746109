package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecopoweratlas/internal/database"
	"ecopoweratlas/internal/jobs"
	"ecopoweratlas/internal/models"
	"ecopoweratlas/internal/query"
	"ecopoweratlas/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// testRouter wires the API without the auth middleware; access control has
// its own tests.
func testRouter(t *testing.T) (*chi.Mux, *bun.DB) {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.CreateSchema(context.Background(), db))

	logr := zap.NewNop()
	pager := query.Pager{Default: 50, Max: 200}

	dispatcher := jobs.NewDispatcher(db, 4, logr)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	dispatcher.Start(ctx)

	statsSvc := services.NewStatsService(db)
	countryHandler := NewCountryHandler(services.NewCountryService(db), pager, logr)
	siteHandler := NewHydroSiteHandler(services.NewHydroSiteService(db), statsSvc, pager, logr)
	metricHandler := NewResourceMetricHandler(services.NewResourceMetricService(db), dispatcher, pager, logr)
	statsHandler := NewStatsHandler(statsSvc, logr)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/countries", func(r chi.Router) {
			r.Get("/", countryHandler.List)
			r.Post("/", countryHandler.Create)
			r.Get("/{id}", countryHandler.Get)
			r.Delete("/{id}", countryHandler.Delete)
		})
		r.Route("/hydro-sites", func(r chi.Router) {
			r.Get("/", siteHandler.List)
			r.Get("/summary", siteHandler.Summary)
			r.Get("/export", siteHandler.ExportCSV)
		})
		r.Route("/resource-metrics", func(r chi.Router) {
			r.Get("/timeseries", metricHandler.Timeseries)
			r.Get("/export", metricHandler.ExportCSV)
			r.Get("/export_pdf", metricHandler.ExportPDF)
			r.Post("/enqueue_snapshot", metricHandler.EnqueueSnapshot)
			r.Get("/snapshots/{id}", metricHandler.SnapshotStatus)
		})
		r.Route("/stats", func(r chi.Router) {
			r.Get("/", statsHandler.Global)
			r.Get("/by_country", statsHandler.ByCountry)
		})
	})
	return r, db
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func seedCountryRow(t *testing.T, db *bun.DB, name, iso2, iso3 string) *models.Country {
	t.Helper()

	now := time.Now().UTC()
	country := &models.Country{Name: name, ISO2: iso2, ISO3: iso3, CreatedAt: now, UpdatedAt: now}
	_, err := db.NewInsert().Model(country).Exec(context.Background())
	require.NoError(t, err)
	return country
}

func TestCountryEndpoints_EnvelopeAndCRUD(t *testing.T) {
	r, _ := testRouter(t)

	rec, body := doJSON(t, r, http.MethodPost, "/api/countries/", map[string]any{
		"name": "Kenya", "iso2": "ke", "iso3": "ken",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "KEN", body["iso3"]) // codes normalized to upper case
	id := int64(body["id"].(float64))

	rec, body = doJSON(t, r, http.MethodGet, "/api/countries/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	results, ok := body["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 1)

	rec, body = doJSON(t, r, http.MethodPost, "/api/countries/", map[string]any{
		"name": "Kenya Again", "iso2": "kx", "iso3": "KEN",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, body["error"])

	rec, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/countries/%d", id), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/countries/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCountryCreate_ValidationFields(t *testing.T) {
	r, _ := testRouter(t)

	rec, body := doJSON(t, r, http.MethodPost, "/api/countries/", map[string]any{
		"name": "Kenya", "iso2": "KEN", "iso3": "KE",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "iso2")
	assert.Contains(t, fields, "iso3")
}

func TestStatsByCountry_StatusCodes(t *testing.T) {
	r, db := testRouter(t)
	seedCountryRow(t, db, "Kenya", "KE", "KEN")

	rec, _ := doJSON(t, r, http.MethodGet, "/api/stats/by_country", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, r, http.MethodGet, "/api/stats/by_country?iso3=ZZZ", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := doJSON(t, r, http.MethodGet, "/api/stats/by_country?iso3=ken", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "KEN", body["iso3"])
	assert.Equal(t, float64(0), body["site_count"])
}

func TestTimeseries_CarriesLimit(t *testing.T) {
	r, _ := testRouter(t)

	rec, body := doJSON(t, r, http.MethodGet, "/api/resource-metrics/timeseries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(services.TimeseriesRowCap), body["limit"])
}

func TestSnapshotEndpoints(t *testing.T) {
	r, db := testRouter(t)

	country := seedCountryRow(t, db, "Kenya", "KE", "KEN")
	now := time.Now().UTC()
	dataset := &models.EnergyDataset{Name: "atlas", DatasetType: models.DatasetTypeResource, CreatedAt: now, UpdatedAt: now}
	_, err := db.NewInsert().Model(dataset).Exec(context.Background())
	require.NoError(t, err)
	metric := &models.ResourceMetric{
		DatasetID: dataset.ID, CountryID: country.ID,
		ResourceType: models.ResourceTypeSolar, Metric: "ghi",
		Value: decimal.NewFromInt(5), CreatedAt: now, UpdatedAt: now,
	}
	_, err = db.NewInsert().Model(metric).Exec(context.Background())
	require.NoError(t, err)

	rec, body := doJSON(t, r, http.MethodPost, "/api/resource-metrics/enqueue_snapshot", map[string]any{
		"country_iso3": "KEN",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	taskID, ok := body["task_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, taskID)

	deadline := time.Now().Add(5 * time.Second)
	for {
		rec, body = doJSON(t, r, http.MethodGet, "/api/resource-metrics/snapshots/"+taskID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		if body["state"] == jobs.StateCompleted {
			break
		}
		require.True(t, time.Now().Before(deadline), "snapshot never completed")
		time.Sleep(10 * time.Millisecond)
	}

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, taskID, result["task_id"])
	assert.Equal(t, "KEN", result["country_iso3"])
	assert.Equal(t, float64(1), result["total_metrics"])
}

func TestHydroSiteExport_CSVAttachment(t *testing.T) {
	r, db := testRouter(t)

	country := seedCountryRow(t, db, "Kenya", "KE", "KEN")
	now := time.Now().UTC()
	site := &models.HydroSite{
		CountryID: country.ID, Name: "Seven Forks",
		Status: models.SiteStatusIdentified, CreatedAt: now, UpdatedAt: now,
	}
	_, err := db.NewInsert().Model(site).Exec(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/hydro-sites/export", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Seven Forks")
	assert.Contains(t, rec.Body.String(), "KEN")
}
