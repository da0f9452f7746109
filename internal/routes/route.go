package routes

import (
	"net/http"

	"ecopoweratlas/internal/auth"
	"ecopoweratlas/internal/config"
	"ecopoweratlas/internal/handlers"
	"ecopoweratlas/internal/jobs"
	"ecopoweratlas/internal/logger"
	mdlwr "ecopoweratlas/internal/middleware"
	"ecopoweratlas/internal/query"
	"ecopoweratlas/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

func NewRouter(db *bun.DB, cfg *config.Config, queue jobs.Queue, logr *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// CORS middleware with config
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	verifier, err := auth.NewVerifier(cfg.JWTPublicKeyPath)
	if err != nil {
		logr.Fatal("failed to load jwt public key", zap.Error(err))
	}
	authMW := mdlwr.NewAuthMiddleware(verifier, logr.Logger)

	pager := query.Pager{Default: cfg.DefaultPageSize, Max: cfg.MaxPageSize}

	countrySvc := services.NewCountryService(db)
	regionSvc := services.NewRegionService(db)
	datasetSvc := services.NewDatasetService(db)
	siteSvc := services.NewHydroSiteService(db)
	metricSvc := services.NewResourceMetricService(db)
	seriesSvc := services.NewClimateSeriesService(db)
	statsSvc := services.NewStatsService(db)

	countryHandler := handlers.NewCountryHandler(countrySvc, pager, logr.Logger)
	regionHandler := handlers.NewRegionHandler(regionSvc, pager, logr.Logger)
	datasetHandler := handlers.NewDatasetHandler(datasetSvc, pager, logr.Logger)
	siteHandler := handlers.NewHydroSiteHandler(siteSvc, statsSvc, pager, logr.Logger)
	metricHandler := handlers.NewResourceMetricHandler(metricSvc, queue, pager, logr.Logger)
	seriesHandler := handlers.NewClimateSeriesHandler(seriesSvc, pager, logr.Logger)
	statsHandler := handlers.NewStatsHandler(statsSvc, logr.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		if err != nil {
			return
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMW.StaffOrReadOnly)

		r.Route("/countries", func(r chi.Router) {
			r.Get("/", countryHandler.List)
			r.Post("/", countryHandler.Create)
			r.Get("/{id}", countryHandler.Get)
			r.Put("/{id}", countryHandler.Update)
			r.Delete("/{id}", countryHandler.Delete)
		})

		r.Route("/regions", func(r chi.Router) {
			r.Get("/", regionHandler.List)
			r.Post("/", regionHandler.Create)
			r.Get("/{id}", regionHandler.Get)
			r.Put("/{id}", regionHandler.Update)
			r.Delete("/{id}", regionHandler.Delete)
		})

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", datasetHandler.List)
			r.Post("/", datasetHandler.Create)
			r.Get("/{id}", datasetHandler.Get)
			r.Put("/{id}", datasetHandler.Update)
			r.Delete("/{id}", datasetHandler.Delete)
		})

		r.Route("/hydro-sites", func(r chi.Router) {
			r.Get("/", siteHandler.List)
			r.Post("/", siteHandler.Create)
			r.Get("/summary", siteHandler.Summary)
			r.Get("/export", siteHandler.ExportCSV)
			r.Get("/{id}", siteHandler.Get)
			r.Put("/{id}", siteHandler.Update)
			r.Delete("/{id}", siteHandler.Delete)
		})

		r.Route("/resource-metrics", func(r chi.Router) {
			r.Get("/", metricHandler.List)
			r.Post("/", metricHandler.Create)
			r.Get("/timeseries", metricHandler.Timeseries)
			r.Get("/export", metricHandler.ExportCSV)
			r.Get("/export_pdf", metricHandler.ExportPDF)
			r.Post("/enqueue_snapshot", metricHandler.EnqueueSnapshot)
			r.Get("/snapshots/{id}", metricHandler.SnapshotStatus)
			r.Get("/{id}", metricHandler.Get)
			r.Put("/{id}", metricHandler.Update)
			r.Delete("/{id}", metricHandler.Delete)
		})

		r.Route("/climate-series", func(r chi.Router) {
			r.Get("/", seriesHandler.List)
			r.Post("/", seriesHandler.Create)
			r.Get("/timeline", seriesHandler.Timeline)
			r.Get("/{id}", seriesHandler.Get)
			r.Put("/{id}", seriesHandler.Update)
			r.Delete("/{id}", seriesHandler.Delete)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", statsHandler.Global)
			r.Get("/by_country", statsHandler.ByCountry)
		})
	})

	return r
}
