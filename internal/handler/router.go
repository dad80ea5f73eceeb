package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
	"github.com/insighttxn/txn-analytics-go/internal/infra/observability"
	"github.com/insighttxn/txn-analytics-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// A nil sessions service runs the API in single-user mode: no token
// endpoint, no auth, every dataset visible to every caller.
func NewRouter(datasets *service.Datasets, analytics *service.Analytics, sessions *service.Sessions, metrics *observability.Metrics, logger *zap.Logger, maxUploadBytes int64) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(requestMetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(datasets))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Sessions (only when auth is enabled)
		// POST /v1/sessions
		// =============================================
		if sessions != nil {
			r.Post("/sessions", createSessionHandler(sessions, logger))
		}

		r.Group(func(r chi.Router) {
			if sessions != nil {
				r.Use(SessionAuthMiddleware(sessions, logger))
			}

			// =============================================
			// Dataset lifecycle
			// POST   /v1/datasets
			// POST   /v1/datasets/import
			// GET    /v1/datasets
			// GET    /v1/datasets/{datasetId}
			// DELETE /v1/datasets/{datasetId}
			// =============================================
			r.Post("/datasets", uploadDatasetHandler(datasets, logger, maxUploadBytes))
			r.Post("/datasets/import", importDatasetHandler(datasets, logger))
			r.Get("/datasets", listDatasetsHandler(datasets, logger))
			r.Get("/datasets/{datasetId}", getDatasetHandler(datasets, logger))
			r.Delete("/datasets/{datasetId}", deleteDatasetHandler(datasets, logger))

			// =============================================
			// Filtered analytics over one dataset
			// GET /v1/datasets/{datasetId}/summary
			// GET /v1/datasets/{datasetId}/facets
			// GET /v1/datasets/{datasetId}/charts/*
			// GET /v1/datasets/{datasetId}/dashboard
			// GET /v1/datasets/{datasetId}/transactions
			// =============================================
			r.Get("/datasets/{datasetId}/summary", summaryHandler(analytics, logger))
			r.Get("/datasets/{datasetId}/facets", facetsHandler(analytics, logger))
			r.Get("/datasets/{datasetId}/charts/distribution", distributionHandler(analytics, logger))
			r.Get("/datasets/{datasetId}/charts/timeseries", timeSeriesHandler(analytics, logger))
			r.Get("/datasets/{datasetId}/charts/volume", volumeHandler(analytics, logger))
			r.Get("/datasets/{datasetId}/charts/types", typesHandler(analytics, logger))
			r.Get("/datasets/{datasetId}/dashboard", dashboardHandler(analytics, logger))
			r.Get("/datasets/{datasetId}/transactions", transactionsHandler(analytics, logger))
		})
	})

	return r
}

// requestMetricsMiddleware counts requests by status class.
func requestMetricsMiddleware(metrics *observability.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			metrics.IncrRequest(strconv.Itoa(ww.Status()/100) + "xx")
		})
	}
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(datasets *service.Datasets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		registryStatus := "healthy"
		if datasets != nil {
			if _, err := datasets.List(r.Context(), ""); err != nil {
				registryStatus = "degraded"
			}
		}

		services := []domain.ServiceHealth{
			{Name: "txn-analytics-api", Status: "healthy", LastChecked: now},
			{Name: "dataset-registry", Status: registryStatus, LastChecked: now},
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
				break
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
