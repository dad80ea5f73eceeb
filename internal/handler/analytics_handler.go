package handler

import (
	"net/http"

	"github.com/insighttxn/txn-analytics-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Summary & facets
// ============================================================

func summaryHandler(svc *service.Analytics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}/summary")
		defer span.End()

		f, err := parseFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		sum, err := svc.Summary(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func facetsHandler(svc *service.Analytics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}/facets")
		defer span.End()

		facets, err := svc.Facets(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, facets)
	}
}

// ============================================================
// Chart views
// ============================================================

func distributionHandler(svc *service.Analytics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}/charts/distribution")
		defer span.End()

		f, err := parseFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		dist, err := svc.Distribution(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dist)
	}
}

func timeSeriesHandler(svc *service.Analytics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}/charts/timeseries")
		defer span.End()

		f, err := parseFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		points, err := svc.TimeSeries(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, points)
	}
}

func volumeHandler(svc *service.Analytics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}/charts/volume")
		defer span.End()

		f, err := parseFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		points, err := svc.VolumeSeries(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, points)
	}
}

func typesHandler(svc *service.Analytics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}/charts/types")
		defer span.End()

		f, err := parseFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		counts, err := svc.TypeBreakdown(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

// ============================================================
// Dashboard & detail table
// ============================================================

func dashboardHandler(svc *service.Analytics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}/dashboard")
		defer span.End()

		f, err := parseFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		dash, err := svc.Dashboard(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

func transactionsHandler(svc *service.Analytics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}/transactions")
		defer span.End()

		f, err := parseFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		page, pageSize := parsePagination(r)

		result, err := svc.Transactions(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"), f, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
