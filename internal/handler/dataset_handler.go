package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
	"github.com/insighttxn/txn-analytics-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Sessions
// POST /v1/sessions
// ============================================================

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func createSessionHandler(sessions *service.Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sessions")
		defer span.End()

		token, expiresAt, err := sessions.Issue(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{Token: token, ExpiresAt: expiresAt})
	}
}

// ============================================================
// Datasets
// ============================================================

// uploadDatasetHandler accepts a multipart form with a "file" part, or
// a raw CSV body when the content type is not multipart.
func uploadDatasetHandler(svc *service.Datasets, logger *zap.Logger, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/datasets")
		defer span.End()

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		var raw []byte
		name := ""
		if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
			file, header, err := r.FormFile("file")
			if err != nil {
				writeError(w, http.StatusBadRequest, "multipart form must carry a 'file' part")
				return
			}
			defer file.Close()
			raw, err = io.ReadAll(file)
			if err != nil {
				writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
				return
			}
			name = header.Filename
		} else {
			raw, err = io.ReadAll(r.Body)
			if err != nil {
				writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
				return
			}
		}

		ds, err := svc.Upload(ctx, SessionIDFromContext(ctx), name, raw)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, ds)
	}
}

type importRequest struct {
	URL string `json:"url"`
}

func importDatasetHandler(svc *service.Datasets, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/datasets/import")
		defer span.End()

		var req importRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ds, err := svc.ImportFromURL(ctx, SessionIDFromContext(ctx), req.URL)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, ds)
	}
}

func listDatasetsHandler(svc *service.Datasets, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets")
		defer span.End()

		list, err := svc.List(ctx, SessionIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getDatasetHandler(svc *service.Datasets, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/datasets/{datasetId}")
		defer span.End()

		ds, err := svc.Get(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ds)
	}
}

func deleteDatasetHandler(svc *service.Datasets, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/datasets/{datasetId}")
		defer span.End()

		if err := svc.Delete(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "datasetId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "dataset deleted"})
	}
}
