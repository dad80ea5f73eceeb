package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
	"github.com/insighttxn/txn-analytics-go/internal/infra/cache"
	"github.com/insighttxn/txn-analytics-go/internal/infra/observability"
	"github.com/insighttxn/txn-analytics-go/internal/infra/resilience"
	"github.com/insighttxn/txn-analytics-go/internal/ingest"
	"github.com/insighttxn/txn-analytics-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var datasetTracer = otel.Tracer("service/datasets")

// Datasets manages the upload, import, and lifecycle of cleaned
// transaction datasets.
type Datasets struct {
	store          port.DatasetStore
	cleanCache     port.Cache[*ingest.Result]
	fetcher        port.DatasetFetcher
	bulkhead       *resilience.Bulkhead
	metrics        *observability.Metrics
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewDatasets creates the dataset service.
func NewDatasets(
	store port.DatasetStore,
	cleanCache port.Cache[*ingest.Result],
	fetcher port.DatasetFetcher,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
	maxUploadBytes int64,
) *Datasets {
	return &Datasets{
		store:          store,
		cleanCache:     cleanCache,
		fetcher:        fetcher,
		bulkhead:       bulkhead,
		metrics:        metrics,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// ============================================================
// Upload — POST /v1/datasets
// ============================================================

// Upload cleans a raw CSV payload and registers it as a queryable
// dataset. Cleaning is memoized by content address, so uploading the
// same bytes twice reuses the first pass.
func (s *Datasets) Upload(ctx context.Context, sessionID, name string, raw []byte) (*domain.Dataset, error) {
	ctx, span := datasetTracer.Start(ctx, "Datasets.Upload")
	defer span.End()

	return s.register(ctx, sessionID, name, raw, "upload")
}

// ============================================================
// ImportFromURL — POST /v1/datasets/import
// ============================================================

// ImportFromURL fetches a remote CSV and registers it like an upload.
func (s *Datasets) ImportFromURL(ctx context.Context, sessionID, rawURL string) (*domain.Dataset, error) {
	ctx, span := datasetTracer.Start(ctx, "Datasets.ImportFromURL")
	defer span.End()

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &domain.ErrValidation{Field: "url", Message: "must be an http(s) URL"}
	}

	raw, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.metrics.IncrExternalError("dataset_host")
		s.logger.Warn("dataset import failed",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, err
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = u.Host
	}

	return s.register(ctx, sessionID, name, raw, "import")
}

// register runs the shared clean-and-store path for both upload and
// import.
func (s *Datasets) register(ctx context.Context, sessionID, name string, raw []byte, source string) (*domain.Dataset, error) {
	if len(raw) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "required"}
	}
	if size := int64(len(raw)); size > s.maxUploadBytes {
		return nil, &domain.ErrDatasetTooLarge{Size: size, Limit: s.maxUploadBytes}
	}

	// Cleaning is allocation-heavy; cap how many run at once.
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	key := cache.ContentKey(raw)
	res, ok := s.cleanCache.Get(key)
	if ok {
		s.metrics.IncrCacheHit("clean")
	} else {
		s.metrics.IncrCacheMiss("clean")

		start := time.Now()
		var err error
		res, err = ingest.Clean(raw)
		if err != nil {
			return nil, err
		}
		s.metrics.RecordIngestDuration(source, time.Since(start))
		s.metrics.RecordCleanedRows(
			res.Report.RowsKept,
			res.Report.RowsDroppedUnsuccessful,
			res.Report.RowsDroppedBadDate,
			res.Report.RowsDroppedBadAmount,
		)
		s.cleanCache.Set(key, res)
	}

	if name == "" {
		name = "dataset.csv"
	}

	ds := &domain.Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		SessionID:  sessionID,
		UploadedAt: time.Now().UTC(),
		Report:     res.Report,
		Records:    res.Records,
	}
	ds.Report.Checksum = key
	ds.FirstDate, ds.LastDate = dateSpan(res.Records)

	if err := s.store.Put(ctx, ds); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}

	if dropped := ds.Report.RowsDroppedBadDate + ds.Report.RowsDroppedBadAmount; dropped > 0 {
		s.logger.Warn("rows dropped during cleaning",
			zap.String("dataset_id", ds.ID),
			zap.Int("bad_date", ds.Report.RowsDroppedBadDate),
			zap.Int("bad_amount", ds.Report.RowsDroppedBadAmount),
		)
	}
	s.logger.Info("dataset registered",
		zap.String("dataset_id", ds.ID),
		zap.String("source", source),
		zap.Int("rows_read", ds.Report.RowsRead),
		zap.Int("rows_kept", ds.Report.RowsKept),
	)

	return ds, nil
}

// ============================================================
// Read and delete
// ============================================================

func (s *Datasets) Get(ctx context.Context, sessionID, id string) (*domain.Dataset, error) {
	ctx, span := datasetTracer.Start(ctx, "Datasets.Get")
	defer span.End()

	return s.store.Get(ctx, sessionID, id)
}

func (s *Datasets) List(ctx context.Context, sessionID string) ([]*domain.Dataset, error) {
	ctx, span := datasetTracer.Start(ctx, "Datasets.List")
	defer span.End()

	return s.store.List(ctx, sessionID)
}

func (s *Datasets) Delete(ctx context.Context, sessionID, id string) error {
	ctx, span := datasetTracer.Start(ctx, "Datasets.Delete")
	defer span.End()

	if err := s.store.Delete(ctx, sessionID, id); err != nil {
		return err
	}
	s.logger.Info("dataset deleted", zap.String("dataset_id", id))
	return nil
}

// dateSpan returns the earliest and latest record dates; zero when the
// cleaned set is empty.
func dateSpan(records []domain.Transaction) (first, last time.Time) {
	for _, tx := range records {
		if first.IsZero() || tx.Date.Before(first) {
			first = tx.Date
		}
		if last.IsZero() || tx.Date.After(last) {
			last = tx.Date
		}
	}
	return first, last
}
