package service

import (
	"context"
	"sort"
	"time"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
	"github.com/insighttxn/txn-analytics-go/internal/infra/observability"
	"github.com/insighttxn/txn-analytics-go/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var analyticsTracer = otel.Tracer("service/analytics")

// Analytics computes the summary and chart views over a cleaned
// dataset. Every view is derived from the same filtered pass: the same
// filter always selects the same records, so the views stay mutually
// consistent.
type Analytics struct {
	store   port.DatasetStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAnalytics creates the analytics service.
func NewAnalytics(store port.DatasetStore, metrics *observability.Metrics, logger *zap.Logger) *Analytics {
	return &Analytics{store: store, metrics: metrics, logger: logger}
}

// view validates the filter, loads the dataset, and returns the
// filtered records alongside the full cleaned set.
func (s *Analytics) view(ctx context.Context, sessionID, datasetID string, f domain.Filter) (*domain.Dataset, []domain.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, nil, err
	}

	ds, err := s.store.Get(ctx, sessionID, datasetID)
	if err != nil {
		return nil, nil, err
	}

	filtered := make([]domain.Transaction, 0, len(ds.Records))
	for i := range ds.Records {
		if f.Matches(&ds.Records[i]) {
			filtered = append(filtered, ds.Records[i])
		}
	}
	return ds, filtered, nil
}

// ============================================================
// Summary — GET /v1/datasets/{id}/summary
// ============================================================

func (s *Analytics) Summary(ctx context.Context, sessionID, datasetID string, f domain.Filter) (*domain.Summary, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics.Summary")
	defer span.End()
	defer s.observe("summary", time.Now())

	ds, filtered, err := s.view(ctx, sessionID, datasetID, f)
	if err != nil {
		return nil, err
	}
	return summarize(ds, filtered), nil
}

// summarize computes the headline metrics for one filtered view. The
// success rate denominator is the cleaned, pre-filter row count, so it
// does not move as filters narrow the view.
func summarize(ds *domain.Dataset, filtered []domain.Transaction) *domain.Summary {
	sum := &domain.Summary{Count: len(filtered)}

	for i := range filtered {
		sum.TotalVolume = sum.TotalVolume.Add(filtered[i].Amount)
	}
	if len(filtered) > 0 {
		sum.MeanAmount = sum.TotalVolume.Div(decimal.NewFromInt(int64(len(filtered))))
	}
	if len(ds.Records) > 0 {
		sum.SuccessRatePct = float64(len(filtered)) / float64(len(ds.Records)) * 100
	}
	return sum
}

// ============================================================
// Chart views — GET /v1/datasets/{id}/charts/*
// ============================================================

// Distribution returns the raw amounts of the filtered view for
// histogram rendering.
func (s *Analytics) Distribution(ctx context.Context, sessionID, datasetID string, f domain.Filter) (*domain.Distribution, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics.Distribution")
	defer span.End()
	defer s.observe("distribution", time.Now())

	_, filtered, err := s.view(ctx, sessionID, datasetID, f)
	if err != nil {
		return nil, err
	}
	return distribution(filtered), nil
}

func distribution(filtered []domain.Transaction) *domain.Distribution {
	d := &domain.Distribution{Amounts: make([]decimal.Decimal, 0, len(filtered))}
	for i := range filtered {
		d.Amounts = append(d.Amounts, filtered[i].Amount)
	}
	return d
}

// TimeSeries returns the mean amount per period bucket, sorted by
// period ascending.
func (s *Analytics) TimeSeries(ctx context.Context, sessionID, datasetID string, f domain.Filter) ([]domain.TimeSeriesPoint, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics.TimeSeries")
	defer span.End()
	defer s.observe("timeseries", time.Now())

	_, filtered, err := s.view(ctx, sessionID, datasetID, f)
	if err != nil {
		return nil, err
	}
	return timeSeries(filtered), nil
}

func timeSeries(filtered []domain.Transaction) []domain.TimeSeriesPoint {
	type bucket struct {
		sum   decimal.Decimal
		count int64
	}
	buckets := make(map[string]*bucket)
	for i := range filtered {
		b, ok := buckets[filtered[i].PeriodKey]
		if !ok {
			b = &bucket{}
			buckets[filtered[i].PeriodKey] = b
		}
		b.sum = b.sum.Add(filtered[i].Amount)
		b.count++
	}

	points := make([]domain.TimeSeriesPoint, 0, len(buckets))
	for period, b := range buckets {
		points = append(points, domain.TimeSeriesPoint{
			Period:     period,
			MeanAmount: b.sum.Div(decimal.NewFromInt(b.count)),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}

// VolumeSeries returns the summed amount per (period, status) pair,
// sorted by period then status ascending.
func (s *Analytics) VolumeSeries(ctx context.Context, sessionID, datasetID string, f domain.Filter) ([]domain.VolumePoint, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics.VolumeSeries")
	defer span.End()
	defer s.observe("volume", time.Now())

	_, filtered, err := s.view(ctx, sessionID, datasetID, f)
	if err != nil {
		return nil, err
	}
	return volumeSeries(filtered), nil
}

func volumeSeries(filtered []domain.Transaction) []domain.VolumePoint {
	type key struct{ period, status string }
	sums := make(map[key]decimal.Decimal)
	for i := range filtered {
		k := key{filtered[i].PeriodKey, filtered[i].Status}
		sums[k] = sums[k].Add(filtered[i].Amount)
	}

	points := make([]domain.VolumePoint, 0, len(sums))
	for k, total := range sums {
		points = append(points, domain.VolumePoint{
			Period:      k.period,
			Status:      k.status,
			TotalAmount: total,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Period != points[j].Period {
			return points[i].Period < points[j].Period
		}
		return points[i].Status < points[j].Status
	})
	return points
}

// TypeBreakdown returns the record count per status category, sorted by
// status ascending.
func (s *Analytics) TypeBreakdown(ctx context.Context, sessionID, datasetID string, f domain.Filter) ([]domain.TypeCount, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics.TypeBreakdown")
	defer span.End()
	defer s.observe("types", time.Now())

	_, filtered, err := s.view(ctx, sessionID, datasetID, f)
	if err != nil {
		return nil, err
	}
	return typeBreakdown(filtered), nil
}

func typeBreakdown(filtered []domain.Transaction) []domain.TypeCount {
	counts := make(map[string]int)
	for i := range filtered {
		counts[filtered[i].Status]++
	}

	out := make([]domain.TypeCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, domain.TypeCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

// ============================================================
// Facets — GET /v1/datasets/{id}/facets
// ============================================================

// Facets lists the distinct observed values per filterable field over
// the full cleaned dataset, unfiltered, sorted ascending.
func (s *Analytics) Facets(ctx context.Context, sessionID, datasetID string) (*domain.Facets, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics.Facets")
	defer span.End()
	defer s.observe("facets", time.Now())

	ds, err := s.store.Get(ctx, sessionID, datasetID)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]struct{})
	methods := make(map[string]struct{})
	sources := make(map[string]struct{})
	countries := make(map[string]struct{})
	for i := range ds.Records {
		statuses[ds.Records[i].Status] = struct{}{}
		methods[ds.Records[i].Method] = struct{}{}
		sources[ds.Records[i].Source] = struct{}{}
		countries[ds.Records[i].Country] = struct{}{}
	}

	return &domain.Facets{
		Statuses:  sortedKeys(statuses),
		Methods:   sortedKeys(methods),
		Sources:   sortedKeys(sources),
		Countries: sortedKeys(countries),
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ============================================================
// Transactions — GET /v1/datasets/{id}/transactions
// ============================================================

// Transactions returns one page of the detail table, sorted by date
// descending.
func (s *Analytics) Transactions(ctx context.Context, sessionID, datasetID string, f domain.Filter, page, pageSize int) (*domain.TransactionPage, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics.Transactions")
	defer span.End()
	defer s.observe("transactions", time.Now())

	if page < 1 {
		return nil, &domain.ErrValidation{Field: "page", Message: "must be >= 1"}
	}
	if pageSize < 1 {
		return nil, &domain.ErrValidation{Field: "page_size", Message: "must be >= 1"}
	}

	_, filtered, err := s.view(ctx, sessionID, datasetID, f)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.After(filtered[j].Date)
	})

	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	return &domain.TransactionPage{
		Transactions: filtered[start:end],
		Page:         page,
		PageSize:     pageSize,
		TotalCount:   len(filtered),
	}, nil
}

// ============================================================
// Dashboard — GET /v1/datasets/{id}/dashboard
// ============================================================

// Dashboard computes the summary and all four chart views in one call.
// The filtered view is built once; the per-view aggregations then run
// concurrently since each only reads the shared slice.
func (s *Analytics) Dashboard(ctx context.Context, sessionID, datasetID string, f domain.Filter) (*domain.Dashboard, error) {
	ctx, span := analyticsTracer.Start(ctx, "Analytics.Dashboard")
	defer span.End()
	defer s.observe("dashboard", time.Now())

	ds, filtered, err := s.view(ctx, sessionID, datasetID, f)
	if err != nil {
		return nil, err
	}

	dash := &domain.Dashboard{}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash.Summary = summarize(ds, filtered)
		return nil
	})
	g.Go(func() error {
		dash.Distribution = distribution(filtered)
		return nil
	})
	g.Go(func() error {
		dash.TimeSeries = timeSeries(filtered)
		return nil
	})
	g.Go(func() error {
		dash.Volume = volumeSeries(filtered)
		dash.Types = typeBreakdown(filtered)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dash, nil
}

func (s *Analytics) observe(view string, start time.Time) {
	s.metrics.RecordQueryDuration(view, time.Since(start))
}
