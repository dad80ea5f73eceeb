package domain

import "github.com/shopspring/decimal"

// ============================================================
// Aggregate views consumed by the chart-rendering frontend
// ============================================================

// Summary holds the headline metric cards for the current filtered view.
// SuccessRatePct is computed against the cleaned, pre-filter row count,
// not the filtered subset.
type Summary struct {
	Count          int             `json:"count"`
	TotalVolume    decimal.Decimal `json:"total_volume"`
	MeanAmount     decimal.Decimal `json:"mean_amount"`
	SuccessRatePct float64         `json:"success_rate_pct"`
}

// Distribution is the histogram-ready list of amounts in the filtered
// view. Binning is the renderer's concern.
type Distribution struct {
	Amounts []decimal.Decimal `json:"amounts"`
}

// TimeSeriesPoint is the mean amount for one period bucket.
type TimeSeriesPoint struct {
	Period     string          `json:"period"`
	MeanAmount decimal.Decimal `json:"mean_amount"`
}

// VolumePoint is the summed amount for one (period, status) pair.
type VolumePoint struct {
	Period      string          `json:"period"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// TypeCount is the record count for one status category.
type TypeCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Facets lists the distinct observed values per filterable field,
// sorted ascending. The frontend prepends the wildcard option itself.
type Facets struct {
	Statuses  []string `json:"statuses"`
	Methods   []string `json:"methods"`
	Sources   []string `json:"sources"`
	Countries []string `json:"countries"`
}

// Dashboard bundles the summary and all four chart views for one
// filtered pass over the dataset.
type Dashboard struct {
	Summary      *Summary          `json:"summary"`
	Distribution *Distribution     `json:"distribution"`
	TimeSeries   []TimeSeriesPoint `json:"time_series"`
	Volume       []VolumePoint     `json:"volume"`
	Types        []TypeCount       `json:"types"`
}

// TransactionPage is one page of the detail table, sorted by date
// descending.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
	TotalCount   int           `json:"total_count"`
}
