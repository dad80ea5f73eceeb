package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodLayout is the year-month bucket format used for time-series grouping.
const PeriodLayout = "2006-01"

// Transaction is one cleaned payment record. Records are immutable after
// cleaning; filtering only narrows a view over them.
type Transaction struct {
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`  // payment method (CSV Transaction_Type)
	Status  string          `json:"status"`  // payment status (CSV Type)
	Source  string          `json:"source"`  // originating application
	Country string          `json:"country"`
	Date    time.Time       `json:"date"`
	Notes   string          `json:"notes"`

	// PeriodKey is the YYYY-MM bucket derived from Date.
	PeriodKey string `json:"period_key"`
}
