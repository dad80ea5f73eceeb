package domain

import "time"

// Wildcard is the sentinel meaning "no constraint on this field".
const Wildcard = "All"

// Filter is an immutable set of filter criteria applied to a cleaned
// dataset. Zero-value or Wildcard fields are unconstrained; active
// constraints compose as a logical AND, together with the inclusive
// [StartDate, EndDate] range.
type Filter struct {
	Status  string
	Method  string
	Source  string
	Country string

	StartDate *time.Time
	EndDate   *time.Time
}

// Validate rejects an inverted date range before any query runs.
func (f Filter) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return &ErrInvalidDateRange{Start: *f.StartDate, End: *f.EndDate}
	}
	return nil
}

// Matches reports whether tx satisfies every active constraint.
// Category matching is exact and case-sensitive.
func (f Filter) Matches(tx *Transaction) bool {
	if !matchField(f.Status, tx.Status) {
		return false
	}
	if !matchField(f.Method, tx.Method) {
		return false
	}
	if !matchField(f.Source, tx.Source) {
		return false
	}
	if !matchField(f.Country, tx.Country) {
		return false
	}
	if f.StartDate != nil && tx.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && tx.Date.After(endOfDay(*f.EndDate)) {
		return false
	}
	return true
}

func matchField(want, got string) bool {
	return want == "" || want == Wildcard || want == got
}

// endOfDay makes the end bound inclusive for records carrying a
// time-of-day component.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
