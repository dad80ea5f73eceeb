package domain

import (
	"fmt"
	"time"
)

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrParse indicates the uploaded stream could not be decoded as
// delimited tabular data. No partial dataset is produced.
type ErrParse struct {
	Reason string
	Err    error
}

func (e *ErrParse) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse input as CSV: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot parse input as CSV: %s", e.Reason)
}

func (e *ErrParse) Unwrap() error {
	return e.Err
}

// ErrInvalidDateRange indicates the filter's start date is after its end
// date. Raised before any filtering runs.
type ErrInvalidDateRange struct {
	Start time.Time
	End   time.Time
}

func (e *ErrInvalidDateRange) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// ErrDatasetTooLarge indicates the upload exceeds the configured limit.
type ErrDatasetTooLarge struct {
	Size  int64
	Limit int64
}

func (e *ErrDatasetTooLarge) Error() string {
	return fmt.Sprintf("dataset too large: %d bytes (limit %d)", e.Size, e.Limit)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrUnauthorized indicates an invalid or missing session token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
