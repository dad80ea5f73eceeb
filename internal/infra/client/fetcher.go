// Package client contains HTTP clients for remote dataset sources.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
	"github.com/insighttxn/txn-analytics-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/client")

// CSVFetcher downloads raw CSV bytes for the import-by-URL flow with
// retry and circuit breaker protection.
type CSVFetcher struct {
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	maxBytes   int64
}

// NewCSVFetcher creates a CSVFetcher. maxBytes caps the downloaded body
// so a misbehaving host cannot exhaust memory.
func NewCSVFetcher(httpClient *http.Client, cb *gobreaker.CircuitBreaker, cfg resilience.Config, maxBytes int64) *CSVFetcher {
	return &CSVFetcher{
		httpClient: httpClient,
		cb:         cb,
		cfg:        cfg,
		maxBytes:   maxBytes,
	}
}

// Fetch downloads the CSV at url.
func (c *CSVFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "CSVFetcher.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("dataset.url", url))

	var body []byte

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "text/csv")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return &domain.ErrNotFound{Resource: "remote dataset", ID: url}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("remote dataset host returned status %d", resp.StatusCode)
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
			if err != nil {
				return err
			}
			if int64(len(body)) > c.maxBytes {
				return &domain.ErrDatasetTooLarge{Size: int64(len(body)), Limit: c.maxBytes}
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return body, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &domain.ErrCircuitOpen{Service: "dataset-import"}
		}
		return nil, &domain.ErrExternalService{Service: "dataset-import", Err: err}
	}

	return result.([]byte), nil
}
