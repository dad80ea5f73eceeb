// Package port defines the interfaces between services and
// infrastructure so implementations can be swapped in tests.
package port

import (
	"context"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
)

// Cache is a generic read-through cache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// DatasetStore holds cleaned datasets for querying. sessionID scopes
// lookups when session auth is enabled; an empty sessionID matches any
// dataset.
type DatasetStore interface {
	Put(ctx context.Context, ds *domain.Dataset) error
	Get(ctx context.Context, sessionID, id string) (*domain.Dataset, error)
	List(ctx context.Context, sessionID string) ([]*domain.Dataset, error)
	Delete(ctx context.Context, sessionID, id string) error
}

// DatasetFetcher retrieves raw CSV bytes from a remote location.
type DatasetFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
