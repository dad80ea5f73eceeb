// Package store holds cleaned datasets in memory. The analytics
// contract forbids persisted state — a dataset lives for the duration
// of the interactive session that uploaded it — so the registry is a
// plain map behind a RWMutex, keyed by dataset ID.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/insighttxn/txn-analytics-go/internal/domain"
)

// Memory is an in-memory dataset registry.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
}

// NewMemory creates an empty registry.
func NewMemory() *Memory {
	return &Memory{datasets: make(map[string]*domain.Dataset)}
}

// Put stores or replaces a dataset.
func (m *Memory) Put(_ context.Context, ds *domain.Dataset) error {
	if ds.ID == "" {
		return &domain.ErrValidation{Field: "id", Message: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[ds.ID] = ds
	return nil
}

// Get returns the dataset with the given ID. When sessionID is
// non-empty, a dataset owned by another session is reported as not
// found rather than forbidden, so IDs don't leak across sessions.
func (m *Memory) Get(_ context.Context, sessionID, id string) (*domain.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ds, ok := m.datasets[id]
	if !ok || !visible(ds, sessionID) {
		return nil, &domain.ErrNotFound{Resource: "dataset", ID: id}
	}
	return ds, nil
}

// List returns the datasets visible to a session, newest first.
func (m *Memory) List(_ context.Context, sessionID string) ([]*domain.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Dataset, 0, len(m.datasets))
	for _, ds := range m.datasets {
		if visible(ds, sessionID) {
			out = append(out, ds)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// Delete removes a dataset.
func (m *Memory) Delete(_ context.Context, sessionID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds, ok := m.datasets[id]
	if !ok || !visible(ds, sessionID) {
		return &domain.ErrNotFound{Resource: "dataset", ID: id}
	}
	delete(m.datasets, id)
	return nil
}

// Count returns the number of stored datasets.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.datasets)
}

func visible(ds *domain.Dataset, sessionID string) bool {
	return sessionID == "" || ds.SessionID == sessionID
}
