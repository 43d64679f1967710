// Package testutil provides shared mock implementations of domain
// interfaces for use in tests across the codebase.
package testutil

import (
	"context"
	"time"

	"logsearch/internal/domain"
)

// === Search client mock ===

// MockSearchClient implements domain.SearchClient for testing.
type MockSearchClient struct {
	SearchFn    func(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error)
	PartitionFn func(ctx context.Context, req *domain.PartitionRequest) (*domain.PartitionResponse, error)

	// Collected requests for assertions.
	SearchRequests    []*domain.SearchRequest
	PartitionRequests []*domain.PartitionRequest
}

// Search implements the interface method for testing.
func (m *MockSearchClient) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	copied := *req
	m.SearchRequests = append(m.SearchRequests, &copied)
	if m.SearchFn != nil {
		return m.SearchFn(ctx, req)
	}
	return &domain.SearchResponse{From: req.Query.From, Size: req.Query.Size}, nil
}

// Partition implements the interface method for testing.
func (m *MockSearchClient) Partition(ctx context.Context, req *domain.PartitionRequest) (*domain.PartitionResponse, error) {
	copied := *req
	m.PartitionRequests = append(m.PartitionRequests, &copied)
	if m.PartitionFn != nil {
		return m.PartitionFn(ctx, req)
	}
	return &domain.PartitionResponse{}, nil
}

// === History repository mock ===

// MockHistoryRepo implements domain.HistoryRepository for testing.
type MockHistoryRepo struct {
	InsertFn func(ctx context.Context, e *domain.HistoryEntry) error
	ListFn   func(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error)
	PurgeFn  func(ctx context.Context, cutoff time.Time) (int64, error)

	Entries []*domain.HistoryEntry // collected entries for assertions
}

// Insert implements the interface method for testing.
func (m *MockHistoryRepo) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.Entries = append(m.Entries, e)
	return nil
}

// List implements the interface method for testing.
func (m *MockHistoryRepo) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	out := make([]domain.HistoryEntry, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = *e
	}
	return out, int64(len(out)), nil
}

// PurgeOlderThan implements the interface method for testing.
func (m *MockHistoryRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.PurgeFn != nil {
		return m.PurgeFn(ctx, cutoff)
	}
	return 0, nil
}
