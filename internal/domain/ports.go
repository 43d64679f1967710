package domain

import (
	"context"
	"time"
)

// SearchClient is the outbound port to the search backend.
type SearchClient interface {
	// Search executes one fetch. A backend-reported failure is returned
	// as an *UpstreamError.
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	// Partition splits the request's time range into fetchable partitions.
	Partition(ctx context.Context, req *PartitionRequest) (*PartitionResponse, error)
}

// HistoryEntry records one executed search in the local history store.
type HistoryEntry struct {
	ID         string
	Stream     string
	SQL        string
	StartTime  int64
	EndTime    int64
	DurationMS int64
	Hits       int64
	Status     string // "ok" or "error"
	ErrorMsg   string
	CreatedAt  time.Time
}

// HistoryFilter narrows a history listing.
type HistoryFilter struct {
	Stream *string
	Status *string
	From   *time.Time
	To     *time.Time
	Page   PageRequest
}

// HistoryRepository is the outbound port to the local history store.
type HistoryRepository interface {
	Insert(ctx context.Context, e *HistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
