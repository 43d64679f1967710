package domain

import "encoding/json"

// SearchQuery describes one search fetch as the backend consumes it.
// Times are microseconds since the Unix epoch.
type SearchQuery struct {
	SQL            string `json:"sql"`
	From           int    `json:"from"`
	Size           int    `json:"size"`
	StartTime      int64  `json:"start_time"`
	EndTime        int64  `json:"end_time"`
	TrackTotalHits bool   `json:"track_total_hits,omitempty"`
	QueryFn        string `json:"query_fn,omitempty"`
}

// SearchRequest is the full request body for the search endpoint. Aggs
// carries named aggregation statements; the histogram aggregation rides in
// aggs["histogram"].
type SearchRequest struct {
	Query SearchQuery       `json:"query"`
	Aggs  map[string]string `json:"aggs,omitempty"`
}

// SearchResponse is the backend's answer to one search fetch.
type SearchResponse struct {
	Took          int                          `json:"took"`
	Hits          []json.RawMessage            `json:"hits"`
	Aggs          map[string][]json.RawMessage `json:"aggs,omitempty"`
	Total         int64                        `json:"total"`
	From          int                          `json:"from"`
	Size          int                          `json:"size"`
	ScanSize      int64                        `json:"scan_size"`
	FunctionError string                       `json:"function_error,omitempty"`
}

// PartitionRequest asks the backend to split a time range into
// independently fetchable partitions.
type PartitionRequest struct {
	SQL       string `json:"sql"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
}

// PartitionResponse is the backend's partitioning of a time range.
// Partitions come as [start, end] microsecond pairs.
type PartitionResponse struct {
	Records    int64      `json:"records"`
	Partitions [][2]int64 `json:"partitions"`
}

// HistogramSpec is the bucketing choice derived from a time span: the
// interval substituted verbatim into the aggregation SQL and the display
// format for bucket keys.
type HistogramSpec struct {
	Interval  string
	KeyFormat string
}

// HistogramBucket is one x-axis point of the histogram aggregation.
type HistogramBucket struct {
	Key   string `json:"zo_sql_key"`
	Count int64  `json:"zo_sql_num"`
}

// QueryResult is the accumulated state of one logical page: hits stitched
// in slice-fetch order plus the running totals the UI reads.
type QueryResult struct {
	Hits     []json.RawMessage
	Columns  []string
	Total    int64
	From     int
	ScanSize int64
	Took     int
}
