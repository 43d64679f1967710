package domain

import "time"

// TimeRange is a query time span in microseconds since the Unix epoch.
type TimeRange struct {
	Start int64 `json:"start_time"`
	End   int64 `json:"end_time"`
}

// Valid reports whether the range is well-formed (start not after end).
func (r TimeRange) Valid() bool { return r.Start <= r.End }

// Duration returns the span length in microseconds.
func (r TimeRange) Duration() int64 { return r.End - r.Start }

// LastRange returns the range covering the trailing period ending now.
func LastRange(period time.Duration, now time.Time) TimeRange {
	end := now.UnixMicro()
	return TimeRange{Start: end - period.Microseconds(), End: end}
}

// Partition is a backend-determined contiguous time sub-range of a query,
// fetched independently. Partitions reported by the backend are pairwise
// non-overlapping; gaps represent empty shards.
type Partition struct {
	Start int64 `json:"start_time"`
	End   int64 `json:"end_time"`
}

// TotalUnknown is the sentinel for a partition whose record count has not
// been determined by an exact-count fetch yet.
const TotalUnknown = -1

// PageSlice is one fetch request fully contained within a single partition:
// the records [From, From+Size) of that partition, in partition order.
type PageSlice struct {
	Partition      Partition `json:"partition"`
	PartitionIndex int       `json:"-"`
	From           int       `json:"from"`
	Size           int       `json:"size"`
}

// LogicalPage is one unit of user-facing pagination: an ordered sequence of
// slices whose sizes sum to the configured rows per page, except possibly
// for the final page of the range.
type LogicalPage []PageSlice

// Rows returns the number of records the page delivers when fully fetched.
func (p LogicalPage) Rows() int {
	n := 0
	for _, s := range p {
		n += s.Size
	}
	return n
}
