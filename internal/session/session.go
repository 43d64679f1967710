// Package session implements the paginated search session: one caller-owned
// object holding the query, its partition plan, and the accumulated page
// results.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"logsearch/internal/domain"
	"logsearch/internal/histogram"
	"logsearch/internal/plan"
	"logsearch/internal/querybuild"
)

// Config is the user-controlled input of one search: stream, query, mode,
// and time range. A changed Config means a new query generation.
type Config struct {
	Stream      string
	Fields      []string
	SQLMode     bool
	Query       string
	QueryFn     string
	TimeRange   domain.TimeRange
	RowsPerPage int
}

// Session owns the mutable state of one active search. It is owned by a
// single caller: methods must not be invoked concurrently, with one
// exception: FetchHistogram may run alongside FetchPage since the two
// touch disjoint result state. A new query goes through Reset, never
// through mutation from a stale in-flight callback; stale responses are
// dropped by generation comparison.
type Session struct {
	client domain.SearchClient
	logger *slog.Logger

	cfg     Config
	base    *domain.SearchRequest
	planner *plan.Planner

	result       domain.QueryResult
	histSpec     domain.HistogramSpec
	histBuckets  []domain.HistogramBucket
	generation   uint64
	inFlight     bool
	refreshMode  bool
	maxTimestamp int64

	errMu  sync.Mutex // errMsg is the only field both fetch paths write
	errMsg string
}

// New creates a Session for the given search configuration.
func New(client domain.SearchClient, logger *slog.Logger, cfg Config) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		client:  client,
		logger:  logger.With("component", "session"),
		cfg:     cfg,
		planner: plan.New(cfg.RowsPerPage),
	}
}

// Reset replaces the search configuration and discards all accumulated
// state. The generation bump makes any still-in-flight response irrelevant.
func (s *Session) Reset(cfg Config) {
	s.generation++
	s.cfg = cfg
	s.base = nil
	s.planner = plan.New(cfg.RowsPerPage)
	s.result = domain.QueryResult{}
	s.histBuckets = nil
	s.maxTimestamp = 0
	s.setErr("")
	s.refreshMode = false
}

// SetRefreshMode toggles live-refresh merging: while active, a first-slice
// response is merged by timestamp instead of replacing accumulated hits.
func (s *Session) SetRefreshMode(on bool) { s.refreshMode = on }

// Retarget advances the time range of a live search without discarding
// accumulated hits or the refresh high-water mark. The request skeleton is
// rebuilt on the next operation. Unlike Reset, the generation is kept: the
// retargeted fetch continues the same query.
func (s *Session) Retarget(tr domain.TimeRange) {
	s.cfg.TimeRange = tr
	s.base = nil
}

// BuildQuery assembles the request skeleton from the session config and
// derives the histogram spec for the time span. It performs no network
// activity and fails on an invalid time range or unparseable SQL.
func (s *Session) BuildQuery() (*domain.SearchRequest, error) {
	b := &querybuild.Builder{
		Stream:      s.cfg.Stream,
		Fields:      s.cfg.Fields,
		SQLMode:     s.cfg.SQLMode,
		Query:       s.cfg.Query,
		QueryFn:     s.cfg.QueryFn,
		TimeRange:   s.cfg.TimeRange,
		RowsPerPage: s.planner.RowsPerPage(),
	}
	req, err := b.Build()
	if err != nil {
		s.setErr(err.Error())
		return nil, err
	}
	s.base = req
	s.histSpec = histogram.Pick(s.cfg.TimeRange.Duration())
	return req, nil
}

// ComputePartitions asks the backend to split the query's time range and
// resets the pagination plan to the reported partitions. All partition
// totals start unknown.
func (s *Session) ComputePartitions(ctx context.Context) error {
	if s.base == nil {
		if _, err := s.BuildQuery(); err != nil {
			return err
		}
	}

	resp, err := s.client.Partition(ctx, &domain.PartitionRequest{
		SQL:       s.base.Query.SQL,
		StartTime: s.base.Query.StartTime,
		EndTime:   s.base.Query.EndTime,
	})
	if err != nil {
		s.setErr(friendlyMessage(err))
		return fmt.Errorf("compute partitions: %w", err)
	}

	partitions := make([]domain.Partition, 0, len(resp.Partitions))
	for _, p := range resp.Partitions {
		partitions = append(partitions, domain.Partition{Start: p[0], End: p[1]})
	}
	s.planner.Reset(partitions)
	return nil
}

// FetchPage executes the slices of logical page n (1-based) strictly in
// order and assembles one QueryResult. The first request against a
// partition carries track_total_hits; the returned exact count updates the
// plan, which is rebuilt immediately so later slices of the page reflect
// the true split. A failure aborts the remaining slices and leaves hits
// from completed slices intact. Overlapping calls are gated by a single
// in-flight flag: a call while one is running is a no-op.
func (s *Session) FetchPage(ctx context.Context, page int, appendResult bool) error {
	if s.inFlight {
		return nil
	}
	s.inFlight = true
	defer func() { s.inFlight = false }()

	if s.base == nil {
		if _, err := s.BuildQuery(); err != nil {
			return err
		}
	}
	gen := s.generation
	s.setErr("")

	s.planner.Rebuild(page)
	slices, ok := s.planner.Page(page)
	if !ok {
		// Past the materialized plan: no data for this page.
		if !appendResult && !s.refreshMode {
			s.result.Hits = nil
			s.result.ScanSize = 0
			s.result.Took = 0
		}
		s.result.Total = s.planner.KnownTotal()
		return nil
	}

	if !appendResult && !s.refreshMode {
		s.result.Hits = nil
		s.result.ScanSize = 0
		s.result.Took = 0
		s.result.From = slices[0].From
	}

	for idx := 0; idx < len(slices); idx++ {
		sl := slices[idx]
		req := *s.base
		req.Query.From = sl.From
		req.Query.Size = sl.Size
		req.Query.StartTime = sl.Partition.Start
		req.Query.EndTime = sl.Partition.End
		req.Aggs = nil

		// Only the first request ever issued against a partition pays
		// for an exact count.
		track := s.planner.Total(sl.PartitionIndex) == domain.TotalUnknown
		req.Query.TrackTotalHits = track

		resp, err := s.client.Search(ctx, &req)
		if err != nil {
			s.setErr(friendlyMessage(err))
			s.logger.Warn("slice fetch failed", "page", page, "slice", idx, "error", err)
			return fmt.Errorf("fetch page %d slice %d: %w", page, idx, err)
		}
		if s.generation != gen {
			// A newer query started while this fetch was in flight.
			return nil
		}

		if track && s.planner.SetTotal(sl.PartitionIndex, resp.Total) {
			s.planner.Rebuild(page)
			if updated, ok := s.planner.Page(page); ok {
				slices = updated
				// The provisional slice was fetched at full page size; the
				// re-split may want fewer of its records on this page.
				if idx < len(slices) && slices[idx].PartitionIndex == sl.PartitionIndex &&
					len(resp.Hits) > slices[idx].Size {
					resp.Hits = resp.Hits[:slices[idx].Size]
				}
			}
		}

		s.apply(idx, appendResult, resp)
	}

	s.result.Total = s.planner.KnownTotal()
	// Column derivation runs once per assembled page, not per slice.
	s.result.Columns = extractColumns(s.result.Hits)
	return nil
}

// apply folds one slice response into the accumulating result per the
// replace/append rules.
func (s *Session) apply(sliceIdx int, appendResult bool, resp *domain.SearchResponse) {
	switch {
	case resp.From > 0 || sliceIdx > 0 || appendResult:
		// Continuation fetch.
		s.result.Hits = append(s.result.Hits, resp.Hits...)
		s.result.ScanSize += resp.ScanSize
		s.result.Took += resp.Took
	case s.refreshMode && len(s.result.Hits) > 0:
		s.mergeNewer(resp)
	default:
		// First contact: replace wholesale.
		s.result.Hits = resp.Hits
		s.result.ScanSize = resp.ScanSize
		s.result.Took = resp.Took
	}
	s.trackNewest(resp.Hits)
}

// mergeNewer is the live-refresh merge: only records strictly newer than
// the previously held newest timestamp are prepended. Best-effort dedup,
// not exact-once.
func (s *Session) mergeNewer(resp *domain.SearchResponse) {
	var fresh []json.RawMessage
	for _, hit := range resp.Hits {
		if hitTimestamp(hit) > s.maxTimestamp {
			fresh = append(fresh, hit)
		}
	}
	if len(fresh) == 0 {
		return
	}
	s.result.Hits = append(fresh, s.result.Hits...)
	s.result.ScanSize += resp.ScanSize
	s.result.Took += resp.Took
}

// trackNewest advances the refresh high-water mark.
func (s *Session) trackNewest(hits []json.RawMessage) {
	for _, hit := range hits {
		if ts := hitTimestamp(hit); ts > s.maxTimestamp {
			s.maxTimestamp = ts
		}
	}
}

// hitTimestamp extracts the record's _timestamp field; 0 when absent.
func hitTimestamp(hit json.RawMessage) int64 {
	var rec struct {
		Timestamp int64 `json:"_timestamp"`
	}
	if err := json.Unmarshal(hit, &rec); err != nil {
		return 0
	}
	return rec.Timestamp
}

// FetchHistogram runs the histogram aggregation for the session's time
// range using the interval selected for the span.
func (s *Session) FetchHistogram(ctx context.Context) error {
	if s.base == nil {
		if _, err := s.BuildQuery(); err != nil {
			return err
		}
	}
	gen := s.generation

	req := *s.base
	req.Query.From = 0
	req.Query.Size = 0
	req.Aggs = map[string]string{
		"histogram": histogram.AggSQL(s.cfg.Stream, s.histSpec),
	}

	resp, err := s.client.Search(ctx, &req)
	if err != nil {
		s.setErr(friendlyMessage(err))
		return fmt.Errorf("fetch histogram: %w", err)
	}
	if s.generation != gen {
		return nil
	}

	buckets := make([]domain.HistogramBucket, 0, len(resp.Aggs["histogram"]))
	for _, raw := range resp.Aggs["histogram"] {
		var b domain.HistogramBucket
		if err := json.Unmarshal(raw, &b); err != nil {
			continue
		}
		buckets = append(buckets, b)
	}
	s.histBuckets = buckets
	return nil
}

// Result returns the accumulated page result.
func (s *Session) Result() domain.QueryResult { return s.result }

// Plan returns the materialized logical pages.
func (s *Session) Plan() []domain.LogicalPage { return s.planner.Pages() }

// Partitions returns the backend-reported partitions, sorted ascending.
func (s *Session) Partitions() []domain.Partition { return s.planner.Partitions() }

// HistogramSpec returns the bucketing choice for the session's time span.
func (s *Session) HistogramSpec() domain.HistogramSpec { return s.histSpec }

// HistogramBuckets returns the buckets of the last histogram fetch.
func (s *Session) HistogramBuckets() []domain.HistogramBucket { return s.histBuckets }

// LastError returns the user-facing message of the last failure, empty
// when the last operation succeeded.
func (s *Session) LastError() string {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.errMsg
}

func (s *Session) setErr(msg string) {
	s.errMu.Lock()
	s.errMsg = msg
	s.errMu.Unlock()
}

// Stream returns the configured stream name.
func (s *Session) Stream() string { return s.cfg.Stream }

// TimeRange returns the configured time range.
func (s *Session) TimeRange() domain.TimeRange { return s.cfg.TimeRange }

// SQL returns the built statement, empty before BuildQuery.
func (s *Session) SQL() string {
	if s.base == nil {
		return ""
	}
	return s.base.Query.SQL
}

// friendlyMessage maps a backend error through the static code table;
// other errors pass through as-is.
func friendlyMessage(err error) string {
	var uerr *domain.UpstreamError
	if errors.As(err, &uerr) {
		return uerr.Friendly()
	}
	return err.Error()
}

// extractColumns derives the result-grid columns from the assembled page:
// the union of top-level keys across hits, _timestamp first, the rest
// alphabetical.
func extractColumns(hits []json.RawMessage) []string {
	seen := map[string]struct{}{}
	for _, hit := range hits {
		var rec map[string]json.RawMessage
		if err := json.Unmarshal(hit, &rec); err != nil {
			continue
		}
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}

	_, hasTS := seen["_timestamp"]
	delete(seen, "_timestamp")
	cols := make([]string, 0, len(seen)+1)
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	if hasTS {
		cols = append([]string{"_timestamp"}, cols...)
	}
	return cols
}
