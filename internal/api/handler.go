// Package api provides the HTTP handlers for the log search REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"logsearch/internal/domain"
	"logsearch/internal/session"
)

// Handler serves the search, histogram, and history endpoints.
type Handler struct {
	svc      *session.Service
	sessions *session.Manager
	history  domain.HistoryRepository
	logger   *slog.Logger

	rowsPerPage int
}

// NewHandler creates a Handler. rowsPerPage is the default logical page
// size applied when a request does not specify one.
func NewHandler(svc *session.Service, sessions *session.Manager, history domain.HistoryRepository, rowsPerPage int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:         svc,
		sessions:    sessions,
		history:     history,
		logger:      logger.With("component", "api"),
		rowsPerPage: rowsPerPage,
	}
}

// Routes mounts all API endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/search", h.createSearch)
	r.Get("/search/{id}/page", h.fetchPage)
	r.Get("/search/{id}/histogram", h.fetchHistogram)
	r.Delete("/search/{id}", h.deleteSearch)
	r.Get("/history", h.listHistory)
}

type searchRequest struct {
	Stream      string   `json:"stream"`
	Query       string   `json:"query"`
	SQLMode     bool     `json:"sql_mode"`
	Fields      []string `json:"fields"`
	QueryFn     string   `json:"query_fn"`
	StartTime   int64    `json:"start_time"`
	EndTime     int64    `json:"end_time"`
	RowsPerPage int      `json:"rows_per_page"`
}

type pageResponse struct {
	SessionID  string            `json:"session_id"`
	Page       int               `json:"page"`
	Hits       []json.RawMessage `json:"hits"`
	Columns    []string          `json:"columns"`
	Total      int64             `json:"total"`
	From       int               `json:"from"`
	ScanSize   int64             `json:"scan_size"`
	Took       int               `json:"took"`
	PageCount  int               `json:"page_count"`
	Partitions [][2]int64        `json:"partitions"`
}

type histogramResponse struct {
	Interval  string                   `json:"interval"`
	KeyFormat string                   `json:"key_format"`
	Buckets   []domain.HistogramBucket `json:"buckets"`
}

type searchResponse struct {
	pageResponse
	Histogram histogramResponse `json:"histogram"`
}

// createSearch runs a complete search: partition split, first page, and
// histogram. The returned session_id addresses follow-up page fetches.
func (h *Handler) createSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	rows := req.RowsPerPage
	if rows <= 0 {
		rows = h.rowsPerPage
	}
	cfg := session.Config{
		Stream:      req.Stream,
		Fields:      req.Fields,
		SQLMode:     req.SQLMode,
		Query:       req.Query,
		QueryFn:     req.QueryFn,
		TimeRange:   domain.TimeRange{Start: req.StartTime, End: req.EndTime},
		RowsPerPage: rows,
	}

	sess, err := h.svc.RunWithHistogram(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	id := h.sessions.Put(sess)
	spec := sess.HistogramSpec()
	writeJSON(w, http.StatusOK, searchResponse{
		pageResponse: h.pagePayload(id, 1, sess),
		Histogram: histogramResponse{
			Interval:  spec.Interval,
			KeyFormat: spec.KeyFormat,
			Buckets:   sess.HistogramBuckets(),
		},
	})
}

// fetchPage fetches one logical page of an existing session.
// Query params: page (1-based, default 1), append (default false).
func (h *Handler) fetchPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, domain.ErrValidation("page must be a positive integer, got %q", v))
			return
		}
		page = n
	}
	appendResult := r.URL.Query().Get("append") == "true"

	var resp pageResponse
	err := h.sessions.With(id, func(sess *session.Session) error {
		if err := sess.FetchPage(r.Context(), page, appendResult); err != nil {
			return err
		}
		resp = h.pagePayload(id, page, sess)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// fetchHistogram re-runs the histogram aggregation of an existing session.
func (h *Handler) fetchHistogram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var resp histogramResponse
	err := h.sessions.With(id, func(sess *session.Session) error {
		if err := sess.FetchHistogram(r.Context()); err != nil {
			return err
		}
		spec := sess.HistogramSpec()
		resp = histogramResponse{
			Interval:  spec.Interval,
			KeyFormat: spec.KeyFormat,
			Buckets:   sess.HistogramBuckets(),
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// deleteSearch disposes of a session.
func (h *Handler) deleteSearch(w http.ResponseWriter, r *http.Request) {
	h.sessions.Dispose(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

type historyEntryResponse struct {
	ID         string `json:"id"`
	Stream     string `json:"stream"`
	SQL        string `json:"sql"`
	StartTime  int64  `json:"start_time"`
	EndTime    int64  `json:"end_time"`
	DurationMS int64  `json:"duration_ms"`
	Hits       int64  `json:"hits"`
	Status     string `json:"status"`
	ErrorMsg   string `json:"error_msg,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type historyListResponse struct {
	Entries       []historyEntryResponse `json:"entries"`
	Total         int64                  `json:"total"`
	NextPageToken string                 `json:"next_page_token,omitempty"`
}

// listHistory lists recorded searches, newest first.
// Query params: stream, status, from, to (RFC 3339), max_results, page_token.
func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.HistoryFilter{
		Page: domain.PageRequest{PageToken: q.Get("page_token")},
	}
	if v := q.Get("stream"); v != "" {
		filter.Stream = &v
	}
	if v := q.Get("status"); v != "" {
		if v != "ok" && v != "error" {
			writeError(w, domain.ErrValidation("status must be \"ok\" or \"error\", got %q", v))
			return
		}
		filter.Status = &v
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, domain.ErrValidation("invalid from timestamp %q", v))
			return
		}
		filter.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, domain.ErrValidation("invalid to timestamp %q", v))
			return
		}
		filter.To = &ts
	}
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, domain.ErrValidation("max_results must be a positive integer, got %q", v))
			return
		}
		filter.Page.MaxResults = n
	}

	entries, total, err := h.history.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := historyListResponse{
		Entries:       make([]historyEntryResponse, 0, len(entries)),
		Total:         total,
		NextPageToken: domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, historyEntryResponse{
			ID:         e.ID,
			Stream:     e.Stream,
			SQL:        e.SQL,
			StartTime:  e.StartTime,
			EndTime:    e.EndTime,
			DurationMS: e.DurationMS,
			Hits:       e.Hits,
			Status:     e.Status,
			ErrorMsg:   e.ErrorMsg,
			CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) pagePayload(id string, page int, sess *session.Session) pageResponse {
	result := sess.Result()

	parts := sess.Partitions()
	partitions := make([][2]int64, 0, len(parts))
	for _, p := range parts {
		partitions = append(partitions, [2]int64{p.Start, p.End})
	}

	return pageResponse{
		SessionID:  id,
		Page:       page,
		Hits:       result.Hits,
		Columns:    result.Columns,
		Total:      result.Total,
		From:       result.From,
		ScanSize:   result.ScanSize,
		Took:       result.Took,
		PageCount:  len(sess.Plan()),
		Partitions: partitions,
	}
}
