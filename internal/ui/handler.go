// Package ui serves the server-rendered search and history pages.
package ui

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"logsearch/internal/domain"
	"logsearch/internal/session"
)

// Handler renders the web UI on top of the search service.
type Handler struct {
	Search      *session.Service
	History     domain.HistoryRepository
	RowsPerPage int
	Logger      *slog.Logger

	now func() time.Time
}

// NewHandler creates a UI handler.
func NewHandler(search *session.Service, history domain.HistoryRepository, rowsPerPage int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Search:      search,
		History:     history,
		RowsPerPage: rowsPerPage,
		Logger:      logger.With("component", "ui"),
		now:         time.Now,
	}
}

// Routes returns the UI router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.searchPage)
	r.Get("/history", h.historyPage)
	r.Get("/static/app.css", serveStylesheet)
	return r
}

// periods are the selectable trailing time windows of the search form.
var periods = []struct {
	Value    string
	Label    string
	Duration time.Duration
}{
	{"15m", "Last 15 minutes", 15 * time.Minute},
	{"1h", "Last 1 hour", time.Hour},
	{"6h", "Last 6 hours", 6 * time.Hour},
	{"24h", "Last 24 hours", 24 * time.Hour},
	{"7d", "Last 7 days", 7 * 24 * time.Hour},
}

func periodDuration(value string) time.Duration {
	for _, p := range periods {
		if p.Value == value {
			return p.Duration
		}
	}
	return 15 * time.Minute
}

// searchPage renders the search form and, when a stream is given, runs the
// search and renders its results.
func (h *Handler) searchPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := searchState{
		Stream:  q.Get("stream"),
		Query:   q.Get("query"),
		SQLMode: q.Get("sql_mode") == "on",
		Period:  q.Get("period"),
	}
	if state.Period == "" {
		state.Period = "15m"
	}

	if state.Stream == "" {
		renderHTML(w, http.StatusOK, searchPage(state, nil, nil, domain.HistogramSpec{}, ""))
		return
	}

	end := h.now()
	cfg := session.Config{
		Stream:      state.Stream,
		SQLMode:     state.SQLMode,
		Query:       state.Query,
		TimeRange:   domain.TimeRange{Start: end.Add(-periodDuration(state.Period)).UnixMicro(), End: end.UnixMicro()},
		RowsPerPage: h.RowsPerPage,
	}

	sess, err := h.Search.RunWithHistogram(r.Context(), cfg)
	if err != nil {
		msg := sess.LastError()
		if msg == "" {
			msg = err.Error()
		}
		renderHTML(w, http.StatusOK, searchPage(state, nil, nil, domain.HistogramSpec{}, msg))
		return
	}

	result := sess.Result()
	renderHTML(w, http.StatusOK, searchPage(state, &result, sess.HistogramBuckets(), sess.HistogramSpec(), ""))
}

// historyPage lists recorded searches.
func (h *Handler) historyPage(w http.ResponseWriter, r *http.Request) {
	filter := domain.HistoryFilter{
		Page: domain.PageRequest{PageToken: r.URL.Query().Get("page_token")},
	}
	if v := r.URL.Query().Get("stream"); v != "" {
		filter.Stream = &v
	}
	if v := r.URL.Query().Get("max_results"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Page.MaxResults = n
		}
	}

	entries, total, err := h.History.List(r.Context(), filter)
	if err != nil {
		h.Logger.Warn("history list failed", "error", err)
		renderHTML(w, http.StatusInternalServerError, historyPage(nil, 0, "", err.Error()))
		return
	}

	next := domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total)
	renderHTML(w, http.StatusOK, historyPage(entries, total, next, ""))
}
