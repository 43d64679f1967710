package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"logsearch/internal/domain"
)

// Service runs complete searches (build, partition, first page) and records
// each execution to the local history store.
type Service struct {
	client  domain.SearchClient
	history domain.HistoryRepository
	logger  *slog.Logger
}

// NewService creates a Service. history may be nil, in which case
// executions are not recorded.
func NewService(client domain.SearchClient, history domain.HistoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, history: history, logger: logger.With("component", "search")}
}

// Run executes a full search: query build, partition computation, and the
// first logical page. The returned session can be paged further by the
// caller. The execution outcome is recorded to history either way.
func (s *Service) Run(ctx context.Context, cfg Config) (*Session, error) {
	sess := New(s.client, s.logger, cfg)
	start := time.Now()

	err := s.run(ctx, sess)
	s.record(ctx, sess, cfg, time.Since(start), err)
	if err != nil {
		return sess, err
	}
	return sess, nil
}

func (s *Service) run(ctx context.Context, sess *Session) error {
	if _, err := sess.BuildQuery(); err != nil {
		return err
	}
	if err := sess.ComputePartitions(ctx); err != nil {
		return err
	}
	return sess.FetchPage(ctx, 1, false)
}

// RunWithHistogram is Run plus the histogram aggregation. The first page
// and the histogram are fetched concurrently once partitions are known.
func (s *Service) RunWithHistogram(ctx context.Context, cfg Config) (*Session, error) {
	sess := New(s.client, s.logger, cfg)
	start := time.Now()

	err := s.runWithHistogram(ctx, sess)
	s.record(ctx, sess, cfg, time.Since(start), err)
	if err != nil {
		return sess, err
	}
	return sess, nil
}

func (s *Service) runWithHistogram(ctx context.Context, sess *Session) error {
	if _, err := sess.BuildQuery(); err != nil {
		return err
	}
	if err := sess.ComputePartitions(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.FetchPage(gctx, 1, false) })
	g.Go(func() error { return sess.FetchHistogram(gctx) })
	return g.Wait()
}

// record persists the execution outcome. Best-effort: a history write
// failure is logged, never surfaced.
func (s *Service) record(ctx context.Context, sess *Session, cfg Config, took time.Duration, runErr error) {
	if s.history == nil {
		return
	}

	e := &domain.HistoryEntry{
		ID:         uuid.NewString(),
		Stream:     cfg.Stream,
		SQL:        sess.SQL(),
		StartTime:  cfg.TimeRange.Start,
		EndTime:    cfg.TimeRange.End,
		DurationMS: took.Milliseconds(),
		Hits:       int64(len(sess.Result().Hits)),
		Status:     "ok",
		CreatedAt:  time.Now(),
	}
	if e.SQL == "" {
		e.SQL = cfg.Query
	}
	if runErr != nil {
		e.Status = "error"
		e.ErrorMsg = sess.LastError()
		if e.ErrorMsg == "" {
			e.ErrorMsg = runErr.Error()
		}
	}

	if err := s.history.Insert(ctx, e); err != nil {
		s.logger.Warn("record search history failed", "error", err)
	}
}
