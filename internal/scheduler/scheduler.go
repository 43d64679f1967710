// Package scheduler runs saved searches on cron schedules and enforces the
// history retention window.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"logsearch/internal/domain"
	"logsearch/internal/session"
)

// SavedSearch is one entry of the saved-searches file. Period is the width
// of the time window the search runs over, ending at execution time.
type SavedSearch struct {
	Name     string   `yaml:"name"`
	Stream   string   `yaml:"stream"`
	Query    string   `yaml:"query"`
	SQLMode  bool     `yaml:"sql_mode"`
	Fields   []string `yaml:"fields"`
	Period   string   `yaml:"period"`
	Schedule string   `yaml:"schedule"`
}

type savedSearchFile struct {
	Searches []SavedSearch `yaml:"searches"`
}

// LoadSavedSearches reads and validates the saved-searches YAML file.
func LoadSavedSearches(path string) ([]SavedSearch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read saved searches: %w", err)
	}

	var file savedSearchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse saved searches: %w", err)
	}

	for i, sv := range file.Searches {
		if sv.Name == "" {
			return nil, domain.ErrValidation("saved search %d: name is required", i)
		}
		if sv.Stream == "" {
			return nil, domain.ErrValidation("saved search %q: stream is required", sv.Name)
		}
		if sv.Schedule == "" {
			return nil, domain.ErrValidation("saved search %q: schedule is required", sv.Name)
		}
		if _, err := sv.period(); err != nil {
			return nil, domain.ErrValidation("saved search %q: %v", sv.Name, err)
		}
	}

	return file.Searches, nil
}

func (s SavedSearch) period() (time.Duration, error) {
	if s.Period == "" {
		return 15 * time.Minute, nil
	}
	d, err := time.ParseDuration(s.Period)
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", s.Period, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("period %q must be positive", s.Period)
	}
	return d, nil
}

// Scheduler manages cron-based saved-search execution and nightly history
// retention.
type Scheduler struct {
	cron      *cron.Cron
	svc       *session.Service
	history   domain.HistoryRepository
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]cron.EntryID // saved search name → cron entry
}

// retentionSchedule runs the purge at 03:00 every day.
const retentionSchedule = "0 3 * * *"

// New creates a Scheduler. retention <= 0 disables the purge job.
func New(svc *session.Service, history domain.HistoryRepository, retention time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(),
		svc:       svc,
		history:   history,
		logger:    logger.With("component", "scheduler"),
		retention: retention,
		now:       time.Now,
		entries:   make(map[string]cron.EntryID),
	}
}

// Start registers the saved searches and retention job and starts cron.
func (s *Scheduler) Start(searches []SavedSearch) error {
	if err := s.register(searches); err != nil {
		return err
	}

	if s.history != nil && s.retention > 0 {
		if _, err := s.cron.AddFunc(retentionSchedule, func() { s.purgeOnce(context.Background()) }); err != nil {
			return fmt.Errorf("add retention job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "saved_searches", len(searches), "retention", s.retention)
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// Reload clears all saved-search entries and registers the given set.
// The retention job is untouched.
func (s *Scheduler) Reload(searches []SavedSearch) error {
	s.mu.Lock()
	for _, entryID := range s.entries {
		s.cron.Remove(entryID)
	}
	s.entries = make(map[string]cron.EntryID)
	s.mu.Unlock()

	return s.register(searches)
}

func (s *Scheduler) register(searches []SavedSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sv := range searches {
		sv := sv
		entryID, err := s.cron.AddFunc(sv.Schedule, func() {
			if err := s.runSearch(context.Background(), sv); err != nil {
				s.logger.Warn("saved search failed", "name", sv.Name, "error", err)
			}
		})
		if err != nil {
			s.logger.Warn("invalid cron schedule", "name", sv.Name, "schedule", sv.Schedule, "error", err)
			continue
		}
		s.entries[sv.Name] = entryID
		s.logger.Info("registered saved search", "name", sv.Name, "schedule", sv.Schedule)
	}

	return nil
}

// runSearch executes one saved search over its trailing time window. The
// outcome lands in history through the service.
func (s *Scheduler) runSearch(ctx context.Context, sv SavedSearch) error {
	period, err := sv.period()
	if err != nil {
		return err
	}

	end := s.now()
	cfg := session.Config{
		Stream:  sv.Stream,
		Fields:  sv.Fields,
		SQLMode: sv.SQLMode,
		Query:   sv.Query,
		TimeRange: domain.TimeRange{
			Start: end.Add(-period).UnixMicro(),
			End:   end.UnixMicro(),
		},
	}

	sess, err := s.svc.RunWithHistogram(ctx, cfg)
	if err != nil {
		return err
	}
	s.logger.Info("saved search completed",
		"name", sv.Name,
		"hits", len(sess.Result().Hits),
		"total", sess.Result().Total,
		"buckets", len(sess.HistogramBuckets()),
	)
	return nil
}

func (s *Scheduler) purgeOnce(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.history.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Warn("history purge failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("history purged", "removed", n, "cutoff", cutoff)
	}
}
