package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logsearch/internal/domain"
	"logsearch/internal/session"
	"logsearch/internal/testutil"
)

func writeSearchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "searches.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSavedSearches(t *testing.T) {
	t.Parallel()

	path := writeSearchFile(t, `
searches:
  - name: error-spike
    stream: nginx
    query: level=error
    period: 5m
    schedule: "*/5 * * * *"
  - name: slow-queries
    stream: app
    query: select * from "app" where duration > 500
    sql_mode: true
    schedule: "0 * * * *"
`)

	searches, err := LoadSavedSearches(path)
	require.NoError(t, err)
	require.Len(t, searches, 2)

	assert.Equal(t, "error-spike", searches[0].Name)
	assert.Equal(t, "nginx", searches[0].Stream)
	assert.Equal(t, "level=error", searches[0].Query)
	assert.False(t, searches[0].SQLMode)
	assert.Equal(t, "5m", searches[0].Period)

	assert.True(t, searches[1].SQLMode)
	assert.Empty(t, searches[1].Period)
}

func TestLoadSavedSearches_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "searches:\n  - stream: nginx\n    schedule: \"* * * * *\"\n",
			wantErr: "name is required",
		},
		{
			name:    "missing stream",
			content: "searches:\n  - name: x\n    schedule: \"* * * * *\"\n",
			wantErr: "stream is required",
		},
		{
			name:    "missing schedule",
			content: "searches:\n  - name: x\n    stream: nginx\n",
			wantErr: "schedule is required",
		},
		{
			name:    "bad period",
			content: "searches:\n  - name: x\n    stream: nginx\n    schedule: \"* * * * *\"\n    period: soon\n",
			wantErr: "invalid period",
		},
		{
			name:    "negative period",
			content: "searches:\n  - name: x\n    stream: nginx\n    schedule: \"* * * * *\"\n    period: -5m\n",
			wantErr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadSavedSearches(writeSearchFile(t, tt.content))
			require.Error(t, err)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSavedSearches_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadSavedSearches(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read saved searches")
}

func TestScheduler_RunSearchWindow(t *testing.T) {
	t.Parallel()

	mock := &testutil.MockSearchClient{
		PartitionFn: func(ctx context.Context, req *domain.PartitionRequest) (*domain.PartitionResponse, error) {
			return &domain.PartitionResponse{
				Partitions: [][2]int64{{req.StartTime, req.EndTime}},
			}, nil
		},
		SearchFn: func(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
			return &domain.SearchResponse{
				Hits:  []json.RawMessage{json.RawMessage(`{"_timestamp":1,"log":"a"}`)},
				Total: 1,
			}, nil
		},
	}
	repo := &testutil.MockHistoryRepo{}

	sched := New(session.NewService(mock, repo, nil), repo, 0, nil)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return now }

	err := sched.runSearch(context.Background(), SavedSearch{
		Name:     "error-spike",
		Stream:   "nginx",
		Query:    "level=error",
		Period:   "5m",
		Schedule: "*/5 * * * *",
	})
	require.NoError(t, err)

	require.Len(t, mock.PartitionRequests, 1)
	preq := mock.PartitionRequests[0]
	assert.Equal(t, now.Add(-5*time.Minute).UnixMicro(), preq.StartTime)
	assert.Equal(t, now.UnixMicro(), preq.EndTime)

	require.Len(t, repo.Entries, 1)
	assert.Equal(t, "nginx", repo.Entries[0].Stream)
	assert.Equal(t, "ok", repo.Entries[0].Status)
}

func TestScheduler_PurgeOnce(t *testing.T) {
	t.Parallel()

	var gotCutoff time.Time
	repo := &testutil.MockHistoryRepo{
		PurgeFn: func(ctx context.Context, cutoff time.Time) (int64, error) {
			gotCutoff = cutoff
			return 3, nil
		},
	}

	sched := New(nil, repo, 7*24*time.Hour, nil)
	now := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return now }

	sched.purgeOnce(context.Background())
	assert.Equal(t, now.Add(-7*24*time.Hour), gotCutoff)
}

func TestScheduler_StartRejectsNothing(t *testing.T) {
	t.Parallel()

	repo := &testutil.MockHistoryRepo{}
	sched := New(nil, repo, time.Hour, nil)
	t.Cleanup(sched.Stop)

	// A bad schedule is skipped with a warning, not fatal.
	require.NoError(t, sched.Start([]SavedSearch{
		{Name: "bad", Stream: "x", Schedule: "not-cron"},
	}))
	assert.Empty(t, sched.entries)
}
