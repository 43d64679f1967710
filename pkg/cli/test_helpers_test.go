package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"logsearch/internal/domain"
)

// isolateEnv points HOME at a temp dir and clears the env vars the root
// command reads, so tests never see the developer's real profile.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"LOGSEARCH_URL", "LOGSEARCH_ORG", "LOGSEARCH_TOKEN", "LOGSEARCH_OUTPUT", "HISTORY_DB_PATH"} {
		t.Setenv(k, "")
	}
}

// runCommand executes the root command with args, capturing stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	cmd := newRootCmd()
	cmd.SetArgs(args)
	execErr := cmd.Execute()

	require.NoError(t, w.Close())
	os.Stdout = old
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data), execErr
}

// newBackendServer fakes the search backend: one partition covering the
// whole range, two records, and a canned histogram.
func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/default/_search_partition", func(w http.ResponseWriter, r *http.Request) {
		var req domain.PartitionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(domain.PartitionResponse{
			Records:    2,
			Partitions: [][2]int64{{req.StartTime, req.EndTime}},
		})
	})
	mux.HandleFunc("/api/default/_search", func(w http.ResponseWriter, r *http.Request) {
		var req domain.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := domain.SearchResponse{Took: 3, ScanSize: 1024}
		if _, ok := req.Aggs["histogram"]; ok {
			resp.Aggs = map[string][]json.RawMessage{
				"histogram": {
					json.RawMessage(`{"zo_sql_key":"2026-08-30 10:00:00","zo_sql_num":5}`),
					json.RawMessage(`{"zo_sql_key":"2026-08-30 10:01:00","zo_sql_num":2}`),
				},
			}
		} else {
			resp.Hits = []json.RawMessage{
				json.RawMessage(`{"_timestamp":2000,"level":"error","message":"disk full"}`),
				json.RawMessage(`{"_timestamp":1000,"level":"info","message":"started"}`),
			}
			resp.Total = 2
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
