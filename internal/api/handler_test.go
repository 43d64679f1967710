package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logsearch/internal/domain"
	"logsearch/internal/session"
	"logsearch/internal/testutil"
)

// testBackend serves two partitions of 300 records each, plus a canned
// histogram for aggregation requests.
func testBackend() *testutil.MockSearchClient {
	totals := map[int64]int64{0: 300, 1000: 300}
	mock := &testutil.MockSearchClient{}

	mock.PartitionFn = func(ctx context.Context, req *domain.PartitionRequest) (*domain.PartitionResponse, error) {
		return &domain.PartitionResponse{
			Records:    600,
			Partitions: [][2]int64{{0, 1000}, {1000, 2000}},
		}, nil
	}
	mock.SearchFn = func(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
		if len(req.Aggs) > 0 {
			return &domain.SearchResponse{
				Aggs: map[string][]json.RawMessage{
					"histogram": {json.RawMessage(`{"zo_sql_key":"2026-08-30 10:00:00","zo_sql_num":42}`)},
				},
			}, nil
		}

		total := totals[req.Query.StartTime]
		remaining := total - int64(req.Query.From)
		if remaining < 0 {
			remaining = 0
		}
		n := int64(req.Query.Size)
		if n > remaining {
			n = remaining
		}
		resp := &domain.SearchResponse{From: req.Query.From, Size: req.Query.Size}
		for i := int64(0); i < n; i++ {
			hit := fmt.Sprintf(`{"_timestamp":%d,"log":"line %d","level":"info"}`,
				req.Query.StartTime+int64(req.Query.From)+i, i)
			resp.Hits = append(resp.Hits, json.RawMessage(hit))
		}
		if req.Query.TrackTotalHits {
			resp.Total = total
		}
		return resp, nil
	}
	return mock
}

func newTestServer(t *testing.T, client domain.SearchClient, history domain.HistoryRepository) *httptest.Server {
	t.Helper()
	if history == nil {
		history = &testutil.MockHistoryRepo{}
	}
	h := NewHandler(
		session.NewService(client, history, nil),
		session.NewManager(time.Minute),
		history,
		250,
		nil,
	)
	srv := httptest.NewServer(NewRouter(h, RouterConfig{CORSAllowedOrigins: []string{"*"}}))
	t.Cleanup(srv.Close)
	return srv
}

func postSearch(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/search", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func TestCreateSearch(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)
	resp, payload := postSearch(t, srv, `{
		"stream": "default",
		"query": "level=info",
		"start_time": 0,
		"end_time": 2000
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessionID string
	require.NoError(t, json.Unmarshal(payload["session_id"], &sessionID))
	assert.NotEmpty(t, sessionID)

	var hits []json.RawMessage
	require.NoError(t, json.Unmarshal(payload["hits"], &hits))
	assert.Len(t, hits, 250)

	var total int64
	require.NoError(t, json.Unmarshal(payload["total"], &total))
	assert.Equal(t, int64(300), total)

	var partitions [][2]int64
	require.NoError(t, json.Unmarshal(payload["partitions"], &partitions))
	assert.Equal(t, [][2]int64{{0, 1000}, {1000, 2000}}, partitions)

	var hist histogramResponse
	require.NoError(t, json.Unmarshal(payload["histogram"], &hist))
	assert.Equal(t, "10 second", hist.Interval)
	require.Len(t, hist.Buckets, 1)
	assert.Equal(t, int64(42), hist.Buckets[0].Count)

	var columns []string
	require.NoError(t, json.Unmarshal(payload["columns"], &columns))
	assert.Equal(t, "_timestamp", columns[0])
}

func TestFetchPage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)
	resp, payload := postSearch(t, srv, `{"stream":"default","start_time":0,"end_time":2000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessionID string
	require.NoError(t, json.Unmarshal(payload["session_id"], &sessionID))

	pageResp, err := http.Get(srv.URL + "/api/v1/search/" + sessionID + "/page?page=2")
	require.NoError(t, err)
	defer pageResp.Body.Close()
	require.Equal(t, http.StatusOK, pageResp.StatusCode)

	var page pageResponse
	require.NoError(t, json.NewDecoder(pageResp.Body).Decode(&page))
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Hits, 250)
	assert.Equal(t, int64(600), page.Total)
}

func TestFetchPage_UnknownSession(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)
	resp, err := http.Get(srv.URL + "/api/v1/search/nope/page")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFetchPage_BadPageParam(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)
	resp, payload := postSearch(t, srv, `{"stream":"default","start_time":0,"end_time":2000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessionID string
	require.NoError(t, json.Unmarshal(payload["session_id"], &sessionID))

	badResp, err := http.Get(srv.URL + "/api/v1/search/" + sessionID + "/page?page=zero")
	require.NoError(t, err)
	defer badResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}

func TestCreateSearch_InvalidBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)
	resp, _ := postSearch(t, srv, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSearch_InvalidTimeRange(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)
	resp, _ := postSearch(t, srv, `{"stream":"default","start_time":2000,"end_time":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSearch_UpstreamError(t *testing.T) {
	t.Parallel()

	mock := testBackend()
	mock.SearchFn = func(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
		return nil, &domain.UpstreamError{Code: 20002, Message: "stream default not found"}
	}

	srv := newTestServer(t, mock, nil)
	resp, payload := postSearch(t, srv, `{"stream":"default","start_time":0,"end_time":2000}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var msg string
	require.NoError(t, json.Unmarshal(payload["message"], &msg))
	assert.Equal(t, "Stream not found", msg)
}

func TestDeleteSearch(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)
	resp, payload := postSearch(t, srv, `{"stream":"default","start_time":0,"end_time":2000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessionID string
	require.NoError(t, json.Unmarshal(payload["session_id"], &sessionID))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/search/"+sessionID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	pageResp, err := http.Get(srv.URL + "/api/v1/search/" + sessionID + "/page")
	require.NoError(t, err)
	defer pageResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, pageResp.StatusCode)
}

func TestListHistory(t *testing.T) {
	t.Parallel()

	repo := &testutil.MockHistoryRepo{}
	created := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	repo.Entries = append(repo.Entries, &domain.HistoryEntry{
		ID: "h1", Stream: "default", SQL: `select * from "default"`,
		EndTime: 2000, DurationMS: 12, Hits: 42, Status: "ok",
		CreatedAt: created,
	})

	srv := newTestServer(t, testBackend(), repo)
	resp, err := http.Get(srv.URL + "/api/v1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list historyListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "h1", list.Entries[0].ID)
	assert.Equal(t, "2026-08-30T09:00:00Z", list.Entries[0].CreatedAt)
	assert.Empty(t, list.NextPageToken)
}

func TestListHistory_FilterValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)

	for _, path := range []string{
		"/api/v1/history?status=pending",
		"/api/v1/history?from=yesterday",
		"/api/v1/history?max_results=-1",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestListHistory_FiltersPassedThrough(t *testing.T) {
	t.Parallel()

	var got domain.HistoryFilter
	repo := &testutil.MockHistoryRepo{
		ListFn: func(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error) {
			got = filter
			return nil, 0, nil
		},
	}

	srv := newTestServer(t, testBackend(), repo)
	resp, err := http.Get(srv.URL + "/api/v1/history?stream=nginx&status=error&max_results=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotNil(t, got.Stream)
	assert.Equal(t, "nginx", *got.Stream)
	require.NotNil(t, got.Status)
	assert.Equal(t, "error", *got.Status)
	assert.Equal(t, 10, got.Page.MaxResults)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testBackend(), nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
