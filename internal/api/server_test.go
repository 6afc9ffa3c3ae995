package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/report"
)

type staticProgress struct {
	progress report.Progress
}

func (s staticProgress) Snapshot() report.Progress {
	return s.progress
}

func newTestServer(t *testing.T, progress ProgressSource) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(progress, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestServer_Progress(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	srv := newTestServer(t, staticProgress{progress: report.Progress{
		RunID:     runID,
		Total:     10,
		Processed: 4,
		Succeeded: 3,
		Failed:    1,
	}})

	resp, err := http.Get(srv.URL + "/v1/progress")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got report.Progress
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, runID, got.RunID)
	require.Equal(t, 4, got.Processed)
	require.Equal(t, 3, got.Succeeded)
	require.Equal(t, 1, got.Failed)
}

func TestServer_ProgressUnavailableWithoutRun(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/v1/progress")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, body)
}

func TestServer_UnknownRouteIs404(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/v1/unknown")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
