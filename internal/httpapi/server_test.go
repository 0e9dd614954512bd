package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/qforge/internal/replay"
	"github.com/qforge/qforge/internal/trainer"
)

type stubBuffer struct {
	stats replay.Stats
}

func (s stubBuffer) Stats() replay.Stats { return s.stats }

type stubStatus struct {
	status trainer.Status
}

func (s stubStatus) Status() trainer.Status { return s.status }

func newTestServer() *httptest.Server {
	srv := NewServer(
		stubBuffer{stats: replay.Stats{Size: 12, Capacity: 100, Pushes: 40, Evictions: 0, MaxPriority: 2.5}},
		stubStatus{status: trainer.Status{RunID: "run-1", Episode: 3, TotalSteps: 120, Epsilon: 0.4, Running: true}},
		zerolog.Nop(),
	)
	return httptest.NewServer(srv.Routes())
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServer_Stats(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats replay.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 12, stats.Size)
	assert.Equal(t, 100, stats.Capacity)
	assert.Equal(t, 2.5, stats.MaxPriority)
}

func TestServer_Status(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status trainer.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "run-1", status.RunID)
	assert.Equal(t, 3, status.Episode)
	assert.Equal(t, 120, status.TotalSteps)
	assert.True(t, status.Running)
}

func TestServer_CorrelationID(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Correlation-ID", "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "abc-123", resp2.Header.Get("X-Correlation-ID"))
}

func TestServer_UnknownRoute(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
