package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seanmckenzie/voicebridge/pkg/ledger"
)

func newTestServer(t *testing.T) (*Server, *ledger.Ledger) {
	t.Helper()
	l := ledger.New()
	return NewServer("0", l, nil), l
}

func TestRootReturnsOK(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body [2]byte
	n, _ := resp.Body.Read(body[:])
	require.Equal(t, "OK", string(body[:n]))
}

func TestStatsReturnsSnapshot(t *testing.T) {
	s, l := newTestServer(t)
	l.Add(ledger.CounterChatInputTokens, 42)
	l.Add(ledger.CounterSTTRequests, 3)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/stats", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var snap map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.EqualValues(t, 42, snap[ledger.CounterChatInputTokens])
	require.EqualValues(t, 3, snap[ledger.CounterSTTRequests])
	require.Contains(t, snap, "session_start_time")
	require.Contains(t, snap, "current_time")
}

func TestUnknownPathIs404(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/reset", "/stats/reset", "/admin"} {
		resp, err := s.app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestWritesAreNotRouted(t *testing.T) {
	s, _ := newTestServer(t)

	for _, method := range []string{"POST", "PUT", "DELETE"} {
		resp, err := s.app.Test(httptest.NewRequest(method, "/stats", nil))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, method)
	}
}

func TestWSUpgradeRequired(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/ws/stats", nil))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
