package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugVarsExposesCounters(t *testing.T) {
	OrdersSigned.Add(1)
	ConnectionState.Set("ready")

	srv := httptest.NewServer(newRouter(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/debug/vars")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var vars map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vars))
	assert.Contains(t, vars, "aevo_orders_signed")
	assert.Equal(t, "ready", vars["aevo_ws_state"])
}

func TestStatusAndHealth(t *testing.T) {
	srv := httptest.NewServer(newRouter(func() any {
		return map[string]string{"state": "authenticating", "session_id": "s-1"}
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "authenticating", status["state"])
	assert.Equal(t, "s-1", status["session_id"])
}

func TestStatusDefaultsToConnectionState(t *testing.T) {
	ConnectionState.Set("disconnected")
	srv := httptest.NewServer(newRouter(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "disconnected", status["state"])
}

func TestStartAsyncStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := StartAsync(ctx, "127.0.0.1:0", nil)
	require.NoError(t, err)
	require.NotNil(t, s)

	resp, err := http.Get("http://" + s.Addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cancel()
}
