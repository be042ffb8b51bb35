package gfz

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

var at = time.Date(2025, time.November, 12, 19, 45, 0, 0, time.UTC)

func testClient(baseURL string, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-11-12T18:00:00Z", r.URL.Query().Get("start"))
		assert.Equal(t, "2025-11-12T18:00:00Z", r.URL.Query().Get("end"))
		assert.Equal(t, "Kp", r.URL.Query().Get("index"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ActivityAt_Success(t *testing.T) {
	srv := serveJSON(t, `{"meta":{"source":"GFZ"},"datetime":["2025-11-12T18:00:00Z"],"Kp":[8.667]}`)

	metrics := observability.NewMetricsForTesting()
	kp, ok, err := testClient(srv.URL, metrics).ActivityAt(context.Background(), at)
	require.NoError(t, err)

	assert.True(t, ok)
	assert.Equal(t, 8.667, kp)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("kp", "success")), 0)
}

func TestClient_ActivityAt_PicksMatchingSlot(t *testing.T) {
	srv := serveJSON(t, `{"datetime":["2025-11-12T15:00:00Z","2025-11-12T18:00:00Z"],"Kp":[5.333,7.0]}`)

	kp, ok, err := testClient(srv.URL, observability.NewMetricsForTesting()).ActivityAt(context.Background(), at)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7.0, kp)
}

func TestClient_ActivityAt_DataArray(t *testing.T) {
	srv := serveJSON(t, `{"data":[{"value":2.333}]}`)

	kp, ok, err := testClient(srv.URL, observability.NewMetricsForTesting()).ActivityAt(context.Background(), at)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2.333, kp)
}

func TestClient_ActivityAt_Empty(t *testing.T) {
	srv := serveJSON(t, `{"datetime":[],"Kp":[]}`)

	metrics := observability.NewMetricsForTesting()
	_, ok, err := testClient(srv.URL, metrics).ActivityAt(context.Background(), at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("kp", "empty")), 0)
}

func TestClient_ActivityAt_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, ok, err := testClient(srv.URL, observability.NewMetricsForTesting()).ActivityAt(context.Background(), at)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ActivityAt_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	_, _, err := testClient(srv.URL, metrics).ActivityAt(context.Background(), at)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("kp", "error")), 0)
}

func TestClient_ActivityAt_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := testClient(srv.URL, observability.NewMetricsForTesting()).ActivityAt(ctx, at)
	require.Error(t, err)
}
