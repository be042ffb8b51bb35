//go:build igrf

package igrf

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

// These tests hit the real NCEI calculator.
// Run with: go test -tags=igrf ./internal/adapter/igrf/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("IGRF_API_KEY")
	if key == "" {
		key = "zNEw7"
	}
	return &Client{
		apiKey:     key,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_FieldAt_Boulder(t *testing.T) {
	c := smokeClient(t)

	v, err := c.FieldAt(context.Background(), boulder)
	require.NoError(t, err)

	assert.InDelta(t, 53000, v.Total(), 3000, "total field near Boulder")
	assert.Less(t, v.Up, 0.0, "field points down in the northern hemisphere")
	assert.InDelta(t, 67, -v.Inclination(), 3)
}

func TestSmoke_ComputeGTF(t *testing.T) {
	calc, err := domain.NewCalculator(NewCachedProvider(smokeClient(t), 10, observability.NewMetricsForTesting()), domain.DefaultModel())
	require.NoError(t, err)

	r, err := calc.ComputeGTF(context.Background(), boulder, nil)
	require.NoError(t, err)

	assert.Greater(t, r.CutoffRigidity, 1.0)
	assert.Less(t, r.CutoffRigidity, 4.0)
	assert.Len(t, r.Transmission, domain.DefaultSpectrumPoints)
}
