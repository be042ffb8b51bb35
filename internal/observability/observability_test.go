package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("computed", "cutoff_rigidity", 1.78)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "computed", line["msg"])
	assert.Equal(t, "gtf", line["service"])
	assert.Equal(t, 1.78, line["cutoff_rigidity"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "TEXT")

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ComputeErrors.WithLabelValues("invalid_input").Inc()
	a.Assessments.WithLabelValues("Severe").Add(2)

	assert.InDelta(t, 1, testutil.ToFloat64(a.ComputeErrors.WithLabelValues("invalid_input")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(a.Assessments.WithLabelValues("Severe")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.Assessments.WithLabelValues("Severe")), 0)
}
