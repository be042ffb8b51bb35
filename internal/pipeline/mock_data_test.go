package pipeline_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/pipeline"
)

// mockFixture mirrors the entries written by cmd/genmock.
type mockFixture struct {
	Site          string              `json:"site"`
	Field         domain.FieldVector  `json:"field"`
	Message       domain.QueryMessage `json:"message"`
	ExpectedLevel domain.Level        `json:"expected_level"`
}

func TestQueryTransformer_WithMockJSONData(t *testing.T) {
	fixtures := readFixtures(t)
	require.Len(t, fixtures, 10)

	fields := make(map[string]domain.FieldVector, len(fixtures))
	for _, f := range fixtures {
		q, err := f.Message.Query().Validate()
		require.NoError(t, err, f.Site)
		fields[siteKey(q)] = f.Field
	}
	provider := domain.FieldProviderFunc(func(_ context.Context, q domain.Query) (domain.FieldVector, error) {
		v, ok := fields[siteKey(q)]
		if !ok {
			return domain.FieldVector{}, fmt.Errorf("no stored field for %s", siteKey(q))
		}
		return v, nil
	})

	tfm := pipeline.NewTransformer(newTestAssessor(t, provider, nil), discardLogger())

	for _, f := range fixtures {
		t.Run(f.Site, func(t *testing.T) {
			raw, err := json.Marshal(f.Message)
			require.NoError(t, err)

			out, err := tfm.Transform(context.Background(), domain.RawEvent{Value: raw})
			require.NoError(t, err)
			assert.Equal(t, []byte(f.Message.ID), out.Key)
			assert.Equal(t, f.ExpectedLevel.String(), out.Headers["level"])

			var a domain.Assessment
			require.NoError(t, json.Unmarshal(out.Value, &a))
			assertInvariants(t, a)

			if f.Message.Kp == nil {
				assert.Equal(t, domain.KpSourceFallback, a.Activity.Source)
			} else {
				assert.Equal(t, *f.Message.Kp, a.Activity.Kp)
			}
			assert.LessOrEqual(t, a.Query.Longitude, 180.0)
		})
	}
}

func assertInvariants(t *testing.T, a domain.Assessment) {
	t.Helper()
	r := a.Result

	assert.GreaterOrEqual(t, r.GeomagneticLatitude, -90.0)
	assert.LessOrEqual(t, r.GeomagneticLatitude, 90.0)
	assert.GreaterOrEqual(t, r.CutoffRigidity, 0.0)
	assert.LessOrEqual(t, r.CutoffRigidity, domain.DefaultStormerConstant)
	require.Len(t, r.Transmission, len(r.Rigidity))

	for i, v := range r.Transmission {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, v, r.Transmission[i-1])
		}
	}
	assert.Equal(t, domain.ClassifyEnvironment(r.CutoffRigidity, a.Activity.Kp), a.Level)
}

func siteKey(q domain.Query) string {
	return fmt.Sprintf("%.4f,%.4f", q.Latitude, q.Longitude)
}

func readFixtures(t *testing.T) []mockFixture {
	t.Helper()
	path := filepath.Join("..", "..", "data", "mock", "gtf_queries.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fixtures []mockFixture
	require.NoError(t, json.Unmarshal(data, &fixtures))
	return fixtures
}
