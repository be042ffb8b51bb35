package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSpectrum(t *testing.T) {
	s := DefaultSpectrum()

	require.Len(t, s, 200)
	assert.Equal(t, 0.0, s[0])
	assert.Equal(t, 20.0, s[199])
	assert.InDelta(t, 20.0/199.0, s[1], 1e-15)
	require.NoError(t, s.Validate())
}

func TestLinspace_Invalid(t *testing.T) {
	_, err := Linspace(0, 20, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Linspace(5, 5, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Linspace(0, math.Inf(1), 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransmission_Midpoint(t *testing.T) {
	for _, rc := range []float64{0, 1.78, 3.725, 14.9} {
		for _, k := range []float64{0.1, 1.2, 6.67, 100} {
			assert.Equal(t, 0.5, Transmission(rc, rc, k), "rc=%v k=%v", rc, k)
		}
	}
}

func TestTransmission_ReferenceScenario(t *testing.T) {
	const rc, k = 1.78, DefaultSteepness

	assert.InDelta(t, 0.5, Transmission(1.78, rc, k), 1e-9)

	// T(0) = 1/(1 + e^{2.136}) ≈ 0.1058
	t0 := Transmission(0, rc, k)
	assert.InDelta(t, 1/(1+math.Exp(k*rc)), t0, 1e-15)
	assert.Less(t, t0, 0.11)
	assert.Greater(t, Transmission(20, rc, k), 0.99)
}

func TestTransmission_Saturation(t *testing.T) {
	const rc, k = 5.0, DefaultSteepness

	// Beyond |k(R-Rc)| ≈ 37 the logistic is within float64 epsilon of its limits.
	assert.Equal(t, 1.0, Transmission(rc+40/k, rc, k))
	assert.InDelta(t, 0.0, Transmission(rc-40/k, rc, k), 1e-16)

	for _, r := range []float64{-1e308, -1e6, 1e6, 1e308} {
		v := Transmission(r, rc, k)
		assert.False(t, math.IsNaN(v), "r=%v", r)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestTransmissionCurve_Monotonic(t *testing.T) {
	spectrum := DefaultSpectrum()
	for _, rc := range []float64{0, 0.5, 1.78, 7.9, 14.9} {
		for _, k := range []float64{0.3, 1.2, 6.67, 50} {
			curve, err := TransmissionCurve(spectrum, rc, k)
			require.NoError(t, err)
			require.Len(t, curve, len(spectrum))

			for i, v := range curve {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
				if i > 0 {
					assert.GreaterOrEqual(t, v, curve[i-1], "rc=%v k=%v i=%d", rc, k, i)
				}
			}
		}
	}
}

func TestTransmissionCurve_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		spectrum Spectrum
		rc, k    float64
		field    string
	}{
		{"nil spectrum", nil, 1, 1, "spectrum"},
		{"decreasing spectrum", Spectrum{3, 2}, 1, 1, "spectrum[1]"},
		{"negative rc", Spectrum{1, 2}, -0.1, 1, "cutoff_rigidity"},
		{"NaN rc", Spectrum{1, 2}, math.NaN(), 1, "cutoff_rigidity"},
		{"zero steepness", Spectrum{1, 2}, 1, 0, "steepness"},
		{"negative steepness", Spectrum{1, 2}, 1, -1.2, "steepness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TransmissionCurve(tt.spectrum, tt.rc, tt.k)
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestSteepnessFromWidth_MatchesTanhForm(t *testing.T) {
	const rc, width = 4.2, 0.3

	k, err := SteepnessFromWidth(width)
	require.NoError(t, err)
	assert.InDelta(t, 2/0.3, k, 1e-12)

	for r := 0.0; r <= 10; r += 0.1 {
		tanhForm := 0.5 * (1 + math.Tanh((r-rc)/width))
		assert.InDelta(t, tanhForm, Transmission(r, rc, k), 1e-12, "r=%v", r)
	}

	_, err = SteepnessFromWidth(0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
