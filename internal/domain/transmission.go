package domain

import (
	"fmt"
	"math"
)

const (
	// DefaultSteepness is the logistic slope k of the transmission curve, 1/GV.
	DefaultSteepness = 1.2

	// DefaultSpectrumMax is the upper end of the default rigidity grid, GV.
	DefaultSpectrumMax = 20.0

	// DefaultSpectrumPoints is the sample count of the default rigidity grid.
	DefaultSpectrumPoints = 200
)

// Spectrum is an ordered set of rigidity sample points in GV.
type Spectrum []float64

// DefaultSpectrum returns 200 evenly spaced points from 0 to 20 GV inclusive.
func DefaultSpectrum() Spectrum {
	s, _ := Linspace(0, DefaultSpectrumMax, DefaultSpectrumPoints)
	return s
}

// Linspace returns n evenly spaced points from lo to hi inclusive.
func Linspace(lo, hi float64, n int) (Spectrum, error) {
	if n < 2 {
		return nil, invalid("spectrum.points", n, "must be at least 2")
	}
	if !isFinite(lo) || !isFinite(hi) || hi <= lo {
		return nil, invalid("spectrum.range", fmt.Sprintf("[%g, %g]", lo, hi), "must be a finite increasing range")
	}

	s := make(Spectrum, n)
	step := (hi - lo) / float64(n-1)
	for i := range s {
		s[i] = lo + float64(i)*step
	}
	// Pin the endpoint so accumulated rounding never overshoots hi.
	s[n-1] = hi
	return s, nil
}

// Validate checks that the spectrum is non-empty, finite, and strictly
// increasing.
func (s Spectrum) Validate() error {
	if len(s) == 0 {
		return invalid("spectrum", len(s), "must not be empty")
	}
	for i, r := range s {
		if !isFinite(r) {
			return invalid(fmt.Sprintf("spectrum[%d]", i), r, "must be finite")
		}
		if i > 0 && r <= s[i-1] {
			return invalid(fmt.Sprintf("spectrum[%d]", i), r, "must be strictly increasing")
		}
	}
	return nil
}

// Transmission evaluates the logistic transmission function
//
//	T(R) = 1 / (1 + exp(-k·(R - Rc)))
//
// branching on the sign of the exponent so neither branch can overflow.
// T(Rc) is exactly 0.5.
func Transmission(r, rc, k float64) float64 {
	x := k * (r - rc)
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// TransmissionCurve evaluates Transmission at every point of the spectrum.
func TransmissionCurve(s Spectrum, rc, k float64) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !isFinite(rc) || rc < 0 {
		return nil, invalid("cutoff_rigidity", rc, "must be finite and non-negative")
	}
	if !isFinite(k) || k <= 0 {
		return nil, invalid("steepness", k, "must be positive")
	}

	curve := make([]float64, len(s))
	for i, r := range s {
		t := Transmission(r, rc, k)
		if math.IsNaN(t) {
			return nil, degenerate("transmission", t)
		}
		curve[i] = t
	}
	return curve, nil
}

// SteepnessFromWidth maps the transition width ΔR of the hyperbolic-tangent
// form 0.5·(1 + tanh((R - Rc)/ΔR)) onto the logistic slope. The two forms are
// identical for k = 2/ΔR.
func SteepnessFromWidth(width float64) (float64, error) {
	if !isFinite(width) || width <= 0 {
		return 0, invalid("transition_width", width, "must be positive")
	}
	return 2 / width, nil
}
