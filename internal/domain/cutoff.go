package domain

import "math"

const (
	// DefaultStormerConstant is the vertical cutoff rigidity at the
	// geomagnetic equator, GV. Published values range from about 14.5 to
	// 14.9 depending on the dipole moment epoch assumed.
	DefaultStormerConstant = 14.9

	// LegacyStormerConstant reproduces results computed with the older
	// calibration.
	LegacyStormerConstant = 14.5
)

// CutoffRigidity returns the vertical cutoff rigidity Rc in GV at geomagnetic
// latitude latDeg using the Störmer approximation Rc = k·cos⁴(λ).
//
// The result is in [0, k] and symmetric in latDeg.
func CutoffRigidity(latDeg, k float64) (float64, error) {
	if !isFinite(latDeg) || latDeg < -90 || latDeg > 90 {
		return 0, invalid("geomagnetic_latitude", latDeg, "must be within [-90, 90]")
	}
	if !isFinite(k) || k <= 0 {
		return 0, invalid("stormer_constant", k, "must be positive")
	}

	c := math.Cos(latDeg * deg2rad)
	c2 := c * c
	rc := k * c2 * c2
	if math.IsNaN(rc) {
		return 0, degenerate("cutoff rigidity", rc)
	}
	// cos(±π/2) is a tiny negative/positive number in floating point.
	if rc < 0 {
		rc = 0
	}
	return rc, nil
}
