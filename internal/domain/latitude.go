package domain

import "math"

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// GeomagneticLatitude estimates the dip latitude in degrees from a local field
// vector using the dipole relation tan(I) = 2·tan(λ), where I is the
// inclination returned by FieldVector.Inclination.
//
// λ = atan(0.5·tan(I)) is evaluated as atan2(up, 2·H), which is the same angle
// without passing through tan(±90°). A vector with no horizontal component
// therefore maps to exactly ±90°.
func GeomagneticLatitude(v FieldVector) (float64, error) {
	if err := v.Validate(); err != nil {
		return 0, err
	}

	lat := math.Atan2(v.Up, 2*v.Horizontal()) * rad2deg
	if !isFinite(lat) {
		return 0, degenerate("geomagnetic latitude", lat)
	}
	return lat, nil
}
