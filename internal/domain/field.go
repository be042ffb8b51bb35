package domain

import (
	"context"
	"math"
)

// FieldVector is the local geomagnetic field in East-North-Up components,
// nanotesla.
type FieldVector struct {
	East  float64 `json:"east_nt"`
	North float64 `json:"north_nt"`
	Up    float64 `json:"up_nt"`
}

// FieldProvider evaluates a geomagnetic reference field model (IGRF) at the
// location and epoch of a query.
type FieldProvider interface {
	FieldAt(ctx context.Context, q Query) (FieldVector, error)
}

// FieldProviderFunc adapts a function to FieldProvider.
type FieldProviderFunc func(ctx context.Context, q Query) (FieldVector, error)

func (f FieldProviderFunc) FieldAt(ctx context.Context, q Query) (FieldVector, error) {
	return f(ctx, q)
}

// StaticField is a FieldProvider that returns the same vector for every query.
// Used when the field is known from a measurement.
type StaticField FieldVector

func (s StaticField) FieldAt(_ context.Context, _ Query) (FieldVector, error) {
	return FieldVector(s), nil
}

// Horizontal returns the horizontal intensity H in nT.
func (v FieldVector) Horizontal() float64 {
	return math.Hypot(v.East, v.North)
}

// Total returns the total intensity F in nT.
func (v FieldVector) Total() float64 {
	return math.Sqrt(v.East*v.East + v.North*v.North + v.Up*v.Up)
}

// Inclination returns the angle of the field above the horizontal plane in
// degrees, positive toward Up. Range [-90, 90].
func (v FieldVector) Inclination() float64 {
	return math.Atan2(v.Up, v.Horizontal()) * rad2deg
}

// Declination returns the angle of the horizontal component east of
// geographic north in degrees. Range (-180, 180].
func (v FieldVector) Declination() float64 {
	return math.Atan2(v.East, v.North) * rad2deg
}

// Validate reports the first non-finite component.
func (v FieldVector) Validate() error {
	for _, c := range []struct {
		name string
		val  float64
	}{
		{"field.east", v.East},
		{"field.north", v.North},
		{"field.up", v.Up},
	} {
		if !isFinite(c.val) {
			return invalid(c.name, c.val, "must be finite")
		}
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
