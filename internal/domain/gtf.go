package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Query is a location and time at which to evaluate the transmission function.
type Query struct {
	Latitude   float64   `json:"latitude"`    // degrees, [-90, 90]
	Longitude  float64   `json:"longitude"`   // degrees, [-180, 360)
	AltitudeKm float64   `json:"altitude_km"` // above mean sea level
	Epoch      time.Time `json:"epoch"`
}

// Validate checks the query ranges and normalizes the longitude into
// (-180, 180].
func (q Query) Validate() (Query, error) {
	if !isFinite(q.Latitude) || q.Latitude < -90 || q.Latitude > 90 {
		return q, invalid("latitude", q.Latitude, "must be within [-90, 90]")
	}
	if !isFinite(q.Longitude) || q.Longitude < -180 || q.Longitude >= 360 {
		return q, invalid("longitude", q.Longitude, "must be within [-180, 360)")
	}
	if !isFinite(q.AltitudeKm) || q.AltitudeKm < 0 {
		return q, invalid("altitude_km", q.AltitudeKm, "must be finite and non-negative")
	}
	if q.Epoch.IsZero() {
		return q, invalid("epoch", q.Epoch, "must be set")
	}
	if q.Longitude > 180 {
		q.Longitude -= 360
	}
	q.Epoch = q.Epoch.UTC()
	return q, nil
}

// Result is the transmission function evaluated for one query.
type Result struct {
	Rigidity            Spectrum  `json:"rigidity"`     // GV
	Transmission        []float64 `json:"transmission"` // [0, 1], parallel to Rigidity
	CutoffRigidity      float64   `json:"cutoff_rigidity"`
	GeomagneticLatitude float64   `json:"geomagnetic_latitude"`
}

// Model holds the calibration of the cutoff and transmission stages.
type Model struct {
	StormerConstant float64 // K, GV
	Steepness       float64 // k, 1/GV
	Spectrum        Spectrum
}

// DefaultModel returns K = 14.9 GV, k = 1.2 /GV, and the default spectrum.
func DefaultModel() Model {
	return Model{
		StormerConstant: DefaultStormerConstant,
		Steepness:       DefaultSteepness,
		Spectrum:        DefaultSpectrum(),
	}
}

// Validate checks the calibration values.
func (m Model) Validate() error {
	if !isFinite(m.StormerConstant) || m.StormerConstant <= 0 {
		return invalid("stormer_constant", m.StormerConstant, "must be positive")
	}
	if !isFinite(m.Steepness) || m.Steepness <= 0 {
		return invalid("steepness", m.Steepness, "must be positive")
	}
	return m.Spectrum.Validate()
}

// Calculator chains field lookup, latitude estimation, cutoff rigidity, and
// the transmission curve. It holds no mutable state and is safe for
// concurrent use.
type Calculator struct {
	field FieldProvider
	model Model
}

// NewCalculator creates a Calculator backed by the given field provider.
func NewCalculator(field FieldProvider, model Model) (*Calculator, error) {
	if field == nil {
		return nil, fmt.Errorf("field provider is required")
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return &Calculator{field: field, model: model}, nil
}

// Model returns the calibration in use.
func (c *Calculator) Model() Model { return c.model }

// ComputeGTF evaluates the transmission function at the query's location and
// epoch. A nil spectrum selects the model's default grid. Inputs are validated
// before the field provider is called.
func (c *Calculator) ComputeGTF(ctx context.Context, q Query, spectrum Spectrum) (Result, error) {
	q, err := q.Validate()
	if err != nil {
		return Result{}, err
	}
	if spectrum == nil {
		spectrum = c.model.Spectrum
	}
	if err := spectrum.Validate(); err != nil {
		return Result{}, err
	}

	field, err := c.field.FieldAt(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("field at (%.4f, %.4f): %w: %w", q.Latitude, q.Longitude, ErrUpstreamUnavailable, err)
	}

	return c.evaluate(field, spectrum)
}

// Evaluate runs the computation stages on an already known field vector.
func (c *Calculator) Evaluate(field FieldVector, spectrum Spectrum) (Result, error) {
	if spectrum == nil {
		spectrum = c.model.Spectrum
	}
	if err := spectrum.Validate(); err != nil {
		return Result{}, err
	}
	return c.evaluate(field, spectrum)
}

func (c *Calculator) evaluate(field FieldVector, spectrum Spectrum) (Result, error) {
	lat, err := GeomagneticLatitude(field)
	if err != nil {
		return Result{}, err
	}

	rc, err := CutoffRigidity(lat, c.model.StormerConstant)
	if err != nil {
		return Result{}, err
	}
	if math.IsInf(rc, 0) {
		return Result{}, degenerate("cutoff rigidity", rc)
	}

	curve, err := TransmissionCurve(spectrum, rc, c.model.Steepness)
	if err != nil {
		return Result{}, err
	}

	rigidity := make(Spectrum, len(spectrum))
	copy(rigidity, spectrum)

	return Result{
		Rigidity:            rigidity,
		Transmission:        curve,
		CutoffRigidity:      rc,
		GeomagneticLatitude: lat,
	}, nil
}

// DecimalYear converts t to a fractional year, e.g. 2025-07-02T12:00Z ≈ 2025.5.
func DecimalYear(t time.Time) float64 {
	t = t.UTC()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + t.Sub(start).Seconds()/end.Sub(start).Seconds()
}
