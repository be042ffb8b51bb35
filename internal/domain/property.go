package domain

import (
	"fmt"
	"strings"
)

// Property is a scalar quantity that can be read off a Result and its field
// vector for display.
type Property int

const (
	PropCutoffRigidity Property = iota
	PropGeomagneticLatitude
	PropInclination
	PropDeclination
	PropTotalIntensity
	PropHorizontalIntensity
)

type propertyInfo struct {
	key   string
	label string
	unit  string
}

var properties = [...]propertyInfo{
	PropCutoffRigidity:      {"cutoff_rigidity", "Cutoff Rigidity", "GV"},
	PropGeomagneticLatitude: {"geomagnetic_latitude", "Geomagnetic Latitude", "deg"},
	PropInclination:         {"inclination", "Inclination", "deg"},
	PropDeclination:         {"declination", "Declination", "deg"},
	PropTotalIntensity:      {"total_intensity", "Total Intensity", "nT"},
	PropHorizontalIntensity: {"horizontal_intensity", "Horizontal Intensity", "nT"},
}

// Properties lists every Property in display order.
func Properties() []Property {
	out := make([]Property, len(properties))
	for i := range properties {
		out[i] = Property(i)
	}
	return out
}

// ParseProperty resolves a property from its key, e.g. "cutoff_rigidity".
func ParseProperty(key string) (Property, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i, p := range properties {
		if p.key == key {
			return Property(i), nil
		}
	}
	return 0, invalid("property", key, "unknown property")
}

func (p Property) valid() bool { return p >= 0 && int(p) < len(properties) }

// Key returns the machine-readable name.
func (p Property) Key() string {
	if !p.valid() {
		return fmt.Sprintf("property(%d)", int(p))
	}
	return properties[p].key
}

// Label returns the display name.
func (p Property) Label() string {
	if !p.valid() {
		return p.Key()
	}
	return properties[p].label
}

// Unit returns the display unit.
func (p Property) Unit() string {
	if !p.valid() {
		return ""
	}
	return properties[p].unit
}

func (p Property) String() string { return p.Key() }

// Value reads the property from a result and the field vector it was computed
// from.
func (p Property) Value(r Result, field FieldVector) float64 {
	switch p {
	case PropCutoffRigidity:
		return r.CutoffRigidity
	case PropGeomagneticLatitude:
		return r.GeomagneticLatitude
	case PropInclination:
		return field.Inclination()
	case PropDeclination:
		return field.Declination()
	case PropTotalIntensity:
		return field.Total()
	case PropHorizontalIntensity:
		return field.Horizontal()
	default:
		panic(fmt.Sprintf("domain: unhandled property %d", int(p)))
	}
}
