package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
)

var validate = validator.New()

// ModelFile is the on-disk calibration of the transmission model.
type ModelFile struct {
	StormerConstant float64      `yaml:"stormer_constant" default:"14.9" validate:"gt=0"`
	Steepness       float64      `yaml:"steepness" default:"1.2" validate:"gt=0"`
	Spectrum        SpectrumFile `yaml:"spectrum"`
}

// SpectrumFile describes an evenly spaced rigidity grid.
type SpectrumFile struct {
	Min    float64 `yaml:"min" default:"0" validate:"gte=0"`
	Max    float64 `yaml:"max" default:"20" validate:"gtfield=Min"`
	Points int     `yaml:"points" default:"200" validate:"gte=2,lte=100000"`
}

// LoadModel returns the model described by the YAML file at path, or the
// default model when path is empty. Keys missing from the file keep their
// defaults.
func LoadModel(path string) (domain.Model, error) {
	if path == "" {
		return domain.DefaultModel(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Model{}, fmt.Errorf("read model config: %w", err)
	}
	return ParseModel(b)
}

// ParseModel decodes a YAML model calibration.
func ParseModel(b []byte) (domain.Model, error) {
	var f ModelFile
	if err := defaults.Set(&f); err != nil {
		return domain.Model{}, fmt.Errorf("model defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return domain.Model{}, fmt.Errorf("parse model config: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return domain.Model{}, fmt.Errorf("validate model config: %w", err)
	}

	spectrum, err := domain.Linspace(f.Spectrum.Min, f.Spectrum.Max, f.Spectrum.Points)
	if err != nil {
		return domain.Model{}, fmt.Errorf("model spectrum: %w", err)
	}
	m := domain.Model{
		StormerConstant: f.StormerConstant,
		Steepness:       f.Steepness,
		Spectrum:        spectrum,
	}
	if err := m.Validate(); err != nil {
		return domain.Model{}, fmt.Errorf("validate model config: %w", err)
	}
	return m, nil
}
