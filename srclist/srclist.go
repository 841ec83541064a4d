// Package srclist reads sky-model source lists from YAML or JSON files and
// converts them into the component arrays the modeller consumes. Positions
// are stored in degrees and shape axes in arcseconds on disk, matching the
// usual catalogue conventions; everything is radians internally.
package srclist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type ComponentType string

const (
	TypePoint    ComponentType = "point"
	TypeGaussian ComponentType = "gaussian"
	TypeShapelet ComponentType = "shapelet"
)

// FluxDensity is a Stokes flux measurement [Jy] at one frequency.
type FluxDensity struct {
	FreqHz float64 `yaml:"freq_hz" json:"freq_hz"`
	I      float64 `yaml:"i" json:"i"`
	Q      float64 `yaml:"q,omitempty" json:"q,omitempty"`
	U      float64 `yaml:"u,omitempty" json:"u,omitempty"`
	V      float64 `yaml:"v,omitempty" json:"v,omitempty"`
}

// PowerLaw scales a reference flux density by (f/f0)^SI.
type PowerLaw struct {
	SI float64     `yaml:"si" json:"si"`
	FD FluxDensity `yaml:"fd" json:"fd"`
}

// Coeff is one shapelet basis coefficient.
type Coeff struct {
	N1    int     `yaml:"n1" json:"n1"`
	N2    int     `yaml:"n2" json:"n2"`
	Value float64 `yaml:"value" json:"value"`
}

// Component is one catalogue component of a source.
type Component struct {
	RADeg  float64       `yaml:"ra_deg" json:"ra_deg"`
	DecDeg float64       `yaml:"dec_deg" json:"dec_deg"`
	Type   ComponentType `yaml:"type" json:"type"`

	// Shape parameters, used by gaussian and shapelet components.
	MajArcsec float64 `yaml:"maj_arcsec,omitempty" json:"maj_arcsec,omitempty"`
	MinArcsec float64 `yaml:"min_arcsec,omitempty" json:"min_arcsec,omitempty"`
	PADeg     float64 `yaml:"pa_deg,omitempty" json:"pa_deg,omitempty"`

	Coeffs []Coeff `yaml:"shapelet_coeffs,omitempty" json:"shapelet_coeffs,omitempty"`

	// Exactly one of FluxList and PowerLaw must be set.
	FluxList []FluxDensity `yaml:"flux,omitempty" json:"flux,omitempty"`
	PowerLaw *PowerLaw     `yaml:"power_law,omitempty" json:"power_law,omitempty"`
}

// Source groups the components that share a catalogue name.
type Source struct {
	Name       string      `yaml:"name" json:"name"`
	Components []Component `yaml:"components" json:"components"`
}

type SourceList []Source

// ReadYAML parses a YAML source list.
func ReadYAML(r io.Reader) (SourceList, error) {
	var sl SourceList
	if err := yaml.NewDecoder(r).Decode(&sl); err != nil {
		return nil, fmt.Errorf("decoding yaml source list: %w", err)
	}
	return sl, sl.validate()
}

// ReadJSON parses a JSON source list.
func ReadJSON(r io.Reader) (SourceList, error) {
	var sl SourceList
	if err := json.NewDecoder(r).Decode(&sl); err != nil {
		return nil, fmt.Errorf("decoding json source list: %w", err)
	}
	return sl, sl.validate()
}

// ReadFile dispatches on the file extension: .yaml/.yml or .json.
func ReadFile(path string) (SourceList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(f)
	case ".json":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("source list %s: unrecognized extension", path)
	}
}

func (sl SourceList) validate() error {
	for _, src := range sl {
		if len(src.Components) == 0 {
			return fmt.Errorf("source %q has no components", src.Name)
		}
		for i, c := range src.Components {
			switch c.Type {
			case TypePoint, TypeGaussian:
			case TypeShapelet:
				if len(c.Coeffs) == 0 {
					return fmt.Errorf("source %q component %d: shapelet without coefficients", src.Name, i)
				}
			default:
				return fmt.Errorf("source %q component %d: unknown type %q", src.Name, i, c.Type)
			}
			if (len(c.FluxList) == 0) == (c.PowerLaw == nil) {
				return fmt.Errorf("source %q component %d: need exactly one of flux list and power law", src.Name, i)
			}
		}
	}
	return nil
}

// NumComponents counts components of every type across the list.
func (sl SourceList) NumComponents() int {
	n := 0
	for _, src := range sl {
		n += len(src.Components)
	}
	return n
}
