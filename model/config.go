package model

import (
	"fmt"

	"github.com/openradio/viskernel/beam"
	"github.com/openradio/viskernel/jones"
	"github.com/openradio/viskernel/sbf"
	"github.com/openradio/viskernel/sky"
)

// DataType represents the precision of the kernel arithmetic. Visibility
// storage is always single precision; DataType selects the type every
// intermediate (phase, envelope, accumulator) is computed in.
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
)

func (dt DataType) size() int64 {
	if dt == Float32 {
		return 4
	}
	return 8
}

// Config holds everything a modelling context needs that does not change
// between timesteps.
type Config struct {
	// UVWs is the baseline geometry in metres, one entry per baseline.
	UVWs []sky.UVW

	// Freqs is the channel frequencies in Hz.
	Freqs []float64

	// NumTiles is the antenna count behind the baselines. Required when Beam
	// is set (the beam tile map is indexed per antenna); otherwise optional.
	NumTiles int

	// FloatType selects the kernel precision. Zero value means Float64.
	FloatType DataType

	// Basis is the shapelet basis-function lookup table. Nil means the
	// standard table (sbf.New).
	Basis *sbf.Table

	// Beam is the primary-beam response to correct with. Nil skips beam
	// correction entirely and the raw sky Jones is accumulated.
	Beam *beam.Response

	// Vis is the host visibility buffer, one Jones per (baseline, freq) pair,
	// baseline-major. It is copied to the device at creation and is the
	// destination of every read-back. Nil allocates a zeroed buffer.
	Vis []jones.F32
}

// normalize applies defaults and validates counts. Both the device and host
// modellers go through here so they reject the same inputs.
func (cfg *Config) normalize() error {
	if len(cfg.UVWs) == 0 {
		return fmt.Errorf("%w: no baselines", ErrInvalidConfig)
	}
	if len(cfg.Freqs) == 0 {
		return fmt.Errorf("%w: no frequencies", ErrInvalidConfig)
	}
	if cfg.FloatType == 0 {
		cfg.FloatType = Float64
	}
	if cfg.FloatType != Float32 && cfg.FloatType != Float64 {
		return fmt.Errorf("%w: unknown float type %d", ErrInvalidConfig, cfg.FloatType)
	}
	if cfg.Basis == nil {
		cfg.Basis = sbf.New()
	}
	if cfg.NumTiles > 0 && len(cfg.UVWs) != sky.NumBaselines(cfg.NumTiles) {
		return fmt.Errorf("%w: %d tiles implies %d baselines, got %d",
			ErrInvalidConfig, cfg.NumTiles, sky.NumBaselines(cfg.NumTiles), len(cfg.UVWs))
	}
	if cfg.Beam != nil {
		if cfg.NumTiles == 0 {
			return fmt.Errorf("%w: beam correction requires NumTiles", ErrInvalidConfig)
		}
		if err := cfg.Beam.Validate(cfg.NumTiles, len(cfg.Freqs)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	numVis := len(cfg.UVWs) * len(cfg.Freqs)
	if cfg.Vis == nil {
		cfg.Vis = make([]jones.F32, numVis)
	} else if len(cfg.Vis) != numVis {
		return fmt.Errorf("%w: visibility buffer has %d entries, want %d",
			ErrInvalidConfig, len(cfg.Vis), numVis)
	}
	return nil
}
