package srclist

import (
	"fmt"
	"math"
	"sort"

	"github.com/openradio/viskernel/jones"
	"github.com/openradio/viskernel/sky"
)

const (
	degToRad    = math.Pi / 180
	arcsecToRad = degToRad / 3600

	// Spectral index assumed when a component carries a single flux
	// measurement and no explicit power law.
	defaultSpecIndex = -0.8
)

// PhaseCentre is the direction visibilities are phased to [radians].
type PhaseCentre struct {
	RA, Dec float64
}

// LMN returns the direction cosines of (ra, dec) [radians] relative to the
// phase centre.
func (pc PhaseCentre) LMN(ra, dec float64) sky.LMN {
	dra := ra - pc.RA
	sinDec, cosDec := math.Sincos(dec)
	sinDec0, cosDec0 := math.Sincos(pc.Dec)
	sinDra, cosDra := math.Sincos(dra)
	return sky.LMN{
		L: cosDec * sinDra,
		M: sinDec*cosDec0 - cosDec*sinDec0*cosDra,
		N: sinDec*sinDec0 + cosDec*cosDec0*cosDra,
	}
}

// Instrumental converts a Stokes flux density to the linear-polarization
// Jones matrix: XX = I+Q, XY = U+iV, YX = U-iV, YY = I-Q.
func (fd FluxDensity) Instrumental() jones.F64 {
	return jones.F64{
		J00: complex(fd.I+fd.Q, 0),
		J01: complex(fd.U, fd.V),
		J10: complex(fd.U, -fd.V),
		J11: complex(fd.I-fd.Q, 0),
	}
}

// At evaluates the component's flux density at freq [Hz]. Power-law
// components scale their reference measurement; flux lists are linearly
// interpolated per Stokes parameter and clamped at the ends. A single-entry
// list behaves as a power law with the default spectral index.
func (c Component) At(freq float64) FluxDensity {
	if c.PowerLaw != nil {
		return c.PowerLaw.at(freq)
	}
	list := c.FluxList
	if len(list) == 1 {
		pl := PowerLaw{SI: defaultSpecIndex, FD: list[0]}
		return pl.at(freq)
	}

	i := sort.Search(len(list), func(i int) bool { return list[i].FreqHz >= freq })
	if i == 0 {
		return withFreq(list[0], freq)
	}
	if i == len(list) {
		return withFreq(list[len(list)-1], freq)
	}
	lo, hi := list[i-1], list[i]
	t := (freq - lo.FreqHz) / (hi.FreqHz - lo.FreqHz)
	return FluxDensity{
		FreqHz: freq,
		I:      lo.I + t*(hi.I-lo.I),
		Q:      lo.Q + t*(hi.Q-lo.Q),
		U:      lo.U + t*(hi.U-lo.U),
		V:      lo.V + t*(hi.V-lo.V),
	}
}

func (pl PowerLaw) at(freq float64) FluxDensity {
	ratio := math.Pow(freq/pl.FD.FreqHz, pl.SI)
	return FluxDensity{
		FreqHz: freq,
		I:      pl.FD.I * ratio,
		Q:      pl.FD.Q * ratio,
		U:      pl.FD.U * ratio,
		V:      pl.FD.V * ratio,
	}
}

func withFreq(fd FluxDensity, freq float64) FluxDensity {
	fd.FreqHz = freq
	return fd
}

// SkyComponents splits the source list per component type and evaluates every
// flux at every frequency, producing the arrays the modeller takes. Shapelet
// UV coordinates are filled with the baselines' (u, v); callers with real
// array geometry can overwrite them with properly rotated per-component
// values before modelling.
func (sl SourceList) SkyComponents(phase PhaseCentre, freqs []float64, uvws []sky.UVW) (sky.Components, error) {
	var points, gaussians, shapelets []Component
	for _, src := range sl {
		for _, c := range src.Components {
			switch c.Type {
			case TypePoint:
				points = append(points, c)
			case TypeGaussian:
				gaussians = append(gaussians, c)
			case TypeShapelet:
				shapelets = append(shapelets, c)
			default:
				return sky.Components{}, fmt.Errorf("source %q: unknown component type %q", src.Name, c.Type)
			}
		}
	}

	var out sky.Components
	out.Points = sky.PointComponents{
		LMNs:      lmns(points, phase),
		FluxJones: fluxes(points, freqs),
	}
	out.Gaussians = sky.GaussianComponents{
		LMNs:      lmns(gaussians, phase),
		FluxJones: fluxes(gaussians, freqs),
		Params:    shapes(gaussians),
	}

	scoeffs := make([][]sky.ShapeletCoeff, len(shapelets))
	for i, c := range shapelets {
		for _, co := range c.Coeffs {
			scoeffs[i] = append(scoeffs[i], sky.ShapeletCoeff{N1: co.N1, N2: co.N2, Value: co.Value})
		}
	}
	flat, counts := sky.FlattenCoeffs(scoeffs)

	uvs := make([]sky.ShapeletUV, 0, len(uvws)*len(shapelets))
	for _, uvw := range uvws {
		for range shapelets {
			uvs = append(uvs, sky.ShapeletUV{U: uvw.U, V: uvw.V})
		}
	}

	out.Shapelets = sky.ShapeletComponents{
		LMNs:        lmns(shapelets, phase),
		FluxJones:   fluxes(shapelets, freqs),
		Params:      shapes(shapelets),
		UVs:         uvs,
		Coeffs:      flat,
		CoeffCounts: counts,
	}
	return out, nil
}

func lmns(comps []Component, phase PhaseCentre) []sky.LMN {
	out := make([]sky.LMN, len(comps))
	for i, c := range comps {
		out[i] = phase.LMN(c.RADeg*degToRad, c.DecDeg*degToRad)
	}
	return out
}

// fluxes lays the per-frequency Jones matrices out freq-major, the layout
// the kernels index by.
func fluxes(comps []Component, freqs []float64) []jones.F64 {
	out := make([]jones.F64, 0, len(freqs)*len(comps))
	for _, f := range freqs {
		for _, c := range comps {
			out = append(out, c.At(f).Instrumental())
		}
	}
	return out
}

func shapes(comps []Component) []sky.GaussianParams {
	out := make([]sky.GaussianParams, len(comps))
	for i, c := range comps {
		out[i] = sky.GaussianParams{
			Maj: c.MajArcsec * arcsecToRad,
			Min: c.MinArcsec * arcsecToRad,
			PA:  c.PADeg * degToRad,
		}
	}
	return out
}
