package model

import (
	"fmt"
	"math"

	"github.com/openradio/viskernel/beam"
	"github.com/openradio/viskernel/jones"
	"github.com/openradio/viskernel/sbf"
	"github.com/openradio/viskernel/sky"
)

// HostModeller is the pure-Go reference implementation of SkyModeller. It
// evaluates the same equations as the device kernels, in the same order:
// double-precision accumulation per cell, beam correction once per cell,
// then a single truncating add into the single-precision buffer. Useful for
// verifying device output and for running without any OCCA backend.
type HostModeller struct {
	NumBaselines int
	NumFreqs     int
	NumTiles     int

	uvws  []sky.UVW
	freqs []float64
	basis *sbf.Table
	beam  *beam.Response

	ant1, ant2 []int32
	vis        []jones.F32
}

var _ SkyModeller = (*HostModeller)(nil)

// NewHostModeller validates cfg exactly as NewDeviceContext does. FloatType
// is accepted but ignored: the host path always accumulates in float64.
func NewHostModeller(cfg Config) (*HostModeller, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	hm := &HostModeller{
		NumBaselines: len(cfg.UVWs),
		NumFreqs:     len(cfg.Freqs),
		NumTiles:     cfg.NumTiles,
		uvws:         cfg.UVWs,
		freqs:        cfg.Freqs,
		basis:        cfg.Basis,
		beam:         cfg.Beam,
		vis:          cfg.Vis,
	}
	if hm.NumTiles > 0 {
		hm.ant1, hm.ant2 = sky.BaselineAntennas(hm.NumTiles)
	}
	return hm, nil
}

// ClearVis zero-fills the visibility buffer.
func (hm *HostModeller) ClearVis() error {
	for i := range hm.vis {
		hm.vis[i] = jones.F32{}
	}
	return nil
}

// forEachCell walks the (baseline, frequency) grid, hands the scaled UVW to
// eval to produce the cell's component sum, applies the beam, and adds the
// truncated result into the buffer. This is the host twin of the kernels'
// thread body.
func (hm *HostModeller) forEachCell(eval func(bl, f int, u, v, w float64) jones.F64) {
	for bl := 0; bl < hm.NumBaselines; bl++ {
		for f := 0; f < hm.NumFreqs; f++ {
			scale := hm.freqs[f] / sky.VelC
			u := hm.uvws[bl].U * scale
			v := hm.uvws[bl].V * scale
			w := hm.uvws[bl].W * scale

			acc := eval(bl, f, u, v, w)
			if hm.beam != nil {
				acc = hm.beam.Apply(acc, hm.ant1[bl], hm.ant2[bl], f)
			}
			i := bl*hm.NumFreqs + f
			hm.vis[i] = hm.vis[i].Add(jones.FromF64(acc))
		}
	}
}

// ModelPoints accumulates every point component. The buffer is not cleared
// first; a zero-length list is a no-op.
func (hm *HostModeller) ModelPoints(pc sky.PointComponents) error {
	n := len(pc.LMNs)
	if n == 0 {
		return nil
	}
	if len(pc.FluxJones) != n*hm.NumFreqs {
		return fmt.Errorf("%w: points: %d flux entries, want %d",
			ErrComponentShape, len(pc.FluxJones), n*hm.NumFreqs)
	}
	lmns := prepareAll(pc.LMNs)

	hm.forEachCell(func(bl, f int, u, v, w float64) jones.F64 {
		var acc jones.F64
		for c := 0; c < n; c++ {
			arg := u*lmns[c].L + v*lmns[c].M + w*lmns[c].N
			sin, cos := math.Sincos(arg)
			acc = acc.Add(pc.FluxJones[f*n+c].Scale(complex(cos, sin)))
		}
		return acc
	})
	return nil
}

// ModelGaussians accumulates every Gaussian component.
func (hm *HostModeller) ModelGaussians(gc sky.GaussianComponents) error {
	n := len(gc.LMNs)
	if n == 0 {
		return nil
	}
	if len(gc.FluxJones) != n*hm.NumFreqs {
		return fmt.Errorf("%w: gaussians: %d flux entries, want %d",
			ErrComponentShape, len(gc.FluxJones), n*hm.NumFreqs)
	}
	if len(gc.Params) != n {
		return fmt.Errorf("%w: gaussians: %d param entries, want %d",
			ErrComponentShape, len(gc.Params), n)
	}
	lmns := prepareAll(gc.LMNs)

	hm.forEachCell(func(bl, f int, u, v, w float64) jones.F64 {
		var acc jones.F64
		for c := 0; c < n; c++ {
			arg := u*lmns[c].L + v*lmns[c].M + w*lmns[c].N
			sin, cos := math.Sincos(arg)
			env := gaussianEnvelope(gc.Params[c], u, v)
			acc = acc.Add(gc.FluxJones[f*n+c].Scale(complex(env*cos, env*sin)))
		}
		return acc
	})
	return nil
}

// ModelShapelets accumulates every shapelet component.
func (hm *HostModeller) ModelShapelets(sc sky.ShapeletComponents) error {
	n := len(sc.LMNs)
	if n == 0 {
		return nil
	}
	if len(sc.FluxJones) != n*hm.NumFreqs {
		return fmt.Errorf("%w: shapelets: %d flux entries, want %d",
			ErrComponentShape, len(sc.FluxJones), n*hm.NumFreqs)
	}
	if len(sc.Params) != n {
		return fmt.Errorf("%w: shapelets: %d param entries, want %d",
			ErrComponentShape, len(sc.Params), n)
	}
	if len(sc.UVs) != n*hm.NumBaselines {
		return fmt.Errorf("%w: shapelets: %d uv entries, want %d",
			ErrComponentShape, len(sc.UVs), n*hm.NumBaselines)
	}
	if len(sc.CoeffCounts) != n {
		return fmt.Errorf("%w: shapelets: %d coeff counts, want %d",
			ErrComponentShape, len(sc.CoeffCounts), n)
	}
	offsets := sky.CoeffOffsets(sc.CoeffCounts)
	if int(offsets[n]) != len(sc.Coeffs) {
		return fmt.Errorf("%w: shapelets: counts sum to %d but %d coeffs given",
			ErrComponentShape, offsets[n], len(sc.Coeffs))
	}
	lmns := prepareAll(sc.LMNs)

	hm.forEachCell(func(bl, f int, u, v, w float64) jones.F64 {
		scale := hm.freqs[f] / sky.VelC
		var acc jones.F64
		for c := 0; c < n; c++ {
			arg := u*lmns[c].L + v*lmns[c].M + w*lmns[c].N
			sin, cos := math.Sincos(arg)

			gp := sc.Params[c]
			sPA, cPA := math.Sincos(gp.PA)
			suv := sc.UVs[bl*n+c]
			su := suv.U * scale
			sv := suv.V * scale
			kx := su*sPA + sv*cPA
			ky := su*cPA - sv*sPA
			envGauss := math.Exp(gaussianExpConst *
				(gp.Maj*gp.Maj*kx*kx + gp.Min*gp.Min*ky*ky))

			constX := gp.Maj * sbf.SqrtPiSqOver2Ln2 / hm.basis.Dx()
			constY := -gp.Min * sbf.SqrtPiSqOver2Ln2 / hm.basis.Dx()
			xPos := kx*constX + hm.basis.C()
			yPos := ky*constY + hm.basis.C()

			var env complex128
			for t := offsets[c]; t < offsets[c+1]; t++ {
				co := sc.Coeffs[t]
				rest := co.Value * hm.basis.Interp(co.N1, xPos) * hm.basis.Interp(co.N2, yPos)
				env += iPower[((co.N1+co.N2)%4+4)%4] * complex(rest, 0)
			}

			scalar := complex(cos, sin) * env * complex(envGauss, 0)
			acc = acc.Add(sc.FluxJones[f*n+c].Scale(scalar))
		}
		return acc
	})
	return nil
}

// ModelTimestep runs clear, the three modelling passes in order, and hands
// back the visibility buffer.
func (hm *HostModeller) ModelTimestep(comps sky.Components) ([]jones.F32, error) {
	if err := hm.ClearVis(); err != nil {
		return nil, err
	}
	if err := hm.ModelPoints(comps.Points); err != nil {
		return nil, err
	}
	if err := hm.ModelGaussians(comps.Gaussians); err != nil {
		return nil, err
	}
	if err := hm.ModelShapelets(comps.Shapelets); err != nil {
		return nil, err
	}
	return hm.vis, nil
}

// ReadVis returns the visibility buffer. There is no device to synchronize
// with, so this never fails.
func (hm *HostModeller) ReadVis() ([]jones.F32, error) {
	return hm.vis, nil
}

// Free is a no-op; the host path owns no device resources.
func (hm *HostModeller) Free() {}

func prepareAll(lmns []sky.LMN) []sky.LMN {
	out := make([]sky.LMN, len(lmns))
	for i, lmn := range lmns {
		out[i] = lmn.Prepare()
	}
	return out
}

func gaussianEnvelope(gp sky.GaussianParams, u, v float64) float64 {
	sPA, cPA := math.Sincos(gp.PA)
	kx := u*sPA + v*cPA
	ky := u*cPA - v*sPA
	return math.Exp(gaussianExpConst * (gp.Maj*gp.Maj*kx*kx + gp.Min*gp.Min*ky*ky))
}
