// Package sky holds the sky-model component types consumed by the visibility
// modeller: baseline geometry, component directions, Gaussian shape
// parameters and shapelet coefficient lists.
package sky

import (
	"math"

	"github.com/openradio/viskernel/jones"
)

// VelC is the speed of light in a vacuum [m/s]. UVW coordinates are stored in
// metres and scaled to wavelengths per frequency inside the kernels.
const VelC = 299_792_458.0

// UVW is the (u, v, w) coordinate of a baseline in metres.
type UVW struct {
	U, V, W float64
}

// LMN is the direction-cosine coordinate of a component relative to the
// phase centre.
type LMN struct {
	L, M, N float64
}

// Prepare returns the LMN adjusted for the phase equation: n has 1 subtracted
// and all three values carry the -2π factor, so a kernel computes the phase
// argument as (u·l' + v·m' + w·n')·freq/c with no per-thread multiplies. The
// phase at the centre (l=0, m=0, n=1) is exactly zero.
func (lmn LMN) Prepare() LMN {
	return LMN{
		L: -2 * math.Pi * lmn.L,
		M: -2 * math.Pi * lmn.M,
		N: -2 * math.Pi * (lmn.N - 1),
	}
}

// GaussianParams are the shape parameters shared by Gaussian and shapelet
// components: FWHM major and minor axes [radians] and the position angle
// [radians].
type GaussianParams struct {
	Maj, Min, PA float64
}

// ShapeletUV is a w-free UV coordinate [metres] computed as if the shapelet
// component were at the phase centre. One per (baseline, component).
type ShapeletUV struct {
	U, V float64
}

// ShapeletCoeff is one term of a shapelet decomposition: the two basis-order
// indices and the weight.
type ShapeletCoeff struct {
	N1, N2 int
	Value  float64
}

// PointComponents lists every point component handed to one modelling call.
// FluxJones is baseline-independent and indexed [freq][component], flattened
// freq-major; its length is len(LMNs) * the context's frequency count.
type PointComponents struct {
	LMNs      []LMN
	FluxJones []jones.F64
}

// GaussianComponents adds per-component shape parameters to the point layout.
type GaussianComponents struct {
	LMNs      []LMN
	FluxJones []jones.F64
	Params    []GaussianParams
}

// ShapeletComponents adds the shapelet-specific UVs and the ragged
// coefficient lists. UVs is indexed [baseline][component], flattened
// baseline-major. Coeffs is the flattened array-of-arrays described by
// CoeffCounts (one count per component).
type ShapeletComponents struct {
	LMNs        []LMN
	FluxJones   []jones.F64
	Params      []GaussianParams
	UVs         []ShapeletUV
	Coeffs      []ShapeletCoeff
	CoeffCounts []int
}

// Components bundles the three component types for a whole-timestep call.
// Accumulation order within each list is the list order; callers that care
// about floating-point error growth should order components dimmest first.
type Components struct {
	Points    PointComponents
	Gaussians GaussianComponents
	Shapelets ShapeletComponents
}

// CoeffOffsets returns the running prefix sum of counts: offsets[i] is the
// index into the flat coefficient array where component i's list begins, and
// offsets[len(counts)] is the total length. Computed once per upload so no
// thread re-derives offsets.
func CoeffOffsets(counts []int) []int32 {
	offsets := make([]int32, len(counts)+1)
	var total int32
	for i, c := range counts {
		offsets[i] = total
		total += int32(c)
	}
	offsets[len(counts)] = total
	return offsets
}

// FlattenCoeffs flattens per-component coefficient lists into the contiguous
// layout the device wants, returning the flat list and the per-component
// counts.
func FlattenCoeffs(perComponent [][]ShapeletCoeff) ([]ShapeletCoeff, []int) {
	counts := make([]int, len(perComponent))
	total := 0
	for i, list := range perComponent {
		counts[i] = len(list)
		total += len(list)
	}
	flat := make([]ShapeletCoeff, 0, total)
	for _, list := range perComponent {
		flat = append(flat, list...)
	}
	return flat, counts
}

// NumBaselines returns the number of cross-correlation baselines formed by
// numTiles antennas.
func NumBaselines(numTiles int) int {
	return numTiles * (numTiles - 1) / 2
}

// BaselineAntennas returns the antenna (tile) index pair for every baseline
// in the standard cross-correlation ordering: (0,1), (0,2), ... (0,n-1),
// (1,2), ...
func BaselineAntennas(numTiles int) (ant1, ant2 []int32) {
	n := NumBaselines(numTiles)
	ant1 = make([]int32, 0, n)
	ant2 = make([]int32, 0, n)
	for t1 := 0; t1 < numTiles; t1++ {
		for t2 := t1 + 1; t2 < numTiles; t2++ {
			ant1 = append(ant1, int32(t1))
			ant2 = append(ant2, int32(t2))
		}
	}
	return ant1, ant2
}
