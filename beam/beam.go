// Package beam carries precomputed primary-beam responses in the shape the
// visibility kernels consume them.
//
// Tiles with identical configurations share a beam response, as do
// frequencies that are close enough; the dedup is expressed by two maps from
// the full tile/frequency axes onto "unique" indices. The resolved Jones
// matrices themselves are computed by an external beam model and handed over
// here as a flat array.
package beam

import (
	"fmt"

	"github.com/openradio/viskernel/jones"
)

// Response is the per-timestep beam lookup. Jones and Norm are flat arrays of
// NumUniqueTiles × NumUniqueFreqs matrices; the matrix for (unique tile t,
// unique freq f) lives at t*NumUniqueFreqs + f. TileMap has one entry per
// tile mapping it onto its unique index, FreqMap likewise per frequency.
//
// A nil *Response means no beam: the kernels accumulate the raw sky Jones
// unmodified.
type Response struct {
	NumUniqueTiles int
	NumUniqueFreqs int

	TileMap []int32
	FreqMap []int32

	Jones []jones.F64
	Norm  []jones.F64
}

// Identity returns a Response whose beam and normalization matrices are all
// identity, with every tile and frequency mapped to unique index 0. Useful
// for tests and for callers that want the beam code path with no correction.
func Identity(numTiles, numFreqs int) *Response {
	return &Response{
		NumUniqueTiles: 1,
		NumUniqueFreqs: 1,
		TileMap:        make([]int32, numTiles),
		FreqMap:        make([]int32, numFreqs),
		Jones:          []jones.F64{jones.Identity[complex128]()},
		Norm:           []jones.F64{jones.Identity[complex128]()},
	}
}

// Validate checks the internal consistency of the maps and arrays against
// the given axis lengths.
func (r *Response) Validate(numTiles, numFreqs int) error {
	if len(r.TileMap) != numTiles {
		return fmt.Errorf("beam: tile map has %d entries, want %d", len(r.TileMap), numTiles)
	}
	if len(r.FreqMap) != numFreqs {
		return fmt.Errorf("beam: freq map has %d entries, want %d", len(r.FreqMap), numFreqs)
	}
	want := r.NumUniqueTiles * r.NumUniqueFreqs
	if len(r.Jones) != want {
		return fmt.Errorf("beam: %d jones matrices, want %d", len(r.Jones), want)
	}
	if len(r.Norm) != want {
		return fmt.Errorf("beam: %d normalization matrices, want %d", len(r.Norm), want)
	}
	for i, t := range r.TileMap {
		if int(t) < 0 || int(t) >= r.NumUniqueTiles {
			return fmt.Errorf("beam: tile map entry %d out of range: %d", i, t)
		}
	}
	for i, f := range r.FreqMap {
		if int(f) < 0 || int(f) >= r.NumUniqueFreqs {
			return fmt.Errorf("beam: freq map entry %d out of range: %d", i, f)
		}
	}
	return nil
}

// JonesFor resolves the normalized beam Jones matrix for a tile and
// frequency on the full axes: the raw response right-divided by its
// normalization matrix. A beam normalized by itself is exactly the identity.
func (r *Response) JonesFor(tile, freq int) jones.F64 {
	idx := r.TileMap[tile]*int32(r.NumUniqueFreqs) + r.FreqMap[freq]
	return r.Jones[idx].Div(r.Norm[idx])
}

// Apply performs the beam correction for one (baseline, frequency) cell:
// J' = B1 · J · B2^H with B1, B2 the normalized responses of the two
// antennas.
func (r *Response) Apply(j jones.F64, ant1, ant2 int32, freq int) jones.F64 {
	b1 := r.JonesFor(int(ant1), freq)
	b2 := r.JonesFor(int(ant2), freq)
	return jones.Sandwich(b1, j, b2)
}
