package beam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openradio/viskernel/jones"
)

func TestIdentity(t *testing.T) {
	r := Identity(8, 4)
	require.NoError(t, r.Validate(8, 4))

	j := jones.F64{J00: 1 + 2i, J01: 3, J10: 5i, J11: -1}
	got := r.Apply(j, 0, 7, 3)
	assert.Equal(t, j, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(*Response)
	}{
		{"ShortTileMap", func(r *Response) { r.TileMap = r.TileMap[1:] }},
		{"ShortFreqMap", func(r *Response) { r.FreqMap = r.FreqMap[1:] }},
		{"MissingJones", func(r *Response) { r.Jones = nil }},
		{"MissingNorm", func(r *Response) { r.Norm = nil }},
		{"TileMapOutOfRange", func(r *Response) { r.TileMap[2] = 9 }},
		{"FreqMapOutOfRange", func(r *Response) { r.FreqMap[0] = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Identity(4, 3)
			tc.mangle(r)
			assert.Error(t, r.Validate(4, 3))
		})
	}
}

func TestJonesFor_MapResolution(t *testing.T) {
	// Two unique tiles, two unique freqs; tiles 0,1 share unique tile 0 and
	// tile 2 is unique tile 1; freqs 0,1 map to unique freqs 0,1.
	scale := func(s complex128) jones.F64 { return jones.Identity[complex128]().Scale(s) }
	r := &Response{
		NumUniqueTiles: 2,
		NumUniqueFreqs: 2,
		TileMap:        []int32{0, 0, 1},
		FreqMap:        []int32{0, 1},
		Jones:          []jones.F64{scale(2), scale(3), scale(4), scale(5)},
		Norm: []jones.F64{
			jones.Identity[complex128](), jones.Identity[complex128](),
			jones.Identity[complex128](), jones.Identity[complex128](),
		},
	}
	require.NoError(t, r.Validate(3, 2))

	assert.Equal(t, scale(2), r.JonesFor(1, 0)) // unique (0,0)
	assert.Equal(t, scale(3), r.JonesFor(0, 1)) // unique (0,1)
	assert.Equal(t, scale(5), r.JonesFor(2, 1)) // unique (1,1)
}

func TestSelfNormalizedBeamIsIdentityCorrection(t *testing.T) {
	// A beam normalized by itself is the identity, so the sandwich leaves
	// the sky Jones unchanged. This pins the normalize-then-sandwich order:
	// sandwiching first and normalizing after would not cancel.
	b := jones.F64{J00: 0.5 + 0.5i, J01: 0.25, J10: -0.125i, J11: 2i}
	r := &Response{
		NumUniqueTiles: 1,
		NumUniqueFreqs: 1,
		TileMap:        []int32{0, 0},
		FreqMap:        []int32{0},
		Jones:          []jones.F64{b},
		Norm:           []jones.F64{b},
	}
	require.NoError(t, r.Validate(2, 1))

	j := jones.F64{J00: 1, J01: 2i, J10: 3, J11: 4}
	got := r.Apply(j, 0, 1, 0)

	assert.InDelta(t, real(j.J00), real(got.J00), 1e-12)
	assert.InDelta(t, imag(j.J00), imag(got.J00), 1e-12)
	assert.InDelta(t, real(j.J01), real(got.J01), 1e-12)
	assert.InDelta(t, imag(j.J01), imag(got.J01), 1e-12)
	assert.InDelta(t, real(j.J10), real(got.J10), 1e-12)
	assert.InDelta(t, imag(j.J10), imag(got.J10), 1e-12)
	assert.InDelta(t, real(j.J11), real(got.J11), 1e-12)
	assert.InDelta(t, imag(j.J11), imag(got.J11), 1e-12)
}
