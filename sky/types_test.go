package sky

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLMN_Prepare(t *testing.T) {
	// The phase centre prepares to exactly zero in all three values.
	centre := LMN{L: 0, M: 0, N: 1}.Prepare()
	assert.Equal(t, LMN{}, centre)

	lmn := LMN{L: 0.1, M: -0.2, N: 0.9}.Prepare()
	assert.InDelta(t, -2*math.Pi*0.1, lmn.L, 1e-15)
	assert.InDelta(t, 2*math.Pi*0.2, lmn.M, 1e-15)
	assert.InDelta(t, 2*math.Pi*0.1, lmn.N, 1e-12)
}

func TestCoeffOffsets(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   []int32
	}{
		{"empty", []int{}, []int32{0}},
		{"single", []int{4}, []int32{0, 4}},
		{"ragged", []int{3, 0, 5, 1}, []int32{0, 3, 3, 8, 9}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CoeffOffsets(tc.counts))
		})
	}
}

func TestFlattenCoeffs(t *testing.T) {
	perComp := [][]ShapeletCoeff{
		{{N1: 0, N2: 0, Value: 1}, {N1: 1, N2: 0, Value: 0.5}},
		nil,
		{{N1: 2, N2: 3, Value: -0.25}},
	}

	flat, counts := FlattenCoeffs(perComp)
	assert.Equal(t, []int{2, 0, 1}, counts)
	assert.Len(t, flat, 3)
	assert.Equal(t, ShapeletCoeff{N1: 1, N2: 0, Value: 0.5}, flat[1])
	assert.Equal(t, ShapeletCoeff{N1: 2, N2: 3, Value: -0.25}, flat[2])

	// The offsets index the flat array consistently with the counts.
	offsets := CoeffOffsets(counts)
	assert.Equal(t, []int32{0, 2, 2, 3}, offsets)
}

func TestBaselineAntennas(t *testing.T) {
	ant1, ant2 := BaselineAntennas(4)
	assert.Equal(t, NumBaselines(4), len(ant1))
	assert.Equal(t, []int32{0, 0, 0, 1, 1, 2}, ant1)
	assert.Equal(t, []int32{1, 2, 3, 2, 3, 3}, ant2)
}
