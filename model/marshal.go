package model

import (
	"github.com/openradio/viskernel/jones"
	"github.com/openradio/viskernel/sky"
)

// The device sees every structured input as a flat real array. The helpers
// below fix the layouts the kernels index by.

func flattenUVWs(uvws []sky.UVW) []float64 {
	out := make([]float64, 3*len(uvws))
	for i, uvw := range uvws {
		out[3*i+0] = uvw.U
		out[3*i+1] = uvw.V
		out[3*i+2] = uvw.W
	}
	return out
}

// flattenLMNs prepares each direction for the phase equation before
// flattening, so kernels never see raw direction cosines.
func flattenLMNs(lmns []sky.LMN) []float64 {
	out := make([]float64, 3*len(lmns))
	for i, lmn := range lmns {
		p := lmn.Prepare()
		out[3*i+0] = p.L
		out[3*i+1] = p.M
		out[3*i+2] = p.N
	}
	return out
}

// flattenJones lays each matrix out as 8 reals: re/im interleaved, row-major
// over the four elements. This matches the (float-typed) visibility buffer,
// which is read back as raw jones.F32 values.
func flattenJones(js []jones.F64) []float64 {
	out := make([]float64, 8*len(js))
	for i, j := range js {
		out[8*i+0] = real(j.J00)
		out[8*i+1] = imag(j.J00)
		out[8*i+2] = real(j.J01)
		out[8*i+3] = imag(j.J01)
		out[8*i+4] = real(j.J10)
		out[8*i+5] = imag(j.J10)
		out[8*i+6] = real(j.J11)
		out[8*i+7] = imag(j.J11)
	}
	return out
}

func flattenGaussians(gps []sky.GaussianParams) []float64 {
	out := make([]float64, 3*len(gps))
	for i, gp := range gps {
		out[3*i+0] = gp.Maj
		out[3*i+1] = gp.Min
		out[3*i+2] = gp.PA
	}
	return out
}

func flattenShapeletUVs(uvs []sky.ShapeletUV) []float64 {
	out := make([]float64, 2*len(uvs))
	for i, uv := range uvs {
		out[2*i+0] = uv.U
		out[2*i+1] = uv.V
	}
	return out
}

// splitCoeffs separates the coefficient list into parallel arrays so no C
// struct layout has to be agreed on with the device.
func splitCoeffs(coeffs []sky.ShapeletCoeff) (n1, n2 []int32, values []float64) {
	n1 = make([]int32, len(coeffs))
	n2 = make([]int32, len(coeffs))
	values = make([]float64, len(coeffs))
	for i, c := range coeffs {
		n1[i] = int32(c.N1)
		n2[i] = int32(c.N2)
		values[i] = c.Value
	}
	return n1, n2, values
}
