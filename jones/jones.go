// Package jones implements 2x2 complex "Jones" matrices and the small
// algebra the visibility kernels need: addition, matrix products, scalar
// products, conjugate transposition and the beam sandwich J1 · J · J2^H.
//
// A Jones matrix is a plain value type; all operations return new values and
// none of them can fail. Numeric concerns (overflow, NaN propagation) are the
// caller's problem. The precision switch of the engine is the type parameter:
// Jones[complex64] is the single-precision visibility accumulator,
// Jones[complex128] carries flux densities and all intermediate arithmetic.
package jones

import "math/cmplx"

// Complex constrains the element type of a Jones matrix.
type Complex interface {
	~complex64 | ~complex128
}

// Jones is a 2x2 complex matrix in row-major order:
//
//	| J00 J01 |
//	| J10 J11 |
type Jones[C Complex] struct {
	J00, J01, J10, J11 C
}

// F32 is the single-precision visibility type, one per (baseline, frequency).
type F32 = Jones[complex64]

// F64 is the double-precision flux-density type.
type F64 = Jones[complex128]

// Identity returns the 2x2 identity matrix.
func Identity[C Complex]() Jones[C] {
	return Jones[C]{J00: 1, J11: 1}
}

func conj[C Complex](c C) C {
	return C(cmplx.Conj(complex128(c)))
}

// Add returns j + k, component-wise.
func (j Jones[C]) Add(k Jones[C]) Jones[C] {
	return Jones[C]{
		J00: j.J00 + k.J00,
		J01: j.J01 + k.J01,
		J10: j.J10 + k.J10,
		J11: j.J11 + k.J11,
	}
}

// Mul returns the ordinary matrix product j · k.
func (j Jones[C]) Mul(k Jones[C]) Jones[C] {
	return Jones[C]{
		J00: j.J00*k.J00 + j.J01*k.J10,
		J01: j.J00*k.J01 + j.J01*k.J11,
		J10: j.J10*k.J00 + j.J11*k.J10,
		J11: j.J10*k.J01 + j.J11*k.J11,
	}
}

// MulH returns j · k^H, the product with the conjugate transpose of k.
func (j Jones[C]) MulH(k Jones[C]) Jones[C] {
	return Jones[C]{
		J00: j.J00*conj(k.J00) + j.J01*conj(k.J01),
		J01: j.J00*conj(k.J10) + j.J01*conj(k.J11),
		J10: j.J10*conj(k.J00) + j.J11*conj(k.J01),
		J11: j.J10*conj(k.J10) + j.J11*conj(k.J11),
	}
}

// H returns the conjugate transpose of j.
func (j Jones[C]) H() Jones[C] {
	return Jones[C]{
		J00: conj(j.J00),
		J01: conj(j.J10),
		J10: conj(j.J01),
		J11: conj(j.J11),
	}
}

// Scale returns j scaled by the complex scalar s.
func (j Jones[C]) Scale(s C) Jones[C] {
	return Jones[C]{
		J00: j.J00 * s,
		J01: j.J01 * s,
		J10: j.J10 * s,
		J11: j.J11 * s,
	}
}

// ScaleReal returns j scaled by the real scalar s.
func (j Jones[C]) ScaleReal(s float64) Jones[C] {
	return j.Scale(C(complex(s, 0)))
}

// Inv returns the matrix inverse of j. A singular matrix yields Inf/NaN
// entries, which are left to propagate.
func (j Jones[C]) Inv() Jones[C] {
	det := j.J00*j.J11 - j.J01*j.J10
	return Jones[C]{
		J00: j.J11 / det,
		J01: -j.J01 / det,
		J10: -j.J10 / det,
		J11: j.J00 / det,
	}
}

// Div returns the right quotient j · k⁻¹. Normalizing a beam response by its
// normalization matrix this way makes a self-normalized beam an exact
// identity.
func (j Jones[C]) Div(k Jones[C]) Jones[C] {
	return j.Mul(k.Inv())
}

// Sandwich returns b1 · j · b2^H, the beam application for a baseline formed
// by the antennas whose responses are b1 and b2.
func Sandwich[C Complex](b1, j, b2 Jones[C]) Jones[C] {
	return b1.Mul(j).MulH(b2)
}

// FromF64 demotes a double-precision matrix to single precision. Truncation
// happens here and nowhere else; accumulation is done in double precision and
// demoted exactly once per cell.
func FromF64(j F64) F32 {
	return F32{
		J00: complex64(j.J00),
		J01: complex64(j.J01),
		J10: complex64(j.J10),
		J11: complex64(j.J11),
	}
}

// ToF64 promotes a single-precision matrix.
func ToF64(j F32) F64 {
	return F64{
		J00: complex128(j.J00),
		J01: complex128(j.J01),
		J10: complex128(j.J10),
		J11: complex128(j.J11),
	}
}
