// Package sbf generates and samples the shapelet basis-function lookup table.
//
// The table holds the orthonormal Gauss-Hermite functions
//
//	B_n(x) = H_n(x) · exp(-x²/2) / sqrt(2^n n! sqrt(π))
//
// sampled on a regular grid. Row n holds L samples at x_i = (i - C)·Dx, so
// the grid is centred and covers ±C·Dx. Kernels look values up with linear
// interpolation between adjacent samples; positions outside the grid
// contribute zero.
package sbf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Standard table dimensions. L is the number of samples per basis function,
// N the number of basis orders, Dx the sample spacing and C the index of the
// x = 0 sample.
const (
	L  = 10001
	N  = 101
	Dx = 0.01
	C  = 5000.0
)

// SqrtPiSqOver2Ln2 is sqrt(π²/(2·ln 2)), the factor that maps a FWHM major or
// minor axis onto the basis-function sample scale.
var SqrtPiSqOver2Ln2 = math.Sqrt(math.Pi * math.Pi / (2 * math.Ln2))

// Table is a dense (order, sample) lookup of basis-function values.
type Table struct {
	values *mat.Dense

	l, n  int
	dx, c float64
}

// New generates the standard L x N table. The recurrence for the normalized
// functions,
//
//	B_n(x) = x·sqrt(2/n)·B_{n-1}(x) - sqrt((n-1)/n)·B_{n-2}(x)
//
// is numerically stable at high order where the raw Hermite polynomials would
// overflow.
func New() *Table {
	return Generate(L, N, Dx, C)
}

// Generate builds a table with the given dimensions. l is the samples per
// row, n the number of orders, dx the sample spacing and c the sample index
// of x = 0.
func Generate(l, n int, dx, c float64) *Table {
	values := mat.NewDense(n, l, nil)

	norm0 := math.Pow(math.Pi, -0.25)
	for i := 0; i < l; i++ {
		x := (float64(i) - c) * dx
		gauss := norm0 * math.Exp(-0.5*x*x)

		var prev2, prev float64
		for order := 0; order < n; order++ {
			var v float64
			switch order {
			case 0:
				v = gauss
			case 1:
				v = math.Sqrt2 * x * gauss
			default:
				fo := float64(order)
				v = x*math.Sqrt(2/fo)*prev - math.Sqrt((fo-1)/fo)*prev2
			}
			values.Set(order, i, v)
			prev2, prev = prev, v
		}
	}

	return &Table{values: values, l: l, n: n, dx: dx, c: c}
}

// FromValues wraps an externally-supplied flat table (row-major, n rows of l
// samples), e.g. one read back from a reference implementation.
func FromValues(values []float64, l, n int, dx, c float64) *Table {
	return &Table{
		values: mat.NewDense(n, l, values),
		l:      l,
		n:      n,
		dx:     dx,
		c:      c,
	}
}

// L returns the number of samples per basis function.
func (t *Table) L() int { return t.l }

// N returns the number of basis orders.
func (t *Table) N() int { return t.n }

// Dx returns the sample spacing.
func (t *Table) Dx() float64 { return t.dx }

// C returns the (fractional) sample index of x = 0.
func (t *Table) C() float64 { return t.c }

// At returns the raw sample for basis order n at sample index i.
func (t *Table) At(n, i int) float64 {
	return t.values.At(n, i)
}

// Interp linearly interpolates basis order n at the fractional sample
// position pos. Positions outside [0, L-1] and orders outside [0, N) return
// zero: the basis functions decay to zero at the grid edge, so clamping would
// invent signal that is not there.
func (t *Table) Interp(n int, pos float64) float64 {
	if n < 0 || n >= t.n {
		return 0
	}
	lo := math.Floor(pos)
	i := int(lo)
	if i < 0 || i+1 >= t.l {
		return 0
	}
	vLo := t.values.At(n, i)
	vHi := t.values.At(n, i+1)
	return vLo + (vHi-vLo)*(pos-lo)
}

// Flatten returns the row-major flat values, the layout copied to the device:
// sample i of order n lives at n*L + i.
func (t *Table) Flatten() []float64 {
	raw := t.values.RawMatrix()
	out := make([]float64, t.n*t.l)
	copy(out, raw.Data)
	return out
}
