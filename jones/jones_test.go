package jones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJones_Add(t *testing.T) {
	a := F64{J00: 1 + 2i, J01: 3, J10: 5i, J11: -1}
	b := F64{J00: 1, J01: 1i, J10: 2, J11: 4}

	got := a.Add(b)
	want := F64{J00: 2 + 2i, J01: 3 + 1i, J10: 2 + 5i, J11: 3}
	assert.Equal(t, want, got)
}

func TestJones_MulIdentity(t *testing.T) {
	a := F64{J00: 1 + 2i, J01: 3 - 1i, J10: 5i, J11: -1 + 1i}
	id := Identity[complex128]()

	assert.Equal(t, a, a.Mul(id))
	assert.Equal(t, a, id.Mul(a))
}

func TestJones_Mul(t *testing.T) {
	a := F64{J00: 1, J01: 2, J10: 3, J11: 4}
	b := F64{J00: 5, J01: 6, J10: 7, J11: 8}

	got := a.Mul(b)
	want := F64{J00: 19, J01: 22, J10: 43, J11: 50}
	assert.Equal(t, want, got)
}

func TestJones_MulH(t *testing.T) {
	a := F64{J00: 1, J01: 2, J10: 3, J11: 4}
	b := F64{J00: 1i, J01: 0, J10: 0, J11: 1i}

	// b^H = diag(-i, -i), so a · b^H scales each column by -i.
	got := a.MulH(b)
	want := F64{J00: -1i, J01: -2i, J10: -3i, J11: -4i}
	assert.Equal(t, want, got)
}

func TestJones_H(t *testing.T) {
	a := F64{J00: 1 + 1i, J01: 2 - 2i, J10: 3, J11: 4i}
	got := a.H()
	want := F64{J00: 1 - 1i, J01: 3, J10: 2 + 2i, J11: -4i}
	assert.Equal(t, want, got)

	// (a^H)^H == a.
	assert.Equal(t, a, got.H())
}

func TestJones_Scale(t *testing.T) {
	a := F64{J00: 1, J01: 2, J10: 3, J11: 4}

	got := a.Scale(2i)
	want := F64{J00: 2i, J01: 4i, J10: 6i, J11: 8i}
	assert.Equal(t, want, got)

	gotReal := a.ScaleReal(0.5)
	wantReal := F64{J00: 0.5, J01: 1, J10: 1.5, J11: 2}
	assert.Equal(t, wantReal, gotReal)
}

func TestSandwich_IdentityBeams(t *testing.T) {
	a := F64{J00: 1 + 2i, J01: 3, J10: 5i, J11: -1}
	id := Identity[complex128]()

	assert.Equal(t, a, Sandwich(id, a, id))
}

func TestSandwich_ScalarBeams(t *testing.T) {
	// With b1 = b2 = s·I the sandwich scales by |s|^2.
	a := F64{J00: 1, J01: 2i, J10: 3, J11: 4}
	s := complex(0, 2) // |s|^2 = 4
	b := Identity[complex128]().Scale(s)

	got := Sandwich(b, a, b)
	want := a.ScaleReal(4)
	assert.InDelta(t, real(want.J00), real(got.J00), 1e-12)
	assert.InDelta(t, imag(want.J01), imag(got.J01), 1e-12)
	assert.InDelta(t, real(want.J10), real(got.J10), 1e-12)
	assert.InDelta(t, real(want.J11), real(got.J11), 1e-12)
}

func TestJones_Inv(t *testing.T) {
	a := F64{J00: 1 + 1i, J01: 2, J10: -1i, J11: 3}

	got := a.Mul(a.Inv())
	assert.InDelta(t, 1, real(got.J00), 1e-12)
	assert.InDelta(t, 0, imag(got.J00), 1e-12)
	assert.InDelta(t, 0, real(got.J01), 1e-12)
	assert.InDelta(t, 0, real(got.J10), 1e-12)
	assert.InDelta(t, 1, real(got.J11), 1e-12)
	assert.InDelta(t, 0, imag(got.J11), 1e-12)
}

func TestJones_DivSelf(t *testing.T) {
	a := F64{J00: 2i, J01: 0.5, J10: 1, J11: -3}
	got := a.Div(a)
	assert.InDelta(t, 1, real(got.J00), 1e-12)
	assert.InDelta(t, 0, real(got.J01), 1e-12)
	assert.InDelta(t, 0, real(got.J10), 1e-12)
	assert.InDelta(t, 1, real(got.J11), 1e-12)
}

func TestPrecisionRoundTrip(t *testing.T) {
	a := F64{J00: 1.5, J01: -2.25i, J10: 3.125, J11: 4.0625}

	// Values exactly representable in float32 survive the round trip.
	require.Equal(t, a, ToF64(FromF64(a)))
}

func TestF32Accumulation(t *testing.T) {
	// The single-precision type supports the same algebra.
	a := F32{J00: 1, J11: 1}
	b := a.Add(a).ScaleReal(2)
	assert.Equal(t, F32{J00: 4, J11: 4}, b)
}
