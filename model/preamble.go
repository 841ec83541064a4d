package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/openradio/viskernel/sbf"
	"github.com/openradio/viskernel/sky"
)

// gaussianExpConst is -(pi^2 / ln 2) / 4: the Gaussian envelope is
// exp(gaussianExpConst * (maj^2 x^2 + min^2 y^2)) with FWHM axes in radians
// and x, y in wavelengths.
const gaussianExpConst = -(math.Pi * math.Pi) / (4 * math.Ln2)

// iPower is i^k for k = 0..3; each shapelet coefficient contributes with the
// factor i^((n1+n2) mod 4).
var iPower = [4]complex128{1, 1i, -1, -1i}

// kernelPreamble generates the source prepended to every kernel: the real_t
// typedef for the context's precision, the counts and physical constants
// baked as defines, and the 2x2 complex matrix macros. Counts are compile
// time constants here because they are fixed at context creation.
func (dc *DeviceContext) kernelPreamble() string {
	var sb strings.Builder

	floatTypeStr := "double"
	floatSuffix := ""
	if dc.floatType == Float32 {
		floatTypeStr = "float"
		floatSuffix = "f"
	}
	fmt.Fprintf(&sb, "typedef %s real_t;\n", floatTypeStr)
	fmt.Fprintf(&sb, "#define REAL_ZERO 0.0%s\n", floatSuffix)
	fmt.Fprintf(&sb, "#define REAL_ONE 1.0%s\n", floatSuffix)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "#define NUM_BASELINES %d\n", dc.NumBaselines)
	fmt.Fprintf(&sb, "#define NUM_FREQS %d\n", dc.NumFreqs)
	haveBeam := 0
	numUniqueFreqs := 1
	if dc.beam != nil {
		haveBeam = 1
		numUniqueFreqs = dc.beam.NumUniqueFreqs
	}
	fmt.Fprintf(&sb, "#define HAVE_BEAM %d\n", haveBeam)
	fmt.Fprintf(&sb, "#define NUM_UNIQUE_FREQS %d\n", numUniqueFreqs)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "#define VEL_C %.17e\n", float64(sky.VelC))
	fmt.Fprintf(&sb, "#define EXP_CONST %.17e\n", gaussianExpConst)
	fmt.Fprintf(&sb, "#define SHAPELET_CONST %.17e\n", sbf.SqrtPiSqOver2Ln2)
	fmt.Fprintf(&sb, "#define SBF_L %d\n", dc.basis.L())
	fmt.Fprintf(&sb, "#define SBF_N %d\n", dc.basis.N())
	fmt.Fprintf(&sb, "#define SBF_C %.17e\n", dc.basis.C())
	fmt.Fprintf(&sb, "#define SBF_DX %.17e\n", dc.basis.Dx())
	sb.WriteString("\n")

	sb.WriteString(jonesMacros)
	return sb.String()
}

// jonesMacros operate on 2x2 complex matrices stored as 8 reals: re/im
// interleaved, row-major (00, 01, 10, 11).
const jonesMacros = `
#define CMUL_RE(ar, ai, br, bi) ((ar) * (br) - (ai) * (bi))
#define CMUL_IM(ar, ai, br, bi) ((ar) * (bi) + (ai) * (br))

// a * conj(b)
#define CMULC_RE(ar, ai, br, bi) ((ar) * (br) + (ai) * (bi))
#define CMULC_IM(ar, ai, br, bi) ((ai) * (br) - (ar) * (bi))

// acc += (flux at fd) * (sre + i*sim), elementwise over the four entries
#define JONES_CMAC(acc, fd, sre, sim) do { \
    (acc)[0] += CMUL_RE((fd)[0], (fd)[1], (sre), (sim)); \
    (acc)[1] += CMUL_IM((fd)[0], (fd)[1], (sre), (sim)); \
    (acc)[2] += CMUL_RE((fd)[2], (fd)[3], (sre), (sim)); \
    (acc)[3] += CMUL_IM((fd)[2], (fd)[3], (sre), (sim)); \
    (acc)[4] += CMUL_RE((fd)[4], (fd)[5], (sre), (sim)); \
    (acc)[5] += CMUL_IM((fd)[4], (fd)[5], (sre), (sim)); \
    (acc)[6] += CMUL_RE((fd)[6], (fd)[7], (sre), (sim)); \
    (acc)[7] += CMUL_IM((fd)[6], (fd)[7], (sre), (sim)); \
} while (0)

// o = a * b (matrix product)
#define JONES_MUL(a, b, o) do { \
    (o)[0] = CMUL_RE((a)[0], (a)[1], (b)[0], (b)[1]) + CMUL_RE((a)[2], (a)[3], (b)[4], (b)[5]); \
    (o)[1] = CMUL_IM((a)[0], (a)[1], (b)[0], (b)[1]) + CMUL_IM((a)[2], (a)[3], (b)[4], (b)[5]); \
    (o)[2] = CMUL_RE((a)[0], (a)[1], (b)[2], (b)[3]) + CMUL_RE((a)[2], (a)[3], (b)[6], (b)[7]); \
    (o)[3] = CMUL_IM((a)[0], (a)[1], (b)[2], (b)[3]) + CMUL_IM((a)[2], (a)[3], (b)[6], (b)[7]); \
    (o)[4] = CMUL_RE((a)[4], (a)[5], (b)[0], (b)[1]) + CMUL_RE((a)[6], (a)[7], (b)[4], (b)[5]); \
    (o)[5] = CMUL_IM((a)[4], (a)[5], (b)[0], (b)[1]) + CMUL_IM((a)[6], (a)[7], (b)[4], (b)[5]); \
    (o)[6] = CMUL_RE((a)[4], (a)[5], (b)[2], (b)[3]) + CMUL_RE((a)[6], (a)[7], (b)[6], (b)[7]); \
    (o)[7] = CMUL_IM((a)[4], (a)[5], (b)[2], (b)[3]) + CMUL_IM((a)[6], (a)[7], (b)[6], (b)[7]); \
} while (0)

// o = a * conj-transpose(b)
#define JONES_MULH(a, b, o) do { \
    (o)[0] = CMULC_RE((a)[0], (a)[1], (b)[0], (b)[1]) + CMULC_RE((a)[2], (a)[3], (b)[2], (b)[3]); \
    (o)[1] = CMULC_IM((a)[0], (a)[1], (b)[0], (b)[1]) + CMULC_IM((a)[2], (a)[3], (b)[2], (b)[3]); \
    (o)[2] = CMULC_RE((a)[0], (a)[1], (b)[4], (b)[5]) + CMULC_RE((a)[2], (a)[3], (b)[6], (b)[7]); \
    (o)[3] = CMULC_IM((a)[0], (a)[1], (b)[4], (b)[5]) + CMULC_IM((a)[2], (a)[3], (b)[6], (b)[7]); \
    (o)[4] = CMULC_RE((a)[4], (a)[5], (b)[0], (b)[1]) + CMULC_RE((a)[6], (a)[7], (b)[2], (b)[3]); \
    (o)[5] = CMULC_IM((a)[4], (a)[5], (b)[0], (b)[1]) + CMULC_IM((a)[6], (a)[7], (b)[2], (b)[3]); \
    (o)[6] = CMULC_RE((a)[4], (a)[5], (b)[4], (b)[5]) + CMULC_RE((a)[6], (a)[7], (b)[6], (b)[7]); \
    (o)[7] = CMULC_IM((a)[4], (a)[5], (b)[4], (b)[5]) + CMULC_IM((a)[6], (a)[7], (b)[6], (b)[7]); \
} while (0)

// o = inverse(b), via the 2x2 adjugate over the determinant
#define JONES_INV(b, o) do { \
    const real_t det_re = CMUL_RE((b)[0], (b)[1], (b)[6], (b)[7]) - CMUL_RE((b)[2], (b)[3], (b)[4], (b)[5]); \
    const real_t det_im = CMUL_IM((b)[0], (b)[1], (b)[6], (b)[7]) - CMUL_IM((b)[2], (b)[3], (b)[4], (b)[5]); \
    const real_t det_sq = det_re * det_re + det_im * det_im; \
    const real_t inv_re = det_re / det_sq; \
    const real_t inv_im = -det_im / det_sq; \
    (o)[0] = CMUL_RE((b)[6], (b)[7], inv_re, inv_im); \
    (o)[1] = CMUL_IM((b)[6], (b)[7], inv_re, inv_im); \
    (o)[2] = -CMUL_RE((b)[2], (b)[3], inv_re, inv_im); \
    (o)[3] = -CMUL_IM((b)[2], (b)[3], inv_re, inv_im); \
    (o)[4] = -CMUL_RE((b)[4], (b)[5], inv_re, inv_im); \
    (o)[5] = -CMUL_IM((b)[4], (b)[5], inv_re, inv_im); \
    (o)[6] = CMUL_RE((b)[0], (b)[1], inv_re, inv_im); \
    (o)[7] = CMUL_IM((b)[0], (b)[1], inv_re, inv_im); \
} while (0)

// Normalize the two beam matrices for a cell, then acc = b1n * acc * b2n^H.
#define JONES_APPLY_BEAM(beamJones, beamNorm, i1, i2, acc) do { \
    real_t b1n[8], b2n[8], ninv[8], tmp[8]; \
    JONES_INV((beamNorm) + (i1), ninv); \
    JONES_MUL((beamJones) + (i1), ninv, b1n); \
    JONES_INV((beamNorm) + (i2), ninv); \
    JONES_MUL((beamJones) + (i2), ninv, b2n); \
    JONES_MUL(b1n, acc, tmp); \
    JONES_MULH(tmp, b2n, acc); \
} while (0)
`
