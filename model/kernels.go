package model

// OKL kernel sources. Each modelling kernel assigns one thread per
// (baseline, frequency) output cell: baselines across @outer, frequencies
// across @inner. A thread loops serially over the components of its kernel's
// type, accumulates in real_t registers, applies the beam once per cell, and
// only then adds into the float visibility buffer, truncating per field. No
// cell is touched by more than one thread, so no atomics are needed.
//
// The beam arguments are always in the signature; when HAVE_BEAM is 0 the
// lookup is compiled out and the placeholders passed for them are never read.

const clearVisSource = `
@kernel void clearVis(float *vis) {
	for (int bl = 0; bl < NUM_BASELINES; ++bl; @outer) {
		for (int f = 0; f < NUM_FREQS; ++f; @inner) {
			const int out = 8 * (bl * NUM_FREQS + f);
			for (int k = 0; k < 8; ++k) {
				vis[out + k] = 0.0f;
			}
		}
	}
}
`

const modelPointsSource = `
@kernel void modelPoints(const int numComps,
                         const real_t *lmns,
                         const real_t *fluxes,
                         const real_t *uvws,
                         const real_t *freqs,
                         const int *ant1,
                         const int *ant2,
                         const int *tileMap,
                         const int *freqMap,
                         const real_t *beamJones,
                         const real_t *beamNorm,
                         float *vis) {
	for (int bl = 0; bl < NUM_BASELINES; ++bl; @outer) {
		for (int f = 0; f < NUM_FREQS; ++f; @inner) {
			const real_t scale = freqs[f] / VEL_C;
			const real_t u = uvws[3 * bl + 0] * scale;
			const real_t v = uvws[3 * bl + 1] * scale;
			const real_t w = uvws[3 * bl + 2] * scale;

			real_t acc[8];
			for (int k = 0; k < 8; ++k) {
				acc[k] = REAL_ZERO;
			}

			for (int c = 0; c < numComps; ++c) {
				const real_t arg = u * lmns[3 * c + 0] +
				                   v * lmns[3 * c + 1] +
				                   w * lmns[3 * c + 2];
				const real_t p_re = cos(arg);
				const real_t p_im = sin(arg);
				const real_t *fd = fluxes + 8 * (f * numComps + c);
				JONES_CMAC(acc, fd, p_re, p_im);
			}

			if (HAVE_BEAM) {
				const int i1 = 8 * (tileMap[ant1[bl]] * NUM_UNIQUE_FREQS + freqMap[f]);
				const int i2 = 8 * (tileMap[ant2[bl]] * NUM_UNIQUE_FREQS + freqMap[f]);
				JONES_APPLY_BEAM(beamJones, beamNorm, i1, i2, acc);
			}

			const int out = 8 * (bl * NUM_FREQS + f);
			for (int k = 0; k < 8; ++k) {
				vis[out + k] += (float)acc[k];
			}
		}
	}
}
`

const modelGaussiansSource = `
@kernel void modelGaussians(const int numComps,
                            const real_t *lmns,
                            const real_t *fluxes,
                            const real_t *params,
                            const real_t *uvws,
                            const real_t *freqs,
                            const int *ant1,
                            const int *ant2,
                            const int *tileMap,
                            const int *freqMap,
                            const real_t *beamJones,
                            const real_t *beamNorm,
                            float *vis) {
	for (int bl = 0; bl < NUM_BASELINES; ++bl; @outer) {
		for (int f = 0; f < NUM_FREQS; ++f; @inner) {
			const real_t scale = freqs[f] / VEL_C;
			const real_t u = uvws[3 * bl + 0] * scale;
			const real_t v = uvws[3 * bl + 1] * scale;
			const real_t w = uvws[3 * bl + 2] * scale;

			real_t acc[8];
			for (int k = 0; k < 8; ++k) {
				acc[k] = REAL_ZERO;
			}

			for (int c = 0; c < numComps; ++c) {
				const real_t arg = u * lmns[3 * c + 0] +
				                   v * lmns[3 * c + 1] +
				                   w * lmns[3 * c + 2];
				const real_t maj = params[3 * c + 0];
				const real_t min = params[3 * c + 1];
				const real_t s_pa = sin(params[3 * c + 2]);
				const real_t c_pa = cos(params[3 * c + 2]);

				// Project (u, v) onto the component's major/minor axes.
				const real_t k_x = u * s_pa + v * c_pa;
				const real_t k_y = u * c_pa - v * s_pa;
				const real_t env = exp(EXP_CONST * (maj * maj * k_x * k_x +
				                                    min * min * k_y * k_y));

				const real_t p_re = env * cos(arg);
				const real_t p_im = env * sin(arg);
				const real_t *fd = fluxes + 8 * (f * numComps + c);
				JONES_CMAC(acc, fd, p_re, p_im);
			}

			if (HAVE_BEAM) {
				const int i1 = 8 * (tileMap[ant1[bl]] * NUM_UNIQUE_FREQS + freqMap[f]);
				const int i2 = 8 * (tileMap[ant2[bl]] * NUM_UNIQUE_FREQS + freqMap[f]);
				JONES_APPLY_BEAM(beamJones, beamNorm, i1, i2, acc);
			}

			const int out = 8 * (bl * NUM_FREQS + f);
			for (int k = 0; k < 8; ++k) {
				vis[out + k] += (float)acc[k];
			}
		}
	}
}
`

const modelShapeletsSource = `
// Linear interpolation into the basis table for order n at sample pos.
// Positions outside the sampled range or orders outside the table
// contribute zero.
#define SBF_INTERP(sbf, n, pos, out) do { \
	out = REAL_ZERO; \
	if ((pos) >= REAL_ZERO && (pos) < (real_t)(SBF_L - 1) && \
	    (n) >= 0 && (n) < SBF_N) { \
		const int ip = (int)(pos); \
		const real_t frac = (pos) - (real_t)ip; \
		const real_t lo = (sbf)[(n) * SBF_L + ip]; \
		const real_t hi = (sbf)[(n) * SBF_L + ip + 1]; \
		out = lo + (hi - lo) * frac; \
	} \
} while (0)

@kernel void modelShapelets(const int numComps,
                            const real_t *lmns,
                            const real_t *fluxes,
                            const real_t *params,
                            const real_t *shapeletUVs,
                            const int *coeffN1,
                            const int *coeffN2,
                            const real_t *coeffValues,
                            const int *coeffOffsets,
                            const real_t *sbfTable,
                            const real_t *uvws,
                            const real_t *freqs,
                            const int *ant1,
                            const int *ant2,
                            const int *tileMap,
                            const int *freqMap,
                            const real_t *beamJones,
                            const real_t *beamNorm,
                            float *vis) {
	for (int bl = 0; bl < NUM_BASELINES; ++bl; @outer) {
		for (int f = 0; f < NUM_FREQS; ++f; @inner) {
			const real_t i_pow_re[4] = {REAL_ONE, REAL_ZERO, -REAL_ONE, REAL_ZERO};
			const real_t i_pow_im[4] = {REAL_ZERO, REAL_ONE, REAL_ZERO, -REAL_ONE};

			const real_t scale = freqs[f] / VEL_C;
			const real_t u = uvws[3 * bl + 0] * scale;
			const real_t v = uvws[3 * bl + 1] * scale;
			const real_t w = uvws[3 * bl + 2] * scale;

			real_t acc[8];
			for (int k = 0; k < 8; ++k) {
				acc[k] = REAL_ZERO;
			}

			for (int c = 0; c < numComps; ++c) {
				const real_t arg = u * lmns[3 * c + 0] +
				                   v * lmns[3 * c + 1] +
				                   w * lmns[3 * c + 2];
				const real_t maj = params[3 * c + 0];
				const real_t min = params[3 * c + 1];
				const real_t s_pa = sin(params[3 * c + 2]);
				const real_t c_pa = cos(params[3 * c + 2]);

				// Shapelet-specific w-free UV for this (baseline, component).
				const real_t s_u = shapeletUVs[2 * (bl * numComps + c) + 0] * scale;
				const real_t s_v = shapeletUVs[2 * (bl * numComps + c) + 1] * scale;
				const real_t k_x = s_u * s_pa + s_v * c_pa;
				const real_t k_y = s_u * c_pa - s_v * s_pa;
				const real_t env_gauss = exp(EXP_CONST * (maj * maj * k_x * k_x +
				                                          min * min * k_y * k_y));

				const real_t const_x = maj * SHAPELET_CONST / SBF_DX;
				const real_t const_y = -min * SHAPELET_CONST / SBF_DX;
				const real_t x_pos = k_x * const_x + SBF_C;
				const real_t y_pos = k_y * const_y + SBF_C;

				real_t env_re = REAL_ZERO;
				real_t env_im = REAL_ZERO;
				for (int t = coeffOffsets[c]; t < coeffOffsets[c + 1]; ++t) {
					real_t x_val, y_val;
					SBF_INTERP(sbfTable, coeffN1[t], x_pos, x_val);
					SBF_INTERP(sbfTable, coeffN2[t], y_pos, y_val);
					const real_t rest = coeffValues[t] * x_val * y_val;
					const int ip = ((coeffN1[t] + coeffN2[t]) % 4 + 4) % 4;
					env_re += i_pow_re[ip] * rest;
					env_im += i_pow_im[ip] * rest;
				}

				const real_t p_re = cos(arg);
				const real_t p_im = sin(arg);
				const real_t s_re = env_gauss * CMUL_RE(p_re, p_im, env_re, env_im);
				const real_t s_im = env_gauss * CMUL_IM(p_re, p_im, env_re, env_im);
				const real_t *fd = fluxes + 8 * (f * numComps + c);
				JONES_CMAC(acc, fd, s_re, s_im);
			}

			if (HAVE_BEAM) {
				const int i1 = 8 * (tileMap[ant1[bl]] * NUM_UNIQUE_FREQS + freqMap[f]);
				const int i2 = 8 * (tileMap[ant2[bl]] * NUM_UNIQUE_FREQS + freqMap[f]);
				JONES_APPLY_BEAM(beamJones, beamNorm, i1, i2, acc);
			}

			const int out = 8 * (bl * NUM_FREQS + f);
			for (int k = 0; k < 8; ++k) {
				vis[out + k] += (float)acc[k];
			}
		}
	}
}
`
