package model

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/notargets/gocca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openradio/viskernel/beam"
	"github.com/openradio/viskernel/jones"
	"github.com/openradio/viskernel/sky"
	"github.com/openradio/viskernel/utils"
)

func testDevice(t *testing.T) *gocca.OCCADevice {
	t.Helper()
	device, err := utils.CreateDevice()
	if err != nil {
		t.Skipf("no OCCA backend: %v", err)
	}
	t.Logf("running on %s", device.Mode())
	return device
}

func testComponents(numFreqs int) sky.Components {
	lmn := sky.LMN{L: 0.015, M: -0.008, N: math.Sqrt(1 - 0.015*0.015 - 0.008*0.008)}
	fluxes := func() []jones.F64 {
		out := make([]jones.F64, numFreqs)
		for i := range out {
			out[i] = jones.F64{
				J00: complex(3.2, 0), J01: complex(0.1, 0.05),
				J10: complex(0.1, -0.05), J11: complex(2.9, 0),
			}
		}
		return out
	}
	return sky.Components{
		Points: sky.PointComponents{
			LMNs:      []sky.LMN{lmn},
			FluxJones: fluxes(),
		},
		Gaussians: sky.GaussianComponents{
			LMNs:      []sky.LMN{{L: -0.01, M: 0.02, N: math.Sqrt(1 - 0.01*0.01 - 0.02*0.02)}},
			FluxJones: fluxes(),
			Params:    []sky.GaussianParams{{Maj: 0.001, Min: 0.0005, PA: 0.7}},
		},
	}
}

func TestDeviceMatchesHost(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	cfg := testConfig()
	m, err := NewModeller(device, cfg)
	require.NoError(t, err)
	defer m.Free()

	comps := testComponents(m.NumFreqs)
	deviceVis, err := m.ModelTimestep(comps)
	require.NoError(t, err)

	hm, err := NewHostModeller(testConfig())
	require.NoError(t, err)
	hostVis, err := hm.ModelTimestep(comps)
	require.NoError(t, err)

	require.Len(t, deviceVis, len(hostVis))
	for i := range hostVis {
		assertJonesClose(t, hostVis[i], deviceVis[i], 1e-5)
	}
}

func TestDevicePointAtPhaseCentre(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	m, err := NewModeller(device, testConfig())
	require.NoError(t, err)
	defer m.Free()

	flux := make([]jones.F64, m.NumFreqs)
	for i := range flux {
		flux[i] = jones.Identity[complex128]()
	}
	vis, err := m.ModelTimestep(sky.Components{
		Points: sky.PointComponents{
			LMNs:      []sky.LMN{{L: 0, M: 0, N: 1}},
			FluxJones: flux,
		},
	})
	require.NoError(t, err)

	want := jones.Identity[complex64]()
	for i, v := range vis {
		assert.Equalf(t, want, v, "cell %d", i)
	}
}

func TestDeviceVisRoundTrip(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	// A host buffer with known nonzero values must survive creation and an
	// immediate read-back untouched.
	cfg := testConfig()
	cfg.Vis = make([]jones.F32, len(cfg.UVWs)*len(cfg.Freqs))
	for i := range cfg.Vis {
		cfg.Vis[i] = jones.F32{
			J00: complex(float32(i), 0.5),
			J11: complex(-float32(i), 1.5),
		}
	}
	snapshot := append([]jones.F32(nil), cfg.Vis...)

	dc, err := NewDeviceContext(device, cfg)
	require.NoError(t, err)
	defer dc.Free()

	got, err := dc.ReadVis()
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
}

func TestDeviceReadVisIdempotent(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	m, err := NewModeller(device, testConfig())
	require.NoError(t, err)
	defer m.Free()

	_, err = m.ModelTimestep(testComponents(m.NumFreqs))
	require.NoError(t, err)

	first, err := m.ReadVis()
	require.NoError(t, err)
	snapshot := append([]jones.F32(nil), first...)
	second, err := m.ReadVis()
	require.NoError(t, err)
	assert.Equal(t, snapshot, second)
}

func TestDeviceClearVis(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	m, err := NewModeller(device, testConfig())
	require.NoError(t, err)
	defer m.Free()

	_, err = m.ModelTimestep(testComponents(m.NumFreqs))
	require.NoError(t, err)
	require.NoError(t, m.ClearVis())

	vis, err := m.ReadVis()
	require.NoError(t, err)
	for i, v := range vis {
		assert.Equalf(t, jones.F32{}, v, "cell %d", i)
	}
}

func TestDeviceBeamMatchesHost(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	mkBeam := func() *beam.Response {
		resp := beam.Identity(3, 2)
		resp.Jones[0] = jones.F64{
			J00: complex(0.95, 0.02), J01: complex(0.01, -0.01),
			J10: complex(-0.02, 0.01), J11: complex(0.9, -0.03),
		}
		resp.Norm[0] = jones.F64{
			J00: complex(0.97, 0), J01: complex(0, 0),
			J10: complex(0, 0), J11: complex(0.92, 0),
		}
		return resp
	}

	cfg := testConfig()
	cfg.Beam = mkBeam()
	m, err := NewModeller(device, cfg)
	require.NoError(t, err)
	defer m.Free()

	comps := testComponents(m.NumFreqs)
	deviceVis, err := m.ModelTimestep(comps)
	require.NoError(t, err)

	hostCfg := testConfig()
	hostCfg.Beam = mkBeam()
	hm, err := NewHostModeller(hostCfg)
	require.NoError(t, err)
	hostVis, err := hm.ModelTimestep(comps)
	require.NoError(t, err)

	for i := range hostVis {
		assertJonesClose(t, hostVis[i], deviceVis[i], 1e-5)
	}
}

func TestDeviceFloat32Mode(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	cfg := testConfig()
	cfg.FloatType = Float32
	m, err := NewModeller(device, cfg)
	require.NoError(t, err)
	defer m.Free()

	deviceVis, err := m.ModelTimestep(testComponents(m.NumFreqs))
	require.NoError(t, err)

	hm, err := NewHostModeller(testConfig())
	require.NoError(t, err)
	hostVis, err := hm.ModelTimestep(testComponents(m.NumFreqs))
	require.NoError(t, err)

	// Single-precision arithmetic drifts further from the double-precision
	// reference; the answers still have to agree to a few parts in 1e3.
	for i := range hostVis {
		assertJonesClose(t, hostVis[i], deviceVis[i], 1e-2)
	}
}

func TestDeviceLifecycleTrace(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	var buf bytes.Buffer
	old := logger
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(old)

	m, err := NewModeller(device, testConfig())
	require.NoError(t, err)
	m.Free()

	trace := buf.String()
	assert.Contains(t, trace, "device context created")
	assert.Contains(t, trace, "kernel built")
	assert.Contains(t, trace, "modelShapelets")
	assert.Contains(t, trace, "device context freed")
}

func TestDeviceShapeletMatchesHost(t *testing.T) {
	device := testDevice(t)
	defer device.Free()

	cfg := testConfig()
	m, err := NewModeller(device, cfg)
	require.NoError(t, err)
	defer m.Free()

	uvs := make([]sky.ShapeletUV, m.NumBaselines)
	for i := range uvs {
		uvs[i] = sky.ShapeletUV{U: cfg.UVWs[i].U, V: cfg.UVWs[i].V}
	}
	comps := sky.Components{
		Shapelets: sky.ShapeletComponents{
			LMNs:      []sky.LMN{{L: 0.005, M: 0.003, N: math.Sqrt(1 - 0.005*0.005 - 0.003*0.003)}},
			FluxJones: identityFluxes(1, m.NumFreqs),
			Params:    []sky.GaussianParams{{Maj: 0.0008, Min: 0.0004, PA: 1.1}},
			UVs:       uvs,
			Coeffs: []sky.ShapeletCoeff{
				{N1: 0, N2: 0, Value: 0.8},
				{N1: 1, N2: 0, Value: 0.15},
				{N1: 0, N2: 2, Value: -0.05},
				// Out-of-range orders contribute zero on both paths.
				{N1: -3, N2: 0, Value: 0.5},
			},
			CoeffCounts: []int{4},
		},
	}

	deviceVis, err := m.ModelTimestep(comps)
	require.NoError(t, err)

	hm, err := NewHostModeller(testConfig())
	require.NoError(t, err)
	hostVis, err := hm.ModelTimestep(comps)
	require.NoError(t, err)

	for i := range hostVis {
		assertJonesClose(t, hostVis[i], deviceVis[i], 1e-5)
	}
}
