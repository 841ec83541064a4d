package model

import (
	"fmt"

	"github.com/notargets/gocca"

	"github.com/openradio/viskernel/jones"
	"github.com/openradio/viskernel/sky"
)

// SkyModeller predicts visibilities from sky-model components. Modeller runs
// on an OCCA device; HostModeller is the pure-Go reference with identical
// semantics.
type SkyModeller interface {
	ClearVis() error
	ModelPoints(sky.PointComponents) error
	ModelGaussians(sky.GaussianComponents) error
	ModelShapelets(sky.ShapeletComponents) error
	ModelTimestep(sky.Components) ([]jones.F32, error)
	ReadVis() ([]jones.F32, error)
	Free()
}

// Modeller drives the modelling kernels against a DeviceContext. The kernels
// are compiled once at construction with the context's counts and precision
// baked into the preamble.
type Modeller struct {
	*DeviceContext
	kernels map[string]*gocca.OCCAKernel
}

var _ SkyModeller = (*Modeller)(nil)

// NewModeller creates the device context and builds the four kernels. On any
// build failure everything already acquired is released.
func NewModeller(device *gocca.OCCADevice, cfg Config) (*Modeller, error) {
	if device != nil && device.Mode() == "CUDA" && len(cfg.Freqs) > 1024 {
		return nil, fmt.Errorf("%w: CUDA @inner limit is 1024 threads but NumFreqs=%d",
			ErrInvalidConfig, len(cfg.Freqs))
	}

	dc, err := NewDeviceContext(device, cfg)
	if err != nil {
		return nil, err
	}

	m := &Modeller{
		DeviceContext: dc,
		kernels:       make(map[string]*gocca.OCCAKernel),
	}

	preamble := dc.kernelPreamble()
	sources := map[string]string{
		"clearVis":       clearVisSource,
		"modelPoints":    modelPointsSource,
		"modelGaussians": modelGaussiansSource,
		"modelShapelets": modelShapeletsSource,
	}
	for name, src := range sources {
		kernel, err := m.buildKernel(preamble+"\n"+src, name)
		if err != nil {
			m.Free()
			return nil, err
		}
		m.kernels[name] = kernel
	}

	return m, nil
}

func (m *Modeller) buildKernel(fullSource, kernelName string) (*gocca.OCCAKernel, error) {
	var kernel *gocca.OCCAKernel
	var err error

	if m.device.Mode() == "OpenMP" {
		// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = m.device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = m.device.BuildKernelFromString(fullSource, kernelName, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKernelBuild, kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("%w: %s: build returned nil", ErrKernelBuild, kernelName)
	}
	logger.Debug("kernel built", "name", kernelName, "mode", m.device.Mode())
	return kernel, nil
}

// ClearVis zero-fills the device visibility buffer in place. Idempotent;
// called once per timestep before modelling.
func (m *Modeller) ClearVis() error {
	if m.freed {
		return ErrContextFreed
	}
	if err := m.kernels["clearVis"].RunWithArgs(m.mem("vis")); err != nil {
		return fmt.Errorf("%w: clearVis: %v", ErrKernelLaunch, err)
	}
	return nil
}

// ModelPoints models every point component into the visibility buffer. The
// buffer is not cleared first. A zero-length component list is a no-op.
func (m *Modeller) ModelPoints(pc sky.PointComponents) error {
	if m.freed {
		return ErrContextFreed
	}
	n := len(pc.LMNs)
	if n == 0 {
		return nil
	}
	if len(pc.FluxJones) != n*m.NumFreqs {
		return fmt.Errorf("%w: points: %d flux entries, want %d",
			ErrComponentShape, len(pc.FluxJones), n*m.NumFreqs)
	}

	lmnMem, err := m.mallocTransient(flattenLMNs(pc.LMNs))
	if err != nil {
		return fmt.Errorf("%w: point lmns", err)
	}
	defer lmnMem.Free()
	fluxMem, err := m.mallocTransient(flattenJones(pc.FluxJones))
	if err != nil {
		return fmt.Errorf("%w: point fluxes", err)
	}
	defer fluxMem.Free()

	err = m.kernels["modelPoints"].RunWithArgs(
		int32(n), lmnMem, fluxMem,
		m.mem("uvws"), m.mem("freqs"),
		m.mem("ant1"), m.mem("ant2"), m.mem("tileMap"), m.mem("freqMap"),
		m.mem("beamJones"), m.mem("beamNorm"),
		m.mem("vis"))
	if err != nil {
		return fmt.Errorf("%w: modelPoints: %v", ErrKernelLaunch, err)
	}
	m.device.Finish()
	return nil
}

// ModelGaussians models every Gaussian component into the visibility buffer.
func (m *Modeller) ModelGaussians(gc sky.GaussianComponents) error {
	if m.freed {
		return ErrContextFreed
	}
	n := len(gc.LMNs)
	if n == 0 {
		return nil
	}
	if len(gc.FluxJones) != n*m.NumFreqs {
		return fmt.Errorf("%w: gaussians: %d flux entries, want %d",
			ErrComponentShape, len(gc.FluxJones), n*m.NumFreqs)
	}
	if len(gc.Params) != n {
		return fmt.Errorf("%w: gaussians: %d param entries, want %d",
			ErrComponentShape, len(gc.Params), n)
	}

	lmnMem, err := m.mallocTransient(flattenLMNs(gc.LMNs))
	if err != nil {
		return fmt.Errorf("%w: gaussian lmns", err)
	}
	defer lmnMem.Free()
	fluxMem, err := m.mallocTransient(flattenJones(gc.FluxJones))
	if err != nil {
		return fmt.Errorf("%w: gaussian fluxes", err)
	}
	defer fluxMem.Free()
	paramMem, err := m.mallocTransient(flattenGaussians(gc.Params))
	if err != nil {
		return fmt.Errorf("%w: gaussian params", err)
	}
	defer paramMem.Free()

	err = m.kernels["modelGaussians"].RunWithArgs(
		int32(n), lmnMem, fluxMem, paramMem,
		m.mem("uvws"), m.mem("freqs"),
		m.mem("ant1"), m.mem("ant2"), m.mem("tileMap"), m.mem("freqMap"),
		m.mem("beamJones"), m.mem("beamNorm"),
		m.mem("vis"))
	if err != nil {
		return fmt.Errorf("%w: modelGaussians: %v", ErrKernelLaunch, err)
	}
	m.device.Finish()
	return nil
}

// ModelShapelets models every shapelet component into the visibility buffer.
// The ragged coefficient lists go up as parallel flat arrays plus a
// prefix-sum offset table.
func (m *Modeller) ModelShapelets(sc sky.ShapeletComponents) error {
	if m.freed {
		return ErrContextFreed
	}
	n := len(sc.LMNs)
	if n == 0 {
		return nil
	}
	if len(sc.FluxJones) != n*m.NumFreqs {
		return fmt.Errorf("%w: shapelets: %d flux entries, want %d",
			ErrComponentShape, len(sc.FluxJones), n*m.NumFreqs)
	}
	if len(sc.Params) != n {
		return fmt.Errorf("%w: shapelets: %d param entries, want %d",
			ErrComponentShape, len(sc.Params), n)
	}
	if len(sc.UVs) != n*m.NumBaselines {
		return fmt.Errorf("%w: shapelets: %d uv entries, want %d",
			ErrComponentShape, len(sc.UVs), n*m.NumBaselines)
	}
	if len(sc.CoeffCounts) != n {
		return fmt.Errorf("%w: shapelets: %d coeff counts, want %d",
			ErrComponentShape, len(sc.CoeffCounts), n)
	}
	offsets := sky.CoeffOffsets(sc.CoeffCounts)
	if int(offsets[n]) != len(sc.Coeffs) {
		return fmt.Errorf("%w: shapelets: counts sum to %d but %d coeffs given",
			ErrComponentShape, offsets[n], len(sc.Coeffs))
	}

	lmnMem, err := m.mallocTransient(flattenLMNs(sc.LMNs))
	if err != nil {
		return fmt.Errorf("%w: shapelet lmns", err)
	}
	defer lmnMem.Free()
	fluxMem, err := m.mallocTransient(flattenJones(sc.FluxJones))
	if err != nil {
		return fmt.Errorf("%w: shapelet fluxes", err)
	}
	defer fluxMem.Free()
	paramMem, err := m.mallocTransient(flattenGaussians(sc.Params))
	if err != nil {
		return fmt.Errorf("%w: shapelet params", err)
	}
	defer paramMem.Free()
	uvMem, err := m.mallocTransient(flattenShapeletUVs(sc.UVs))
	if err != nil {
		return fmt.Errorf("%w: shapelet uvs", err)
	}
	defer uvMem.Free()

	n1, n2, values := splitCoeffs(sc.Coeffs)
	n1Mem, err := m.mallocTransientInts(n1)
	if err != nil {
		return fmt.Errorf("%w: shapelet coeff n1", err)
	}
	defer n1Mem.Free()
	n2Mem, err := m.mallocTransientInts(n2)
	if err != nil {
		return fmt.Errorf("%w: shapelet coeff n2", err)
	}
	defer n2Mem.Free()
	valMem, err := m.mallocTransient(values)
	if err != nil {
		return fmt.Errorf("%w: shapelet coeff values", err)
	}
	defer valMem.Free()
	offMem, err := m.mallocTransientInts(offsets)
	if err != nil {
		return fmt.Errorf("%w: shapelet coeff offsets", err)
	}
	defer offMem.Free()

	err = m.kernels["modelShapelets"].RunWithArgs(
		int32(n), lmnMem, fluxMem, paramMem, uvMem,
		n1Mem, n2Mem, valMem, offMem, m.mem("sbfTable"),
		m.mem("uvws"), m.mem("freqs"),
		m.mem("ant1"), m.mem("ant2"), m.mem("tileMap"), m.mem("freqMap"),
		m.mem("beamJones"), m.mem("beamNorm"),
		m.mem("vis"))
	if err != nil {
		return fmt.Errorf("%w: modelShapelets: %v", ErrKernelLaunch, err)
	}
	m.device.Finish()
	return nil
}

// ModelTimestep runs one whole timestep: clear, then the point, Gaussian and
// shapelet kernels in order, then a synchronized read-back. Returns the host
// visibility buffer.
func (m *Modeller) ModelTimestep(comps sky.Components) ([]jones.F32, error) {
	if err := m.ClearVis(); err != nil {
		return nil, err
	}
	if err := m.ModelPoints(comps.Points); err != nil {
		return nil, err
	}
	if err := m.ModelGaussians(comps.Gaussians); err != nil {
		return nil, err
	}
	if err := m.ModelShapelets(comps.Shapelets); err != nil {
		return nil, err
	}
	return m.ReadVis()
}

// Free releases the kernels and every device buffer.
func (m *Modeller) Free() {
	for _, kernel := range m.kernels {
		kernel.Free()
	}
	m.kernels = nil
	m.DeviceContext.Free()
}
