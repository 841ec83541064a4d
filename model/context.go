package model

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"

	"github.com/openradio/viskernel/beam"
	"github.com/openradio/viskernel/jones"
	"github.com/openradio/viskernel/sbf"
	"github.com/openradio/viskernel/sky"
)

// DeviceContext owns the device-resident copies of everything that stays
// fixed across a modelling run (baseline geometry, frequencies, the shapelet
// basis table and the beam tables) plus the one mutable buffer, the
// visibility accumulator. It is created once per run, cleared and read back
// every timestep, and freed once at the end. Counts never change after
// creation.
type DeviceContext struct {
	device    *gocca.OCCADevice
	floatType DataType

	NumBaselines int
	NumFreqs     int
	NumTiles     int

	uvws  []sky.UVW
	freqs []float64
	basis *sbf.Table
	beam  *beam.Response

	ant1, ant2 []int32

	pooledMemory map[string]*gocca.OCCAMemory
	hostVis      []jones.F32
	freed        bool
}

// NewDeviceContext allocates every device buffer and copies the immutable
// tables host to device once. The initial host visibility buffer (zeroed
// unless the caller supplied one) is copied up as part of creation. A failed
// creation releases every buffer it already acquired before returning.
func NewDeviceContext(device *gocca.OCCADevice, cfg Config) (*DeviceContext, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	dc := &DeviceContext{
		device:       device,
		floatType:    cfg.FloatType,
		NumBaselines: len(cfg.UVWs),
		NumFreqs:     len(cfg.Freqs),
		NumTiles:     cfg.NumTiles,
		uvws:         cfg.UVWs,
		freqs:        cfg.Freqs,
		basis:        cfg.Basis,
		beam:         cfg.Beam,
		pooledMemory: make(map[string]*gocca.OCCAMemory),
		hostVis:      cfg.Vis,
	}
	if dc.NumTiles > 0 {
		dc.ant1, dc.ant2 = sky.BaselineAntennas(dc.NumTiles)
	}

	ok := false
	defer func() {
		if !ok {
			dc.Free()
		}
	}()

	if err := dc.allocReals("uvws", flattenUVWs(dc.uvws)); err != nil {
		return nil, err
	}
	if err := dc.allocReals("freqs", dc.freqs); err != nil {
		return nil, err
	}
	if err := dc.allocReals("sbfTable", dc.basis.Flatten()); err != nil {
		return nil, err
	}
	if err := dc.allocVis(); err != nil {
		return nil, err
	}
	if err := dc.allocBeam(); err != nil {
		return nil, err
	}

	ok = true
	logger.Debug("device context created",
		"mode", device.Mode(),
		"baselines", dc.NumBaselines,
		"freqs", dc.NumFreqs,
		"tiles", dc.NumTiles,
		"precision", dc.floatType,
		"beam", dc.beam != nil)
	return dc, nil
}

// allocBeam uploads the beam tables and the per-baseline antenna maps. The
// kernels take these arguments whether or not a beam is present, so a
// beam-free context uploads one-element placeholders that are never read
// (the preamble compiles the lookup out).
func (dc *DeviceContext) allocBeam() error {
	if dc.beam == nil {
		if err := dc.allocReals("beamJones", make([]float64, 8)); err != nil {
			return err
		}
		if err := dc.allocReals("beamNorm", make([]float64, 8)); err != nil {
			return err
		}
		for _, name := range []string{"tileMap", "freqMap", "ant1", "ant2"} {
			if err := dc.allocInts(name, []int32{0}); err != nil {
				return err
			}
		}
		return nil
	}

	if err := dc.allocReals("beamJones", flattenJones(dc.beam.Jones)); err != nil {
		return err
	}
	if err := dc.allocReals("beamNorm", flattenJones(dc.beam.Norm)); err != nil {
		return err
	}
	if err := dc.allocInts("tileMap", dc.beam.TileMap); err != nil {
		return err
	}
	if err := dc.allocInts("freqMap", dc.beam.FreqMap); err != nil {
		return err
	}
	if err := dc.allocInts("ant1", dc.ant1); err != nil {
		return err
	}
	return dc.allocInts("ant2", dc.ant2)
}

func (dc *DeviceContext) allocVis() error {
	bytes := int64(len(dc.hostVis)) * 8 * 4
	mem := dc.device.Malloc(bytes, unsafe.Pointer(&dc.hostVis[0]), nil)
	if mem == nil {
		return fmt.Errorf("%w: vis (%d bytes)", ErrDeviceAlloc, bytes)
	}
	dc.pooledMemory["vis"] = mem
	return nil
}

// allocReals uploads vals at the context's precision.
func (dc *DeviceContext) allocReals(name string, vals []float64) error {
	var mem *gocca.OCCAMemory
	if dc.floatType == Float32 {
		buf := make([]float32, len(vals))
		for i, v := range vals {
			buf[i] = float32(v)
		}
		mem = dc.device.Malloc(int64(len(buf))*4, unsafe.Pointer(&buf[0]), nil)
	} else {
		mem = dc.device.Malloc(int64(len(vals))*8, unsafe.Pointer(&vals[0]), nil)
	}
	if mem == nil {
		return fmt.Errorf("%w: %s (%d values)", ErrDeviceAlloc, name, len(vals))
	}
	dc.pooledMemory[name] = mem
	return nil
}

func (dc *DeviceContext) allocInts(name string, vals []int32) error {
	mem := dc.device.Malloc(int64(len(vals))*4, unsafe.Pointer(&vals[0]), nil)
	if mem == nil {
		return fmt.Errorf("%w: %s (%d values)", ErrDeviceAlloc, name, len(vals))
	}
	dc.pooledMemory[name] = mem
	return nil
}

// mallocTransient uploads a per-call array that is freed right after the
// kernel launch it feeds. Empty arrays still get a one-element allocation so
// the kernel receives a valid pointer it never reads.
func (dc *DeviceContext) mallocTransient(vals []float64) (*gocca.OCCAMemory, error) {
	if len(vals) == 0 {
		vals = []float64{0}
	}
	if dc.floatType == Float32 {
		buf := make([]float32, len(vals))
		for i, v := range vals {
			buf[i] = float32(v)
		}
		mem := dc.device.Malloc(int64(len(buf))*4, unsafe.Pointer(&buf[0]), nil)
		if mem == nil {
			return nil, ErrDeviceAlloc
		}
		return mem, nil
	}
	mem := dc.device.Malloc(int64(len(vals))*8, unsafe.Pointer(&vals[0]), nil)
	if mem == nil {
		return nil, ErrDeviceAlloc
	}
	return mem, nil
}

func (dc *DeviceContext) mallocTransientInts(vals []int32) (*gocca.OCCAMemory, error) {
	if len(vals) == 0 {
		vals = []int32{0}
	}
	mem := dc.device.Malloc(int64(len(vals))*4, unsafe.Pointer(&vals[0]), nil)
	if mem == nil {
		return nil, ErrDeviceAlloc
	}
	return mem, nil
}

func (dc *DeviceContext) mem(name string) *gocca.OCCAMemory {
	return dc.pooledMemory[name]
}

// HostVis returns the host visibility buffer read-backs land in. Contents are
// only meaningful after ReadVis.
func (dc *DeviceContext) HostVis() []jones.F32 {
	return dc.hostVis
}

// ReadVis synchronizes the device and copies the visibility buffer into the
// host buffer supplied at creation. No reallocation; calling it twice without
// an intervening clear or model yields identical contents.
func (dc *DeviceContext) ReadVis() ([]jones.F32, error) {
	if dc.freed {
		return nil, ErrContextFreed
	}
	dc.device.Finish()
	bytes := int64(len(dc.hostVis)) * 8 * 4
	dc.mem("vis").CopyTo(unsafe.Pointer(&dc.hostVis[0]), bytes)
	return dc.hostVis, nil
}

// Free releases every device buffer owned by the context. Safe to call more
// than once; every other operation fails after the first call.
func (dc *DeviceContext) Free() {
	if dc.freed {
		return
	}
	for _, mem := range dc.pooledMemory {
		mem.Free()
	}
	logger.Debug("device context freed", "buffers", len(dc.pooledMemory))
	dc.pooledMemory = nil
	dc.freed = true
}
