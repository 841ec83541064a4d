package utils

import (
	"fmt"

	"github.com/notargets/gocca"
)

// CreateDevice creates an OCCA device, preferring parallel backends. Serial
// is the fallback so the modelling kernels always have somewhere to run.
func CreateDevice() (*gocca.OCCADevice, error) {
	backends := []string{
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "OpenMP"}`,
		`{"mode": "Serial"}`,
	}

	for _, props := range backends {
		device, err := gocca.NewDevice(props)
		if err == nil {
			return device, nil
		}
	}
	return nil, fmt.Errorf("no OCCA backend available")
}

// CreateTestDevice creates a Device for testing, preferring parallel backends
func CreateTestDevice() *gocca.OCCADevice {
	device, err := CreateDevice()
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created %s Device\n", device.Mode())
	return device
}
