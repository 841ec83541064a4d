package model

import "errors"

// Device failures are fatal to the call that hit them but not to the process:
// the caller aborts the current timestep and propagates. None of these are
// transient, so there is no retry path.
var (
	ErrNilDevice      = errors.New("nil OCCA device")
	ErrInvalidConfig  = errors.New("invalid modeller config")
	ErrComponentShape = errors.New("component arrays misshapen")
	ErrDeviceAlloc    = errors.New("device allocation failed")
	ErrKernelBuild    = errors.New("kernel build failed")
	ErrKernelLaunch   = errors.New("kernel launch failed")
	ErrContextFreed   = errors.New("device context already freed")
)
