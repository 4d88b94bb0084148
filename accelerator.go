// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"
)

// ErrFallbackToCPU indicates the accelerator cannot run this operation.
// The caller falls back to the CPU implementation.
var ErrFallbackToCPU = errors.New("compute: falling back to CPU")

// Op describes an operation type for accelerator capability checks.
type Op uint32

const (
	// OpSort is the bitonic sort.
	OpSort Op = 1 << iota

	// OpSquare is the elementwise square transform.
	OpSquare

	// OpBlur is the separable image blur.
	OpBlur
)

// Accelerator runs the demo kernels on a GPU.
//
// The package functions try the registered accelerator first. If it returns
// any error other than a cancelled context, the work is redone on the CPU.
// An accelerator must leave its inputs untouched when it fails.
//
// Implementations are provided by backend packages. Opt in with a blank import:
//
//	import _ "github.com/gogpu/compute/gpu"
type Accelerator interface {
	// Name returns the accelerator name reported in results (e.g. "wgpu").
	Name() string

	// Init acquires GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// CanAccelerate reports whether the accelerator supports op at all.
	CanAccelerate(op Op) bool

	// Sort sorts data ascending in place. len(data) is a power of two.
	Sort(ctx context.Context, data []uint32) error

	// Square replaces every element with its square, wrapping at 2^32.
	Square(ctx context.Context, data []uint32) error

	// Blur convolves src with kernel horizontally then vertically,
	// iterations times, and writes the result to dst. Both images have
	// bounds at the origin, the same size, and a stride of 4*width.
	Blur(ctx context.Context, src, dst *image.RGBA, kernel []float32, iterations int) error
}

// DeviceProviderAware is implemented by accelerators that can share a GPU
// device with a host application instead of creating their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider gpucontext.DeviceProvider) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers the accelerator used by Sort, Square and Blur.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. Init is called first, and if it fails the accelerator is
// not registered and the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("compute: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()

	if old != nil && old != a {
		old.Close()
	}
	Logger().Debug("compute: accelerator registered", "name", a.Name())
	return nil
}

// UnregisterAccelerator removes and closes the registered accelerator.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RegisteredAccelerator returns the registered accelerator, or nil.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider hands a host GPU device to the registered
// accelerator. It is a no-op when no accelerator is registered or the
// accelerator cannot share devices.
func SetAcceleratorDeviceProvider(provider gpucontext.DeviceProvider) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
