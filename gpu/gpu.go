//go:build !nogpu

// Package gpu registers the wgpu compute accelerator.
//
// Import this package to run Sort, Square and Blur on the GPU:
//
//	import _ "github.com/gogpu/compute/gpu"
//
// Registration does not touch the GPU. The device is opened and the
// pipelines compiled by the first GPU operation or by a call to Available
// or AdapterName, so calls made with compute.WithCPUOnly never open it.
//
// If no GPU can be opened (no Vulkan driver, no adapter), the accelerator
// declines every operation and compute falls back to the CPU. A warning is
// logged the first time that happens.
package gpu

import (
	"time"

	"github.com/gogpu/compute"
	gpuimpl "github.com/gogpu/compute/internal/gpu"
	"github.com/gogpu/gpucontext"
)

var accel = gpuimpl.NewAccelerator(gpuimpl.DefaultTimeout)

func init() {
	if err := compute.RegisterAccelerator(accel); err != nil {
		compute.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU device
// from an external provider (e.g., gogpu). The provider must also expose its
// HAL device and queue through HalDevice() any and HalQueue() any.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return compute.SetAcceleratorDeviceProvider(provider)
}

// SetTimeout bounds how long one GPU submission may take.
// A value <= 0 restores the 5 second default.
func SetTimeout(d time.Duration) {
	accel.SetTimeout(d)
}

// Available reports whether a GPU device can be used, opening it on the
// first call.
func Available() bool {
	return accel.Ready()
}

// AdapterName returns the name of the GPU in use, or "" when there is none.
func AdapterName() string {
	return accel.AdapterName()
}
