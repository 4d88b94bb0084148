//go:build nogpu

package gpu

import (
	"errors"
	"time"

	"github.com/gogpu/gpucontext"
)

// SetDeviceProvider always fails in builds without GPU support.
func SetDeviceProvider(gpucontext.DeviceProvider) error {
	return errors.New("gpu: built with the nogpu tag")
}

// SetTimeout does nothing in builds without GPU support.
func SetTimeout(time.Duration) {}

// Available always reports false in builds without GPU support.
func Available() bool { return false }

// AdapterName always returns "" in builds without GPU support.
func AdapterName() string { return "" }
