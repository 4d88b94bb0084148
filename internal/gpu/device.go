//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNoAdapter is returned when no GPU adapter can be opened.
var ErrNoAdapter = errors.New("gpu: no GPU adapters found")

// openedDevice is a device this package created and owns.
type openedDevice struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
}

// openDevice picks the first discrete or integrated GPU, falling back to the
// first adapter of any type.
func openDevice() (*openedDevice, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device %q: %w", selected.Info.Name, err)
	}
	return &openedDevice{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
	}, nil
}

func (d *openedDevice) destroy() {
	if d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
}

// halProvider is implemented by device providers that expose their HAL
// device and queue, such as a gogpu application.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// halFromProvider extracts the HAL device and queue of a shared provider.
func halFromProvider(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	if provider == nil {
		return nil, nil, fmt.Errorf("gpu: nil device provider")
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}
