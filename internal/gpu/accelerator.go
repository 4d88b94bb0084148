//go:build !nogpu

package gpu

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/internal/bitonic"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultTimeout bounds the wait for one submission.
const DefaultTimeout = 5 * time.Second

// maxStorageBinding is the WebGPU default for maxStorageBufferBindingSize.
const maxStorageBinding = 128 << 20

// Accelerator runs the sort, squares and blur kernels with wgpu/hal compute
// shaders. It implements compute.Accelerator.
//
// Calls are serialized. Every call creates its own buffers and bind groups,
// records all passes into one command encoder and waits on one fence. The
// caller's data is written only after a successful readback.
//
// The device is opened on first use after Init, so registering the
// accelerator costs nothing until an operation, Ready or AdapterName needs
// it. When no GPU can be opened every operation returns
// compute.ErrFallbackToCPU.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	pipes    *pipelines

	adapterName    string
	timeout        time.Duration
	maxBuffer      uint64
	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)

	initialized bool // Init was called
	opened      bool // device open was attempted

	initErr        error
	unavailableLog sync.Once
}

var (
	_ compute.Accelerator         = (*Accelerator)(nil)
	_ compute.DeviceProviderAware = (*Accelerator)(nil)
)

// NewAccelerator returns an accelerator that waits at most timeout for each
// submission. A zero timeout means DefaultTimeout.
func NewAccelerator(timeout time.Duration) *Accelerator {
	a := &Accelerator{}
	a.SetTimeout(timeout)
	return a
}

func (a *Accelerator) Name() string { return "wgpu" }

func (a *Accelerator) CanAccelerate(op compute.Op) bool {
	return op&(compute.OpSort|compute.OpSquare|compute.OpBlur) != 0
}

// SetLogger sets the logger for GPU operations.
// Called by compute.SetLogger to propagate logging configuration.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetTimeout changes the submission timeout. A value <= 0 restores DefaultTimeout.
func (a *Accelerator) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	a.mu.Lock()
	a.timeout = d
	a.mu.Unlock()
}

// Init arms the accelerator. The device and pipelines are built by the
// first call that needs them. A missing GPU is not an error: it is logged
// and the accelerator declines every operation.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timeout == 0 {
		a.timeout = DefaultTimeout
	}
	a.initialized = true
	return nil
}

// ensureOpen opens the device once after Init. The caller must hold a.mu.
func (a *Accelerator) ensureOpen() {
	if !a.initialized || a.opened {
		return
	}
	a.opened = true
	if err := a.initGPU(); err != nil {
		a.initErr = err
		slogger().Warn("gpu: GPU init failed, using CPU fallback", "err", err)
	}
}

func (a *Accelerator) initGPU() error {
	dev, err := openDevice()
	if err != nil {
		return err
	}
	pipes, err := createPipelines(dev.device)
	if err != nil {
		dev.destroy()
		return fmt.Errorf("gpu: create pipelines: %w", err)
	}
	a.instance = dev.instance
	a.device = dev.device
	a.queue = dev.queue
	a.pipes = pipes
	a.adapterName = dev.name
	a.maxBuffer = bufferLimit()
	a.gpuReady = true
	a.initErr = nil
	slogger().Info("gpu: compute accelerator initialized", "adapter", dev.name)
	return nil
}

// bufferLimit is the largest buffer one binding may use under default limits.
func bufferLimit() uint64 {
	return min(uint64(gputypes.DefaultLimits().MaxBufferSize), maxStorageBinding)
}

// Close releases the pipelines and, unless the device is shared, the device.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pipes.destroy()
	a.pipes = nil
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
	a.initialized = false
	a.opened = false
}

// SetDeviceProvider switches the accelerator to a shared GPU device. The
// provider must also implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.pipes.destroy()
	a.pipes = nil
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.initialized = true
	a.opened = true
	a.adapterName = "shared"
	a.maxBuffer = bufferLimit()

	pipes, err := createPipelines(device)
	if err != nil {
		a.gpuReady = false
		return fmt.Errorf("gpu: create pipelines with shared device: %w", err)
	}
	a.pipes = pipes
	a.gpuReady = true
	slogger().Info("gpu: switched to shared GPU device")
	return nil
}

// Ready reports whether a device and pipelines are available. After Init
// it opens the device if no call has yet.
func (a *Accelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureOpen()
	return a.gpuReady
}

// AdapterName returns the name of the GPU in use, or "" when none is.
func (a *Accelerator) AdapterName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureOpen()
	return a.adapterName
}

// unavailable logs the init failure once and declines the operation.
func (a *Accelerator) unavailable() error {
	a.unavailableLog.Do(func() {
		slogger().Warn("gpu: GPU unavailable, all operations run on the CPU", "err", a.initErr)
	})
	return compute.ErrFallbackToCPU
}

// begin locks the accelerator and checks that it can run. The caller must
// unlock a.mu when begin returns nil.
func (a *Accelerator) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	a.ensureOpen()
	if !a.gpuReady {
		a.mu.Unlock()
		return a.unavailable()
	}
	return nil
}

// Sort sorts data ascending. len(data) must be a power of two.
func (a *Accelerator) Sort(ctx context.Context, data []uint32) error {
	n := len(data)
	if n < 2 {
		return nil
	}
	if !bitonic.IsPowerOfTwo(n) {
		return fmt.Errorf("gpu: sort %d elements: %w", n, bitonic.ErrNotPowerOfTwo)
	}
	if err := a.begin(ctx); err != nil {
		return err
	}
	defer a.mu.Unlock()

	size := uint64(n) * 4
	groupSize := bitonic.GroupSize(n, SortBlockSize)
	blocks := n / groupSize
	if size > a.maxBuffer || blocks > maxWorkgroupsPerDim || int(workgroups(n/2, sortThreads)) > maxWorkgroupsPerDim {
		return compute.ErrFallbackToCPU
	}
	schedule, err := bitonic.Schedule(n, SortBlockSize)
	if err != nil {
		return err
	}

	res := &dispatchResources{device: a.device}
	defer res.cleanup()

	storage, err := res.storage(a.queue, "sort_data", packUint32(data))
	if err != nil {
		return err
	}
	staging, err := res.staging("sort_staging", size)
	if err != nil {
		return err
	}
	dataGroup, err := res.bindGroup("sort_data_bind", a.pipes.sortDataLayout, storage)
	if err != nil {
		return err
	}

	passes := make([]pass, 0, len(schedule)+1)
	localParams, err := res.uniform(a.queue, "sort_local_params", makeParams(uint32(groupSize))) //nolint:gosec // at most SortBlockSize
	if err != nil {
		return err
	}
	localGroup, err := res.bindGroup("sort_local_bind", a.pipes.sortParamsLayout, localParams)
	if err != nil {
		return err
	}
	passes = append(passes, pass{
		kernel: KernelSortLocal,
		groups: []hal.BindGroup{dataGroup, localGroup},
		x:      uint32(blocks), //nolint:gosec // bounded by maxWorkgroupsPerDim
	})

	globalGroups := workgroups(n/2, sortThreads)
	for _, step := range schedule {
		params, err := res.uniform(a.queue, "sort_step_params", makeParams(uint32(n), step.K, step.J)) //nolint:gosec // n fits the buffer limit
		if err != nil {
			return err
		}
		group, err := res.bindGroup("sort_step_bind", a.pipes.sortParamsLayout, params)
		if err != nil {
			return err
		}
		passes = append(passes, pass{
			kernel: KernelSortGlobal,
			groups: []hal.BindGroup{dataGroup, group},
			x:      globalGroups,
		})
	}

	slogger().Debug("gpu: sort dispatch",
		"elements", n,
		"group_size", groupSize,
		"blocks", blocks,
		"global_steps", len(schedule))

	out := make([]byte, size)
	if err := a.execute(ctx, res, "sort", passes, readback{src: storage, dst: staging}, out); err != nil {
		return fmt.Errorf("gpu: sort: %w", err)
	}
	unpackUint32(out, data)
	return nil
}

// Square squares every element of data with u32 wraparound.
func (a *Accelerator) Square(ctx context.Context, data []uint32) error {
	n := len(data)
	if n == 0 {
		return nil
	}
	if err := a.begin(ctx); err != nil {
		return err
	}
	defer a.mu.Unlock()

	size := uint64(n) * 4
	groups := workgroups(n, squaresWGSize)
	if size > a.maxBuffer || groups > maxWorkgroupsPerDim {
		return compute.ErrFallbackToCPU
	}

	res := &dispatchResources{device: a.device}
	defer res.cleanup()

	params, err := res.uniform(a.queue, "squares_params", makeParams(uint32(n))) //nolint:gosec // n fits the buffer limit
	if err != nil {
		return err
	}
	storage, err := res.storage(a.queue, "squares_data", packUint32(data))
	if err != nil {
		return err
	}
	staging, err := res.staging("squares_staging", size)
	if err != nil {
		return err
	}
	group, err := res.bindGroup("squares_bind", a.pipes.squaresLayout, params, storage)
	if err != nil {
		return err
	}

	slogger().Debug("gpu: squares dispatch", "elements", n, "workgroups", groups)

	out := make([]byte, size)
	passes := []pass{{kernel: KernelSquares, groups: []hal.BindGroup{group}, x: groups}}
	if err := a.execute(ctx, res, "squares", passes, readback{src: storage, dst: staging}, out); err != nil {
		return fmt.Errorf("gpu: squares: %w", err)
	}
	unpackUint32(out, data)
	return nil
}

// Blur convolves src horizontally then vertically with kernel, iterations
// times, and writes the result into dst. Both images must have origin
// bounds of the same size and a stride of 4*width.
func (a *Accelerator) Blur(ctx context.Context, src, dst *image.RGBA, kernel []float32, iterations int) error {
	if src == nil || dst == nil {
		return fmt.Errorf("gpu: blur: nil image")
	}
	b := src.Bounds()
	if b.Min != (image.Point{}) || dst.Bounds() != b || src.Stride != 4*b.Dx() || dst.Stride != src.Stride {
		return fmt.Errorf("gpu: blur: images must share origin bounds and a packed stride")
	}
	if len(kernel)%2 == 0 {
		return fmt.Errorf("gpu: blur: kernel length %d is not odd", len(kernel))
	}
	w, h := b.Dx(), b.Dy()
	pixelCount := w * h
	if pixelCount == 0 {
		return nil
	}
	iterations = max(iterations, 1)
	if err := a.begin(ctx); err != nil {
		return err
	}
	defer a.mu.Unlock()

	pixelSize := uint64(pixelCount) * 4
	gx, gy := workgroups(w, blurWGSize), workgroups(h, blurWGSize)
	if pixelSize*4 > a.maxBuffer || gx > maxWorkgroupsPerDim || gy > maxWorkgroupsPerDim {
		return compute.ErrFallbackToCPU
	}

	res := &dispatchResources{device: a.device}
	defer res.cleanup()

	params, err := res.uniform(a.queue, "blur_params",
		makeParams(uint32(w), uint32(h), uint32(len(kernel)/2))) //nolint:gosec // dimensions fit the buffer limit
	if err != nil {
		return err
	}
	weights, err := res.storage(a.queue, "blur_weights", packFloat32(kernel))
	if err != nil {
		return err
	}
	pixels, err := res.storage(a.queue, "blur_pixels", packPixelsForGPU(src.Pix, pixelCount))
	if err != nil {
		return err
	}
	temp, err := res.buffer("blur_temp", pixelSize*4, gputypes.BufferUsageStorage)
	if err != nil {
		return err
	}
	staging, err := res.staging("blur_staging", pixelSize)
	if err != nil {
		return err
	}
	group, err := res.bindGroup("blur_bind", a.pipes.blurLayout, params, weights, pixels, temp)
	if err != nil {
		return err
	}

	passes := make([]pass, 0, 2*iterations)
	for range iterations {
		passes = append(passes,
			pass{kernel: KernelBlurH, groups: []hal.BindGroup{group}, x: gx, y: gy},
			pass{kernel: KernelBlurV, groups: []hal.BindGroup{group}, x: gx, y: gy},
		)
	}

	slogger().Debug("gpu: blur dispatch",
		"width", w,
		"height", h,
		"taps", len(kernel),
		"iterations", iterations)

	out := make([]byte, pixelSize)
	if err := a.execute(ctx, res, "blur", passes, readback{src: pixels, dst: staging}, out); err != nil {
		return fmt.Errorf("gpu: blur: %w", err)
	}
	unpackPixelsFromGPU(out, dst.Pix, pixelCount)
	return nil
}
