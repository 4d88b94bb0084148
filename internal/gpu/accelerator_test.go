//go:build !nogpu

package gpu

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/internal/filter"
	"github.com/gogpu/compute/internal/imageio"
	"github.com/gogpu/gpucontext"
)

// newTestAccelerator returns an initialized accelerator, or skips the test
// when no GPU is available.
func newTestAccelerator(t *testing.T) *Accelerator {
	t.Helper()
	a := NewAccelerator(10 * time.Second)
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(a.Close)
	if !a.Ready() {
		t.Skip("no GPU available")
	}
	return a
}

func TestAcceleratorNotReadyFallsBack(t *testing.T) {
	a := &Accelerator{}
	ctx := context.Background()

	if err := a.Sort(ctx, []uint32{2, 1}); !errors.Is(err, compute.ErrFallbackToCPU) {
		t.Errorf("Sort = %v, want ErrFallbackToCPU", err)
	}
	if err := a.Square(ctx, []uint32{2}); !errors.Is(err, compute.ErrFallbackToCPU) {
		t.Errorf("Square = %v, want ErrFallbackToCPU", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	dst := image.NewRGBA(img.Bounds())
	if err := a.Blur(ctx, img, dst, []float32{0.25, 0.5, 0.25}, 1); !errors.Is(err, compute.ErrFallbackToCPU) {
		t.Errorf("Blur = %v, want ErrFallbackToCPU", err)
	}
}

func TestInitDefersDeviceOpen(t *testing.T) {
	a := NewAccelerator(0)
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if a.opened || a.device != nil || a.instance != nil {
		t.Fatal("Init opened a device")
	}

	a.Ready()
	if !a.opened {
		t.Error("Ready did not open the device")
	}
	a.Close()

	if a.Ready() || a.opened {
		t.Error("accelerator reopened after Close")
	}

	var zero Accelerator
	zero.Ready()
	if zero.opened {
		t.Error("zero value opened a device without Init")
	}
}

func TestAcceleratorArgumentChecks(t *testing.T) {
	a := &Accelerator{}
	ctx := context.Background()

	if err := a.Sort(ctx, []uint32{3, 2, 1}); !errors.Is(err, compute.ErrNotPowerOfTwo) {
		t.Errorf("Sort(3 elements) = %v, want ErrNotPowerOfTwo", err)
	}
	if err := a.Sort(ctx, []uint32{1}); err != nil {
		t.Errorf("Sort(1 element) = %v, want nil", err)
	}

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := a.Blur(ctx, src, image.NewRGBA(image.Rect(0, 0, 4, 5)), []float32{1}, 1); err == nil {
		t.Error("Blur with mismatched bounds should fail")
	}
	if err := a.Blur(ctx, src, image.NewRGBA(src.Bounds()), []float32{0.5, 0.5}, 1); err == nil {
		t.Error("Blur with an even kernel should fail")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := a.Square(cancelled, []uint32{1}); !errors.Is(err, context.Canceled) {
		t.Errorf("Square with cancelled context = %v", err)
	}
}

func TestAcceleratorCapabilities(t *testing.T) {
	a := NewAccelerator(0)
	if a.Name() != "wgpu" {
		t.Errorf("Name() = %q", a.Name())
	}
	for _, op := range []compute.Op{compute.OpSort, compute.OpSquare, compute.OpBlur} {
		if !a.CanAccelerate(op) {
			t.Errorf("CanAccelerate(%d) = false", op)
		}
	}
	if a.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", a.timeout, DefaultTimeout)
	}
	a.SetTimeout(time.Second)
	if a.timeout != time.Second {
		t.Errorf("timeout = %v after SetTimeout", a.timeout)
	}
}

func TestAcceleratorSetLogger(t *testing.T) {
	t.Cleanup(func() { setLogger(nil) })

	var buf bytes.Buffer
	a := &Accelerator{}
	a.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	if err := a.Square(context.Background(), []uint32{3}); !errors.Is(err, compute.ErrFallbackToCPU) {
		t.Fatalf("Square = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "GPU unavailable") || !strings.Contains(out, "component=gpu") {
		t.Errorf("log output = %q", out)
	}

	a.SetLogger(nil)
	if slogger() != compute.Logger() {
		t.Error("nil logger should fall back to compute.Logger")
	}
}

// fakeProvider satisfies gpucontext.DeviceProvider without a real device.
type fakeProvider struct {
	gpucontext.DeviceProvider
}

type wrongHalProvider struct {
	fakeProvider
}

func (wrongHalProvider) HalDevice() any { return "not a device" }
func (wrongHalProvider) HalQueue() any  { return nil }

func TestSetDeviceProviderRejectsNonHAL(t *testing.T) {
	a := &Accelerator{}
	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
	}{
		{"nil", nil},
		{"no hal", fakeProvider{}},
		{"wrong hal types", wrongHalProvider{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.SetDeviceProvider(tt.provider); err == nil {
				t.Error("expected error")
			}
			if a.Ready() {
				t.Error("accelerator should stay unavailable")
			}
		})
	}
}

func TestGPUSort(t *testing.T) {
	a := newTestAccelerator(t)

	for _, n := range []int{2, 256, 1024, 4096, 1 << 17} {
		data := compute.RandomUint32(n, compute.MaxSortValue, compute.NewRand(uint64(n)))
		want := slices.Clone(data)
		slices.Sort(want)

		if err := a.Sort(context.Background(), data); err != nil {
			t.Fatalf("Sort(%d): %v", n, err)
		}
		if i := compute.FirstUnsorted(data); i >= 0 {
			t.Fatalf("Sort(%d): unsorted at %d", n, i)
		}
		if !slices.Equal(data, want) {
			t.Errorf("Sort(%d) differs from slices.Sort", n)
		}
	}
}

func TestGPUSquare(t *testing.T) {
	a := newTestAccelerator(t)

	data := compute.RandomUint32(100000, compute.MaxSquareValue, compute.NewRand(5))
	data = append(data, 1<<16, 0xFFFFFFFF)
	want := slices.Clone(data)
	compute.SquareCPU(want)

	if err := a.Square(context.Background(), data); err != nil {
		t.Fatalf("Square: %v", err)
	}
	if !slices.Equal(data, want) {
		t.Error("GPU squares differ from the CPU loop")
	}
}

func TestGPUBlurMatchesCPU(t *testing.T) {
	a := newTestAccelerator(t)

	src := imageio.BlueCheckered(97, 61)
	src.SetRGBA(10, 10, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	for _, kernel := range []filter.Kernel{filter.FiveTap(), filter.Gaussian(2.5), filter.Box(3)} {
		want := filter.Blur(src, kernel, 2, nil)
		got := image.NewRGBA(src.Bounds())
		if err := a.Blur(context.Background(), src, got, kernel, 2); err != nil {
			t.Fatalf("Blur: %v", err)
		}
		if d := imageio.Diff(want, got); d.MaxDelta > 1 {
			t.Errorf("%d taps: %d pixels differ, max delta %d", len(kernel), d.Pixels, d.MaxDelta)
		}
	}
}
