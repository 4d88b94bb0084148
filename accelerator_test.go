package compute

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"slices"
	"sync"
	"testing"
)

// mockAccelerator implements Accelerator for testing. With a nil err it does
// the work on the CPU, otherwise it returns err without touching its inputs.
type mockAccelerator struct {
	name     string
	initErr  error
	err      error
	canAccel Op
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	calls  int
}

func (m *mockAccelerator) Name() string { return m.name }

func (m *mockAccelerator) Init() error { return m.initErr }

func (m *mockAccelerator) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *mockAccelerator) SetLogger(l *slog.Logger) { m.logger = l }

func (m *mockAccelerator) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockAccelerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockAccelerator) CanAccelerate(op Op) bool {
	return m.canAccel&op != 0
}

func (m *mockAccelerator) call(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.err
}

func (m *mockAccelerator) Sort(ctx context.Context, data []uint32) error {
	if err := m.call(ctx); err != nil {
		return err
	}
	slices.Sort(data)
	return nil
}

func (m *mockAccelerator) Square(ctx context.Context, data []uint32) error {
	if err := m.call(ctx); err != nil {
		return err
	}
	for i := range data {
		data[i] *= data[i]
	}
	return nil
}

func (m *mockAccelerator) Blur(ctx context.Context, src, dst *image.RGBA, _ []float32, _ int) error {
	if err := m.call(ctx); err != nil {
		return err
	}
	copy(dst.Pix, src.Pix)
	return nil
}

// resetAccelerator clears the global accelerator state between tests.
func resetAccelerator() {
	accelMu.Lock()
	accel = nil
	accelMu.Unlock()
}

func TestRegisterAcceleratorNil(t *testing.T) {
	resetAccelerator()

	err := RegisterAccelerator(nil)
	if err == nil {
		t.Fatal("expected error when registering nil accelerator")
	}
	if err.Error() != "compute: accelerator must not be nil" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if RegisteredAccelerator() != nil {
		t.Error("accelerator should remain nil after failed registration")
	}
}

func TestRegisterAcceleratorInitError(t *testing.T) {
	resetAccelerator()

	initErr := errors.New("GPU init failed")
	mock := &mockAccelerator{name: "failing", initErr: initErr}

	err := RegisterAccelerator(mock)
	if !errors.Is(err, initErr) {
		t.Errorf("expected init error, got: %v", err)
	}
	if RegisteredAccelerator() != nil {
		t.Error("accelerator should remain nil after Init failure")
	}
}

func TestRegisterAcceleratorReplacesOld(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	first := &mockAccelerator{name: "first"}
	second := &mockAccelerator{name: "second"}

	if err := RegisterAccelerator(first); err != nil {
		t.Fatalf("unexpected error registering first: %v", err)
	}
	if err := RegisterAccelerator(second); err != nil {
		t.Fatalf("unexpected error registering second: %v", err)
	}

	if !first.isClosed() {
		t.Error("expected first accelerator to be closed after replacement")
	}
	if second.isClosed() {
		t.Error("second accelerator should not be closed")
	}
	if a := RegisteredAccelerator(); a == nil || a.Name() != "second" {
		t.Errorf("registered accelerator = %v, want second", a)
	}
}

func TestUnregisterAccelerator(t *testing.T) {
	resetAccelerator()

	mock := &mockAccelerator{name: "gone"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatal(err)
	}
	UnregisterAccelerator()

	if RegisteredAccelerator() != nil {
		t.Error("accelerator should be nil after UnregisterAccelerator")
	}
	if !mock.isClosed() {
		t.Error("UnregisterAccelerator should close the accelerator")
	}

	// A second call is a no-op.
	UnregisterAccelerator()
}

func TestOpValues(t *testing.T) {
	ops := []Op{OpSort, OpSquare, OpBlur}
	seen := make(map[Op]bool)
	for _, op := range ops {
		if op == 0 || op&(op-1) != 0 {
			t.Errorf("op %d is not a power of two", op)
		}
		if seen[op] {
			t.Errorf("duplicate op value: %d", op)
		}
		seen[op] = true
	}
}

func TestSetAcceleratorDeviceProviderWithoutSupport(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	if err := SetAcceleratorDeviceProvider(nil); err != nil {
		t.Errorf("no accelerator: got %v, want nil", err)
	}

	if err := RegisterAccelerator(&mockAccelerator{name: "plain"}); err != nil {
		t.Fatal(err)
	}
	if err := SetAcceleratorDeviceProvider(nil); err != nil {
		t.Errorf("accelerator without provider support: got %v, want nil", err)
	}
}

func BenchmarkAcceleratorNilCheck(b *testing.B) {
	resetAccelerator()

	b.ReportAllocs()
	for b.Loop() {
		if RegisteredAccelerator() != nil {
			b.Fatal("should be nil")
		}
	}
}
