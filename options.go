// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"context"
	"errors"
	"time"
)

// Option configures a single Sort, Square or Blur call.
type Option func(*options)

type options struct {
	cpuOnly   bool
	accel     Accelerator
	groupSize int
}

func defaultOptions() options {
	return options{groupSize: MaxThreadNum}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCPUOnly skips the accelerator and runs the CPU implementation.
func WithCPUOnly() Option {
	return func(o *options) {
		o.cpuOnly = true
	}
}

// WithAccelerator uses a for this call instead of the registered accelerator.
// The accelerator must already be initialized.
func WithAccelerator(a Accelerator) Option {
	return func(o *options) {
		o.accel = a
	}
}

// WithGroupSize sets the workgroup block size of the CPU sorting network.
// It must be a power of two. The GPU always uses MaxThreadNum.
func WithGroupSize(n int) Option {
	return func(o *options) {
		o.groupSize = n
	}
}

// accelerator returns the accelerator to try for op, or nil.
func (o options) accelerator(op Op) Accelerator {
	if o.cpuOnly {
		return nil
	}
	a := o.accel
	if a == nil {
		a = RegisteredAccelerator()
	}
	if a == nil || !a.CanAccelerate(op) {
		return nil
	}
	return a
}

// BackendCPU is the Result.Backend value for CPU execution.
const BackendCPU = "cpu"

// Result describes where an operation ran and how long it took.
type Result struct {
	// Backend is BackendCPU or the accelerator name.
	Backend string

	// Elapsed is the wall time of the operation, GPU upload and readback
	// included.
	Elapsed time.Duration

	// Fallback is set when the accelerator was tried and the CPU finished the work.
	Fallback bool
}

// tryAccelerator runs fn on the accelerator for op. It reports whether the
// work was done. Errors other than a cancelled context are logged and turn
// into a CPU fallback.
func tryAccelerator(ctx context.Context, o options, op Op, name string, fn func(Accelerator) error) (Result, bool, error) {
	a := o.accelerator(op)
	if a == nil {
		return Result{}, false, nil
	}

	start := time.Now()
	err := fn(a)
	if err == nil {
		return Result{Backend: a.Name(), Elapsed: time.Since(start)}, true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, false, ctxErr
	}
	if errors.Is(err, ErrFallbackToCPU) {
		Logger().Debug("compute: accelerator declined", "op", name, "accelerator", a.Name())
	} else {
		Logger().Warn("compute: accelerator failed, using CPU", "op", name, "accelerator", a.Name(), "err", err)
	}
	return Result{Fallback: true}, false, nil
}
