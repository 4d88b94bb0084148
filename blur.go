// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/gogpu/compute/internal/filter"
)

// BlurKind selects the blur kernel.
type BlurKind = filter.Kind

// Blur kernels.
const (
	BlurGaussian = filter.KindGaussian
	BlurBox      = filter.KindBox
	BlurFiveTap  = filter.KindFiveTap
)

// ParseBlurKind parses "gaussian", "box" or "fivetap".
func ParseBlurKind(s string) (BlurKind, error) {
	return filter.ParseKind(s)
}

// MaxBlurRadius is the largest radius Blur builds a kernel for. Larger
// finite radii are clamped to it.
const MaxBlurRadius = filter.MaxRadius

// ErrInvalidRadius is returned by Blur for a NaN or infinite radius.
var ErrInvalidRadius = errors.New("compute: blur radius must be finite")

// BlurOptions describes a separable blur.
type BlurOptions struct {
	// Kind is the kernel shape. The zero value is BlurGaussian.
	Kind BlurKind

	// Radius is the Gaussian sigma or the box half width, in pixels.
	// It is clamped to MaxBlurRadius. FiveTap ignores it.
	Radius float64

	// Iterations repeats the horizontal and vertical passes. Values below
	// one run a single iteration.
	Iterations int
}

func (o BlurOptions) iterations() int {
	return max(o.Iterations, 1)
}

// Kernel returns the normalized 1D kernel for o.
func (o BlurOptions) Kernel() []float32 {
	return filter.Cached(o.Kind, o.Radius)
}

// Blur returns a blurred copy of src. The result has the same size as src
// with its origin at (0, 0); src is never modified.
func Blur(ctx context.Context, src *image.RGBA, bo BlurOptions, opts ...Option) (*image.RGBA, Result, error) {
	if src == nil {
		return nil, Result{}, errors.New("compute: blur: nil image")
	}
	if math.IsNaN(bo.Radius) || math.IsInf(bo.Radius, 0) {
		return nil, Result{}, fmt.Errorf("%w, got %v", ErrInvalidRadius, bo.Radius)
	}
	o := applyOptions(opts)
	if err := ctx.Err(); err != nil {
		return nil, Result{}, err
	}

	kernel := filter.Cached(bo.Kind, bo.Radius)
	iterations := bo.iterations()
	norm := filter.Normalize(src)
	if len(kernel) <= 1 || norm.Bounds().Empty() {
		start := time.Now()
		out := filter.Blur(norm, kernel, iterations, nil)
		return out, Result{Backend: BackendCPU, Elapsed: time.Since(start)}, nil
	}

	dst := image.NewRGBA(norm.Bounds())
	res, done, err := tryAccelerator(ctx, o, OpBlur, "blur", func(a Accelerator) error {
		return a.Blur(ctx, norm, dst, kernel, iterations)
	})
	if err != nil {
		return nil, res, err
	}
	if done {
		return dst, res, nil
	}

	start := time.Now()
	out := filter.Blur(norm, kernel, iterations, nil)
	res.Backend = BackendCPU
	res.Elapsed = time.Since(start)
	return out, res, nil
}
