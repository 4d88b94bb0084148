// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package demo

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/internal/imageio"
)

// Size of the generated checkered image used when no input is given.
const (
	DefaultBlurWidth  = 512
	DefaultBlurHeight = 512
)

// BlurConfig configures one blur run.
type BlurConfig struct {
	// Input is the image to blur. Empty means the generated blue checkerboard.
	Input string

	// Output, when set, receives the compute result as PNG.
	Output string

	// Comparison, when set, receives a CPU | compute | difference triptych.
	Comparison string

	// MaxDimension downscales larger inputs. Zero keeps the input size.
	MaxDimension int

	Blur    compute.BlurOptions
	Options []compute.Option
}

// Blur is the separable blur demo.
type Blur struct {
	Runner
	out io.Writer
}

// NewBlur returns a blur demo reporting to out.
func NewBlur(out io.Writer) *Blur {
	return &Blur{out: out}
}

// Run blurs the input on the CPU and with compute.Blur. The results are
// valid when no channel differs by more than one.
func (b *Blur) Run(ctx context.Context, cfg BlurConfig) (Report, error) {
	if err := b.acquire(); err != nil {
		return Report{}, err
	}
	defer b.release()

	src, err := blurInput(cfg)
	if err != nil {
		return Report{}, err
	}
	size := src.Bounds().Size()

	rep := newReporter(b.out)
	rep.header("blur", fmt.Sprintf("%dx%d %s radius=%g iterations=%d",
		size.X, size.Y, cfg.Blur.Kind, cfg.Blur.Radius, max(cfg.Blur.Iterations, 1)))

	baseline, cpuRes, err := compute.Blur(ctx, src, cfg.Blur, compute.WithCPUOnly())
	if err != nil {
		return Report{}, fmt.Errorf("demo: cpu blur: %w", err)
	}
	rep.timing("CPU", "blur", cpuRes.Elapsed)

	out, res, err := compute.Blur(ctx, src, cfg.Blur, cfg.Options...)
	if err != nil {
		return Report{}, fmt.Errorf("demo: blur: %w", err)
	}
	rep.timing("GPU", "blur", res.Elapsed)
	rep.backend(res)

	diff := imageio.Diff(baseline, out)
	valid := diff.MaxDelta <= 1
	rep.validation("GPU", "blur", valid)
	if diff.Pixels > 0 {
		rep.printf("differing pixels: %d (max delta %d)", diff.Pixels, diff.MaxDelta)
	}

	report := Report{
		Length:         size.X * size.Y,
		CPUElapsed:     cpuRes.Elapsed,
		ComputeElapsed: res.Elapsed,
		Backend:        res.Backend,
		Fallback:       res.Fallback,
		Valid:          valid,
		FirstInvalid:   firstDifferentPixel(baseline, out),
	}
	if rep.err != nil {
		return report, fmt.Errorf("demo: write report: %w", rep.err)
	}

	if cfg.Output != "" {
		if err := imageio.SavePNG(cfg.Output, out); err != nil {
			return report, fmt.Errorf("demo: save output: %w", err)
		}
	}
	if cfg.Comparison != "" {
		if err := imageio.SavePNG(cfg.Comparison, imageio.Triptych(baseline, out)); err != nil {
			return report, fmt.Errorf("demo: save comparison: %w", err)
		}
	}
	return report, nil
}

func blurInput(cfg BlurConfig) (*image.RGBA, error) {
	if cfg.Input == "" {
		return imageio.Fit(imageio.BlueCheckered(DefaultBlurWidth, DefaultBlurHeight), cfg.MaxDimension), nil
	}
	img, err := imageio.Load(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("demo: %w", err)
	}
	fitted := imageio.Fit(img, cfg.MaxDimension)
	if fitted != img {
		compute.Logger().Info("demo: input downscaled",
			"from", img.Bounds().Size(), "to", fitted.Bounds().Size())
	}
	return fitted, nil
}

// firstDifferentPixel returns the row-major index of the first pixel that
// differs by more than one in any channel, or -1.
func firstDifferentPixel(a, b *image.RGBA) int {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	if b.Bounds().Size() != a.Bounds().Size() {
		return 0
	}
	for y := range h {
		ra := a.Pix[y*a.Stride : y*a.Stride+w*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+w*4]
		for i := range ra {
			if d := int(ra[i]) - int(rb[i]); d > 1 || d < -1 {
				return y*w + i/4
			}
		}
	}
	return -1
}
