// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package demo

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"slices"
	"time"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/internal/bitonic"
	"github.com/gogpu/compute/internal/imageio"
)

// Trace image limits. Longer inputs trace their first MaxTraceLength
// elements, and columns are sampled down to MaxTraceWidth.
const (
	MaxTraceLength = 1 << 16
	MaxTraceWidth  = 1024
)

// SortConfig configures one sort run.
type SortConfig struct {
	// Length is the number of elements; it must be a power of two.
	Length int

	// Seed seeds the input generator.
	Seed uint64

	// Trace, when set, is the path of a PNG showing the network one step per row.
	Trace string

	// Options are passed to compute.Sort.
	Options []compute.Option
}

// Sort is the bitonic sort demo.
type Sort struct {
	Runner
	out io.Writer
}

// NewSort returns a sort demo reporting to out. A nil out discards the report.
func NewSort(out io.Writer) *Sort {
	return &Sort{out: out}
}

// Run sorts a random array with slices.Sort and with compute.Sort, and checks
// the compute result.
func (s *Sort) Run(ctx context.Context, cfg SortConfig) (Report, error) {
	if err := s.acquire(); err != nil {
		return Report{}, err
	}
	defer s.release()

	n := cfg.Length
	if n < 0 || (n > 1 && !bitonic.IsPowerOfTwo(n)) {
		return Report{}, fmt.Errorf("demo: sort length %d: %w", n, compute.ErrNotPowerOfTwo)
	}
	input := compute.RandomUint32(n, compute.MaxSortValue, compute.NewRand(cfg.Seed))

	rep := newReporter(s.out)
	rep.header("sort", n)

	baseline := slices.Clone(input)
	start := time.Now()
	slices.Sort(baseline)
	cpuElapsed := time.Since(start)
	rep.timing("CPU", "sort", cpuElapsed)
	rep.validation("CPU", "sort", compute.IsSorted(baseline))

	data := slices.Clone(input)
	res, err := compute.Sort(ctx, data, cfg.Options...)
	if err != nil {
		return Report{}, fmt.Errorf("demo: sort: %w", err)
	}
	rep.timing("GPU", "sort", res.Elapsed)
	rep.backend(res)

	first := compute.FirstUnsorted(data)
	valid := first < 0 && slices.Equal(data, baseline)
	if !valid && first < 0 {
		first = firstMismatch(data, baseline)
	}
	rep.validation("GPU", "sort", valid)
	if first >= 0 && first+1 < n {
		rep.printf("validation error: %d %d %d", first, data[first], data[first+1])
	}

	report := Report{
		Length:         n,
		CPUElapsed:     cpuElapsed,
		ComputeElapsed: res.Elapsed,
		Backend:        res.Backend,
		Fallback:       res.Fallback,
		Valid:          valid,
		FirstInvalid:   first,
	}
	if rep.err != nil {
		return report, fmt.Errorf("demo: write report: %w", rep.err)
	}

	if cfg.Trace != "" && n == 0 {
		compute.Logger().Info("demo: empty sort, no trace written", "path", cfg.Trace)
	} else if cfg.Trace != "" {
		img, err := TraceImage(input, compute.MaxSortValue)
		if err != nil {
			return report, err
		}
		if err := imageio.SavePNG(cfg.Trace, img); err != nil {
			return report, fmt.Errorf("demo: save trace: %w", err)
		}
		compute.Logger().Info("demo: trace written", "path", cfg.Trace, "rows", img.Bounds().Dy())
	}
	return report, nil
}

// TraceImage renders the sorting network applied to input. Row 0 is the
// input; row i is the array after step i of the network. Values map to
// gray levels in [0, maxValue). input is not modified.
func TraceImage(input []uint32, maxValue uint32) (*image.Gray, error) {
	n := min(len(input), MaxTraceLength)
	if !bitonic.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("demo: trace length %d: %w", n, compute.ErrNotPowerOfTwo)
	}
	network, err := bitonic.Network(n)
	if err != nil {
		return nil, fmt.Errorf("demo: trace: %w", err)
	}

	width := min(n, MaxTraceWidth)
	stride := n / width
	img := image.NewGray(image.Rect(0, 0, width, len(network)+1))
	top := uint64(max(maxValue, 2) - 1)

	row := func(y int, data []uint32) {
		for x := range width {
			v := min(uint64(data[x*stride]), top)
			img.SetGray(x, y, color.Gray{Y: uint8(v * 255 / top)}) //nolint:gosec // <= 255
		}
	}

	data := slices.Clone(input[:n])
	row(0, data)
	err = bitonic.Trace(data, func(i int, _ bitonic.Step, data []uint32) {
		row(i+1, data)
	})
	if err != nil {
		return nil, fmt.Errorf("demo: trace: %w", err)
	}
	return img, nil
}

// firstMismatch returns the first index where a and b differ, or -1.
func firstMismatch(a, b []uint32) int {
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	return -1
}
