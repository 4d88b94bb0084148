// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package demo

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/gogpu/compute"
)

// DefaultSquaresLength is the input length of the squares demo.
const DefaultSquaresLength = 128

// SquaresConfig configures one squares run.
type SquaresConfig struct {
	// Length is the number of elements. Zero means DefaultSquaresLength.
	Length int

	Seed    uint64
	Options []compute.Option
}

// Squares is the elementwise squares demo.
type Squares struct {
	Runner
	out io.Writer
}

// NewSquares returns a squares demo reporting to out.
func NewSquares(out io.Writer) *Squares {
	return &Squares{out: out}
}

// Run squares a random array on the CPU and with compute.Square and
// compares the two elementwise.
func (s *Squares) Run(ctx context.Context, cfg SquaresConfig) (Report, error) {
	if err := s.acquire(); err != nil {
		return Report{}, err
	}
	defer s.release()

	n := cfg.Length
	if n == 0 {
		n = DefaultSquaresLength
	}
	if n < 0 {
		return Report{}, fmt.Errorf("demo: squares length %d: %w", n, compute.ErrInvalidLength)
	}
	input := compute.RandomUint32(n, compute.MaxSquareValue, compute.NewRand(cfg.Seed))

	rep := newReporter(s.out)
	rep.header("squares", n)

	baseline := slices.Clone(input)
	start := time.Now()
	for i, v := range baseline {
		baseline[i] = v * v
	}
	cpuElapsed := time.Since(start)
	rep.timing("CPU", "squares", cpuElapsed)

	data := slices.Clone(input)
	res, err := compute.Square(ctx, data, cfg.Options...)
	if err != nil {
		return Report{}, fmt.Errorf("demo: squares: %w", err)
	}
	rep.timing("GPU", "squares", res.Elapsed)
	rep.backend(res)

	first := firstMismatch(data, baseline)
	rep.validation("GPU", "squares", first < 0)
	if first >= 0 {
		rep.printf("validation error: %d %d %d", first, baseline[first], data[first])
	}

	report := Report{
		Length:         n,
		CPUElapsed:     cpuElapsed,
		ComputeElapsed: res.Elapsed,
		Backend:        res.Backend,
		Fallback:       res.Fallback,
		Valid:          first < 0,
		FirstInvalid:   first,
	}
	if rep.err != nil {
		return report, fmt.Errorf("demo: write report: %w", rep.err)
	}
	return report, nil
}
