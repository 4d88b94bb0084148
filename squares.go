// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"context"
	"time"

	"github.com/gogpu/compute/internal/parallel"
)

const squareGrain = 1 << 15

// Square replaces every element of data with its square. Results wrap at
// 2^32 the same way u32 arithmetic does on the GPU.
func Square(ctx context.Context, data []uint32, opts ...Option) (Result, error) {
	o := applyOptions(opts)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(data) == 0 {
		return Result{Backend: BackendCPU}, nil
	}

	res, done, err := tryAccelerator(ctx, o, OpSquare, "square", func(a Accelerator) error {
		return a.Square(ctx, data)
	})
	if err != nil || done {
		return res, err
	}

	start := time.Now()
	SquareCPU(data)
	res.Backend = BackendCPU
	res.Elapsed = time.Since(start)
	return res, nil
}

// SquareCPU is the reference loop Square validates against.
func SquareCPU(data []uint32) {
	parallel.Default().Range(len(data), squareGrain, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			data[i] *= data[i]
		}
	})
}
