// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/compute/internal/bitonic"
)

// ErrNotPowerOfTwo is returned by Sort for lengths the bitonic network
// cannot sort. Lengths zero and one are already sorted and accepted.
var ErrNotPowerOfTwo = bitonic.ErrNotPowerOfTwo

// Sort sorts data ascending in place with the bitonic network.
//
// The registered accelerator runs the sort when it can; otherwise, or when
// it fails, the CPU network does. A cancelled context is returned as is and
// data is left untouched in that case.
func Sort(ctx context.Context, data []uint32, opts ...Option) (Result, error) {
	o := applyOptions(opts)
	n := len(data)
	if n > 1 && !bitonic.IsPowerOfTwo(n) {
		return Result{}, fmt.Errorf("compute: sort %d elements: %w", n, ErrNotPowerOfTwo)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if n <= 1 {
		return Result{Backend: BackendCPU}, nil
	}

	res, done, err := tryAccelerator(ctx, o, OpSort, "sort", func(a Accelerator) error {
		return a.Sort(ctx, data)
	})
	if err != nil || done {
		return res, err
	}

	start := time.Now()
	if err := bitonic.Sort(data, o.groupSize, nil); err != nil {
		return Result{}, fmt.Errorf("compute: sort: %w", err)
	}
	res.Backend = BackendCPU
	res.Elapsed = time.Since(start)
	return res, nil
}
