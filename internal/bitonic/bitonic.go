// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package bitonic implements the bitonic sorting network on the CPU.
//
// The network is split the same way the GPU kernels split it:
//
//   - LocalSort is the shared-memory kernel. Every block of groupSize
//     elements runs all stages k = 2..groupSize on its own, which leaves the
//     blocks sorted in alternating directions.
//   - MergeStep is the global kernel. One call is one (k, j) step over the
//     whole array; Schedule lists the steps that follow the local stage.
//
// Running LocalSort and then every Step from Schedule sorts any power-of-two
// length in ascending order. The CPU path is the reference the GPU readback
// is validated against, and the fallback when no GPU is available.
package bitonic

import (
	"errors"
	"fmt"

	"github.com/gogpu/compute/internal/parallel"
)

// Errors returned by the network functions.
var (
	// ErrNotPowerOfTwo is returned for lengths the network cannot sort.
	ErrNotPowerOfTwo = errors.New("bitonic: length is not a power of two")

	// ErrGroupSize is returned when the workgroup size is not a positive power of two.
	ErrGroupSize = errors.New("bitonic: group size must be a positive power of two")
)

// mergeGrain is the minimum number of indices handed to one worker.
// Smaller chunks cost more in scheduling than the compare-and-swap saves.
const mergeGrain = 1 << 14

// Step is one global compare-and-swap step of the network.
// K is the size of the bitonic sequences being merged, J the pair distance.
type Step struct {
	K uint32
	J uint32
}

func (s Step) String() string {
	return fmt.Sprintf("k=%d j=%d", s.K, s.J)
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// GroupSize returns the workgroup size actually used for n elements:
// the requested size, shrunk to n for short inputs.
func GroupSize(n, groupSize int) int {
	if n < groupSize {
		return n
	}
	return groupSize
}

// Schedule returns the global steps that run after LocalSort.
// The result is empty when one workgroup covers all n elements.
func Schedule(n, groupSize int) ([]Step, error) {
	if err := check(n, groupSize); err != nil {
		return nil, err
	}
	if n <= 1 {
		return nil, nil
	}
	return steps(2*GroupSize(n, groupSize), n), nil
}

// Network returns every step of the full network for n elements, local
// stages included. Running MergeStep for each of them sorts the data without
// a separate LocalSort call.
func Network(n int) ([]Step, error) {
	if n <= 1 {
		return nil, nil
	}
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}
	return steps(2, n), nil
}

func steps(fromK, n int) []Step {
	var out []Step
	for k := fromK; k <= n; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			out = append(out, Step{K: uint32(k), J: uint32(j)}) //nolint:gosec // k, j <= n fit uint32
		}
	}
	return out
}

func check(n, groupSize int) error {
	if !IsPowerOfTwo(groupSize) {
		return fmt.Errorf("%w: %d", ErrGroupSize, groupSize)
	}
	if n > 1 && !IsPowerOfTwo(n) {
		return fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}
	return nil
}

// LocalSort runs the shared-memory stage: each block of groupSize elements is
// sorted ascending when its block index is even and descending when odd, which
// is the direction bit (globalIndex & k) of the last local stage. When
// groupSize covers the whole slice the result is fully sorted.
func LocalSort(data []uint32, groupSize int, pool *parallel.WorkerPool) error {
	n := len(data)
	if err := check(n, groupSize); err != nil {
		return err
	}
	if n <= 1 {
		return nil
	}
	gs := GroupSize(n, groupSize)
	blocks := n / gs

	work := make([]func(), blocks)
	for b := range work {
		base := b * gs
		work[b] = func() { sortBlock(data[base:base+gs], uint32(base)) } //nolint:gosec // base < n
	}
	poolOrDefault(pool).ExecuteAll(work)
	return nil
}

// sortBlock is the body of one workgroup. base is the global index of the
// block's first element; directions are taken from global indices so the
// blocks come out alternating exactly like the shader's.
func sortBlock(block []uint32, base uint32) {
	size := uint32(len(block)) //nolint:gosec // block length <= group size
	for k := uint32(2); k <= size; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			for i := uint32(0); i < size; i++ {
				l := i ^ j
				if l <= i {
					continue
				}
				compareSwap(block, i, l, (base+i)&k == 0)
			}
		}
	}
}

// MergeStep runs one global (k, j) step across the whole slice.
func MergeStep(data []uint32, step Step, pool *parallel.WorkerPool) {
	n := len(data)
	if n < 2 || step.J == 0 {
		return
	}
	poolOrDefault(pool).Range(n, mergeGrain, func(lo, hi int) {
		mergeRange(data, uint32(lo), uint32(hi), step) //nolint:gosec // indices < n
	})
}

// mergeRange applies a step to the pairs whose lower index lies in [lo, hi).
// Pairs never straddle two calls because only the lower index swaps.
func mergeRange(data []uint32, lo, hi uint32, step Step) {
	n := uint32(len(data)) //nolint:gosec // length checked by caller
	for i := lo; i < hi; i++ {
		l := i ^ step.J
		if l <= i || l >= n {
			continue
		}
		compareSwap(data, i, l, i&step.K == 0)
	}
}

func compareSwap(data []uint32, i, l uint32, ascending bool) {
	a, b := data[i], data[l]
	if (ascending && a > b) || (!ascending && a < b) {
		data[i], data[l] = b, a
	}
}

// Sort sorts data ascending with the two-kernel network: LocalSort followed
// by every step of Schedule. A nil pool uses parallel.Default.
func Sort(data []uint32, groupSize int, pool *parallel.WorkerPool) error {
	n := len(data)
	sched, err := Schedule(n, groupSize)
	if err != nil {
		return err
	}
	if err := LocalSort(data, groupSize, pool); err != nil {
		return err
	}
	for _, s := range sched {
		MergeStep(data, s, pool)
	}
	return nil
}

// Trace sorts data with the full network, one step at a time, and calls fn
// after every step with the current contents. fn must not retain data.
func Trace(data []uint32, fn func(index int, step Step, data []uint32)) error {
	network, err := Network(len(data))
	if err != nil {
		return err
	}
	for i, s := range network {
		mergeRange(data, 0, uint32(len(data)), s) //nolint:gosec // length is a power of two <= 2^31
		if fn != nil {
			fn(i, s, data)
		}
	}
	return nil
}

func poolOrDefault(p *parallel.WorkerPool) *parallel.WorkerPool {
	if p == nil {
		return parallel.Default()
	}
	return p
}
