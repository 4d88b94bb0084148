// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand/v2"
)

// Workgroup and input limits of the demos.
const (
	// MaxThreadNum is the number of elements one workgroup sorts in
	// shared memory.
	MaxThreadNum = 1024

	// MaxGroupNum is the largest number of workgroups a demo dispatches.
	MaxGroupNum = 2048

	// MaxSortValue bounds the random sort inputs: values are in [0, MaxSortValue).
	MaxSortValue = 4096

	// MaxSquareValue bounds the random squares inputs.
	MaxSquareValue = 64

	// DefaultLengthIndex selects 131072 elements.
	DefaultLengthIndex = 7

	minLengthShift = 10
)

// ErrInvalidLength is returned for a length index outside the selectable range.
var ErrInvalidLength = errors.New("compute: invalid length index")

// LengthOptions returns the number of selectable input lengths:
// 1024 up to MaxThreadNum*MaxGroupNum, doubling.
func LengthOptions() int {
	return bits.Len(uint(MaxThreadNum*MaxGroupNum)) - 1 - (minLengthShift - 1)
}

// LengthForIndex returns the input length for a selector index.
func LengthForIndex(i int) (int, error) {
	if i < 0 || i >= LengthOptions() {
		return 0, fmt.Errorf("%w: %d (want 0..%d)", ErrInvalidLength, i, LengthOptions()-1)
	}
	return 1 << (i + minLengthShift), nil
}

// Lengths returns every selectable input length in ascending order.
func Lengths() []int {
	out := make([]int, LengthOptions())
	for i := range out {
		out[i] = 1 << (i + minLengthShift)
	}
	return out
}

// RandomUint32 returns n values drawn uniformly from [0, limit).
// A zero limit yields all zeros.
func RandomUint32(n int, limit uint32, rng *rand.Rand) []uint32 {
	data := make([]uint32, n)
	if limit == 0 {
		return data
	}
	for i := range data {
		data[i] = rng.Uint32N(limit)
	}
	return data
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// IsSorted reports whether data is non-decreasing.
func IsSorted(data []uint32) bool {
	return FirstUnsorted(data) < 0
}

// FirstUnsorted returns the first index i with data[i] > data[i+1], or -1.
func FirstUnsorted(data []uint32) int {
	for i := 0; i+1 < len(data); i++ {
		if data[i] > data[i+1] {
			return i
		}
	}
	return -1
}

// IsPermutation reports whether a and b hold the same multiset of values.
func IsPermutation(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[uint32]int, min(len(a), MaxSortValue))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		c := counts[v]
		if c == 0 {
			return false
		}
		counts[v] = c - 1
	}
	return true
}
