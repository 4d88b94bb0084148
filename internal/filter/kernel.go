// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"fmt"
	"math"
	"sync"
)

// Kind selects how a blur kernel's weights are computed.
type Kind uint8

const (
	// KindGaussian samples a Gaussian with sigma equal to the radius.
	KindGaussian Kind = iota

	// KindBox uses 2*radius+1 equal weights.
	KindBox

	// KindFiveTap uses the fixed binomial table [1 4 6 4 1] / 16.
	// The radius is ignored.
	KindFiveTap
)

// String returns the name used in configuration files and flags.
func (k Kind) String() string {
	switch k {
	case KindGaussian:
		return "gaussian"
	case KindBox:
		return "box"
	case KindFiveTap:
		return "fivetap"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind converts a kernel name back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "gaussian", "":
		return KindGaussian, nil
	case "box":
		return KindBox, nil
	case "fivetap", "5tap":
		return KindFiveTap, nil
	default:
		return 0, fmt.Errorf("filter: unknown kernel kind %q", s)
	}
}

// Kernel is an odd-length 1D convolution kernel centered on len/2.
type Kernel []float32

// Half returns the number of taps on each side of the center.
func (k Kernel) Half() int {
	return len(k) / 2
}

// Sum returns the total weight.
func (k Kernel) Sum() float32 {
	var s float32
	for _, w := range k {
		s += w
	}
	return s
}

// MaxRadius is the largest radius a kernel is built for. Larger radii,
// +Inf included, are clamped to it.
const MaxRadius = 2048

// ClampRadius maps radius into [0, MaxRadius]. NaN becomes 0.
func ClampRadius(radius float64) float64 {
	if math.IsNaN(radius) || radius <= 0 {
		return 0
	}
	return min(radius, MaxRadius)
}

// identity is returned for radius <= 0.
func identity() Kernel { return Kernel{1} }

// Gaussian generates a normalized Gaussian kernel for the given radius.
//
// The size is 2*ceil(3*radius)+1, which covers three standard deviations.
// For radius <= 0 or NaN it returns the identity kernel; radii above
// MaxRadius are clamped.
func Gaussian(radius float64) Kernel {
	sigma := ClampRadius(radius)
	if sigma == 0 {
		return identity()
	}

	half := int(math.Ceil(sigma * 3))
	k := make(Kernel, half*2+1)

	// exp(-x²/2σ²); the 1/(σ√2π) factor cancels in normalization.
	twoSigmaSq := 2 * sigma * sigma
	var sum float64
	for i := range k {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		k[i] = float32(v)
		sum += v
	}

	inv := float32(1 / sum)
	for i := range k {
		k[i] *= inv
	}
	return k
}

// Box generates a box kernel of 2*radius+1 equal weights, with radius
// clamped to MaxRadius.
func Box(radius int) Kernel {
	if radius <= 0 {
		return identity()
	}
	radius = min(radius, MaxRadius)
	k := make(Kernel, radius*2+1)
	w := 1 / float32(len(k))
	for i := range k {
		k[i] = w
	}
	return k
}

// FiveTap returns the fixed 5-tap binomial kernel.
func FiveTap() Kernel {
	return Kernel{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}
}

// New builds the kernel for kind and radius. The radius goes through
// ClampRadius first and the Box radius is then rounded.
func New(kind Kind, radius float64) Kernel {
	radius = ClampRadius(radius)
	switch kind {
	case KindBox:
		return Box(int(math.Round(radius)))
	case KindFiveTap:
		return FiveTap()
	default:
		return Gaussian(radius)
	}
}

// kernelKey identifies a kernel by kind and the exact clamped radius.
type kernelKey struct {
	kind   Kind
	radius uint64
}

// kernelCache keeps recently built kernels. Callers must not modify them.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[kernelKey]Kernel
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[kernelKey]Kernel),
		maxLen: maxLen,
	}
}

func (c *kernelCache) get(kind Kind, radius float64) Kernel {
	key := kernelKey{kind: kind, radius: math.Float64bits(ClampRadius(radius))}

	c.mu.RLock()
	k, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return k
	}

	k = New(kind, radius)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Drop half the entries; demos only ever use a handful of radii.
		n := 0
		for key := range c.cache {
			delete(c.cache, key)
			if n++; n >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = k
	c.mu.Unlock()
	return k
}

// Cached returns a shared kernel for kind and radius.
// The returned slice must be treated as read-only.
func Cached(kind Kind, radius float64) Kernel {
	return defaultKernelCache.get(kind, radius)
}
