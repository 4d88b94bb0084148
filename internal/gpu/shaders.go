//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
)

// Embedded WGSL shader sources.

//go:embed shaders/bitonic.wgsl
var bitonicShaderSource string

//go:embed shaders/squares.wgsl
var squaresShaderSource string

//go:embed shaders/blur.wgsl
var blurShaderSource string

// Workgroup sizes. These must match the @workgroup_size attributes.
const (
	// SortBlockSize is the number of elements sort_local keeps in workgroup memory.
	SortBlockSize = 1024

	// sortThreads is the invocation count of both sort kernels.
	sortThreads = 256

	squaresWGSize = 64
	blurWGSize    = 8

	// maxWorkgroupsPerDim is the WebGPU default for maxComputeWorkgroupsPerDimension.
	maxWorkgroupsPerDim = 65535
)

// Kernel identifies one compute entry point.
type Kernel int

const (
	KernelSortLocal Kernel = iota
	KernelSortGlobal
	KernelSquares
	KernelBlurH
	KernelBlurV

	kernelCount
)

func (k Kernel) String() string {
	switch k {
	case KernelSortLocal:
		return "sort_local"
	case KernelSortGlobal:
		return "sort_global"
	case KernelSquares:
		return "squares"
	case KernelBlurH:
		return "blur_h"
	case KernelBlurV:
		return "blur_v"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// EntryPoint returns the WGSL function name of the kernel.
func (k Kernel) EntryPoint() string {
	if k == KernelSquares {
		return "main"
	}
	return k.String()
}

// Source returns the WGSL module that defines the kernel.
func (k Kernel) Source() string {
	switch k {
	case KernelSortLocal, KernelSortGlobal:
		return bitonicShaderSource
	case KernelSquares:
		return squaresShaderSource
	case KernelBlurH, KernelBlurV:
		return blurShaderSource
	default:
		return ""
	}
}

// ShaderSources returns every embedded module by name.
func ShaderSources() map[string]string {
	return map[string]string{
		"bitonic": bitonicShaderSource,
		"squares": squaresShaderSource,
		"blur":    blurShaderSource,
	}
}
