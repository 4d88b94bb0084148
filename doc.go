// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compute runs small data-parallel kernels on the GPU and checks them
// against a CPU reference.
//
// # Overview
//
// compute is a Pure Go port of the classic WebGPU compute demos: a bitonic
// sort of random integers, an elementwise square, and a separable image blur.
// Each operation has a CPU implementation that is always available, and an
// optional GPU implementation based on gogpu/wgpu.
//
// # Quick Start
//
//	import "github.com/gogpu/compute"
//
//	data := compute.RandomUint32(1<<17, compute.MaxSortValue, compute.NewRand(1))
//	res, err := compute.Sort(ctx, data)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Backend, res.Elapsed, compute.IsSorted(data))
//
// # GPU Acceleration
//
// The CPU path is used until an accelerator is registered. The wgpu
// accelerator registers itself when its package is imported:
//
//	import _ "github.com/gogpu/compute/gpu"
//
// When the GPU is missing, or a dispatch fails, the work is redone on the
// CPU and Result.Fallback is set. Only a cancelled context is returned as an
// error.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Sort, Square, Blur, the data helpers and the accelerator registry
//   - Internal: bitonic (CPU network), filter (kernels, CPU blur), parallel (worker pool)
//   - GPU: internal/gpu (WGSL shaders, HAL dispatch), gpu (registration)
//   - Demos: demo (runners, reports, visualizers), cmd/computedemo (CLI)
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package compute
