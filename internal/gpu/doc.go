//go:build !nogpu

// Package gpu runs the compute kernels on a GPU through gogpu/wgpu.
//
// This is an internal package used by compute. It opens a Vulkan device via
// the wgpu HAL (or borrows one from a gpucontext.DeviceProvider), compiles
// the embedded WGSL modules into compute pipelines, and dispatches them.
//
// # Kernels
//
//   - sort_local, sort_global: bitonic sort (shaders/bitonic.wgsl)
//   - squares: elementwise square (shaders/squares.wgsl)
//   - blur_h, blur_v: separable convolution (shaders/blur.wgsl)
//
// # Submission model
//
// One operation is one submission. Buffers and bind groups are created per
// call, every pass is recorded into a single command encoder, the result is
// copied into a staging buffer, and the call waits on a fence before reading
// it back. Compute passes in one encoder are ordered with implicit storage
// barriers between them, which the multi-pass sort and blur rely on.
package gpu
