// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package filter provides the CPU reference for the blur demo.
//
// The blur is a separable convolution applied to RGBA8 images:
//   - Horizontal pass: convolve each row into a float intermediate
//   - Vertical pass: convolve each column of the intermediate into the output
//
// Samples outside the image are clamped to the nearest edge pixel and every
// output channel is rounded and clamped to [0, 255]. Kernels are normalized
// to sum to one, so a uniform image stays uniform.
//
// The GPU shader in internal/gpu performs the same arithmetic in the same
// order, which keeps CPU and GPU results within one unit per channel.
package filter
