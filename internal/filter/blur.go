// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"image"
	"sync"

	"github.com/gogpu/compute/internal/parallel"
)

// rowGrain is the minimum number of rows per worker chunk.
const rowGrain = 16

// Blur applies kernel horizontally and then vertically, iterations times.
// The result always has bounds (0, 0, w, h) with the size of src.Bounds().
// An iteration count below one is treated as one. A nil pool uses
// parallel.Default.
func Blur(src *image.RGBA, kernel Kernel, iterations int, pool *parallel.WorkerPool) *image.RGBA {
	return BlurXY(src, kernel, kernel, iterations, pool)
}

// BlurXY is Blur with separate horizontal and vertical kernels.
func BlurXY(src *image.RGBA, kx, ky Kernel, iterations int, pool *parallel.WorkerPool) *image.RGBA {
	if iterations < 1 {
		iterations = 1
	}
	if pool == nil {
		pool = parallel.Default()
	}

	dst := Normalize(src)
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	if w == 0 || h == 0 {
		return dst
	}
	if len(kx) <= 1 && len(ky) <= 1 {
		return dst
	}

	temp := getTempBuffer(w * h * 4)
	defer putTempBuffer(temp)

	for range iterations {
		pool.Range(h, rowGrain, func(lo, hi int) {
			blurHorizontal(dst.Pix, temp, w, lo, hi, kx)
		})
		pool.Range(h, rowGrain, func(lo, hi int) {
			blurVertical(temp, dst.Pix, w, h, lo, hi, ky)
		})
	}
	return dst
}

// Normalize returns a copy of src with bounds at the origin and a stride of
// exactly 4*width, the layout the GPU buffers use.
func Normalize(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	rowBytes := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		so := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowBytes], src.Pix[so:so+rowBytes])
	}
	return dst
}

// blurHorizontal convolves rows [y0, y1) of pix into temp.
func blurHorizontal(pix []uint8, temp []float32, width, y0, y1 int, kernel Kernel) {
	half := kernel.Half()
	for y := y0; y < y1; y++ {
		row := y * width * 4
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				sx := clampInt(x+k-half, 0, width-1)
				i := row + sx*4
				r += float32(pix[i+0]) * weight
				g += float32(pix[i+1]) * weight
				b += float32(pix[i+2]) * weight
				a += float32(pix[i+3]) * weight
			}
			o := row + x*4
			temp[o+0] = r
			temp[o+1] = g
			temp[o+2] = b
			temp[o+3] = a
		}
	}
}

// blurVertical convolves columns of temp into rows [y0, y1) of pix.
func blurVertical(temp []float32, pix []uint8, width, height, y0, y1 int, kernel Kernel) {
	half := kernel.Half()
	for y := y0; y < y1; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, weight := range kernel {
				sy := clampInt(y+k-half, 0, height-1)
				i := (sy*width + x) * 4
				r += temp[i+0] * weight
				g += temp[i+1] * weight
				b += temp[i+2] * weight
				a += temp[i+3] * weight
			}
			o := (y*width + x) * 4
			pix[o+0] = clampUint8(r)
			pix[o+1] = clampUint8(g)
			pix[o+2] = clampUint8(b)
			pix[o+3] = clampUint8(a)
		}
	}
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

var tempBufferPool = sync.Pool{
	New: func() any {
		return &floatBuffer{data: make([]float32, 512*512*4)}
	},
}

// getTempBuffer returns a buffer of exactly size elements. The contents are
// not cleared; the horizontal pass overwrites every element before use.
func getTempBuffer(size int) []float32 {
	fb := tempBufferPool.Get().(*floatBuffer)
	if len(fb.data) < size {
		tempBufferPool.Put(fb)
		return make([]float32, size)
	}
	return fb.data[:size]
}

func putTempBuffer(buf []float32) {
	// 4096x4096 RGBA is the largest buffer worth keeping around.
	if cap(buf) <= 4096*4096*4 {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}

// clampInt clamps v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampUint8 clamps a float32 to [0, 255] and rounds to the nearest integer.
func clampUint8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
