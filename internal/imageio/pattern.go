// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imageio

import (
	"image"
	"image/color"
	"image/draw"
)

// Checkered colors used when the blur demo runs without an input image.
var (
	CheckerBlue  = color.RGBA{R: 0x1e, G: 0x5a, B: 0xd8, A: 0xff}
	CheckerWhite = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Checkerboard generates a w×h checkerboard with square cells of the given
// size, starting with a in the top-left cell.
func Checkerboard(w, h, cell int, a, b color.RGBA) *image.RGBA {
	if cell < 1 {
		cell = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// BlueCheckered is the default demo image: 32px blue and white cells.
func BlueCheckered(w, h int) *image.RGBA {
	return Checkerboard(w, h, 32, CheckerBlue, CheckerWhite)
}

// DiffStats summarizes the per-channel difference between two images.
type DiffStats struct {
	Pixels   int // pixels with any channel differing
	MaxDelta int // largest absolute channel difference
}

// Diff compares two images of the same size. Images of different sizes
// report every pixel of a as differing.
func Diff(a, b *image.RGBA) DiffStats {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Size() != bb.Size() {
		return DiffStats{Pixels: ab.Dx() * ab.Dy(), MaxDelta: 255}
	}

	var s DiffStats
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := a.RGBAAt(ab.Min.X+x, ab.Min.Y+y)
			cb := b.RGBAAt(bb.Min.X+x, bb.Min.Y+y)
			d := max(absDiff(ca.R, cb.R), absDiff(ca.G, cb.G), absDiff(ca.B, cb.B), absDiff(ca.A, cb.A))
			if d > 0 {
				s.Pixels++
				s.MaxDelta = max(s.MaxDelta, d)
			}
		}
	}
	return s
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Triptych places a, b and their difference side by side. Matching pixels
// in the third panel are gray, differing ones bright red.
func Triptych(a, b *image.RGBA) *image.RGBA {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	out := image.NewRGBA(image.Rect(0, 0, w*3, h))

	draw.Draw(out, image.Rect(0, 0, w, h), a, a.Bounds().Min, draw.Src)
	draw.Draw(out, image.Rect(w, 0, w*2, h), b, b.Bounds().Min, draw.Src)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ca := a.RGBAAt(a.Bounds().Min.X+x, a.Bounds().Min.Y+y)
			cb := b.RGBAAt(b.Bounds().Min.X+x, b.Bounds().Min.Y+y)
			if ca != cb {
				out.SetRGBA(w*2+x, y, color.RGBA{R: 255, A: 255})
				continue
			}
			gray := uint8((uint32(ca.R) + uint32(ca.G) + uint32(ca.B)) / 3)
			out.SetRGBA(w*2+x, y, color.RGBA{R: gray, G: gray, B: gray, A: 255})
		}
	}
	return out
}
