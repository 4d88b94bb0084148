// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package imageio loads, saves and generates the RGBA8 images used by the
// blur demo.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the data is not a decodable image.
	ErrUnsupportedFormat = errors.New("imageio: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("imageio: empty data")
)

// Load reads an image file and converts it to RGBA8.
// The format is detected from the content, not the extension.
func Load(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imageio: read file: %w", err)
	}
	img, err := DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("imageio: %s: %w", path, err)
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image to RGBA8.
func DecodeBytes(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		if kind == filetype.Unknown {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from r and converts it to RGBA8.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("imageio: decode: %w", err)
	}
	return clone.AsRGBA(img), nil
}

// SavePNG writes img to path as PNG, creating parent directories.
func SavePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("imageio: create dir: %w", err)
		}
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}
	if err := EncodePNG(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodePNG encodes img as PNG to w.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("imageio: encode PNG: %w", err)
	}
	return nil
}

// Fit downscales img so neither side exceeds maxDim, keeping the aspect
// ratio. Images already within the limit, and maxDim <= 0, return img as is.
func Fit(img *image.RGBA, maxDim int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	scale := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return transform.Resize(img, nw, nh, transform.Linear)
}
