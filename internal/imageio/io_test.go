package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"
)

func TestSaveLoadPNG(t *testing.T) {
	src := BlueCheckered(64, 48)
	path := filepath.Join(t.TempDir(), "nested", "checker.png")

	if err := SavePNG(path, src); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
	}
	if d := Diff(src, got); d.Pixels != 0 {
		t.Errorf("PNG round trip changed %d pixels", d.Pixels)
	}
}

func TestDecodeJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, BlueCheckered(16, 16), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}

	img, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("bounds = %v, want 16x16", img.Bounds())
	}
}

func TestDecodeBytesErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmptyData},
		{"text", []byte("definitely not an image file"), ErrUnsupportedFormat},
		{"zip", []byte{0x50, 0x4B, 0x03, 0x04, 0, 0, 0, 0}, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeBytes error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h, maxDim int
		wantW, wantH int
	}{
		{"within limit", 100, 50, 200, 100, 50},
		{"no limit", 3000, 2000, 0, 3000, 2000},
		{"landscape", 400, 200, 100, 100, 50},
		{"portrait", 90, 300, 150, 45, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.maxDim)
			if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
				t.Errorf("Fit = %dx%d, want %dx%d", got.Bounds().Dx(), got.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCheckerboard(t *testing.T) {
	a := color.RGBA{R: 1, A: 255}
	b := color.RGBA{G: 2, A: 255}
	img := Checkerboard(8, 8, 4, a, b)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, a}, {3, 3, a}, {4, 0, b}, {0, 4, b}, {4, 4, a}, {7, 3, b},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDiffAndTriptych(t *testing.T) {
	a := BlueCheckered(10, 10)
	b := BlueCheckered(10, 10)
	b.SetRGBA(3, 4, color.RGBA{R: 0x1e + 3, G: 0x5a, B: 0xd8, A: 0xff})

	d := Diff(a, b)
	if d.Pixels != 1 || d.MaxDelta != 3 {
		t.Errorf("Diff = %+v, want 1 pixel with delta 3", d)
	}

	tri := Triptych(a, b)
	if tri.Bounds().Dx() != 30 || tri.Bounds().Dy() != 10 {
		t.Fatalf("triptych bounds = %v", tri.Bounds())
	}
	if got := tri.RGBAAt(20+3, 4); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("diff panel at mismatch = %v, want red", got)
	}
	if got := tri.RGBAAt(20, 0); got.R != got.G || got.G != got.B {
		t.Errorf("diff panel at match = %v, want gray", got)
	}
}

func TestDiffSizeMismatch(t *testing.T) {
	d := Diff(BlueCheckered(4, 4), BlueCheckered(4, 5))
	if d.Pixels != 16 || d.MaxDelta != 255 {
		t.Errorf("Diff = %+v, want all 16 pixels at 255", d)
	}
}
