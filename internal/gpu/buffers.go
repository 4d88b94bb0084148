//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
)

// uniformSize is the size of every params uniform: four u32 fields.
const uniformSize = 16

// makeParams encodes up to four u32 values as a 16-byte uniform block.
// Missing fields are zero.
func makeParams(vals ...uint32) []byte {
	out := make([]byte, uniformSize)
	for i, v := range vals[:min(len(vals), 4)] {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func packUint32(data []uint32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func unpackUint32(packed []byte, dst []uint32) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(packed[i*4:])
	}
}

func packFloat32(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// packPixelsForGPU packs RGBA8 pixels into little-endian u32 words with R in
// the low byte, the layout unpack_rgba expects.
func packPixelsForGPU(data []uint8, pixelCount int) []byte {
	out := make([]byte, pixelCount*4)
	for i := 0; i < pixelCount; i++ {
		srcIdx := i * 4
		r := uint32(data[srcIdx+0])
		g := uint32(data[srcIdx+1])
		b := uint32(data[srcIdx+2])
		a := uint32(data[srcIdx+3])
		packed := r | (g << 8) | (b << 16) | (a << 24)
		binary.LittleEndian.PutUint32(out[i*4:], packed)
	}
	return out
}

func unpackPixelsFromGPU(packed []byte, dst []uint8, pixelCount int) {
	for i := 0; i < pixelCount; i++ {
		val := binary.LittleEndian.Uint32(packed[i*4:])
		dstIdx := i * 4
		dst[dstIdx+0] = uint8(val & 0xFF)         //nolint:gosec // masked to 8 bits
		dst[dstIdx+1] = uint8((val >> 8) & 0xFF)  //nolint:gosec // masked to 8 bits
		dst[dstIdx+2] = uint8((val >> 16) & 0xFF) //nolint:gosec // masked to 8 bits
		dst[dstIdx+3] = uint8((val >> 24) & 0xFF) //nolint:gosec // masked to 8 bits
	}
}

// workgroups returns the number of workgroups of size wg that cover n items.
func workgroups(n, wg int) uint32 {
	return uint32((n + wg - 1) / wg) //nolint:gosec // callers bound n by the buffer limit
}
