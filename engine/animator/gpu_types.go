package animator

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// PaletteSink receives a finished skinning palette, typically to upload it for GPU skinning.
type PaletteSink interface {
	// WritePalette consumes the palette. The slice is only valid for the duration of the call.
	//
	// Parameters:
	//   - palette: the skinning matrices in palette-slot order
	//
	// Returns:
	//   - error: an error if the palette could not be consumed
	WritePalette(palette []mgl32.Mat4) error
}

// GPUSkinningMatrix is the GPU-aligned representation of one palette entry.
// It matches a WGSL array<mat4x4<f32>> element: 16 column-major floats, 64 bytes, no padding.
type GPUSkinningMatrix struct {
	Matrix [16]float32
}

// Size returns the size of the GPUSkinningMatrix struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSkinningMatrix) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSkinningMatrix into a little-endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUSkinningMatrix) Marshal() []byte {
	buf := make([]byte, 64)
	g.marshalInto(buf)
	return buf
}

func (g *GPUSkinningMatrix) marshalInto(buf []byte) {
	for i, f := range g.Matrix {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

// MarshalPalette serializes a whole palette into one contiguous buffer.
//
// Parameters:
//   - palette: the skinning matrices
//
// Returns:
//   - []byte: len(palette) * 64 bytes, column-major little-endian float32
func MarshalPalette(palette []mgl32.Mat4) []byte {
	const stride = 64
	buf := make([]byte, len(palette)*stride)
	for k, m := range palette {
		g := GPUSkinningMatrix{Matrix: m}
		g.marshalInto(buf[k*stride:])
	}
	return buf
}
