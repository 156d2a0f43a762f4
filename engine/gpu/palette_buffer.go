package gpu

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// PaletteBuffer is a GPU storage buffer holding one mesh's skinning palette.
// It implements animator.PaletteSink, so it can be passed straight to PlayerAnimation.ApplyToMesh.
type PaletteBuffer struct {
	mu *sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue
	label  string

	buffer   *wgpu.Buffer
	capacity int
	released bool
}

var _ animator.PaletteSink = &PaletteBuffer{}

// NewPaletteBuffer creates an empty palette buffer. The GPU buffer is allocated on the first write.
//
// Parameters:
//   - device: the device that allocates the storage buffer
//   - queue: the queue palette uploads are written through
//   - label: the debug label of the buffer
//
// Returns:
//   - *PaletteBuffer: the new palette buffer
func NewPaletteBuffer(device *wgpu.Device, queue *wgpu.Queue, label string) *PaletteBuffer {
	return &PaletteBuffer{
		mu:     &sync.Mutex{},
		device: device,
		queue:  queue,
		label:  label,
	}
}

// PaletteCapacity returns the number of matrices a buffer is sized for when it must hold n matrices.
// Capacities are powers of two so a growing palette reallocates only a logarithmic number of times.
//
// Parameters:
//   - n: the number of matrices to hold
//
// Returns:
//   - int: the capacity in matrices, at least 1
func PaletteCapacity(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// WritePalette uploads palette to the GPU, growing the storage buffer first if it is too small.
//
// Parameters:
//   - palette: the skinning matrices
//
// Returns:
//   - error: ErrReleased after Release, or the buffer allocation error
func (b *PaletteBuffer) WritePalette(palette []mgl32.Mat4) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return fmt.Errorf("%s: %w", b.label, common.ErrReleased)
	}
	if len(palette) == 0 {
		return nil
	}

	if b.buffer == nil || len(palette) > b.capacity {
		var entry animator.GPUSkinningMatrix
		capacity := PaletteCapacity(len(palette))
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            b.label + " Palette Buffer",
			Size:             uint64(capacity) * uint64(entry.Size()),
			Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			common.LogError("palette buffer %q: %v", b.label, err)
			return err
		}
		if b.buffer != nil {
			b.buffer.Release()
		}
		common.LogDebug("palette buffer %q grown to %d matrices", b.label, capacity)
		b.buffer = buf
		b.capacity = capacity
	}

	b.queue.WriteBuffer(b.buffer, 0, animator.MarshalPalette(palette))
	return nil
}

// Buffer returns the underlying storage buffer, or nil before the first write.
func (b *PaletteBuffer) Buffer() *wgpu.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer
}

// Capacity returns the number of matrices the current buffer can hold.
func (b *PaletteBuffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// Release frees the GPU buffer. Later writes fail with ErrReleased.
func (b *PaletteBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	b.capacity = 0
	b.released = true
}
