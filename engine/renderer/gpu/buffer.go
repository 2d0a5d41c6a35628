package gpu

import "github.com/kaelos/prism/engine/renderer/driver"

type BufferType int

const (
	BufferTypeVertex BufferType = iota
	BufferTypeIndex
)

func (t BufferType) usage() driver.BufferUsage {
	if t == BufferTypeIndex {
		return driver.BufferUsageIndex
	}
	return driver.BufferUsageVertex
}

// Buffer is a device-local GPU buffer plus the element count it was
// uploaded with. Uploads go through the engine's staging path; see
// Engine.CreateBuffer.
type Buffer struct {
	device *DeviceHandle
	handle driver.Buffer

	size         uint64
	elementCount uint32
}

func (b *Buffer) Handle() driver.Buffer { return b.handle }
func (b *Buffer) Size() uint64          { return b.size }

// ElementCount is the number of vertices or indices the buffer holds.
func (b *Buffer) ElementCount() uint32 { return b.elementCount }

func (b *Buffer) Destroy() {
	b.device.API().DestroyBuffer(b.handle)
	b.device.Release()
	b.handle = 0
}
