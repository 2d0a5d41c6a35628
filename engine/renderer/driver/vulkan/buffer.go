package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/kaelos/prism/engine/renderer/driver"
)

func toVkBufferUsage(usage driver.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if usage&driver.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if usage&driver.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if usage&driver.BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if usage&driver.BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	return vk.BufferUsageFlags(flags)
}

func toVkMemoryProps(props driver.MemoryProps) vk.MemoryPropertyFlags {
	var flags vk.MemoryPropertyFlagBits
	if props&driver.MemoryHostVisible != 0 {
		flags |= vk.MemoryPropertyHostVisibleBit
	}
	if props&driver.MemoryHostCoherent != 0 {
		flags |= vk.MemoryPropertyHostCoherentBit
	}
	if props&driver.MemoryDeviceLocal != 0 {
		flags |= vk.MemoryPropertyDeviceLocalBit
	}
	return vk.MemoryPropertyFlags(flags)
}

func (d *Device) findMemoryType(typeBits uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < d.memory.MemoryTypeCount; i++ {
		mt := d.memory.MemoryTypes[i]
		mt.Deref()
		if typeBits&(1<<i) != 0 && mt.PropertyFlags&props == props {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type matches bits %#x with flags %#x", typeBits, props)
}

func (d *Device) CreateBuffer(size uint64, usage driver.BufferUsage, props driver.MemoryProps) (driver.Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       toVkBufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if res := vk.CreateBuffer(d.dev, &createInfo, nil, &buffer); res != vk.Success {
		return 0, fmt.Errorf("vkCreateBuffer failed: %s", resultString(res))
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.dev, buffer, &requirements)
	requirements.Deref()

	memoryType, err := d.findMemoryType(requirements.MemoryTypeBits, toVkMemoryProps(props))
	if err != nil {
		vk.DestroyBuffer(d.dev, buffer, nil)
		return 0, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.dev, &allocInfo, nil, &memory); res != vk.Success {
		vk.DestroyBuffer(d.dev, buffer, nil)
		return 0, fmt.Errorf("vkAllocateMemory failed: %s", resultString(res))
	}
	if res := vk.BindBufferMemory(d.dev, buffer, memory, 0); res != vk.Success {
		vk.FreeMemory(d.dev, memory, nil)
		vk.DestroyBuffer(d.dev, buffer, nil)
		return 0, fmt.Errorf("vkBindBufferMemory failed: %s", resultString(res))
	}

	handle := driver.Buffer(d.alloc())
	d.buffers[handle] = boundBuffer{
		buffer:      buffer,
		memory:      memory,
		size:        size,
		hostVisible: props&driver.MemoryHostVisible != 0,
	}
	return handle, nil
}

func (d *Device) DestroyBuffer(b driver.Buffer) {
	if bb, ok := d.buffers[b]; ok {
		vk.DestroyBuffer(d.dev, bb.buffer, nil)
		vk.FreeMemory(d.dev, bb.memory, nil)
		delete(d.buffers, b)
	}
}

func (d *Device) WriteBuffer(b driver.Buffer, data []byte) error {
	bb, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("write to unknown buffer %d", b)
	}
	if !bb.hostVisible {
		return fmt.Errorf("write to non host-visible buffer %d", b)
	}
	if uint64(len(data)) > bb.size {
		return fmt.Errorf("write of %d bytes exceeds buffer size %d", len(data), bb.size)
	}

	var ptr unsafe.Pointer
	if res := vk.MapMemory(d.dev, bb.memory, 0, vk.DeviceSize(len(data)), 0, &ptr); res != vk.Success {
		return fmt.Errorf("vkMapMemory failed: %s", resultString(res))
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(d.dev, bb.memory)
	return nil
}

func (d *Device) ReadBuffer(b driver.Buffer, out []byte) error {
	bb, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("read from unknown buffer %d", b)
	}
	if !bb.hostVisible {
		return fmt.Errorf("read from non host-visible buffer %d", b)
	}
	if uint64(len(out)) > bb.size {
		return fmt.Errorf("read of %d bytes exceeds buffer size %d", len(out), bb.size)
	}

	var ptr unsafe.Pointer
	if res := vk.MapMemory(d.dev, bb.memory, 0, vk.DeviceSize(len(out)), 0, &ptr); res != vk.Success {
		return fmt.Errorf("vkMapMemory failed: %s", resultString(res))
	}
	copy(out, unsafe.Slice((*byte)(ptr), len(out)))
	vk.UnmapMemory(d.dev, bb.memory)
	return nil
}
