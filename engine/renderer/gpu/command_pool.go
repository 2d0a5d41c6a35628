package gpu

import "github.com/kaelos/prism/engine/renderer/driver"

// CommandPool wraps one driver command pool. The pool must outlive every
// command buffer allocated from it, which holds because render objects are
// torn down before the engine destroys the pool.
type CommandPool struct {
	device *DeviceHandle
	handle driver.CommandPool
}

func NewCommandPool(device *DeviceHandle, flags driver.CommandPoolFlags) (*CommandPool, error) {
	handle, err := device.API().CreateCommandPool(flags, device.QueueFamilyIndex())
	if err != nil {
		return nil, err
	}
	return &CommandPool{device: device.Retain(), handle: handle}, nil
}

func (cp *CommandPool) Handle() driver.CommandPool {
	return cp.handle
}

func (cp *CommandPool) Allocate(count uint32) ([]driver.CommandBuffer, error) {
	return cp.device.API().AllocateCommandBuffers(cp.handle, count)
}

func (cp *CommandPool) Free(buffers []driver.CommandBuffer) {
	cp.device.API().FreeCommandBuffers(cp.handle, buffers)
}

func (cp *CommandPool) Destroy() {
	cp.device.API().DestroyCommandPool(cp.handle)
	cp.device.Release()
	cp.handle = 0
}
