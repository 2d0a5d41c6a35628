package gpu

import "github.com/kaelos/prism/engine/renderer/driver"

// DescriptorSetLayout wraps one driver descriptor set layout. It must
// outlive any descriptor sets allocated against it.
type DescriptorSetLayout struct {
	device *DeviceHandle
	handle driver.DescriptorSetLayout
}

func NewDescriptorSetLayout(device *DeviceHandle, bindings []driver.DescriptorBinding) (*DescriptorSetLayout, error) {
	handle, err := device.API().CreateDescriptorSetLayout(bindings)
	if err != nil {
		return nil, err
	}
	return &DescriptorSetLayout{device: device.Retain(), handle: handle}, nil
}

func (dsl *DescriptorSetLayout) Handle() driver.DescriptorSetLayout {
	return dsl.handle
}

func (dsl *DescriptorSetLayout) Destroy() {
	dsl.device.API().DestroyDescriptorSetLayout(dsl.handle)
	dsl.device.Release()
	dsl.handle = 0
}

// DescriptorPool wraps one driver descriptor pool. Sets allocated from it
// are returned to the driver when the pool is destroyed, so they carry no
// wrapper of their own.
type DescriptorPool struct {
	device *DeviceHandle
	handle driver.DescriptorPool
}

func NewDescriptorPool(device *DeviceHandle, maxSets uint32, sizes []driver.DescriptorPoolSize) (*DescriptorPool, error) {
	handle, err := device.API().CreateDescriptorPool(maxSets, sizes)
	if err != nil {
		return nil, err
	}
	return &DescriptorPool{device: device.Retain(), handle: handle}, nil
}

func (dp *DescriptorPool) Handle() driver.DescriptorPool {
	return dp.handle
}

func (dp *DescriptorPool) AllocateSets(layouts []driver.DescriptorSetLayout) ([]driver.DescriptorSet, error) {
	return dp.device.API().AllocateDescriptorSets(dp.handle, layouts)
}

func (dp *DescriptorPool) Destroy() {
	dp.device.API().DestroyDescriptorPool(dp.handle)
	dp.device.Release()
	dp.handle = 0
}
