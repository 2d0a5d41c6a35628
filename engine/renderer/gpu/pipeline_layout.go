package gpu

import "github.com/kaelos/prism/engine/renderer/driver"

// PipelineLayout wraps one driver pipeline layout and shares ownership of
// the device it was created from.
type PipelineLayout struct {
	device *DeviceHandle
	handle driver.PipelineLayout
}

func NewPipelineLayout(device *DeviceHandle, setLayouts []driver.DescriptorSetLayout) (*PipelineLayout, error) {
	handle, err := device.API().CreatePipelineLayout(setLayouts)
	if err != nil {
		return nil, err
	}
	return &PipelineLayout{device: device.Retain(), handle: handle}, nil
}

func (pl *PipelineLayout) Handle() driver.PipelineLayout {
	return pl.handle
}

func (pl *PipelineLayout) Destroy() {
	pl.device.API().DestroyPipelineLayout(pl.handle)
	pl.device.Release()
	pl.handle = 0
}
