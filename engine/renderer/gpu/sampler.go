package gpu

import "github.com/kaelos/prism/engine/renderer/driver"

// Sampler wraps one driver sampler created with the engine's fixed
// policy: linear filtering, repeat addressing, anisotropy at the maximum
// level, no comparison. The policy is static, not user-configurable.
type Sampler struct {
	device *DeviceHandle
	handle driver.Sampler
}

func NewSampler(device *DeviceHandle) (*Sampler, error) {
	cfg := driver.SamplerConfig{
		LinearFiltering:   true,
		RepeatAddressing:  true,
		MaxAnisotropy:     16,
		CompareEnable:     false,
		LinearMipmapping:  true,
		OpaqueBlackBorder: true,
	}
	handle, err := device.API().CreateSampler(cfg)
	if err != nil {
		return nil, err
	}
	return &Sampler{device: device.Retain(), handle: handle}, nil
}

func (s *Sampler) Handle() driver.Sampler {
	return s.handle
}

func (s *Sampler) Destroy() {
	s.device.API().DestroySampler(s.handle)
	s.device.Release()
	s.handle = 0
}
