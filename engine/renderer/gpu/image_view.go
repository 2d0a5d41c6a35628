package gpu

import "github.com/kaelos/prism/engine/renderer/driver"

// ImageView wraps one driver image view over an image the caller owns,
// e.g. a texture view. Swapchain-owned views are managed by the SwapChain
// itself, which must not extend the device's lifetime.
type ImageView struct {
	device *DeviceHandle
	handle driver.ImageView
}

func NewImageView(device *DeviceHandle, img driver.Image, format driver.Format) (*ImageView, error) {
	handle, err := device.API().CreateImageView(img, format)
	if err != nil {
		return nil, err
	}
	return &ImageView{device: device.Retain(), handle: handle}, nil
}

func (iv *ImageView) Handle() driver.ImageView {
	return iv.handle
}

func (iv *ImageView) Destroy() {
	iv.device.API().DestroyImageView(iv.handle)
	iv.device.Release()
	iv.handle = 0
}
