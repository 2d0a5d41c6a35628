// Package gpu is the GPU resource lifecycle core: device and queue
// acquisition, swapchain construction and recreation, command-buffer
// recording for indexed draws, and the single-buffered submit-and-present
// protocol. Everything here is written against the driver interfaces, so
// the same code runs on real hardware and under the handle-accounting
// mock in tests.
package gpu

import (
	"sync/atomic"

	"github.com/kaelos/prism/engine/core"
	"github.com/kaelos/prism/engine/renderer/driver"
)

// DeviceHandle owns the logical device connection and its queue. Every
// object created from the device retains the handle for exactly as long
// as it needs it; the device is destroyed when the last retain is
// released, which guarantees no dependent outlives it.
type DeviceHandle struct {
	api              driver.Device
	queueFamilyIndex uint32

	refs     atomic.Int32
	released atomic.Bool
}

// NewDeviceHandle wraps an open device. The caller holds the initial
// reference and must Release it during teardown, after every dependent
// object is gone.
func NewDeviceHandle(api driver.Device, queueFamilyIndex uint32) *DeviceHandle {
	h := &DeviceHandle{api: api, queueFamilyIndex: queueFamilyIndex}
	h.refs.Store(1)
	return h
}

// API exposes the underlying driver device for factory and queue calls.
func (h *DeviceHandle) API() driver.Device {
	if h.released.Load() {
		panic("gpu: device used after release")
	}
	return h.api
}

func (h *DeviceHandle) QueueFamilyIndex() uint32 {
	return h.queueFamilyIndex
}

// Retain takes shared ownership. The returned handle is the receiver;
// callers keep it only to pair with a later Release.
func (h *DeviceHandle) Retain() *DeviceHandle {
	if h.released.Load() {
		panic("gpu: device retained after release")
	}
	h.refs.Add(1)
	return h
}

// Release drops one reference. On the last release the logical device is
// destroyed; at that point no dependent object may remain, which the
// retain discipline guarantees by construction.
func (h *DeviceHandle) Release() {
	n := h.refs.Add(-1)
	if n < 0 {
		panic("gpu: device over-released")
	}
	if n == 0 {
		h.released.Store(true)
		core.LogDebug("destroying logical device")
		h.api.Destroy()
	}
}

// WeakRef returns a non-owning reference. It never keeps the device
// alive.
func (h *DeviceHandle) WeakRef() DeviceRef {
	return DeviceRef{h: h}
}

// DeviceRef is a non-owning device reference. Resolving it after the
// device has been released is a programming error with no recovery path.
type DeviceRef struct {
	h *DeviceHandle
}

// Get resolves the reference. Panics if the device is already gone: the
// holder was required to be torn down first.
func (r DeviceRef) Get() *DeviceHandle {
	if r.h == nil || r.h.released.Load() {
		panic("gpu: weak device reference resolved after device release")
	}
	return r.h
}

// Alive reports whether the referenced device still exists.
func (r DeviceRef) Alive() bool {
	return r.h != nil && !r.h.released.Load()
}
