package gpu

import (
	"testing"

	"github.com/kaelos/prism/engine/renderer/driver"
	"github.com/kaelos/prism/engine/renderer/driver/drivertest"
)

func newTestDevice(t *testing.T) (*DeviceHandle, *drivertest.State) {
	t.Helper()
	state := drivertest.NewState()
	instance, err := drivertest.NewProvider(state).CreateInstance("test")
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters, err := instance.Adapters()
	if err != nil {
		t.Fatalf("Adapters: %v", err)
	}
	api, err := adapters[0].CreateDevice(0)
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	return NewDeviceHandle(api, 0), state
}

func TestDeviceDestroyedOnLastRelease(t *testing.T) {
	h, state := newTestDevice(t)

	h.Retain()
	h.Release()
	if got := state.Live(drivertest.KindDevice); got != 1 {
		t.Fatalf("live devices = %d, want 1 while a reference remains", got)
	}

	h.Release()
	if got := state.Live(drivertest.KindDevice); got != 0 {
		t.Fatalf("live devices = %d, want 0 after the last release", got)
	}
}

func TestWeakRefDoesNotKeepDeviceAlive(t *testing.T) {
	h, state := newTestDevice(t)

	ref := h.WeakRef()
	if !ref.Alive() {
		t.Fatal("reference should be alive before release")
	}

	h.Release()
	if got := state.Live(drivertest.KindDevice); got != 0 {
		t.Fatalf("live devices = %d, want 0", got)
	}
	if ref.Alive() {
		t.Fatal("reference should be dead after release")
	}
}

func TestWeakRefResolveAfterReleasePanics(t *testing.T) {
	h, _ := newTestDevice(t)
	ref := h.WeakRef()
	h.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("expected Get on a dead reference to panic")
		}
	}()
	ref.Get()
}

func TestAPIAfterReleasePanics(t *testing.T) {
	h, _ := newTestDevice(t)
	h.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("expected API on a released device to panic")
		}
	}()
	h.API()
}

// Buffers retain the device, so a buffer may safely be destroyed after
// the engine dropped its own reference.
func TestBufferOutlivesEngineReference(t *testing.T) {
	h, state := newTestDevice(t)

	handle, err := h.API().CreateBuffer(16, driver.BufferUsageVertex, driver.MemoryDeviceLocal)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	b := &Buffer{device: h.Retain(), handle: handle, size: 16, elementCount: 1}

	h.Release()
	if got := state.Live(drivertest.KindDevice); got != 1 {
		t.Fatalf("live devices = %d, want 1 while the buffer exists", got)
	}

	b.Destroy()
	if got := state.Live(drivertest.KindDevice); got != 0 {
		t.Fatalf("live devices = %d, want 0 after the buffer is gone", got)
	}
}
