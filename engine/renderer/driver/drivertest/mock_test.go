package drivertest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kaelos/prism/engine/renderer/driver"
)

func newMockDevice(t *testing.T) (*Device, *State) {
	t.Helper()
	state := NewState()
	instance, err := NewProvider(state).CreateInstance("test")
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters, err := instance.Adapters()
	if err != nil {
		t.Fatalf("Adapters: %v", err)
	}
	dev, err := adapters[0].CreateDevice(0)
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	return dev.(*Device), state
}

func TestSubmittedCopyExecutes(t *testing.T) {
	d, _ := newMockDevice(t)

	src, err := d.CreateBuffer(8, driver.BufferUsageTransferSrc, driver.MemoryHostVisible)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := d.CreateBuffer(8, driver.BufferUsageTransferDst, driver.MemoryHostVisible)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := d.WriteBuffer(src, data); err != nil {
		t.Fatal(err)
	}

	pool, err := d.CreateCommandPool(driver.CommandPoolTransient, 0)
	if err != nil {
		t.Fatal(err)
	}
	cbs, err := d.AllocateCommandBuffers(pool, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.BeginCommandBuffer(cbs[0], true); err != nil {
		t.Fatal(err)
	}
	d.CmdCopyBuffer(cbs[0], src, dst, 8)
	if err := d.EndCommandBuffer(cbs[0]); err != nil {
		t.Fatal(err)
	}

	out := make([]byte, 8)
	if err := d.ReadBuffer(dst, out); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(out, data) {
		t.Fatal("copy must not execute before submit")
	}

	if err := d.Submit(cbs[0], 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.ReadBuffer(dst, out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("copied %v, want %v", out, data)
	}
}

func TestWriteToDeviceLocalBufferFails(t *testing.T) {
	d, _ := newMockDevice(t)

	b, err := d.CreateBuffer(4, driver.BufferUsageVertex, driver.MemoryDeviceLocal)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteBuffer(b, []byte{1}); err == nil {
		t.Fatal("expected write to device-local memory to fail")
	}
}

func TestFailNextConsumedOnce(t *testing.T) {
	d, state := newMockDevice(t)

	state.FailNext("CreateSemaphore", errors.New("boom"))
	if _, err := d.CreateSemaphore(); err == nil {
		t.Fatal("expected injected failure")
	}
	if _, err := d.CreateSemaphore(); err != nil {
		t.Fatalf("second call should succeed: %v", err)
	}
}

func TestAcquireRotatesImageIndices(t *testing.T) {
	d, state := newMockDevice(t)

	sc, err := d.CreateSwapchain(driver.SwapchainConfig{
		Capabilities:  state.Caps,
		MinImageCount: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	sem, err := d.CreateSemaphore()
	if err != nil {
		t.Fatal(err)
	}

	seen := map[uint32]bool{}
	for i := 0; i < 3; i++ {
		idx, status, err := d.AcquireNextImage(sc, 0, sem)
		if err != nil || status != driver.PresentSuccess {
			t.Fatalf("acquire %d: idx=%d status=%v err=%v", i, idx, status, err)
		}
		seen[idx] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct image indices, saw %v", seen)
	}
}

func TestDestroyPoolFreesItsCommandBuffers(t *testing.T) {
	d, state := newMockDevice(t)

	pool, err := d.CreateCommandPool(driver.CommandPoolTransient, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.AllocateCommandBuffers(pool, 3); err != nil {
		t.Fatal(err)
	}
	if got := state.Live(KindCommandBuffer); got != 3 {
		t.Fatalf("live command buffers = %d, want 3", got)
	}

	d.DestroyCommandPool(pool)
	if got := state.Live(KindCommandBuffer); got != 0 {
		t.Fatalf("live command buffers = %d, want 0 after pool destroy", got)
	}
}
