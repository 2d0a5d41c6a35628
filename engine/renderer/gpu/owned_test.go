package gpu

import (
	"testing"

	"github.com/kaelos/prism/engine/renderer/driver"
	"github.com/kaelos/prism/engine/renderer/driver/drivertest"
)

// Every owned wrapper follows the same contract: creation retains the
// device, Destroy issues the matching driver destroy and releases it.
func TestOwnedObjectLifecycle(t *testing.T) {
	h, state := newTestDevice(t)

	layout, err := NewDescriptorSetLayout(h, []driver.DescriptorBinding{
		{Binding: 0, Type: driver.DescriptorTypeCombinedImageSampler, Count: 1},
	})
	if err != nil {
		t.Fatalf("NewDescriptorSetLayout: %v", err)
	}
	pl, err := NewPipelineLayout(h, []driver.DescriptorSetLayout{layout.Handle()})
	if err != nil {
		t.Fatalf("NewPipelineLayout: %v", err)
	}
	sampler, err := NewSampler(h)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	pool, err := NewCommandPool(h, driver.CommandPoolTransient)
	if err != nil {
		t.Fatalf("NewCommandPool: %v", err)
	}

	// The engine's reference plus one per wrapper keeps the device alive
	// through this release.
	h.Release()
	if got := state.Live(drivertest.KindDevice); got != 1 {
		t.Fatalf("live devices = %d, want 1 while wrappers exist", got)
	}

	pool.Destroy()
	sampler.Destroy()
	pl.Destroy()
	layout.Destroy()

	if got := state.Live(drivertest.KindDevice); got != 0 {
		t.Fatalf("live devices = %d, want 0 after the last wrapper", got)
	}
	for _, kind := range []drivertest.Kind{
		drivertest.KindDescriptorLayout,
		drivertest.KindPipelineLayout,
		drivertest.KindSampler,
		drivertest.KindCommandPool,
	} {
		if got := state.Live(kind); got != 0 {
			t.Fatalf("%d live %s handles after destroy", got, kind)
		}
	}
}

// Image views over caller-owned images share device ownership; a view
// must not be destroyable into a dead device.
func TestImageViewRetainsDevice(t *testing.T) {
	h, state := newTestDevice(t)

	// Swapchain images stand in for any caller-owned image.
	sc, err := h.API().CreateSwapchain(driver.SwapchainConfig{
		Capabilities:  state.Caps,
		MinImageCount: 3,
	})
	if err != nil {
		t.Fatalf("CreateSwapchain: %v", err)
	}
	images, err := h.API().SwapchainImages(sc)
	if err != nil {
		t.Fatalf("SwapchainImages: %v", err)
	}

	view, err := NewImageView(h, images[0], driver.FormatB8G8R8A8Unorm)
	if err != nil {
		t.Fatalf("NewImageView: %v", err)
	}
	h.API().DestroySwapchain(sc)

	h.Release()
	if got := state.Live(drivertest.KindDevice); got != 1 {
		t.Fatalf("live devices = %d, want 1 while the view exists", got)
	}

	view.Destroy()
	if got := state.Live(drivertest.KindDevice); got != 0 {
		t.Fatalf("live devices = %d, want 0", got)
	}
}
