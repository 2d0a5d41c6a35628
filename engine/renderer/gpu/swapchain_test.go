package gpu

import (
	"errors"
	"testing"

	"github.com/kaelos/prism/engine/renderer/driver"
	"github.com/kaelos/prism/engine/renderer/driver/drivertest"
	"github.com/kaelos/prism/engine/scene"
)

func buildTestSwapChain(t *testing.T, state *drivertest.State) (*SwapChain, *DeviceHandle, error) {
	t.Helper()
	instance, err := drivertest.NewProvider(state).CreateInstance("test")
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	surface, err := instance.CreateSurface(&drivertest.Window{Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	adapters, err := instance.Adapters()
	if err != nil {
		t.Fatalf("Adapters: %v", err)
	}
	api, err := adapters[0].CreateDevice(0)
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	device := NewDeviceHandle(api, 0)

	sc, err := BuildSwapChain(device.WeakRef(), SwapChainConfig{
		Surface:      surface,
		Capabilities: state.Caps,
		Format:       driver.SurfaceFormat{Format: driver.FormatB8G8R8A8Unorm},
		PresentMode:  driver.PresentModeFifo,
		Shaders:      testShaders,
		VertexStride: scene.VertexStride,
		Attributes:   vertexAttributes,
	})
	return sc, device, err
}

func TestBuildSwapChainExtentClamped(t *testing.T) {
	state := drivertest.NewState()
	state.Caps.CurrentExtent = driver.Extent2D{Width: 9000, Height: 0}

	sc, device, err := buildTestSwapChain(t, state)
	if err != nil {
		t.Fatalf("BuildSwapChain: %v", err)
	}
	defer device.Release()
	defer sc.Destroy()

	got := sc.Extent()
	if got.Width != state.Caps.MaxImageExtent.Width {
		t.Fatalf("width = %d, want clamped to %d", got.Width, state.Caps.MaxImageExtent.Width)
	}
	if got.Height != state.Caps.MinImageExtent.Height {
		t.Fatalf("height = %d, want clamped to %d", got.Height, state.Caps.MinImageExtent.Height)
	}
}

// The only silent teardown order is swapchain before device. Destroying
// the device first leaves the swapchain's non-owning reference dangling,
// which must be detected, not ignored.
func TestSwapChainDestroyAfterDeviceReleasePanics(t *testing.T) {
	state := drivertest.NewState()
	sc, device, err := buildTestSwapChain(t, state)
	if err != nil {
		t.Fatalf("BuildSwapChain: %v", err)
	}

	device.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("expected Destroy after device release to panic")
		}
	}()
	sc.Destroy()
}

func TestSwapChainDestroyBeforeDeviceIsSilent(t *testing.T) {
	state := drivertest.NewState()
	sc, device, err := buildTestSwapChain(t, state)
	if err != nil {
		t.Fatalf("BuildSwapChain: %v", err)
	}

	sc.Destroy()
	device.Release()

	if got := state.Live(drivertest.KindSwapchain); got != 0 {
		t.Fatalf("live swapchains = %d, want 0", got)
	}
	if got := state.Live(drivertest.KindDevice); got != 0 {
		t.Fatalf("live devices = %d, want 0", got)
	}
}

func TestBuildSwapChainFailureCleansUp(t *testing.T) {
	state := drivertest.NewState()
	state.FailNext("CreateFramebuffer", errors.New("boom"))

	sc, device, err := buildTestSwapChain(t, state)
	if err == nil {
		sc.Destroy()
		t.Fatal("expected the build to fail")
	}
	defer device.Release()

	for _, kind := range []drivertest.Kind{
		drivertest.KindSwapchain,
		drivertest.KindImageView,
		drivertest.KindRenderPass,
		drivertest.KindPipelineLayout,
		drivertest.KindPipeline,
		drivertest.KindFramebuffer,
		drivertest.KindShaderModule,
	} {
		if got := state.Live(kind); got != 0 {
			t.Fatalf("%d live %s handles after failed build", got, kind)
		}
	}
}

func TestBuildSwapChainPipelineFailureCleansUp(t *testing.T) {
	state := drivertest.NewState()
	state.FailNext("CreateGraphicsPipeline", errors.New("boom"))

	sc, device, err := buildTestSwapChain(t, state)
	if err == nil {
		sc.Destroy()
		t.Fatal("expected the build to fail")
	}
	defer device.Release()

	if got := state.Live(drivertest.KindShaderModule); got != 0 {
		t.Fatalf("%d shader modules leaked from failed pipeline build", got)
	}
	if got := state.Live(drivertest.KindSwapchain); got != 0 {
		t.Fatalf("%d swapchains leaked from failed pipeline build", got)
	}
}
