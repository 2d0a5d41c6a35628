package gpu

import (
	"fmt"

	"github.com/kaelos/prism/engine/core"
	"github.com/kaelos/prism/engine/math"
	"github.com/kaelos/prism/engine/renderer/driver"
)

// Shaders is one compiled SPIR-V stage pair used to build the swapchain's
// graphics pipeline.
type Shaders struct {
	Vertex   []byte
	Fragment []byte
}

// SwapChain owns the presentation chain and everything built against it:
// image views, render pass, pipeline layout, graphics pipeline and one
// framebuffer per image. It holds only a non-owning device reference; the
// engine, not the swapchain, keeps the device alive, and tearing down a
// swapchain after the device is gone is a fatal invariant violation.
//
// A SwapChain is valid only for the surface capability snapshot it was
// built from. The moment presentation reports out-of-date or the surface
// is resized, the whole chain is destroyed and rebuilt from a fresh
// snapshot.
type SwapChain struct {
	device DeviceRef

	handle         driver.Swapchain
	images         []driver.Image
	views          []driver.ImageView
	renderPass     driver.RenderPass
	pipelineLayout driver.PipelineLayout
	pipeline       driver.Pipeline
	framebuffers   []driver.Framebuffer

	extent driver.Extent2D
}

// SwapChainConfig collects the inputs for one build.
type SwapChainConfig struct {
	Surface      driver.Surface
	Capabilities driver.Capabilities
	Format       driver.SurfaceFormat
	PresentMode  driver.PresentMode
	Shaders      Shaders
	// SetLayouts are the scene's descriptor set layouts, folded into the
	// pipeline layout. May be empty.
	SetLayouts []driver.DescriptorSetLayout
	// VertexStride and Attributes describe the drawable geometry contract.
	VertexStride uint32
	Attributes   []driver.VertexAttribute
}

// BuildSwapChain constructs a swapchain in the documented order: chain,
// images and views, render pass, pipeline layout and pipeline, one
// framebuffer per view. On any failure everything created so far is torn
// down before the error is returned.
func BuildSwapChain(device DeviceRef, cfg SwapChainConfig) (*SwapChain, error) {
	api := device.Get().API()

	extent := cfg.Capabilities.CurrentExtent
	extent.Width = math.Clamp(extent.Width, cfg.Capabilities.MinImageExtent.Width, cfg.Capabilities.MaxImageExtent.Width)
	extent.Height = math.Clamp(extent.Height, cfg.Capabilities.MinImageExtent.Height, cfg.Capabilities.MaxImageExtent.Height)

	// Prefer double buffering, within what the driver allows.
	imageCount := cfg.Capabilities.MinImageCount + 1
	if cfg.Capabilities.MaxImageCount > 0 && imageCount > cfg.Capabilities.MaxImageCount {
		imageCount = cfg.Capabilities.MaxImageCount
	}

	sc := &SwapChain{device: device, extent: extent}

	handle, err := api.CreateSwapchain(driver.SwapchainConfig{
		Surface:       cfg.Surface,
		Capabilities:  cfg.Capabilities,
		Format:        cfg.Format,
		PresentMode:   cfg.PresentMode,
		MinImageCount: imageCount,
		Extent:        extent,
	})
	if err != nil {
		return nil, fmt.Errorf("creating swapchain: %w", err)
	}
	sc.handle = handle

	sc.images, err = api.SwapchainImages(sc.handle)
	if err != nil {
		sc.Destroy()
		return nil, fmt.Errorf("retrieving swapchain images: %w", err)
	}

	for _, img := range sc.images {
		view, err := api.CreateImageView(img, cfg.Format.Format)
		if err != nil {
			sc.Destroy()
			return nil, fmt.Errorf("creating image view: %w", err)
		}
		sc.views = append(sc.views, view)
	}

	sc.renderPass, err = api.CreateRenderPass(cfg.Format.Format)
	if err != nil {
		sc.Destroy()
		return nil, fmt.Errorf("creating render pass: %w", err)
	}

	sc.pipelineLayout, err = api.CreatePipelineLayout(cfg.SetLayouts)
	if err != nil {
		sc.Destroy()
		return nil, fmt.Errorf("creating pipeline layout: %w", err)
	}

	if err := sc.buildPipeline(api, cfg); err != nil {
		sc.Destroy()
		return nil, err
	}

	for _, view := range sc.views {
		fb, err := api.CreateFramebuffer(sc.renderPass, view, extent)
		if err != nil {
			sc.Destroy()
			return nil, fmt.Errorf("creating framebuffer: %w", err)
		}
		sc.framebuffers = append(sc.framebuffers, fb)
	}

	core.LogDebug("swapchain created: %d images at %dx%d", len(sc.images), extent.Width, extent.Height)
	return sc, nil
}

func (sc *SwapChain) buildPipeline(api driver.Device, cfg SwapChainConfig) error {
	vert, err := api.CreateShaderModule(cfg.Shaders.Vertex)
	if err != nil {
		return fmt.Errorf("creating vertex shader module: %w", err)
	}
	frag, err := api.CreateShaderModule(cfg.Shaders.Fragment)
	if err != nil {
		api.DestroyShaderModule(vert)
		return fmt.Errorf("creating fragment shader module: %w", err)
	}

	sc.pipeline, err = api.CreateGraphicsPipeline(driver.GraphicsPipelineConfig{
		RenderPass:     sc.renderPass,
		Layout:         sc.pipelineLayout,
		Extent:         sc.extent,
		VertexShader:   vert,
		FragmentShader: frag,
		VertexStride:   cfg.VertexStride,
		Attributes:     cfg.Attributes,
	})

	// The pipeline keeps its own copy of the shader code.
	api.DestroyShaderModule(frag)
	api.DestroyShaderModule(vert)

	if err != nil {
		return fmt.Errorf("creating graphics pipeline: %w", err)
	}
	return nil
}

func (sc *SwapChain) Handle() driver.Swapchain        { return sc.handle }
func (sc *SwapChain) RenderPass() driver.RenderPass   { return sc.renderPass }
func (sc *SwapChain) Pipeline() driver.Pipeline       { return sc.pipeline }
func (sc *SwapChain) Extent() driver.Extent2D         { return sc.extent }
func (sc *SwapChain) Framebuffers() []driver.Framebuffer {
	return sc.framebuffers
}
func (sc *SwapChain) ImageCount() int { return len(sc.images) }

// Destroy tears the chain down in strict dependency order: framebuffers,
// pipeline, pipeline layout, render pass, image views, then the chain
// handle. The order matches reverse creation and must not change; the
// driver tracks the same dependencies.
func (sc *SwapChain) Destroy() {
	api := sc.device.Get().API()

	for _, fb := range sc.framebuffers {
		api.DestroyFramebuffer(fb)
	}
	sc.framebuffers = nil

	if sc.pipeline != 0 {
		api.DestroyPipeline(sc.pipeline)
		sc.pipeline = 0
	}
	if sc.pipelineLayout != 0 {
		api.DestroyPipelineLayout(sc.pipelineLayout)
		sc.pipelineLayout = 0
	}
	if sc.renderPass != 0 {
		api.DestroyRenderPass(sc.renderPass)
		sc.renderPass = 0
	}

	for _, view := range sc.views {
		api.DestroyImageView(view)
	}
	sc.views = nil
	sc.images = nil

	if sc.handle != 0 {
		api.DestroySwapchain(sc.handle)
		sc.handle = 0
	}
}
