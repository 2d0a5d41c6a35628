package gpu

import (
	"fmt"
	stdmath "math"

	"github.com/google/uuid"

	"github.com/kaelos/prism/engine/core"
	"github.com/kaelos/prism/engine/renderer/driver"
	"github.com/kaelos/prism/engine/scene"
)

// vertexAttributes describes the drawable geometry contract (see
// scene.Vertex): position, color, texture coordinate.
var vertexAttributes = []driver.VertexAttribute{
	{Location: 0, Offset: 0, Components: 3},
	{Location: 1, Offset: 12, Components: 3},
	{Location: 2, Offset: 24, Components: 2},
}

const maxMaterialDescriptorSets = 64

// Config collects the engine's creation inputs.
type Config struct {
	AppName string
	Shaders Shaders
	// PreferredPresentMode is used when the surface supports it; the
	// engine falls back to FIFO otherwise.
	PreferredPresentMode driver.PresentMode
}

// Engine is the rendering orchestrator. It owns the device handle, the
// command pool, the frame synchronization pair and, when a presentation
// target exists, the swapchain. A single frame is ever in flight: every
// submit/present cycle ends with a device-idle wait before control
// returns to the caller.
type Engine struct {
	provider driver.Provider
	instance driver.Instance
	window   driver.WindowSurfacer

	adapter driver.Adapter
	surface driver.Surface

	format      driver.SurfaceFormat
	presentMode driver.PresentMode

	device      *DeviceHandle
	commandPool *CommandPool

	// nil while the presentation target is absent.
	swapchain *SwapChain

	imageAvailable driver.Semaphore
	renderFinished driver.Semaphore

	sampler           *Sampler
	materialSetLayout *DescriptorSetLayout
	descriptorPool    *DescriptorPool

	shaders Shaders
	clear   driver.ClearColor

	objects map[uuid.UUID]*RenderObject
}

// New builds the full engine: instance, surface, adapter selection (first
// adapter with a graphics+present queue family), device handle, command
// pool, synchronization pair, fixed sampler, material descriptor
// plumbing and the initial swapchain. Any failure tears down what was
// built and returns an aggregated error; whether that is fatal is the
// caller's decision.
func New(provider driver.Provider, window driver.WindowSurfacer, cfg Config) (*Engine, error) {
	e := &Engine{
		provider: provider,
		window:   window,
		shaders:  cfg.Shaders,
		clear:    driver.ClearColor{0, 0, 0, 1},
		objects:  map[uuid.UUID]*RenderObject{},
	}

	if err := e.initialize(cfg); err != nil {
		e.teardown()
		return nil, fmt.Errorf("creating rendering engine: %w", err)
	}
	return e, nil
}

func (e *Engine) initialize(cfg Config) error {
	var err error
	if e.instance, err = e.provider.CreateInstance(cfg.AppName); err != nil {
		return fmt.Errorf("creating instance: %w", err)
	}
	if e.surface, err = e.instance.CreateSurface(e.window); err != nil {
		return fmt.Errorf("creating surface: %w", err)
	}

	queueFamilyIndex, err := e.selectAdapter()
	if err != nil {
		return err
	}

	api, err := e.adapter.CreateDevice(queueFamilyIndex)
	if err != nil {
		return fmt.Errorf("creating device: %w", err)
	}
	e.device = NewDeviceHandle(api, queueFamilyIndex)

	if err = e.selectFormatAndPresentMode(cfg.PreferredPresentMode); err != nil {
		return err
	}

	if e.commandPool, err = NewCommandPool(e.device,
		driver.CommandPoolTransient|driver.CommandPoolResetCommandBuffer); err != nil {
		return fmt.Errorf("creating command pool: %w", err)
	}

	if e.imageAvailable, err = api.CreateSemaphore(); err != nil {
		return fmt.Errorf("creating image-available semaphore: %w", err)
	}
	if e.renderFinished, err = api.CreateSemaphore(); err != nil {
		return fmt.Errorf("creating render-finished semaphore: %w", err)
	}

	if e.sampler, err = NewSampler(e.device); err != nil {
		return fmt.Errorf("creating sampler: %w", err)
	}
	if e.materialSetLayout, err = NewDescriptorSetLayout(e.device, []driver.DescriptorBinding{
		{Binding: 0, Type: driver.DescriptorTypeCombinedImageSampler, Count: 1},
	}); err != nil {
		return fmt.Errorf("creating material set layout: %w", err)
	}
	if e.descriptorPool, err = NewDescriptorPool(e.device, maxMaterialDescriptorSets,
		[]driver.DescriptorPoolSize{
			{Type: driver.DescriptorTypeCombinedImageSampler, Count: maxMaterialDescriptorSets},
		}); err != nil {
		return fmt.Errorf("creating descriptor pool: %w", err)
	}

	if err = e.rebuildSwapChain(); err != nil {
		return err
	}

	core.LogInfo("rendering engine ready on adapter %q", e.adapter.Name())
	return nil
}

// selectAdapter takes the first adapter exposing a queue family with both
// graphics and present support. No scoring.
func (e *Engine) selectAdapter() (uint32, error) {
	adapters, err := e.instance.Adapters()
	if err != nil {
		return 0, fmt.Errorf("enumerating adapters: %w", err)
	}
	for _, a := range adapters {
		if idx, ok := a.QueueFamilyIndex(e.surface); ok {
			e.adapter = a
			return idx, nil
		}
	}
	return 0, fmt.Errorf("no adapter with graphics and present support found")
}

func (e *Engine) selectFormatAndPresentMode(preferred driver.PresentMode) error {
	formats, err := e.adapter.SurfaceFormats(e.surface)
	if err != nil {
		return fmt.Errorf("querying surface formats: %w", err)
	}
	if len(formats) == 0 {
		return fmt.Errorf("surface reports no formats")
	}
	e.format = formats[0]
	for _, f := range formats {
		if f.Format == driver.FormatB8G8R8A8Unorm && f.ColorSpace == driver.ColorSpaceSrgbNonlinear {
			e.format = f
			break
		}
	}

	modes, err := e.adapter.PresentModes(e.surface)
	if err != nil {
		return fmt.Errorf("querying present modes: %w", err)
	}
	// FIFO is always available.
	e.presentMode = driver.PresentModeFifo
	for _, m := range modes {
		if m == preferred {
			e.presentMode = m
			break
		}
	}
	return nil
}

// SwapChainPresent reports whether a presentation target currently
// exists.
func (e *Engine) SwapChainPresent() bool {
	return e.swapchain != nil
}

// MaterialSetLayout exposes the layout material collaborators allocate
// their descriptor sets against.
func (e *Engine) MaterialSetLayout() *DescriptorSetLayout {
	return e.materialSetLayout
}

// AllocateMaterialDescriptorSet hands out one descriptor set for a
// material's combined image sampler.
func (e *Engine) AllocateMaterialDescriptorSet() (driver.DescriptorSet, error) {
	sets, err := e.descriptorPool.AllocateSets([]driver.DescriptorSetLayout{e.materialSetLayout.Handle()})
	if err != nil {
		return 0, err
	}
	return sets[0], nil
}

// Sampler exposes the engine's fixed-policy sampler.
func (e *Engine) Sampler() *Sampler {
	return e.sampler
}

// rebuildSwapChain constructs a swapchain from a fresh surface capability
// snapshot. The previous one, if any, must already be gone.
func (e *Engine) rebuildSwapChain() error {
	caps, err := e.adapter.SurfaceCapabilities(e.surface)
	if err != nil {
		return fmt.Errorf("querying surface capabilities: %w", err)
	}
	sc, err := BuildSwapChain(e.device.WeakRef(), SwapChainConfig{
		Surface:      e.surface,
		Capabilities: caps,
		Format:       e.format,
		PresentMode:  e.presentMode,
		Shaders:      e.shaders,
		SetLayouts:   []driver.DescriptorSetLayout{e.materialSetLayout.Handle()},
		VertexStride: scene.VertexStride,
		Attributes:   vertexAttributes,
	})
	if err != nil {
		return err
	}
	e.swapchain = sc
	return nil
}

// invalidateSwapChain transitions to the absent state, destroying the
// whole chain. It is rebuilt lazily on the next Render call.
func (e *Engine) invalidateSwapChain() {
	if e.swapchain != nil {
		e.swapchain.Destroy()
		e.swapchain = nil
	}
}

// Render draws one frame of the scene. If the presentation target is
// absent it is rebuilt first (after a device-idle wait, so nothing
// in flight references the about-to-be-destroyed resources) and every
// drawable's command buffers are re-recorded against the new
// framebuffers. Per-drawable failures are logged and skipped; they never
// abort the frame for the other drawables.
func (e *Engine) Render(s *scene.Scene) {
	if e.swapchain == nil {
		if err := e.device.API().WaitIdle(); err != nil {
			core.LogError("wait idle before swapchain rebuild: %s", err)
		}
		if err := e.rebuildSwapChain(); err != nil {
			core.LogError("swapchain rebuild failed: %s", err)
			return
		}
		for _, entity := range s.Entities() {
			obj, ok := entity.RenderObject().(*RenderObject)
			if !ok {
				continue
			}
			if err := obj.RecreateCommandBuffers(e); err != nil {
				core.LogError("rebuilding command buffers for %s: %s", entity.Name, err)
			}
		}
	}

	for _, entity := range s.Entities() {
		obj, ok := entity.RenderObject().(*RenderObject)
		if !ok {
			continue
		}
		if err := e.submitAndPresent(obj); err != nil {
			core.LogError("rendering %s: %s", entity.Name, err)
		}
	}
}

// SceneLoaded uploads GPU state for every entity that carries raw render
// data but has no render object yet.
func (e *Engine) SceneLoaded(s *scene.Scene) error {
	for _, entity := range s.Entities() {
		if entity.RenderData == nil || entity.RenderObject() != nil {
			continue
		}
		obj, err := NewRenderObject(e, entity.RenderData)
		if err != nil {
			return fmt.Errorf("loading entity %s: %w", entity.Name, err)
		}
		entity.SetRenderObject(obj)
		e.objects[obj.id] = obj
	}
	return nil
}

// submitAndPresent runs the per-drawable frame protocol: acquire the next
// image (waiting indefinitely) against the image-available semaphore,
// submit the matching command buffer waiting on it and signaling
// render-finished, then present waiting on render-finished. Out-of-date
// or suboptimal present results discard the swapchain. The device-idle
// wait at the end keeps exactly one frame in flight, a deliberate
// simplicity-over-throughput tradeoff.
func (e *Engine) submitAndPresent(obj *RenderObject) error {
	if e.swapchain == nil {
		// Invalidated earlier this frame; drawn next frame instead.
		return nil
	}
	api := e.device.API()

	imageIndex, status, err := api.AcquireNextImage(e.swapchain.Handle(), stdmath.MaxUint64, e.imageAvailable)
	if err != nil {
		return fmt.Errorf("acquiring image: %w", err)
	}
	if status == driver.PresentOutOfDate {
		e.invalidateSwapChain()
		return nil
	}

	if int(imageIndex) >= len(obj.commandBuffers) {
		return fmt.Errorf("no command buffer for image %d", imageIndex)
	}
	if err := api.Submit(obj.commandBuffers[imageIndex], e.imageAvailable, e.renderFinished); err != nil {
		return fmt.Errorf("submitting draw: %w", err)
	}

	status, err = api.Present(e.swapchain.Handle(), imageIndex, e.renderFinished)
	if err != nil {
		// Drain the submitted work anyway so the semaphore pair is not
		// left pending into the next drawable's acquire.
		if idleErr := api.WaitIdle(); idleErr != nil {
			core.LogError("device idle wait after failed present: %v", idleErr)
		}
		return fmt.Errorf("presenting image: %w", err)
	}
	if status == driver.PresentOutOfDate || status == driver.PresentSuboptimal {
		e.invalidateSwapChain()
	}

	if err := api.WaitIdle(); err != nil {
		return fmt.Errorf("waiting for device idle: %w", err)
	}
	return nil
}

// CreateBuffer allocates a device-local buffer of the given type and
// uploads data through a host-visible staging buffer and a one-shot copy
// command, blocking until the upload completed. Empty input yields a
// valid buffer with element count zero.
func (e *Engine) CreateBuffer(typ BufferType, data []byte, elementCount uint32) (*Buffer, error) {
	api := e.device.API()

	size := uint64(len(data))
	allocSize := size
	if allocSize == 0 {
		// Drivers reject zero-sized allocations.
		allocSize = 1
		elementCount = 0
	}

	dst, err := api.CreateBuffer(allocSize, typ.usage()|driver.BufferUsageTransferDst, driver.MemoryDeviceLocal)
	if err != nil {
		return nil, fmt.Errorf("creating device-local buffer: %w", err)
	}
	buffer := &Buffer{
		device:       e.device.Retain(),
		handle:       dst,
		size:         size,
		elementCount: elementCount,
	}

	if size > 0 {
		if err := e.stageToBuffer(data, dst); err != nil {
			buffer.Destroy()
			return nil, err
		}
	}
	return buffer, nil
}

func (e *Engine) stageToBuffer(data []byte, dst driver.Buffer) error {
	api := e.device.API()

	staging, err := api.CreateBuffer(uint64(len(data)), driver.BufferUsageTransferSrc,
		driver.MemoryHostVisible|driver.MemoryHostCoherent)
	if err != nil {
		return fmt.Errorf("creating staging buffer: %w", err)
	}
	defer api.DestroyBuffer(staging)

	if err := api.WriteBuffer(staging, data); err != nil {
		return fmt.Errorf("writing staging buffer: %w", err)
	}

	return e.oneShot(func(cb driver.CommandBuffer) {
		api.CmdCopyBuffer(cb, staging, dst, uint64(len(data)))
	})
}

// ReadBuffer copies a device-local buffer back through the staging path.
// Intended for verification and capture tooling, not the frame loop.
func (e *Engine) ReadBuffer(b *Buffer) ([]byte, error) {
	if b.size == 0 {
		return nil, nil
	}
	api := e.device.API()

	staging, err := api.CreateBuffer(b.size, driver.BufferUsageTransferDst,
		driver.MemoryHostVisible|driver.MemoryHostCoherent)
	if err != nil {
		return nil, fmt.Errorf("creating readback buffer: %w", err)
	}
	defer api.DestroyBuffer(staging)

	if err := e.oneShot(func(cb driver.CommandBuffer) {
		api.CmdCopyBuffer(cb, b.handle, staging, b.size)
	}); err != nil {
		return nil, err
	}

	out := make([]byte, b.size)
	if err := api.ReadBuffer(staging, out); err != nil {
		return nil, fmt.Errorf("reading back buffer: %w", err)
	}
	return out, nil
}

// oneShot records a single-use command buffer, submits it without
// semaphores and blocks until the queue drained.
func (e *Engine) oneShot(record func(cb driver.CommandBuffer)) error {
	api := e.device.API()

	cbs, err := e.commandPool.Allocate(1)
	if err != nil {
		return fmt.Errorf("allocating transfer command buffer: %w", err)
	}
	cb := cbs[0]
	defer e.commandPool.Free(cbs)

	if err := api.BeginCommandBuffer(cb, true); err != nil {
		return fmt.Errorf("beginning transfer: %w", err)
	}
	record(cb)
	if err := api.EndCommandBuffer(cb); err != nil {
		return fmt.Errorf("ending transfer: %w", err)
	}
	if err := api.Submit(cb, 0, 0); err != nil {
		return fmt.Errorf("submitting transfer: %w", err)
	}
	if err := api.QueueWaitIdle(); err != nil {
		return fmt.Errorf("waiting for transfer: %w", err)
	}
	return nil
}

// CreateCommandBuffers allocates one primary command buffer per swapchain
// framebuffer and records the full indexed draw for each: clear to opaque
// black, bind pipeline, bind vertex and index buffers at offset zero,
// draw the whole index range as a single instance. Recording failure for
// any buffer aborts the whole set.
func (e *Engine) CreateCommandBuffers(vertexBuffer, indexBuffer *Buffer) ([]driver.CommandBuffer, error) {
	if e.swapchain == nil {
		return nil, fmt.Errorf("no swapchain to record against")
	}
	sc := e.swapchain

	cbs, err := e.commandPool.Allocate(uint32(len(sc.framebuffers)))
	if err != nil {
		return nil, fmt.Errorf("allocating command buffers: %w", err)
	}

	for i, cb := range cbs {
		if err := e.recordDraw(cb, sc.framebuffers[i], vertexBuffer, indexBuffer); err != nil {
			e.commandPool.Free(cbs)
			return nil, err
		}
	}
	return cbs, nil
}

func (e *Engine) recordDraw(cb driver.CommandBuffer, fb driver.Framebuffer, vertexBuffer, indexBuffer *Buffer) error {
	api := e.device.API()
	sc := e.swapchain

	if err := api.BeginCommandBuffer(cb, false); err != nil {
		return fmt.Errorf("beginning command buffer: %w", err)
	}
	api.CmdBeginRenderPass(cb, sc.renderPass, fb, sc.extent, e.clear)
	api.CmdBindPipeline(cb, sc.pipeline)
	api.CmdBindVertexBuffer(cb, vertexBuffer.handle, 0)
	api.CmdBindIndexBuffer(cb, indexBuffer.handle, 0)
	api.CmdDrawIndexed(cb, indexBuffer.elementCount)
	api.CmdEndRenderPass(cb)
	if err := api.EndCommandBuffer(cb); err != nil {
		return fmt.Errorf("ending command buffer: %w", err)
	}
	return nil
}

// Resized discards the presentation target ahead of the surface change;
// the next Render rebuilds it against the new extent.
func (e *Engine) Resized(width, height uint32) {
	core.LogDebug("surface resized to %dx%d, discarding swapchain", width, height)
	if err := e.device.API().WaitIdle(); err != nil {
		core.LogError("wait idle before resize: %s", err)
	}
	e.invalidateSwapChain()
}

// SetShaders swaps the pipeline's shader pair and discards the swapchain
// so the next frame rebuilds against the new binaries.
func (e *Engine) SetShaders(vertex, fragment []byte) {
	e.shaders = Shaders{Vertex: vertex, Fragment: fragment}
	if err := e.device.API().WaitIdle(); err != nil {
		core.LogError("wait idle before shader swap: %s", err)
	}
	e.invalidateSwapChain()
}

// Shutdown releases every driver handle in dependency order and is safe
// to call on a partially constructed engine.
func (e *Engine) Shutdown() error {
	e.teardown()
	return nil
}

func (e *Engine) teardown() {
	if e.device != nil {
		api := e.device.API()
		if err := api.WaitIdle(); err != nil {
			core.LogError("wait idle on shutdown: %s", err)
		}

		for id, obj := range e.objects {
			obj.Destroy(e)
			delete(e.objects, id)
		}

		e.invalidateSwapChain()

		if e.descriptorPool != nil {
			e.descriptorPool.Destroy()
			e.descriptorPool = nil
		}
		if e.materialSetLayout != nil {
			e.materialSetLayout.Destroy()
			e.materialSetLayout = nil
		}
		if e.sampler != nil {
			e.sampler.Destroy()
			e.sampler = nil
		}
		if e.renderFinished != 0 {
			api.DestroySemaphore(e.renderFinished)
			e.renderFinished = 0
		}
		if e.imageAvailable != 0 {
			api.DestroySemaphore(e.imageAvailable)
			e.imageAvailable = 0
		}
		if e.commandPool != nil {
			e.commandPool.Destroy()
			e.commandPool = nil
		}

		// Last reference: destroys the logical device.
		e.device.Release()
		e.device = nil
	}

	if e.instance != nil {
		if e.surface != 0 {
			e.instance.DestroySurface(e.surface)
			e.surface = 0
		}
		e.instance.Destroy()
		e.instance = nil
	}
}
