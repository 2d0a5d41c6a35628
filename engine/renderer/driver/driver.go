// Package driver defines the narrow contract the rendering engine holds
// against the underlying graphics API: an explicit device/queue/swapchain/
// command-buffer model. The engine core is written entirely against these
// interfaces; the vulkan sub-package implements them for real hardware and
// drivertest implements a handle-accounting mock for tests.
package driver

import "errors"

// ErrUnsupported is returned when a driver cannot satisfy a request the
// surface or hardware does not support.
var ErrUnsupported = errors.New("driver: unsupported")

// Provider opens access to a graphics API implementation.
type Provider interface {
	// Name returns the driver identifier (e.g. "vulkan", "mock").
	Name() string

	// CreateInstance connects to the API. appName is advisory and may be
	// reported to tooling layers.
	CreateInstance(appName string) (Instance, error)
}

// WindowSurfacer is the slice of the platform window the driver needs in
// order to produce a presentation surface.
type WindowSurfacer interface {
	// FramebufferSize returns the current drawable size in pixels.
	FramebufferSize() (width, height uint32)

	// CreateSurface creates an API surface against the given instance
	// handle. The meaning of both values is driver specific.
	CreateSurface(instance uintptr) (uintptr, error)
}

type Instance interface {
	// Handle exposes the raw instance for surface creation.
	Handle() uintptr

	// Adapters enumerates the physical devices visible to this instance.
	Adapters() ([]Adapter, error)

	// CreateSurface wraps the window's native surface.
	CreateSurface(ws WindowSurfacer) (Surface, error)

	DestroySurface(Surface)

	// Destroy releases the instance. Every device and surface created from
	// it must already be gone.
	Destroy()
}

// Adapter is one physical device. Selection policy lives in the engine,
// not here.
type Adapter interface {
	Name() string

	// QueueFamilyIndex reports the first queue family supporting both
	// graphics work and presentation to the surface, if any.
	QueueFamilyIndex(surface Surface) (uint32, bool)

	SurfaceCapabilities(surface Surface) (Capabilities, error)
	SurfaceFormats(surface Surface) ([]SurfaceFormat, error)
	PresentModes(surface Surface) ([]PresentMode, error)

	// CreateDevice opens a logical device with a single queue from the
	// given family.
	CreateDevice(queueFamilyIndex uint32) (Device, error)
}

// Device is a logical device plus its single graphics/present queue. All
// calls must come from the thread driving the render loop; implementations
// do no internal locking.
type Device interface {
	// Object factories. Each returns the driver's error verbatim on
	// rejection.

	CreateSwapchain(cfg SwapchainConfig) (Swapchain, error)
	DestroySwapchain(Swapchain)
	SwapchainImages(sc Swapchain) ([]Image, error)

	CreateImageView(img Image, format Format) (ImageView, error)
	DestroyImageView(ImageView)

	CreateRenderPass(format Format) (RenderPass, error)
	DestroyRenderPass(RenderPass)

	CreateShaderModule(spirv []byte) (ShaderModule, error)
	DestroyShaderModule(ShaderModule)

	CreatePipelineLayout(layouts []DescriptorSetLayout) (PipelineLayout, error)
	DestroyPipelineLayout(PipelineLayout)

	CreateGraphicsPipeline(cfg GraphicsPipelineConfig) (Pipeline, error)
	DestroyPipeline(Pipeline)

	CreateFramebuffer(pass RenderPass, attachment ImageView, extent Extent2D) (Framebuffer, error)
	DestroyFramebuffer(Framebuffer)

	CreateCommandPool(flags CommandPoolFlags, queueFamilyIndex uint32) (CommandPool, error)
	DestroyCommandPool(CommandPool)
	AllocateCommandBuffers(pool CommandPool, count uint32) ([]CommandBuffer, error)
	FreeCommandBuffers(pool CommandPool, buffers []CommandBuffer)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(Semaphore)

	CreateSampler(cfg SamplerConfig) (Sampler, error)
	DestroySampler(Sampler)

	CreateDescriptorPool(maxSets uint32, sizes []DescriptorPoolSize) (DescriptorPool, error)
	DestroyDescriptorPool(DescriptorPool)
	CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(DescriptorSetLayout)
	AllocateDescriptorSets(pool DescriptorPool, layouts []DescriptorSetLayout) ([]DescriptorSet, error)

	// A buffer is created with its backing memory allocated and bound;
	// DestroyBuffer frees both.
	CreateBuffer(size uint64, usage BufferUsage, props MemoryProps) (Buffer, error)
	DestroyBuffer(Buffer)

	// WriteBuffer and ReadBuffer map host-visible memory. They fail on
	// device-local buffers.
	WriteBuffer(b Buffer, data []byte) error
	ReadBuffer(b Buffer, out []byte) error

	// Command recording. The buffer must come from one of this device's
	// pools.

	BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(cb CommandBuffer) error
	CmdBeginRenderPass(cb CommandBuffer, pass RenderPass, fb Framebuffer, extent Extent2D, clear ClearColor)
	CmdEndRenderPass(cb CommandBuffer)
	CmdBindPipeline(cb CommandBuffer, p Pipeline)
	CmdBindVertexBuffer(cb CommandBuffer, b Buffer, offset uint64)
	// Index data is always 32-bit.
	CmdBindIndexBuffer(cb CommandBuffer, b Buffer, offset uint64)
	CmdDrawIndexed(cb CommandBuffer, indexCount uint32)
	CmdCopyBuffer(cb CommandBuffer, src, dst Buffer, size uint64)

	// Queue operations.

	// AcquireNextImage blocks up to timeoutNs for the next presentable
	// image, signaling sem once it is ready to be rendered to.
	AcquireNextImage(sc Swapchain, timeoutNs uint64, sem Semaphore) (imageIndex uint32, status PresentStatus, err error)

	// Submit queues cb, waiting on wait at the color-attachment-output
	// stage and signaling signal on completion. Zero semaphores are
	// ignored.
	Submit(cb CommandBuffer, wait, signal Semaphore) error

	Present(sc Swapchain, imageIndex uint32, wait Semaphore) (PresentStatus, error)

	// QueueWaitIdle blocks until the queue drained.
	QueueWaitIdle() error

	// WaitIdle blocks until the whole device is idle.
	WaitIdle() error

	// Destroy releases the logical device. Every object created from it
	// must already be destroyed.
	Destroy()
}
