package driver

// Every driver object is referred to through an opaque 64-bit handle, one
// named type per object kind so the compiler keeps callers honest about
// which handle goes where. The zero value is never a valid handle.
type (
	Surface             uint64
	Swapchain           uint64
	Image               uint64
	ImageView           uint64
	RenderPass          uint64
	PipelineLayout      uint64
	Pipeline            uint64
	Framebuffer         uint64
	Buffer              uint64
	CommandPool         uint64
	CommandBuffer       uint64
	Semaphore           uint64
	Sampler             uint64
	DescriptorPool      uint64
	DescriptorSetLayout uint64
	DescriptorSet       uint64
	ShaderModule        uint64
)
