package driver

type Extent2D struct {
	Width  uint32
	Height uint32
}

// Capabilities is a snapshot of what the surface supports at query time.
// A swapchain built from one snapshot becomes stale as soon as the real
// surface diverges from it (e.g. a resize).
type Capabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32 // 0 means no upper limit
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

type Format uint32

const (
	FormatUndefined Format = iota
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8Srgb
	FormatR8G8B8A8Unorm
)

type ColorSpace uint32

const (
	ColorSpaceSrgbNonlinear ColorSpace = iota
)

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type PresentMode uint32

const (
	PresentModeFifo PresentMode = iota
	PresentModeMailbox
	PresentModeImmediate
)

// PresentStatus qualifies acquire/present results that are not errors.
type PresentStatus int

const (
	PresentSuccess PresentStatus = iota
	// The swapchain still matches the surface well enough to present, but
	// no longer matches it exactly.
	PresentSuboptimal
	// The swapchain no longer matches the surface and must be rebuilt.
	PresentOutOfDate
)

type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

type MemoryProps uint32

const (
	MemoryHostVisible MemoryProps = 1 << iota
	MemoryHostCoherent
	MemoryDeviceLocal
)

type CommandPoolFlags uint32

const (
	CommandPoolTransient CommandPoolFlags = 1 << iota
	CommandPoolResetCommandBuffer
)

type ClearColor [4]float32

type SwapchainConfig struct {
	Surface       Surface
	Capabilities  Capabilities
	Format        SurfaceFormat
	PresentMode   PresentMode
	MinImageCount uint32
	Extent        Extent2D
}

type VertexAttribute struct {
	Location uint32
	Offset   uint32
	// Number of float32 components (2, 3 or 4).
	Components uint32
}

type GraphicsPipelineConfig struct {
	RenderPass     RenderPass
	Layout         PipelineLayout
	Extent         Extent2D
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	VertexStride   uint32
	Attributes     []VertexAttribute
}

type SamplerConfig struct {
	LinearFiltering   bool
	RepeatAddressing  bool
	MaxAnisotropy     float32
	CompareEnable     bool
	LinearMipmapping  bool
	OpaqueBlackBorder bool
}

type DescriptorType uint32

const (
	DescriptorTypeUniformBuffer DescriptorType = iota
	DescriptorTypeCombinedImageSampler
)

type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}
