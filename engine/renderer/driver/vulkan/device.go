package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/kaelos/prism/engine/renderer/driver"
)

type boundBuffer struct {
	buffer      vk.Buffer
	memory      vk.DeviceMemory
	size        uint64
	hostVisible bool
}

// Device maps opaque driver handles to Vulkan objects. All calls happen
// on the render thread, so the maps are unguarded.
type Device struct {
	instance *Instance
	phys     vk.PhysicalDevice
	dev      vk.Device
	queue    vk.Queue
	memory   vk.PhysicalDeviceMemoryProperties

	next uint64

	swapchains   map[driver.Swapchain]vk.Swapchain
	images       map[driver.Image]vk.Image
	views        map[driver.ImageView]vk.ImageView
	renderPasses map[driver.RenderPass]vk.RenderPass
	layouts      map[driver.PipelineLayout]vk.PipelineLayout
	pipelines    map[driver.Pipeline]vk.Pipeline
	framebuffers map[driver.Framebuffer]vk.Framebuffer
	buffers      map[driver.Buffer]boundBuffer
	pools        map[driver.CommandPool]vk.CommandPool
	cmdbufs      map[driver.CommandBuffer]vk.CommandBuffer
	semaphores   map[driver.Semaphore]vk.Semaphore
	samplers     map[driver.Sampler]vk.Sampler
	descPools    map[driver.DescriptorPool]vk.DescriptorPool
	descLayouts  map[driver.DescriptorSetLayout]vk.DescriptorSetLayout
	descSets     map[driver.DescriptorSet]vk.DescriptorSet
	shaders      map[driver.ShaderModule]vk.ShaderModule
}

func newDevice(instance *Instance, phys vk.PhysicalDevice, dev vk.Device, queue vk.Queue, memory vk.PhysicalDeviceMemoryProperties) *Device {
	return &Device{
		instance:     instance,
		phys:         phys,
		dev:          dev,
		queue:        queue,
		memory:       memory,
		swapchains:   map[driver.Swapchain]vk.Swapchain{},
		images:       map[driver.Image]vk.Image{},
		views:        map[driver.ImageView]vk.ImageView{},
		renderPasses: map[driver.RenderPass]vk.RenderPass{},
		layouts:      map[driver.PipelineLayout]vk.PipelineLayout{},
		pipelines:    map[driver.Pipeline]vk.Pipeline{},
		framebuffers: map[driver.Framebuffer]vk.Framebuffer{},
		buffers:      map[driver.Buffer]boundBuffer{},
		pools:        map[driver.CommandPool]vk.CommandPool{},
		cmdbufs:      map[driver.CommandBuffer]vk.CommandBuffer{},
		semaphores:   map[driver.Semaphore]vk.Semaphore{},
		samplers:     map[driver.Sampler]vk.Sampler{},
		descPools:    map[driver.DescriptorPool]vk.DescriptorPool{},
		descLayouts:  map[driver.DescriptorSetLayout]vk.DescriptorSetLayout{},
		descSets:     map[driver.DescriptorSet]vk.DescriptorSet{},
		shaders:      map[driver.ShaderModule]vk.ShaderModule{},
	}
}

func (d *Device) alloc() uint64 {
	d.next++
	return d.next
}

func (d *Device) CreateSwapchain(cfg driver.SwapchainConfig) (driver.Swapchain, error) {
	surf := d.instance.surfaces[cfg.Surface]

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surf,
		MinImageCount:    cfg.MinImageCount,
		ImageFormat:      toVkFormat(cfg.Format.Format),
		ImageColorSpace:  vk.ColorSpaceSrgbNonlinear,
		ImageExtent:      vk.Extent2D{Width: cfg.Extent.Width, Height: cfg.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(cfg.Capabilities.CurrentTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      toVkPresentMode(cfg.PresentMode),
		Clipped:          vk.True,
	}

	var sc vk.Swapchain
	if res := vk.CreateSwapchain(d.dev, &createInfo, nil, &sc); res != vk.Success {
		return 0, fmt.Errorf("vkCreateSwapchainKHR failed: %s", resultString(res))
	}
	handle := driver.Swapchain(d.alloc())
	d.swapchains[handle] = sc
	return handle, nil
}

func (d *Device) DestroySwapchain(sc driver.Swapchain) {
	if h, ok := d.swapchains[sc]; ok {
		vk.DestroySwapchain(d.dev, h, nil)
		delete(d.swapchains, sc)
	}
}

func (d *Device) SwapchainImages(sc driver.Swapchain) ([]driver.Image, error) {
	h := d.swapchains[sc]

	var count uint32
	if res := vk.GetSwapchainImages(d.dev, h, &count, nil); res != vk.Success {
		return nil, fmt.Errorf("retrieving swapchain images: %s", resultString(res))
	}
	images := make([]vk.Image, count)
	if res := vk.GetSwapchainImages(d.dev, h, &count, images); res != vk.Success {
		return nil, fmt.Errorf("retrieving swapchain images: %s", resultString(res))
	}

	out := make([]driver.Image, count)
	for i, img := range images {
		handle := driver.Image(d.alloc())
		d.images[handle] = img
		out[i] = handle
	}
	return out, nil
}

func (d *Device) CreateImageView(img driver.Image, format driver.Format) (driver.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.images[img],
		ViewType: vk.ImageViewType2d,
		Format:   toVkFormat(format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(d.dev, &viewInfo, nil, &view); res != vk.Success {
		return 0, fmt.Errorf("vkCreateImageView failed: %s", resultString(res))
	}
	handle := driver.ImageView(d.alloc())
	d.views[handle] = view
	return handle, nil
}

func (d *Device) DestroyImageView(v driver.ImageView) {
	if h, ok := d.views[v]; ok {
		vk.DestroyImageView(d.dev, h, nil)
		delete(d.views, v)
	}
}

func (d *Device) CreateRenderPass(format driver.Format) (driver.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         toVkFormat(format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	colorRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorRef,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var pass vk.RenderPass
	if res := vk.CreateRenderPass(d.dev, &createInfo, nil, &pass); res != vk.Success {
		return 0, fmt.Errorf("vkCreateRenderPass failed: %s", resultString(res))
	}
	handle := driver.RenderPass(d.alloc())
	d.renderPasses[handle] = pass
	return handle, nil
}

func (d *Device) DestroyRenderPass(p driver.RenderPass) {
	if h, ok := d.renderPasses[p]; ok {
		vk.DestroyRenderPass(d.dev, h, nil)
		delete(d.renderPasses, p)
	}
}

func (d *Device) CreateShaderModule(spirv []byte) (driver.ShaderModule, error) {
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		return 0, fmt.Errorf("shader code size %d is not a multiple of 4", len(spirv))
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(spirv)),
		PCode:    repackUint32(spirv),
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(d.dev, &createInfo, nil, &module); res != vk.Success {
		return 0, fmt.Errorf("vkCreateShaderModule failed: %s", resultString(res))
	}
	handle := driver.ShaderModule(d.alloc())
	d.shaders[handle] = module
	return handle, nil
}

func (d *Device) DestroyShaderModule(m driver.ShaderModule) {
	if h, ok := d.shaders[m]; ok {
		vk.DestroyShaderModule(d.dev, h, nil)
		delete(d.shaders, m)
	}
}

func (d *Device) CreatePipelineLayout(setLayouts []driver.DescriptorSetLayout) (driver.PipelineLayout, error) {
	layouts := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, l := range setLayouts {
		layouts[i] = d.descLayouts[l]
	}

	createInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(layouts)),
		PSetLayouts:    layouts,
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(d.dev, &createInfo, nil, &layout); res != vk.Success {
		return 0, fmt.Errorf("vkCreatePipelineLayout failed: %s", resultString(res))
	}
	handle := driver.PipelineLayout(d.alloc())
	d.layouts[handle] = layout
	return handle, nil
}

func (d *Device) DestroyPipelineLayout(l driver.PipelineLayout) {
	if h, ok := d.layouts[l]; ok {
		vk.DestroyPipelineLayout(d.dev, h, nil)
		delete(d.layouts, l)
	}
}

func (d *Device) CreateGraphicsPipeline(cfg driver.GraphicsPipelineConfig) (driver.Pipeline, error) {
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: d.shaders[cfg.VertexShader],
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: d.shaders[cfg.FragmentShader],
			PName:  safeString("main"),
		},
	}

	binding := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    cfg.VertexStride,
		InputRate: vk.VertexInputRateVertex,
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(cfg.Attributes))
	for i, a := range cfg.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   attributeFormat(a.Components),
			Offset:   a.Offset,
		}
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	viewport := vk.Viewport{
		Width:    float32(cfg.Extent.Width),
		Height:   float32(cfg.Extent.Height),
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Extent: vk.Extent2D{Width: cfg.Extent.Width, Height: cfg.Extent.Height},
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		LineWidth:   1,
		CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:   vk.FrontFaceCounterClockwise,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &colorBlend,
		Layout:              d.layouts[cfg.Layout],
		RenderPass:          d.renderPasses[cfg.RenderPass],
		Subpass:             0,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(d.dev, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines); res != vk.Success {
		return 0, fmt.Errorf("vkCreateGraphicsPipelines failed: %s", resultString(res))
	}

	handle := driver.Pipeline(d.alloc())
	d.pipelines[handle] = pipelines[0]
	return handle, nil
}

func (d *Device) DestroyPipeline(p driver.Pipeline) {
	if h, ok := d.pipelines[p]; ok {
		vk.DestroyPipeline(d.dev, h, nil)
		delete(d.pipelines, p)
	}
}

func (d *Device) CreateFramebuffer(pass driver.RenderPass, attachment driver.ImageView, extent driver.Extent2D) (driver.Framebuffer, error) {
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPasses[pass],
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{d.views[attachment]},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(d.dev, &createInfo, nil, &fb); res != vk.Success {
		return 0, fmt.Errorf("vkCreateFramebuffer failed: %s", resultString(res))
	}
	handle := driver.Framebuffer(d.alloc())
	d.framebuffers[handle] = fb
	return handle, nil
}

func (d *Device) DestroyFramebuffer(fb driver.Framebuffer) {
	if h, ok := d.framebuffers[fb]; ok {
		vk.DestroyFramebuffer(d.dev, h, nil)
		delete(d.framebuffers, fb)
	}
}

func (d *Device) CreateCommandPool(flags driver.CommandPoolFlags, queueFamilyIndex uint32) (driver.CommandPool, error) {
	var vkFlags vk.CommandPoolCreateFlagBits
	if flags&driver.CommandPoolTransient != 0 {
		vkFlags |= vk.CommandPoolCreateTransientBit
	}
	if flags&driver.CommandPoolResetCommandBuffer != 0 {
		vkFlags |= vk.CommandPoolCreateResetCommandBufferBit
	}

	createInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vkFlags),
		QueueFamilyIndex: queueFamilyIndex,
	}

	var pool vk.CommandPool
	if res := vk.CreateCommandPool(d.dev, &createInfo, nil, &pool); res != vk.Success {
		return 0, fmt.Errorf("vkCreateCommandPool failed: %s", resultString(res))
	}
	handle := driver.CommandPool(d.alloc())
	d.pools[handle] = pool
	return handle, nil
}

func (d *Device) DestroyCommandPool(p driver.CommandPool) {
	if h, ok := d.pools[p]; ok {
		vk.DestroyCommandPool(d.dev, h, nil)
		delete(d.pools, p)
	}
}

func (d *Device) AllocateCommandBuffers(pool driver.CommandPool, count uint32) ([]driver.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pools[pool],
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}

	buffers := make([]vk.CommandBuffer, count)
	if res := vk.AllocateCommandBuffers(d.dev, &allocInfo, buffers); res != vk.Success {
		return nil, fmt.Errorf("vkAllocateCommandBuffers failed: %s", resultString(res))
	}

	out := make([]driver.CommandBuffer, count)
	for i, cb := range buffers {
		handle := driver.CommandBuffer(d.alloc())
		d.cmdbufs[handle] = cb
		out[i] = handle
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(pool driver.CommandPool, buffers []driver.CommandBuffer) {
	vkBuffers := make([]vk.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		if cb, ok := d.cmdbufs[b]; ok {
			vkBuffers = append(vkBuffers, cb)
			delete(d.cmdbufs, b)
		}
	}
	if len(vkBuffers) > 0 {
		vk.FreeCommandBuffers(d.dev, d.pools[pool], uint32(len(vkBuffers)), vkBuffers)
	}
}

func (d *Device) CreateSemaphore() (driver.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sem vk.Semaphore
	if res := vk.CreateSemaphore(d.dev, &createInfo, nil, &sem); res != vk.Success {
		return 0, fmt.Errorf("vkCreateSemaphore failed: %s", resultString(res))
	}
	handle := driver.Semaphore(d.alloc())
	d.semaphores[handle] = sem
	return handle, nil
}

func (d *Device) DestroySemaphore(s driver.Semaphore) {
	if h, ok := d.semaphores[s]; ok {
		vk.DestroySemaphore(d.dev, h, nil)
		delete(d.semaphores, s)
	}
}

func (d *Device) CreateSampler(cfg driver.SamplerConfig) (driver.Sampler, error) {
	filter := vk.FilterNearest
	if cfg.LinearFiltering {
		filter = vk.FilterLinear
	}
	addressMode := vk.SamplerAddressModeClampToEdge
	if cfg.RepeatAddressing {
		addressMode = vk.SamplerAddressModeRepeat
	}
	mipmapMode := vk.SamplerMipmapModeNearest
	if cfg.LinearMipmapping {
		mipmapMode = vk.SamplerMipmapModeLinear
	}
	borderColor := vk.BorderColorFloatTransparentBlack
	if cfg.OpaqueBlackBorder {
		borderColor = vk.BorderColorIntOpaqueBlack
	}

	createInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    filter,
		MinFilter:    filter,
		AddressModeU: addressMode,
		AddressModeV: addressMode,
		AddressModeW: addressMode,
		MipmapMode:   mipmapMode,
		BorderColor:  borderColor,
		CompareOp:    vk.CompareOpAlways,
	}
	if cfg.MaxAnisotropy > 0 {
		createInfo.AnisotropyEnable = vk.True
		createInfo.MaxAnisotropy = cfg.MaxAnisotropy
	}
	if cfg.CompareEnable {
		createInfo.CompareEnable = vk.True
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(d.dev, &createInfo, nil, &sampler); res != vk.Success {
		return 0, fmt.Errorf("vkCreateSampler failed: %s", resultString(res))
	}
	handle := driver.Sampler(d.alloc())
	d.samplers[handle] = sampler
	return handle, nil
}

func (d *Device) DestroySampler(s driver.Sampler) {
	if h, ok := d.samplers[s]; ok {
		vk.DestroySampler(d.dev, h, nil)
		delete(d.samplers, s)
	}
}

func toVkDescriptorType(t driver.DescriptorType) vk.DescriptorType {
	if t == driver.DescriptorTypeCombinedImageSampler {
		return vk.DescriptorTypeCombinedImageSampler
	}
	return vk.DescriptorTypeUniformBuffer
}

func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []driver.DescriptorPoolSize) (driver.DescriptorPool, error) {
	poolSizes := make([]vk.DescriptorPoolSize, len(sizes))
	for i, s := range sizes {
		poolSizes[i] = vk.DescriptorPoolSize{
			Type:            toVkDescriptorType(s.Type),
			DescriptorCount: s.Count,
		}
	}

	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(d.dev, &createInfo, nil, &pool); res != vk.Success {
		return 0, fmt.Errorf("vkCreateDescriptorPool failed: %s", resultString(res))
	}
	handle := driver.DescriptorPool(d.alloc())
	d.descPools[handle] = pool
	return handle, nil
}

func (d *Device) DestroyDescriptorPool(p driver.DescriptorPool) {
	if h, ok := d.descPools[p]; ok {
		vk.DestroyDescriptorPool(d.dev, h, nil)
		delete(d.descPools, p)
	}
}

func (d *Device) CreateDescriptorSetLayout(bindings []driver.DescriptorBinding) (driver.DescriptorSetLayout, error) {
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		layoutBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  toVkDescriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}
	}

	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	}

	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(d.dev, &createInfo, nil, &layout); res != vk.Success {
		return 0, fmt.Errorf("vkCreateDescriptorSetLayout failed: %s", resultString(res))
	}
	handle := driver.DescriptorSetLayout(d.alloc())
	d.descLayouts[handle] = layout
	return handle, nil
}

func (d *Device) DestroyDescriptorSetLayout(l driver.DescriptorSetLayout) {
	if h, ok := d.descLayouts[l]; ok {
		vk.DestroyDescriptorSetLayout(d.dev, h, nil)
		delete(d.descLayouts, l)
	}
}

func (d *Device) AllocateDescriptorSets(pool driver.DescriptorPool, layouts []driver.DescriptorSetLayout) ([]driver.DescriptorSet, error) {
	vkLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		vkLayouts[i] = d.descLayouts[l]
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.descPools[pool],
		DescriptorSetCount: uint32(len(vkLayouts)),
		PSetLayouts:        vkLayouts,
	}

	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(d.dev, &allocInfo, &set); res != vk.Success {
		return nil, fmt.Errorf("vkAllocateDescriptorSets failed: %s", resultString(res))
	}

	// goki's wrapper returns the first set; single-set allocation is the
	// only shape the engine uses.
	handle := driver.DescriptorSet(d.alloc())
	d.descSets[handle] = set
	return []driver.DescriptorSet{handle}, nil
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.dev, nil)
	d.dev = nil
}
