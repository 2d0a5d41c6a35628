// Package vulkan implements the driver interfaces over the Vulkan API.
// Opaque driver handles are mapped to Vulkan objects inside the device;
// nothing above this package sees a Vulkan type.
package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/kaelos/prism/engine/core"
	"github.com/kaelos/prism/engine/renderer/driver"
)

// Options configures the provider with what the windowing layer supplies.
type Options struct {
	// ProcAddr is the loader entry point (platform.GetInstanceProcAddress).
	ProcAddr unsafe.Pointer
	// Extensions are the instance extensions the window system requires.
	Extensions []string
	Debug      bool
}

type Provider struct {
	opts Options
}

func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts}
}

func (p *Provider) Name() string { return "vulkan" }

func (p *Provider) CreateInstance(appName string) (driver.Instance, error) {
	if p.opts.ProcAddr == nil {
		return nil, fmt.Errorf("vulkan loader entry point is nil")
	}
	vk.SetGetInstanceProcAddr(p.opts.ProcAddr)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("initializing vulkan: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   safeString(appName),
		PEngineName:        safeString("Prism Engine"),
	}

	extensions := []string{"VK_KHR_surface"}
	extensions = append(extensions, p.opts.Extensions...)
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}
	if runtime.GOOS == "darwin" {
		createInfo.Flags |= 1 // portability enumeration
	}

	if p.opts.Debug {
		layers := []string{"VK_LAYER_KHRONOS_validation"}
		if layersAvailable(layers) {
			createInfo.EnabledLayerCount = uint32(len(layers))
			createInfo.PpEnabledLayerNames = safeStrings(layers)
		} else {
			core.LogWarn("validation layers requested but not available")
		}
	}

	var handle vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateInstance failed: %s", resultString(res))
	}
	if err := vk.InitInstance(handle); err != nil {
		return nil, fmt.Errorf("loading instance procs: %w", err)
	}

	core.LogInfo("vulkan instance created")
	return &Instance{
		handle:   handle,
		surfaces: map[driver.Surface]vk.Surface{},
	}, nil
}

func layersAvailable(wanted []string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for _, want := range wanted {
		found := false
		for i := range available {
			available[i].Deref()
			if safeStringTrim(string(available[i].LayerName[:])) == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type Instance struct {
	handle      vk.Instance
	surfaces    map[driver.Surface]vk.Surface
	nextSurface uint64
}

func (in *Instance) Handle() uintptr {
	return uintptr(unsafe.Pointer(in.handle))
}

func (in *Instance) Adapters() ([]driver.Adapter, error) {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(in.handle, &count, nil); res != vk.Success {
		return nil, fmt.Errorf("enumerating physical devices: %s", resultString(res))
	}
	if count == 0 {
		return nil, fmt.Errorf("no devices with vulkan support found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(in.handle, &count, devices); res != vk.Success {
		return nil, fmt.Errorf("enumerating physical devices: %s", resultString(res))
	}

	adapters := make([]driver.Adapter, 0, count)
	for _, phys := range devices {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(phys, &props)
		props.Deref()
		adapters = append(adapters, &Adapter{
			instance: in,
			phys:     phys,
			name:     safeStringTrim(string(props.DeviceName[:])),
		})
	}
	return adapters, nil
}

func (in *Instance) CreateSurface(ws driver.WindowSurfacer) (driver.Surface, error) {
	ptr, err := ws.CreateSurface(in.Handle())
	if err != nil {
		return 0, fmt.Errorf("creating window surface: %w", err)
	}
	in.nextSurface++
	handle := driver.Surface(in.nextSurface)
	in.surfaces[handle] = vk.SurfaceFromPointer(ptr)
	return handle, nil
}

func (in *Instance) DestroySurface(s driver.Surface) {
	if surf, ok := in.surfaces[s]; ok {
		vk.DestroySurface(in.handle, surf, nil)
		delete(in.surfaces, s)
	}
}

func (in *Instance) Destroy() {
	vk.DestroyInstance(in.handle, nil)
	in.handle = nil
}

type Adapter struct {
	instance *Instance
	phys     vk.PhysicalDevice
	name     string
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) QueueFamilyIndex(surface driver.Surface) (uint32, bool) {
	surf := a.instance.surfaces[surface]

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(a.phys, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(a.phys, &count, families)

	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		if vk.QueueFlagBits(families[i].QueueFlags)&vk.QueueGraphicsBit == 0 {
			continue
		}
		var supported vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(a.phys, i, surf, &supported); res != vk.Success {
			continue
		}
		if supported == vk.True {
			return i, true
		}
	}
	return 0, false
}

func (a *Adapter) SurfaceCapabilities(surface driver.Surface) (driver.Capabilities, error) {
	surf := a.instance.surfaces[surface]

	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(a.phys, surf, &caps); res != vk.Success {
		return driver.Capabilities{}, fmt.Errorf("querying surface capabilities: %s", resultString(res))
	}
	caps.Deref()

	current := caps.CurrentExtent
	current.Deref()
	min := caps.MinImageExtent
	min.Deref()
	max := caps.MaxImageExtent
	max.Deref()

	return driver.Capabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    driver.Extent2D{Width: current.Width, Height: current.Height},
		MinImageExtent:   driver.Extent2D{Width: min.Width, Height: min.Height},
		MaxImageExtent:   driver.Extent2D{Width: max.Width, Height: max.Height},
		CurrentTransform: uint32(caps.CurrentTransform),
	}, nil
}

func (a *Adapter) SurfaceFormats(surface driver.Surface) ([]driver.SurfaceFormat, error) {
	surf := a.instance.surfaces[surface]

	var count uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(a.phys, surf, &count, nil); res != vk.Success {
		return nil, fmt.Errorf("querying surface formats: %s", resultString(res))
	}
	formats := make([]vk.SurfaceFormat, count)
	if res := vk.GetPhysicalDeviceSurfaceFormats(a.phys, surf, &count, formats); res != vk.Success {
		return nil, fmt.Errorf("querying surface formats: %s", resultString(res))
	}

	out := make([]driver.SurfaceFormat, 0, count)
	for i := range formats {
		formats[i].Deref()
		f := fromVkFormat(formats[i].Format)
		if f == driver.FormatUndefined {
			continue
		}
		out = append(out, driver.SurfaceFormat{
			Format:     f,
			ColorSpace: driver.ColorSpaceSrgbNonlinear,
		})
	}
	return out, nil
}

func (a *Adapter) PresentModes(surface driver.Surface) ([]driver.PresentMode, error) {
	surf := a.instance.surfaces[surface]

	var count uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(a.phys, surf, &count, nil); res != vk.Success {
		return nil, fmt.Errorf("querying present modes: %s", resultString(res))
	}
	modes := make([]vk.PresentMode, count)
	if res := vk.GetPhysicalDeviceSurfacePresentModes(a.phys, surf, &count, modes); res != vk.Success {
		return nil, fmt.Errorf("querying present modes: %s", resultString(res))
	}

	out := make([]driver.PresentMode, 0, count)
	for _, m := range modes {
		switch m {
		case vk.PresentModeFifo:
			out = append(out, driver.PresentModeFifo)
		case vk.PresentModeMailbox:
			out = append(out, driver.PresentModeMailbox)
		case vk.PresentModeImmediate:
			out = append(out, driver.PresentModeImmediate)
		}
	}
	return out, nil
}

func (a *Adapter) CreateDevice(queueFamilyIndex uint32) (driver.Device, error) {
	priorities := []float32{1.0}
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: queueFamilyIndex,
		QueueCount:       1,
		PQueuePriorities: priorities,
	}

	features := vk.PhysicalDeviceFeatures{}
	features.SamplerAnisotropy = vk.True

	extensions := []string{vk.KhrSwapchainExtensionName}
	if portabilityRequired(a.phys) {
		extensions = append(extensions, "VK_KHR_portability_subset")
	}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueInfo},
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}

	var dev vk.Device
	if res := vk.CreateDevice(a.phys, &createInfo, nil, &dev); res != vk.Success {
		return nil, fmt.Errorf("vkCreateDevice failed: %s", resultString(res))
	}

	var queue vk.Queue
	vk.GetDeviceQueue(dev, queueFamilyIndex, 0, &queue)

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(a.phys, &memory)
	memory.Deref()

	core.LogInfo("logical device created on %q", a.name)
	return newDevice(a.instance, a.phys, dev, queue, memory), nil
}

func portabilityRequired(phys vk.PhysicalDevice) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(phys, "", &count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(phys, "", &count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if safeStringTrim(string(available[i].ExtensionName[:])) == "VK_KHR_portability_subset" {
			return true
		}
	}
	return false
}
