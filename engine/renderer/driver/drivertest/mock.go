// Package drivertest provides an in-memory driver implementation that
// accounts for every handle it hands out. Tests use it to assert creation
// and destruction ordering, leak-freedom and presentation behavior without
// touching a real GPU.
package drivertest

import (
	"fmt"
	"sync"

	"github.com/kaelos/prism/engine/renderer/driver"
)

// Kind identifies a handle class in the accounting ledger.
type Kind string

const (
	KindSurface          Kind = "surface"
	KindSwapchain        Kind = "swapchain"
	KindImageView        Kind = "image_view"
	KindRenderPass       Kind = "render_pass"
	KindShaderModule     Kind = "shader_module"
	KindPipelineLayout   Kind = "pipeline_layout"
	KindPipeline         Kind = "pipeline"
	KindFramebuffer      Kind = "framebuffer"
	KindCommandPool      Kind = "command_pool"
	KindCommandBuffer    Kind = "command_buffer"
	KindSemaphore        Kind = "semaphore"
	KindSampler          Kind = "sampler"
	KindDescriptorPool   Kind = "descriptor_pool"
	KindDescriptorLayout Kind = "descriptor_set_layout"
	KindBuffer           Kind = "buffer"
	KindDevice           Kind = "device"
	KindInstance         Kind = "instance"
)

// Event is one create or destroy in the order it happened.
type Event struct {
	Op     string // "create" or "destroy"
	Kind   Kind
	Handle uint64
}

// State is the shared ledger behind a Provider and everything created from
// it. Tests inspect it after driving the engine.
type State struct {
	mu sync.Mutex

	next   uint64
	live   map[Kind]map[uint64]bool
	events []Event

	failures map[string]error

	acquires []driver.PresentStatus
	presents []driver.PresentStatus

	// AdapterName is reported by the single mock adapter.
	AdapterName string

	// Caps seeds the surface capabilities the adapter reports. The engine
	// requests MinImageCount+1 swapchain images.
	Caps driver.Capabilities

	waitIdleCalls int
	submitCalls   int
	presentCalls  int
	acquireCursor uint32
}

// NewState returns a ledger with a 640x480 surface supporting two to four
// images, which makes the engine build three-image swapchains.
func NewState() *State {
	return &State{
		live:        map[Kind]map[uint64]bool{},
		failures:    map[string]error{},
		AdapterName: "Mock GPU",
		Caps: driver.Capabilities{
			MinImageCount:  2,
			MaxImageCount:  4,
			CurrentExtent:  driver.Extent2D{Width: 640, Height: 480},
			MinImageExtent: driver.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: driver.Extent2D{Width: 4096, Height: 4096},
		},
	}
}

func (s *State) alloc(kind Kind) uint64 {
	s.next++
	if s.live[kind] == nil {
		s.live[kind] = map[uint64]bool{}
	}
	s.live[kind][s.next] = true
	s.events = append(s.events, Event{Op: "create", Kind: kind, Handle: s.next})
	return s.next
}

func (s *State) release(kind Kind, handle uint64) {
	delete(s.live[kind], handle)
	s.events = append(s.events, Event{Op: "destroy", Kind: kind, Handle: handle})
}

func (s *State) failure(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

// FailNext makes the named operation (e.g. "CreateRenderPass") fail once
// with err.
func (s *State) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// QueueAcquire appends statuses returned by successive AcquireNextImage
// calls. With the queue empty, acquire succeeds.
func (s *State) QueueAcquire(statuses ...driver.PresentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquires = append(s.acquires, statuses...)
}

// QueuePresent appends statuses returned by successive Present calls. With
// the queue empty, present succeeds.
func (s *State) QueuePresent(statuses ...driver.PresentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presents = append(s.presents, statuses...)
}

// Live reports how many handles of the given kind have been created but
// not destroyed.
func (s *State) Live(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live[kind])
}

// TotalLive reports live handles across every kind.
func (s *State) TotalLive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, handles := range s.live {
		total += len(handles)
	}
	return total
}

// Created reports how many handles of the given kind were ever created.
func (s *State) Created(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Op == "create" && e.Kind == kind {
			n++
		}
	}
	return n
}

// Events returns a copy of the full create/destroy log.
func (s *State) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// DestroyOrder returns the kinds destroyed, in order, since the start of
// the log.
func (s *State) DestroyOrder() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Kind
	for _, e := range s.events {
		if e.Op == "destroy" {
			out = append(out, e.Kind)
		}
	}
	return out
}

// WaitIdleCalls reports how many times the device waited for full idle.
func (s *State) WaitIdleCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitIdleCalls
}

// SubmitCalls reports how many command buffers were submitted.
func (s *State) SubmitCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitCalls
}

// PresentCalls reports how many presents were issued.
func (s *State) PresentCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presentCalls
}

// Window is a WindowSurfacer with a fixed framebuffer size.
type Window struct {
	Width  uint32
	Height uint32
}

func (w *Window) FramebufferSize() (uint32, uint32) { return w.Width, w.Height }

func (w *Window) CreateSurface(instance uintptr) (uintptr, error) {
	return 1, nil
}

// Provider creates mock instances that share a single State ledger.
type Provider struct {
	state *State
}

func NewProvider(state *State) *Provider {
	return &Provider{state: state}
}

func (p *Provider) Name() string { return "mock" }

func (p *Provider) CreateInstance(appName string) (driver.Instance, error) {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	if err := p.state.failure("CreateInstance"); err != nil {
		return nil, err
	}
	handle := p.state.alloc(KindInstance)
	return &Instance{state: p.state, handle: handle}, nil
}

type Instance struct {
	state  *State
	handle uint64
}

func (in *Instance) Handle() uintptr { return uintptr(in.handle) }

func (in *Instance) Adapters() ([]driver.Adapter, error) {
	in.state.mu.Lock()
	defer in.state.mu.Unlock()
	if err := in.state.failure("Adapters"); err != nil {
		return nil, err
	}
	return []driver.Adapter{&Adapter{state: in.state}}, nil
}

func (in *Instance) CreateSurface(ws driver.WindowSurfacer) (driver.Surface, error) {
	in.state.mu.Lock()
	defer in.state.mu.Unlock()
	if err := in.state.failure("CreateSurface"); err != nil {
		return 0, err
	}
	if _, err := ws.CreateSurface(uintptr(in.handle)); err != nil {
		return 0, err
	}
	return driver.Surface(in.state.alloc(KindSurface)), nil
}

func (in *Instance) DestroySurface(s driver.Surface) {
	in.state.mu.Lock()
	defer in.state.mu.Unlock()
	in.state.release(KindSurface, uint64(s))
}

func (in *Instance) Destroy() {
	in.state.mu.Lock()
	defer in.state.mu.Unlock()
	in.state.release(KindInstance, in.handle)
}

type Adapter struct {
	state *State
}

func (a *Adapter) Name() string { return a.state.AdapterName }

func (a *Adapter) QueueFamilyIndex(surface driver.Surface) (uint32, bool) {
	return 0, true
}

func (a *Adapter) SurfaceCapabilities(surface driver.Surface) (driver.Capabilities, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	if err := a.state.failure("SurfaceCapabilities"); err != nil {
		return driver.Capabilities{}, err
	}
	return a.state.Caps, nil
}

func (a *Adapter) SurfaceFormats(surface driver.Surface) ([]driver.SurfaceFormat, error) {
	return []driver.SurfaceFormat{
		{Format: driver.FormatB8G8R8A8Unorm, ColorSpace: driver.ColorSpaceSrgbNonlinear},
		{Format: driver.FormatR8G8B8A8Unorm, ColorSpace: driver.ColorSpaceSrgbNonlinear},
	}, nil
}

func (a *Adapter) PresentModes(surface driver.Surface) ([]driver.PresentMode, error) {
	return []driver.PresentMode{driver.PresentModeFifo, driver.PresentModeMailbox}, nil
}

func (a *Adapter) CreateDevice(queueFamilyIndex uint32) (driver.Device, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	if err := a.state.failure("CreateDevice"); err != nil {
		return nil, err
	}
	handle := a.state.alloc(KindDevice)
	return &Device{
		state:      a.state,
		handle:     handle,
		swapchains: map[driver.Swapchain]uint32{},
		buffers:    map[driver.Buffer]*mockBuffer{},
		cmdbufs:    map[driver.CommandBuffer]*mockCommandBuffer{},
	}, nil
}

type mockBuffer struct {
	size        uint64
	hostVisible bool
	data        []byte
}

type copyOp struct {
	src  driver.Buffer
	dst  driver.Buffer
	size uint64
}

type mockCommandBuffer struct {
	pool      driver.CommandPool
	recording bool
	recorded  bool
	commands  []string
	copies    []copyOp
}

// Device implements driver.Device entirely in memory. Host-visible buffer
// contents are real byte slices and submitted copies execute, so staging
// round-trips behave like on hardware.
type Device struct {
	state  *State
	handle uint64

	swapchains map[driver.Swapchain]uint32 // image count
	buffers    map[driver.Buffer]*mockBuffer
	cmdbufs    map[driver.CommandBuffer]*mockCommandBuffer
}

func (d *Device) CreateSwapchain(cfg driver.SwapchainConfig) (driver.Swapchain, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateSwapchain"); err != nil {
		return 0, err
	}
	count := cfg.MinImageCount
	if cfg.Capabilities.MaxImageCount > 0 && count > cfg.Capabilities.MaxImageCount {
		count = cfg.Capabilities.MaxImageCount
	}
	handle := driver.Swapchain(d.state.alloc(KindSwapchain))
	d.swapchains[handle] = count
	return handle, nil
}

func (d *Device) DestroySwapchain(sc driver.Swapchain) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindSwapchain, uint64(sc))
	delete(d.swapchains, sc)
}

func (d *Device) SwapchainImages(sc driver.Swapchain) ([]driver.Image, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("SwapchainImages"); err != nil {
		return nil, err
	}
	count, ok := d.swapchains[sc]
	if !ok {
		return nil, fmt.Errorf("unknown swapchain %d", sc)
	}
	// Swapchain images are owned by the swapchain, not tracked as separate
	// live handles.
	out := make([]driver.Image, count)
	for i := range out {
		d.state.next++
		out[i] = driver.Image(d.state.next)
	}
	return out, nil
}

func (d *Device) CreateImageView(img driver.Image, format driver.Format) (driver.ImageView, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateImageView"); err != nil {
		return 0, err
	}
	return driver.ImageView(d.state.alloc(KindImageView)), nil
}

func (d *Device) DestroyImageView(v driver.ImageView) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindImageView, uint64(v))
}

func (d *Device) CreateRenderPass(format driver.Format) (driver.RenderPass, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateRenderPass"); err != nil {
		return 0, err
	}
	return driver.RenderPass(d.state.alloc(KindRenderPass)), nil
}

func (d *Device) DestroyRenderPass(p driver.RenderPass) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindRenderPass, uint64(p))
}

func (d *Device) CreateShaderModule(spirv []byte) (driver.ShaderModule, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateShaderModule"); err != nil {
		return 0, err
	}
	if len(spirv) == 0 {
		return 0, fmt.Errorf("empty shader code")
	}
	return driver.ShaderModule(d.state.alloc(KindShaderModule)), nil
}

func (d *Device) DestroyShaderModule(m driver.ShaderModule) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindShaderModule, uint64(m))
}

func (d *Device) CreatePipelineLayout(layouts []driver.DescriptorSetLayout) (driver.PipelineLayout, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreatePipelineLayout"); err != nil {
		return 0, err
	}
	return driver.PipelineLayout(d.state.alloc(KindPipelineLayout)), nil
}

func (d *Device) DestroyPipelineLayout(l driver.PipelineLayout) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindPipelineLayout, uint64(l))
}

func (d *Device) CreateGraphicsPipeline(cfg driver.GraphicsPipelineConfig) (driver.Pipeline, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	return driver.Pipeline(d.state.alloc(KindPipeline)), nil
}

func (d *Device) DestroyPipeline(p driver.Pipeline) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindPipeline, uint64(p))
}

func (d *Device) CreateFramebuffer(pass driver.RenderPass, attachment driver.ImageView, extent driver.Extent2D) (driver.Framebuffer, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateFramebuffer"); err != nil {
		return 0, err
	}
	return driver.Framebuffer(d.state.alloc(KindFramebuffer)), nil
}

func (d *Device) DestroyFramebuffer(fb driver.Framebuffer) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindFramebuffer, uint64(fb))
}

func (d *Device) CreateCommandPool(flags driver.CommandPoolFlags, queueFamilyIndex uint32) (driver.CommandPool, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateCommandPool"); err != nil {
		return 0, err
	}
	return driver.CommandPool(d.state.alloc(KindCommandPool)), nil
}

func (d *Device) DestroyCommandPool(p driver.CommandPool) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	for handle, cb := range d.cmdbufs {
		if cb.pool == p {
			d.state.release(KindCommandBuffer, uint64(handle))
			delete(d.cmdbufs, handle)
		}
	}
	d.state.release(KindCommandPool, uint64(p))
}

func (d *Device) AllocateCommandBuffers(pool driver.CommandPool, count uint32) ([]driver.CommandBuffer, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	out := make([]driver.CommandBuffer, count)
	for i := range out {
		handle := driver.CommandBuffer(d.state.alloc(KindCommandBuffer))
		d.cmdbufs[handle] = &mockCommandBuffer{pool: pool}
		out[i] = handle
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(pool driver.CommandPool, buffers []driver.CommandBuffer) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	for _, b := range buffers {
		if _, ok := d.cmdbufs[b]; ok {
			d.state.release(KindCommandBuffer, uint64(b))
			delete(d.cmdbufs, b)
		}
	}
}

func (d *Device) CreateSemaphore() (driver.Semaphore, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateSemaphore"); err != nil {
		return 0, err
	}
	return driver.Semaphore(d.state.alloc(KindSemaphore)), nil
}

func (d *Device) DestroySemaphore(s driver.Semaphore) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindSemaphore, uint64(s))
}

func (d *Device) CreateSampler(cfg driver.SamplerConfig) (driver.Sampler, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateSampler"); err != nil {
		return 0, err
	}
	return driver.Sampler(d.state.alloc(KindSampler)), nil
}

func (d *Device) DestroySampler(s driver.Sampler) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindSampler, uint64(s))
}

func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []driver.DescriptorPoolSize) (driver.DescriptorPool, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateDescriptorPool"); err != nil {
		return 0, err
	}
	return driver.DescriptorPool(d.state.alloc(KindDescriptorPool)), nil
}

func (d *Device) DestroyDescriptorPool(p driver.DescriptorPool) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindDescriptorPool, uint64(p))
}

func (d *Device) CreateDescriptorSetLayout(bindings []driver.DescriptorBinding) (driver.DescriptorSetLayout, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateDescriptorSetLayout"); err != nil {
		return 0, err
	}
	return driver.DescriptorSetLayout(d.state.alloc(KindDescriptorLayout)), nil
}

func (d *Device) DestroyDescriptorSetLayout(l driver.DescriptorSetLayout) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindDescriptorLayout, uint64(l))
}

func (d *Device) AllocateDescriptorSets(pool driver.DescriptorPool, layouts []driver.DescriptorSetLayout) ([]driver.DescriptorSet, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("AllocateDescriptorSets"); err != nil {
		return nil, err
	}
	out := make([]driver.DescriptorSet, len(layouts))
	for i := range out {
		d.state.next++
		out[i] = driver.DescriptorSet(d.state.next)
	}
	return out, nil
}

func (d *Device) CreateBuffer(size uint64, usage driver.BufferUsage, props driver.MemoryProps) (driver.Buffer, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("CreateBuffer"); err != nil {
		return 0, err
	}
	handle := driver.Buffer(d.state.alloc(KindBuffer))
	d.buffers[handle] = &mockBuffer{
		size:        size,
		hostVisible: props&driver.MemoryHostVisible != 0,
		data:        make([]byte, size),
	}
	return handle, nil
}

func (d *Device) DestroyBuffer(b driver.Buffer) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindBuffer, uint64(b))
	delete(d.buffers, b)
}

func (d *Device) WriteBuffer(b driver.Buffer, data []byte) error {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	mb, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("write to unknown buffer %d", b)
	}
	if !mb.hostVisible {
		return fmt.Errorf("write to non host-visible buffer %d", b)
	}
	if uint64(len(data)) > mb.size {
		return fmt.Errorf("write of %d bytes exceeds buffer size %d", len(data), mb.size)
	}
	copy(mb.data, data)
	return nil
}

func (d *Device) ReadBuffer(b driver.Buffer, out []byte) error {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	mb, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("read from unknown buffer %d", b)
	}
	if !mb.hostVisible {
		return fmt.Errorf("read from non host-visible buffer %d", b)
	}
	if uint64(len(out)) > mb.size {
		return fmt.Errorf("read of %d bytes exceeds buffer size %d", len(out), mb.size)
	}
	copy(out, mb.data)
	return nil
}

func (d *Device) cb(handle driver.CommandBuffer) *mockCommandBuffer {
	cb, ok := d.cmdbufs[handle]
	if !ok {
		panic(fmt.Sprintf("drivertest: unknown command buffer %d", handle))
	}
	return cb
}

func (d *Device) BeginCommandBuffer(handle driver.CommandBuffer, oneTimeSubmit bool) error {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("BeginCommandBuffer"); err != nil {
		return err
	}
	cb := d.cb(handle)
	cb.recording = true
	cb.recorded = false
	cb.commands = nil
	cb.copies = nil
	return nil
}

func (d *Device) EndCommandBuffer(handle driver.CommandBuffer) error {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("EndCommandBuffer"); err != nil {
		return err
	}
	cb := d.cb(handle)
	if !cb.recording {
		return fmt.Errorf("end on command buffer %d that is not recording", handle)
	}
	cb.recording = false
	cb.recorded = true
	return nil
}

func (d *Device) record(handle driver.CommandBuffer, cmd string) {
	cb := d.cb(handle)
	if !cb.recording {
		panic(fmt.Sprintf("drivertest: %s on command buffer %d outside recording", cmd, handle))
	}
	cb.commands = append(cb.commands, cmd)
}

func (d *Device) CmdBeginRenderPass(cb driver.CommandBuffer, pass driver.RenderPass, fb driver.Framebuffer, extent driver.Extent2D, clear driver.ClearColor) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.record(cb, "begin_render_pass")
}

func (d *Device) CmdEndRenderPass(cb driver.CommandBuffer) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.record(cb, "end_render_pass")
}

func (d *Device) CmdBindPipeline(cb driver.CommandBuffer, p driver.Pipeline) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.record(cb, "bind_pipeline")
}

func (d *Device) CmdBindVertexBuffer(cb driver.CommandBuffer, b driver.Buffer, offset uint64) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.record(cb, "bind_vertex_buffer")
}

func (d *Device) CmdBindIndexBuffer(cb driver.CommandBuffer, b driver.Buffer, offset uint64) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.record(cb, "bind_index_buffer")
}

func (d *Device) CmdDrawIndexed(cb driver.CommandBuffer, indexCount uint32) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.record(cb, fmt.Sprintf("draw_indexed(%d)", indexCount))
}

func (d *Device) CmdCopyBuffer(handle driver.CommandBuffer, src, dst driver.Buffer, size uint64) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.record(handle, "copy_buffer")
	cb := d.cb(handle)
	cb.copies = append(cb.copies, copyOp{src: src, dst: dst, size: size})
}

// Commands returns the command names recorded into the given buffer.
func (d *Device) Commands(handle driver.CommandBuffer) []string {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	cb := d.cb(handle)
	out := make([]string, len(cb.commands))
	copy(out, cb.commands)
	return out
}

func (d *Device) AcquireNextImage(sc driver.Swapchain, timeoutNs uint64, sem driver.Semaphore) (uint32, driver.PresentStatus, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("AcquireNextImage"); err != nil {
		return 0, driver.PresentSuccess, err
	}
	status := driver.PresentSuccess
	if len(d.state.acquires) > 0 {
		status = d.state.acquires[0]
		d.state.acquires = d.state.acquires[1:]
	}
	if status == driver.PresentOutOfDate {
		return 0, status, nil
	}
	count := d.swapchains[sc]
	if count == 0 {
		return 0, driver.PresentSuccess, fmt.Errorf("acquire on unknown swapchain %d", sc)
	}
	index := d.state.acquireCursor % count
	d.state.acquireCursor++
	return index, status, nil
}

func (d *Device) Submit(handle driver.CommandBuffer, wait, signal driver.Semaphore) error {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("Submit"); err != nil {
		return err
	}
	cb := d.cb(handle)
	if !cb.recorded {
		return fmt.Errorf("submit of command buffer %d that was never recorded", handle)
	}
	for _, op := range cb.copies {
		src, ok := d.buffers[op.src]
		if !ok {
			return fmt.Errorf("copy from destroyed buffer %d", op.src)
		}
		dst, ok := d.buffers[op.dst]
		if !ok {
			return fmt.Errorf("copy to destroyed buffer %d", op.dst)
		}
		copy(dst.data[:op.size], src.data[:op.size])
	}
	d.state.submitCalls++
	return nil
}

func (d *Device) Present(sc driver.Swapchain, imageIndex uint32, wait driver.Semaphore) (driver.PresentStatus, error) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("Present"); err != nil {
		return driver.PresentSuccess, err
	}
	d.state.presentCalls++
	if len(d.state.presents) > 0 {
		status := d.state.presents[0]
		d.state.presents = d.state.presents[1:]
		return status, nil
	}
	return driver.PresentSuccess, nil
}

func (d *Device) QueueWaitIdle() error {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("QueueWaitIdle"); err != nil {
		return err
	}
	return nil
}

func (d *Device) WaitIdle() error {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	if err := d.state.failure("WaitIdle"); err != nil {
		return err
	}
	d.state.waitIdleCalls++
	return nil
}

func (d *Device) Destroy() {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.release(KindDevice, d.handle)
}
