package platform

import (
	"image"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/kaelos/prism/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window
}

func New() *Platform {
	return &Platform{}
}

func (p *Platform) Startup(applicationName string, x, y, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(keyCallback)
	p.Window.SetFramebufferSizeCallback(framebufferSizeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	glfw.Terminate()
	return nil
}

func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// WaitMessages blocks until at least one window event arrives, then
// processes it. Used while the window is minimized so the loop does not
// spin.
func (p *Platform) WaitMessages() {
	glfw.WaitEvents()
}

func (p *Platform) ShouldClose() bool {
	return p.Window.ShouldClose()
}

func (p *Platform) SetTitle(title string) {
	p.Window.SetTitle(title)
}

// SetIcon applies the decoded window icon, if the platform supports it.
func (p *Platform) SetIcon(img image.Image) {
	if img != nil {
		p.Window.SetIcon([]image.Image{img})
	}
}

// FramebufferSize implements driver.WindowSurfacer.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// CreateSurface implements driver.WindowSurfacer against the given API
// instance handle.
func (p *Platform) CreateSurface(instance uintptr) (uintptr, error) {
	return p.Window.CreateWindowSurface(unsafe.Pointer(instance), nil)
}

// GetRequiredExtensionNames reports the instance extensions the windowing
// system needs for surface creation.
func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// GetInstanceProcAddress exposes the API loader entry point.
func (p *Platform) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
		w.SetShouldClose(true)
	}
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	ctx := core.EventContext{}
	ctx.U32[0] = uint32(width)
	ctx.U32[1] = uint32(height)
	core.EventFire(core.EVENT_CODE_RESIZED, nil, ctx)
}
