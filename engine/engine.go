package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/kaelos/prism/engine/assets"
	"github.com/kaelos/prism/engine/core"
	"github.com/kaelos/prism/engine/platform"
	"github.com/kaelos/prism/engine/renderer"
	"github.com/kaelos/prism/engine/renderer/driver"
	"github.com/kaelos/prism/engine/renderer/driver/vulkan"
	"github.com/kaelos/prism/engine/renderer/gpu"
	"github.com/kaelos/prism/engine/scene"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	config       *ApplicationConfig
	isRunning    bool
	isSuspended  bool
	platform     *platform.Platform
	renderer     renderer.RenderingEngine
	activeScene  *scene.Scene
	watcher      *assets.Watcher
	shadersDirty atomic.Bool
	clock        *core.Clock
	lastTime     float64
	frameCount   uint32
}

func New(cfg *ApplicationConfig) *Engine {
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		platform:     platform.New(),
		clock:        core.NewClock(),
		isRunning:    true,
		isSuspended:  false,
	}
}

// Initialize brings up the window, the rendering engine and the shader
// watcher, and registers the engine's event listeners.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)
	core.EventRegister(core.EVENT_CODE_SHADER_CHANGED, e.onShaderChanged)

	if err := e.platform.Startup(e.config.Name,
		e.config.StartPosX, e.config.StartPosY,
		e.config.StartWidth, e.config.StartHeight); err != nil {
		return err
	}

	if e.config.IconPath != "" {
		if img, err := assets.LoadImage(e.config.IconPath); err != nil {
			core.LogWarn("window icon %s: %s", e.config.IconPath, err)
		} else {
			e.platform.SetIcon(img)
		}
	}

	shaders, err := assets.LoadShaderSet(e.config.ShaderDir)
	if err != nil {
		return fmt.Errorf("loading builtin shaders: %w", err)
	}

	provider := vulkan.NewProvider(vulkan.Options{
		ProcAddr:   e.platform.GetInstanceProcAddress(),
		Extensions: e.platform.GetRequiredExtensionNames(),
	})
	re, err := gpu.New(provider, e.platform, gpu.Config{
		AppName: e.config.Name,
		Shaders: gpu.Shaders{
			Vertex:   shaders.Vertex,
			Fragment: shaders.Fragment,
		},
		PreferredPresentMode: driver.PresentModeMailbox,
	})
	if err != nil {
		return err
	}
	e.renderer = re

	if e.config.HotReloadShaders {
		if e.watcher, err = assets.NewWatcher(e.config.ShaderDir); err != nil {
			core.LogWarn("shader hot reload unavailable: %s", err)
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// SetScene installs the scene to draw and uploads its entities.
func (e *Engine) SetScene(s *scene.Scene) error {
	if err := e.renderer.SceneLoaded(s); err != nil {
		return err
	}
	e.activeScene = s
	return nil
}

// Run drives the frame loop until the window closes or a quit event
// fires. Each iteration pumps window messages and renders the active
// scene; the window title reports the measured frame rate once a second.
func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		e.platform.PumpMessages()
		if e.platform.ShouldClose() {
			e.isRunning = false
			break
		}

		if e.isSuspended {
			// Nothing to draw while minimized; block until the window
			// produces an event instead of spinning.
			e.platform.WaitMessages()
			continue
		}

		if e.shadersDirty.Swap(false) {
			e.reloadShaders()
		}

		if e.activeScene != nil {
			e.renderer.Render(e.activeScene)
		}

		e.frameCount++
		e.clock.Update()
		if now := e.clock.Elapsed(); now-e.lastTime >= 1.0 {
			fps := float64(e.frameCount) / (now - e.lastTime)
			e.platform.SetTitle(fmt.Sprintf("%s | %.0f fps", e.config.Name, fps))
			e.frameCount = 0
			e.lastTime = now
		}
	}

	return e.Shutdown()
}

// Shutdown stops the watcher, destroys the rendering engine and closes
// the window.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			core.LogWarn("closing shader watcher: %s", err)
		}
		e.watcher = nil
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			core.LogError("renderer shutdown: %s", err)
		}
		e.renderer = nil
	}
	core.EventShutdown()
	return e.platform.Shutdown()
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, data core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("quit event received, shutting down")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, data core.EventContext) bool {
	width, height := data.U32[0], data.U32[1]

	// A zero extent means the window is minimized. Suspend rendering
	// until it comes back.
	if width == 0 || height == 0 {
		core.LogDebug("window minimized, suspending")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogDebug("window restored, resuming")
		e.isSuspended = false
	}

	if e.renderer != nil {
		e.renderer.Resized(width, height)
	}
	return false
}

// onShaderChanged runs on the watcher goroutine, so it only marks the
// shaders dirty; the frame loop performs the actual reload on the render
// thread, where touching the device is safe.
func (e *Engine) onShaderChanged(code core.SystemEventCode, sender interface{}, data core.EventContext) bool {
	e.shadersDirty.Store(true)
	return false
}

func (e *Engine) reloadShaders() {
	shaders, err := assets.LoadShaderSet(e.config.ShaderDir)
	if err != nil {
		core.LogError("reloading shaders: %s", err)
		return
	}
	if e.renderer != nil {
		e.renderer.SetShaders(shaders.Vertex, shaders.Fragment)
	}
}
