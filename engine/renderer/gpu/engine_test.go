package gpu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kaelos/prism/engine/renderer/driver"
	"github.com/kaelos/prism/engine/renderer/driver/drivertest"
	"github.com/kaelos/prism/engine/scene"
)

var testShaders = Shaders{
	Vertex:   []byte{0x03, 0x02, 0x23, 0x07},
	Fragment: []byte{0x03, 0x02, 0x23, 0x07},
}

func newTestEngine(t *testing.T) (*Engine, *drivertest.State) {
	t.Helper()
	state := drivertest.NewState()
	e, err := New(drivertest.NewProvider(state), &drivertest.Window{Width: 640, Height: 480}, Config{
		AppName: "test",
		Shaders: testShaders,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, state
}

func quadScene() *scene.Scene {
	s := scene.New("test")
	e := scene.NewEntity("quad")
	e.RenderData = &scene.RenderData{
		Vertices: []scene.Vertex{
			{Position: [3]float32{-0.5, -0.5, 0}},
			{Position: [3]float32{0.5, -0.5, 0}},
			{Position: [3]float32{0, 0.5, 0}},
		},
		Indices: []uint32{0, 1, 2},
	}
	s.AddEntity(e)
	return s
}

func TestNewBuildsSwapchain(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	if !e.SwapChainPresent() {
		t.Fatal("expected a swapchain after creation")
	}
	if got := state.Live(drivertest.KindSwapchain); got != 1 {
		t.Fatalf("live swapchains = %d, want 1", got)
	}
	// MinImageCount 2 means the engine asks for 3 images, and the chain
	// gets one view and one framebuffer per image.
	if got := e.swapchain.ImageCount(); got != 3 {
		t.Fatalf("image count = %d, want 3", got)
	}
	if got := state.Live(drivertest.KindImageView); got != 3 {
		t.Fatalf("live image views = %d, want 3", got)
	}
	if got := state.Live(drivertest.KindFramebuffer); got != 3 {
		t.Fatalf("live framebuffers = %d, want 3", got)
	}
	// Shader modules live only for the duration of pipeline creation.
	if got := state.Live(drivertest.KindShaderModule); got != 0 {
		t.Fatalf("live shader modules = %d, want 0", got)
	}
}

func TestShutdownReleasesEveryHandle(t *testing.T) {
	e, state := newTestEngine(t)

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}
	e.Render(s)

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := state.TotalLive(); got != 0 {
		t.Fatalf("%d handles still live after shutdown: %+v", got, state.Events())
	}
}

func TestSwapchainTeardownOrder(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	e.invalidateSwapChain()

	order := state.DestroyOrder()
	first := map[drivertest.Kind]int{}
	for i, k := range order {
		if _, seen := first[k]; !seen {
			first[k] = i
		}
	}
	want := []drivertest.Kind{
		drivertest.KindFramebuffer,
		drivertest.KindPipeline,
		drivertest.KindPipelineLayout,
		drivertest.KindRenderPass,
		drivertest.KindImageView,
		drivertest.KindSwapchain,
	}
	for i := 1; i < len(want); i++ {
		a, b := want[i-1], want[i]
		ai, aok := first[a]
		bi, bok := first[b]
		if !aok || !bok {
			t.Fatalf("missing destroy events for %s or %s in %v", a, b, order)
		}
		if ai > bi {
			t.Fatalf("%s destroyed after %s: %v", a, b, order)
		}
	}
}

func TestDeviceDestroyedLastOnShutdown(t *testing.T) {
	e, state := newTestEngine(t)

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	order := state.DestroyOrder()
	deviceAt, surfaceAt, instanceAt := -1, -1, -1
	for i, k := range order {
		switch k {
		case drivertest.KindDevice:
			deviceAt = i
		case drivertest.KindSurface:
			surfaceAt = i
		case drivertest.KindInstance:
			instanceAt = i
		}
	}
	for i, k := range order {
		if k == drivertest.KindDevice || k == drivertest.KindSurface || k == drivertest.KindInstance {
			continue
		}
		if i > deviceAt {
			t.Fatalf("%s destroyed after the device: %v", k, order)
		}
	}
	if !(deviceAt < surfaceAt && surfaceAt < instanceAt) {
		t.Fatalf("want device before surface before instance, got %v", order)
	}
}

func TestSceneLoadedRecordsPerFramebufferCommandBuffers(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	second := scene.NewEntity("quad2")
	second.RenderData = s.Entities()[0].RenderData
	s.AddEntity(second)

	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}

	for _, entity := range s.Entities() {
		obj, ok := entity.RenderObject().(*RenderObject)
		if !ok {
			t.Fatalf("entity %s has no render object", entity.Name)
		}
		if got := len(obj.CommandBuffers()); got != 3 {
			t.Fatalf("entity %s has %d command buffers, want one per framebuffer (3)", entity.Name, got)
		}
	}
	// Two objects, three recorded buffers each. One-shot transfer buffers
	// are freed inside the upload path.
	if got := state.Live(drivertest.KindCommandBuffer); got != 6 {
		t.Fatalf("live command buffers = %d, want 6", got)
	}
	// Two device-local buffers per object; staging buffers are gone.
	if got := state.Live(drivertest.KindBuffer); got != 4 {
		t.Fatalf("live buffers = %d, want 4", got)
	}
}

func TestSceneLoadedIsIdempotent(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}
	before := state.Live(drivertest.KindBuffer)
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded again: %v", err)
	}
	if got := state.Live(drivertest.KindBuffer); got != before {
		t.Fatalf("second SceneLoaded changed live buffers from %d to %d", before, got)
	}
}

func TestRenderSubmitsAndWaitsIdle(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}

	idleBefore := state.WaitIdleCalls()
	e.Render(s)

	if got := state.PresentCalls(); got != 1 {
		t.Fatalf("present calls = %d, want 1", got)
	}
	if state.WaitIdleCalls() <= idleBefore {
		t.Fatal("expected a device-idle wait after the frame")
	}
	if !e.SwapChainPresent() {
		t.Fatal("swapchain should survive a successful present")
	}
}

// A hard present error must still drain the device before the next
// drawable acquires, so the semaphore pair is never left pending.
func TestPresentErrorStillWaitsIdle(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}

	state.FailNext("Present", errors.New("surface lost"))
	idleBefore := state.WaitIdleCalls()
	e.Render(s)

	if state.WaitIdleCalls() <= idleBefore {
		t.Fatal("expected a device-idle wait after the failed present")
	}
}

func TestOutOfDatePresentDiscardsAndRebuilds(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}

	state.QueuePresent(driver.PresentOutOfDate)
	e.Render(s)

	if e.SwapChainPresent() {
		t.Fatal("swapchain should be absent after an out-of-date present")
	}
	if got := state.Created(drivertest.KindSwapchain); got != 1 {
		t.Fatalf("swapchains created = %d, want 1 (rebuild is lazy)", got)
	}

	cbsBefore := state.Created(drivertest.KindCommandBuffer)
	e.Render(s)

	if !e.SwapChainPresent() {
		t.Fatal("swapchain should be rebuilt on the next frame")
	}
	if got := state.Created(drivertest.KindSwapchain); got != 2 {
		t.Fatalf("swapchains created = %d, want 2", got)
	}
	// The drawable's command buffers were re-recorded against the new
	// framebuffers.
	if got := state.Created(drivertest.KindCommandBuffer); got <= cbsBefore {
		t.Fatal("expected fresh command buffers after the rebuild")
	}
	if got := state.Live(drivertest.KindCommandBuffer); got != 3 {
		t.Fatalf("live command buffers = %d, want 3", got)
	}
	if got := state.PresentCalls(); got != 2 {
		t.Fatalf("present calls = %d, want 2", got)
	}
}

func TestSuboptimalPresentDiscardsSwapchain(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}

	state.QueuePresent(driver.PresentSuboptimal)
	e.Render(s)

	// The suboptimal image was still presented, then the chain discarded.
	if got := state.PresentCalls(); got != 1 {
		t.Fatalf("present calls = %d, want 1", got)
	}
	if e.SwapChainPresent() {
		t.Fatal("swapchain should be absent after a suboptimal present")
	}
}

func TestOutOfDateAcquireSkipsSubmit(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}
	submitsBefore := state.SubmitCalls()

	state.QueueAcquire(driver.PresentOutOfDate)
	e.Render(s)

	if got := state.SubmitCalls(); got != submitsBefore {
		t.Fatalf("submit calls = %d, want %d (no submit for a dead swapchain)", got, submitsBefore)
	}
	if got := state.PresentCalls(); got != 0 {
		t.Fatalf("present calls = %d, want 0", got)
	}
	if e.SwapChainPresent() {
		t.Fatal("swapchain should be absent after an out-of-date acquire")
	}
}

func TestSecondDrawableSkippedAfterMidFrameInvalidation(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	second := scene.NewEntity("quad2")
	second.RenderData = s.Entities()[0].RenderData
	s.AddEntity(second)
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}

	// First drawable's present kills the chain; the second must not
	// touch it.
	state.QueuePresent(driver.PresentOutOfDate)
	e.Render(s)

	if got := state.PresentCalls(); got != 1 {
		t.Fatalf("present calls = %d, want 1", got)
	}

	e.Render(s)
	if got := state.PresentCalls(); got != 3 {
		t.Fatalf("present calls after rebuild frame = %d, want 3", got)
	}
}

func TestResizedDiscardsSwapchain(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}

	e.Resized(800, 600)
	if e.SwapChainPresent() {
		t.Fatal("swapchain should be absent after a resize")
	}

	state.Caps.CurrentExtent = driver.Extent2D{Width: 800, Height: 600}
	e.Render(s)

	if !e.SwapChainPresent() {
		t.Fatal("swapchain should be rebuilt by Render")
	}
	if got := e.swapchain.Extent(); got.Width != 800 || got.Height != 600 {
		t.Fatalf("rebuilt extent = %dx%d, want 800x600", got.Width, got.Height)
	}
}

func TestSetShadersRebuildsPipeline(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}
	modulesBefore := state.Created(drivertest.KindShaderModule)
	pipelinesBefore := state.Created(drivertest.KindPipeline)

	e.SetShaders(testShaders.Vertex, testShaders.Fragment)
	if e.SwapChainPresent() {
		t.Fatal("swapchain should be absent after a shader swap")
	}

	e.Render(s)
	if got := state.Created(drivertest.KindShaderModule); got != modulesBefore+2 {
		t.Fatalf("shader modules created = %d, want %d", got, modulesBefore+2)
	}
	if got := state.Created(drivertest.KindPipeline); got != pipelinesBefore+1 {
		t.Fatalf("pipelines created = %d, want %d", got, pipelinesBefore+1)
	}
}

func TestAllocateMaterialDescriptorSet(t *testing.T) {
	e, _ := newTestEngine(t)
	defer e.Shutdown()

	set, err := e.AllocateMaterialDescriptorSet()
	if err != nil {
		t.Fatalf("AllocateMaterialDescriptorSet: %v", err)
	}
	if set == 0 {
		t.Fatal("expected a non-zero descriptor set")
	}
	if e.Sampler() == nil || e.Sampler().Handle() == 0 {
		t.Fatal("expected the fixed sampler to exist")
	}
	if e.MaterialSetLayout() == nil {
		t.Fatal("expected the material set layout to exist")
	}
}

func TestBufferRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	defer e.Shutdown()

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	buf, err := e.CreateBuffer(BufferTypeVertex, data, 2)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	defer buf.Destroy()

	if got := buf.ElementCount(); got != 2 {
		t.Fatalf("element count = %d, want 2", got)
	}
	out, err := e.ReadBuffer(buf)
	if err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("read back %v, want %v", out, data)
	}
}

func TestEmptyBufferIsValid(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	buf, err := e.CreateBuffer(BufferTypeIndex, nil, 9)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	defer buf.Destroy()

	if got := buf.ElementCount(); got != 0 {
		t.Fatalf("element count = %d, want 0 for empty data", got)
	}
	out, err := e.ReadBuffer(buf)
	if err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if out != nil {
		t.Fatalf("read back %v, want nil", out)
	}
	// No staging buffer was needed.
	if got := state.Live(drivertest.KindBuffer); got != 1 {
		t.Fatalf("live buffers = %d, want 1", got)
	}
}

func TestCreateFailureTearsDownCleanly(t *testing.T) {
	state := drivertest.NewState()
	state.FailNext("CreateRenderPass", errors.New("boom"))

	_, err := New(drivertest.NewProvider(state), &drivertest.Window{Width: 640, Height: 480}, Config{
		AppName: "test",
		Shaders: testShaders,
	})
	if err == nil {
		t.Fatal("expected creation to fail")
	}
	if got := state.TotalLive(); got != 0 {
		t.Fatalf("%d handles leaked from failed creation: %+v", got, state.Events())
	}
}

func TestRebuildFailureLeavesSwapchainAbsent(t *testing.T) {
	e, state := newTestEngine(t)
	defer e.Shutdown()

	s := quadScene()
	if err := e.SceneLoaded(s); err != nil {
		t.Fatalf("SceneLoaded: %v", err)
	}

	e.Resized(800, 600)
	state.FailNext("CreateSwapchain", errors.New("boom"))
	e.Render(s)

	if e.SwapChainPresent() {
		t.Fatal("swapchain should stay absent when the rebuild fails")
	}

	// The next frame retries and succeeds.
	e.Render(s)
	if !e.SwapChainPresent() {
		t.Fatal("swapchain should be rebuilt once the driver recovers")
	}
}
