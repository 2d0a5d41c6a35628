package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/kaelos/prism/engine/core"
	"github.com/kaelos/prism/engine/scene"
)

type recordingRenderer struct {
	setShaderCalls int
	lastVertex     []byte
	lastFragment   []byte
}

func (r *recordingRenderer) Render(s *scene.Scene)            {}
func (r *recordingRenderer) SceneLoaded(s *scene.Scene) error { return nil }
func (r *recordingRenderer) Resized(width, height uint32)     {}
func (r *recordingRenderer) Shutdown() error                  { return nil }

func (r *recordingRenderer) SetShaders(vertex, fragment []byte) {
	r.setShaderCalls++
	r.lastVertex = vertex
	r.lastFragment = fragment
}

func writeShaderPair(t *testing.T, dir string, vert, frag []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "builtin.vert.spv"), vert, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "builtin.frag.spv"), frag, 0o644); err != nil {
		t.Fatal(err)
	}
}

// The shader-changed event fires on the watcher goroutine, so the handler
// must not touch the renderer itself; it only marks the set dirty for the
// frame loop to pick up.
func TestShaderChangedEventDefersReload(t *testing.T) {
	rr := &recordingRenderer{}
	e := &Engine{config: DefaultApplicationConfig(), renderer: rr}

	e.onShaderChanged(core.EVENT_CODE_SHADER_CHANGED, nil, core.EventContext{})

	if rr.setShaderCalls != 0 {
		t.Fatalf("SetShaders called %d times from the event handler, want 0", rr.setShaderCalls)
	}
	if !e.shadersDirty.Load() {
		t.Fatal("shader-changed event did not mark shaders dirty")
	}
}

func TestReloadShadersAppliesPairFromDisk(t *testing.T) {
	dir := t.TempDir()
	vert := []byte{0x03, 0x02, 0x23, 0x07, 1}
	frag := []byte{0x03, 0x02, 0x23, 0x07, 2}
	writeShaderPair(t, dir, vert, frag)

	rr := &recordingRenderer{}
	cfg := DefaultApplicationConfig()
	cfg.ShaderDir = dir
	e := &Engine{config: cfg, renderer: rr}
	e.shadersDirty.Store(true)

	if !e.shadersDirty.Swap(false) {
		t.Fatal("dirty flag lost")
	}
	e.reloadShaders()

	if rr.setShaderCalls != 1 {
		t.Fatalf("SetShaders called %d times, want 1", rr.setShaderCalls)
	}
	if !bytes.Equal(rr.lastVertex, vert) || !bytes.Equal(rr.lastFragment, frag) {
		t.Fatal("reloaded shader pair does not match the files on disk")
	}
}

func TestReloadShadersKeepsOldPairOnError(t *testing.T) {
	rr := &recordingRenderer{}
	cfg := DefaultApplicationConfig()
	cfg.ShaderDir = t.TempDir()
	e := &Engine{config: cfg, renderer: rr}

	e.reloadShaders()

	if rr.setShaderCalls != 0 {
		t.Fatalf("SetShaders called %d times with no shaders on disk, want 0", rr.setShaderCalls)
	}
}
