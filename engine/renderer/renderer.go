// Package renderer defines the capability interface the application layer
// consumes. The gpu package provides the one concrete implementation; the
// interface exists so the application never depends on a specific
// backend.
package renderer

import "github.com/kaelos/prism/engine/scene"

type RenderingEngine interface {
	// Render draws one frame. Per-drawable failures are absorbed and
	// logged, never propagated.
	Render(s *scene.Scene)

	// SceneLoaded uploads GPU state for entities carrying raw render
	// data.
	SceneLoaded(s *scene.Scene) error

	// Resized tells the engine the presentation surface changed and its
	// swapchain must be discarded.
	Resized(width, height uint32)

	// SetShaders swaps the pipeline's compiled shader pair; the next
	// frame rebuilds against the new binaries.
	SetShaders(vertex, fragment []byte)

	// Shutdown releases every GPU resource the engine owns.
	Shutdown() error
}
