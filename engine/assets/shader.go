// Package assets loads the external resources the renderer consumes:
// compiled SPIR-V shader binaries and image files. Parsing material or
// model definitions lives with the systems that own them, not here.
package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kaelos/prism/engine/core"
)

const (
	builtinVertexShader   = "builtin.vert.spv"
	builtinFragmentShader = "builtin.frag.spv"
)

// ShaderSet is one pipeline's worth of compiled shader stages.
type ShaderSet struct {
	Vertex   []byte
	Fragment []byte
}

// LoadShaderSet reads the builtin vertex/fragment pair from dir.
func LoadShaderSet(dir string) (*ShaderSet, error) {
	vert, err := os.ReadFile(filepath.Join(dir, builtinVertexShader))
	if err != nil {
		return nil, fmt.Errorf("loading vertex shader: %w", err)
	}
	frag, err := os.ReadFile(filepath.Join(dir, builtinFragmentShader))
	if err != nil {
		return nil, fmt.Errorf("loading fragment shader: %w", err)
	}
	core.LogDebug("loaded shader set from %s", dir)
	return &ShaderSet{Vertex: vert, Fragment: frag}, nil
}
