package gpu

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kaelos/prism/engine/renderer/driver"
	"github.com/kaelos/prism/engine/scene"
)

// RenderObject is the GPU-resident state of one drawable entity: its
// uploaded vertex and index buffers plus one recorded command buffer per
// swapchain framebuffer. Buffers survive swapchain rebuilds; command
// buffers do not and are re-recorded against the new framebuffers.
type RenderObject struct {
	id uuid.UUID

	vertexBuffer *Buffer
	indexBuffer  *Buffer

	commandBuffers []driver.CommandBuffer
}

// NewRenderObject uploads the entity's geometry and records its initial
// command buffers.
func NewRenderObject(e *Engine, data *scene.RenderData) (*RenderObject, error) {
	vb, err := e.CreateBuffer(BufferTypeVertex, data.VertexBytes(), uint32(len(data.Vertices)))
	if err != nil {
		return nil, fmt.Errorf("uploading vertex buffer: %w", err)
	}
	ib, err := e.CreateBuffer(BufferTypeIndex, data.IndexBytes(), uint32(len(data.Indices)))
	if err != nil {
		vb.Destroy()
		return nil, fmt.Errorf("uploading index buffer: %w", err)
	}

	obj := &RenderObject{
		id:           uuid.New(),
		vertexBuffer: vb,
		indexBuffer:  ib,
	}
	if err := obj.RecreateCommandBuffers(e); err != nil {
		obj.destroyBuffers()
		return nil, err
	}
	return obj, nil
}

func (ro *RenderObject) ID() uuid.UUID { return ro.id }

func (ro *RenderObject) CommandBuffers() []driver.CommandBuffer {
	return ro.commandBuffers
}

// RecreateCommandBuffers drops any recorded command buffers and records a
// fresh set against the engine's current swapchain.
func (ro *RenderObject) RecreateCommandBuffers(e *Engine) error {
	ro.freeCommandBuffers(e)
	cbs, err := e.CreateCommandBuffers(ro.vertexBuffer, ro.indexBuffer)
	if err != nil {
		return fmt.Errorf("recording command buffers: %w", err)
	}
	ro.commandBuffers = cbs
	return nil
}

func (ro *RenderObject) freeCommandBuffers(e *Engine) {
	if len(ro.commandBuffers) > 0 {
		e.commandPool.Free(ro.commandBuffers)
		ro.commandBuffers = nil
	}
}

func (ro *RenderObject) destroyBuffers() {
	ro.indexBuffer.Destroy()
	ro.vertexBuffer.Destroy()
}

// Destroy releases the object's command buffers and buffers.
func (ro *RenderObject) Destroy(e *Engine) {
	ro.freeCommandBuffers(e)
	ro.destroyBuffers()
}
