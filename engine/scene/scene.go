// Package scene holds the minimal entity model the renderer collaborates
// with. The engine reads exactly one component kind (RenderData, the raw
// geometry to upload) and writes exactly one (the opaque GPU render
// object); everything else an entity may carry is none of its business.
package scene

import "github.com/google/uuid"

type Scene struct {
	Name     string
	entities []*Entity
}

func New(name string) *Scene {
	return &Scene{Name: name}
}

func (s *Scene) AddEntity(e *Entity) {
	s.entities = append(s.entities, e)
}

func (s *Scene) Entities() []*Entity {
	return s.entities
}

type Entity struct {
	ID   uuid.UUID
	Name string

	// RenderData is the raw geometry component, nil for non-drawables.
	RenderData *RenderData

	renderObject interface{}
}

func NewEntity(name string) *Entity {
	return &Entity{
		ID:   uuid.New(),
		Name: name,
	}
}

// RenderObject returns the GPU-resident component attached by the
// renderer, or nil if the entity has not been uploaded yet.
func (e *Entity) RenderObject() interface{} {
	return e.renderObject
}

func (e *Entity) SetRenderObject(obj interface{}) {
	e.renderObject = obj
}
