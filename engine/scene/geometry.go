package scene

import (
	"encoding/binary"
	"math"
)

// Vertex is the fixed drawable geometry contract: position plus color and
// texture coordinate attributes, tightly packed float32s.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
	TexCoord [2]float32
}

// VertexStride is the packed byte size of one Vertex.
const VertexStride = 8 * 4

// RenderData is the raw geometry component: what an entity wants drawn,
// before any GPU upload has happened.
type RenderData struct {
	Vertices []Vertex
	Indices  []uint32
}

// VertexBytes packs the vertices little-endian for upload.
func (rd *RenderData) VertexBytes() []byte {
	out := make([]byte, 0, len(rd.Vertices)*VertexStride)
	var scratch [4]byte
	put := func(f float32) {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(f))
		out = append(out, scratch[:]...)
	}
	for _, v := range rd.Vertices {
		for _, f := range v.Position {
			put(f)
		}
		for _, f := range v.Color {
			put(f)
		}
		for _, f := range v.TexCoord {
			put(f)
		}
	}
	return out
}

// IndexBytes packs the 32-bit indices little-endian for upload.
func (rd *RenderData) IndexBytes() []byte {
	out := make([]byte, len(rd.Indices)*4)
	for i, idx := range rd.Indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}
