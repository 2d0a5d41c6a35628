package scene

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestVertexBytesLayout(t *testing.T) {
	rd := &RenderData{
		Vertices: []Vertex{
			{Position: [3]float32{1, 2, 3}, Color: [3]float32{4, 5, 6}, TexCoord: [2]float32{7, 8}},
		},
	}

	b := rd.VertexBytes()
	if len(b) != VertexStride {
		t.Fatalf("packed size = %d, want %d", len(b), VertexStride)
	}
	for i, want := range []float32{1, 2, 3, 4, 5, 6, 7, 8} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		if got != want {
			t.Fatalf("float %d = %v, want %v", i, got, want)
		}
	}
}

func TestIndexBytes(t *testing.T) {
	rd := &RenderData{Indices: []uint32{0, 1, 0x01020304}}

	b := rd.IndexBytes()
	if len(b) != 12 {
		t.Fatalf("packed size = %d, want 12", len(b))
	}
	if got := binary.LittleEndian.Uint32(b[8:]); got != 0x01020304 {
		t.Fatalf("third index = %#x, want 0x01020304", got)
	}
}

func TestEmptyRenderData(t *testing.T) {
	rd := &RenderData{}
	if got := rd.VertexBytes(); len(got) != 0 {
		t.Fatalf("vertex bytes = %v, want empty", got)
	}
	if got := rd.IndexBytes(); len(got) != 0 {
		t.Fatalf("index bytes = %v, want empty", got)
	}
}
