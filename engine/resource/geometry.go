package resource

import (
	"math"

	"github.com/ckiee/automancy/common"
)

// Vertex is the shared vertex buffer layout: position, vertex color, normal.
// Field order matches the game shader's vertex attributes; do not reorder.
type Vertex struct {
	Pos    [3]float32
	Color  [4]float32
	Normal [3]float32
}

// VertexBytes packs vertices for GPU upload.
func VertexBytes(vertices []Vertex) []byte {
	return common.SliceToBytes(vertices)
}

// IndexBytes packs uint32 indices for GPU upload.
func IndexBytes(indices []uint32) []byte {
	return common.SliceToBytes(indices)
}

// GeometryBuilder accumulates meshes into one shared vertex/index buffer
// pair. Each Append returns the Mesh ranges addressing the appended
// geometry; the final blobs go to WithGeometry.
type GeometryBuilder struct {
	vertices []Vertex
	indices  []uint32
}

// Append adds one mesh's geometry and returns its ranges. The part binds
// the mesh to its animation target.
func (g *GeometryBuilder) Append(vertices []Vertex, indices []uint32, part uint32) Mesh {
	mesh := Mesh{
		BaseVertex: int32(len(g.vertices)),
		FirstIndex: uint32(len(g.indices)),
		IndexCount: uint32(len(indices)),
		Part:       part,
	}
	g.vertices = append(g.vertices, vertices...)
	g.indices = append(g.indices, indices...)
	return mesh
}

// VertexData returns the accumulated vertex blob.
func (g *GeometryBuilder) VertexData() []byte {
	return VertexBytes(g.vertices)
}

// IndexData returns the accumulated index blob.
func (g *GeometryBuilder) IndexData() []byte {
	return IndexBytes(g.indices)
}

// HexagonGeometry builds a flat pointy-top hexagon of the given radius and
// color, facing +Z. Used as procedural fallback geometry when no model
// asset is available for a tile.
func HexagonGeometry(radius float32, color common.Color) ([]Vertex, []uint32) {
	vertices := make([]Vertex, 0, 7)
	vertices = append(vertices, Vertex{
		Color:  color,
		Normal: [3]float32{0, 0, 1},
	})
	for i := 0; i < 6; i++ {
		angle := (float64(i)*60 + 30) * math.Pi / 180
		vertices = append(vertices, Vertex{
			Pos:    [3]float32{radius * float32(math.Cos(angle)), radius * float32(math.Sin(angle)), 0},
			Color:  color,
			Normal: [3]float32{0, 0, 1},
		})
	}

	indices := make([]uint32, 0, 18)
	for i := uint32(1); i <= 6; i++ {
		next := i%6 + 1
		indices = append(indices, 0, i, next)
	}
	return vertices, indices
}

// CubeGeometry builds a cube spanning [-1, 1] on every axis, centered on
// the origin with per-face normals. Line and arrow transforms scale half
// extents, so the cube model must keep this span.
func CubeGeometry(color common.Color) ([]Vertex, []uint32) {
	faces := []struct {
		normal  [3]float32
		corners [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [4][3]float32{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{1, -1, 1}, {1, -1, -1}, {1, 1, -1}, {1, 1, 1}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-1, 1, 1}, {1, 1, 1}, {1, 1, -1}, {-1, 1, -1}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}},
	}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, face := range faces {
		base := uint32(len(vertices))
		for _, corner := range face.corners {
			vertices = append(vertices, Vertex{Pos: corner, Color: color, Normal: face.normal})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}
