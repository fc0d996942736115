package resource

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiee/automancy/common"
)

func TestGeometryBuilderAccumulates(t *testing.T) {
	var builder GeometryBuilder

	hexVerts, hexIdx := HexagonGeometry(1, common.ColorWhite)
	first := builder.Append(hexVerts, hexIdx, 0)
	assert.Equal(t, int32(0), first.BaseVertex)
	assert.Equal(t, uint32(0), first.FirstIndex)
	assert.Equal(t, uint32(len(hexIdx)), first.IndexCount)

	cubeVerts, cubeIdx := CubeGeometry(common.ColorRed)
	second := builder.Append(cubeVerts, cubeIdx, 1)
	assert.Equal(t, int32(len(hexVerts)), second.BaseVertex)
	assert.Equal(t, uint32(len(hexIdx)), second.FirstIndex)
	assert.Equal(t, uint32(len(cubeIdx)), second.IndexCount)
	assert.Equal(t, uint32(1), second.Part)

	assert.Len(t, builder.VertexData(), (len(hexVerts)+len(cubeVerts))*40)
	assert.Len(t, builder.IndexData(), (len(hexIdx)+len(cubeIdx))*4)
}

func TestHexagonGeometry(t *testing.T) {
	vertices, indices := HexagonGeometry(2, common.ColorWhite)
	require.Len(t, vertices, 7)
	require.Len(t, indices, 18)

	t.Run("center vertex at origin", func(t *testing.T) {
		assert.Equal(t, [3]float32{0, 0, 0}, vertices[0].Pos)
	})

	t.Run("rim vertices on the radius", func(t *testing.T) {
		for _, v := range vertices[1:] {
			d := math.Hypot(float64(v.Pos[0]), float64(v.Pos[1]))
			assert.InDelta(t, 2, d, 1e-5)
			assert.Equal(t, float32(0), v.Pos[2])
		}
	})

	t.Run("pointy top", func(t *testing.T) {
		// A pointy-top hexagon has a vertex straight up from the center.
		found := false
		for _, v := range vertices[1:] {
			if math.Abs(float64(v.Pos[0])) < 1e-5 && v.Pos[1] > 0 {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("fan triangles share the center", func(t *testing.T) {
		for i := 0; i < len(indices); i += 3 {
			assert.Equal(t, uint32(0), indices[i])
			assert.NotEqual(t, indices[i+1], indices[i+2])
		}
	})

	t.Run("normals face forward", func(t *testing.T) {
		for _, v := range vertices {
			assert.Equal(t, [3]float32{0, 0, 1}, v.Normal)
			assert.Equal(t, [4]float32(common.ColorWhite), v.Color)
		}
	})
}

func TestCubeGeometry(t *testing.T) {
	vertices, indices := CubeGeometry(common.ColorRed)
	require.Len(t, vertices, 24)
	require.Len(t, indices, 36)

	t.Run("spans minus one to one", func(t *testing.T) {
		for _, v := range vertices {
			for axis := 0; axis < 3; axis++ {
				assert.InDelta(t, 1, math.Abs(float64(v.Pos[axis])), 1e-6)
			}
		}
	})

	t.Run("vertices lie on their face plane", func(t *testing.T) {
		for _, v := range vertices {
			dot := v.Pos[0]*v.Normal[0] + v.Pos[1]*v.Normal[1] + v.Pos[2]*v.Normal[2]
			assert.Equal(t, float32(1), dot)
		}
	})

	t.Run("indices stay in range", func(t *testing.T) {
		for _, idx := range indices {
			assert.Less(t, idx, uint32(len(vertices)))
		}
	})
}

func TestVertexBytesLayout(t *testing.T) {
	vertices := []Vertex{{
		Pos:    [3]float32{1, 2, 3},
		Color:  [4]float32{0.5, 0.5, 0.5, 1},
		Normal: [3]float32{0, 0, 1},
	}}
	data := VertexBytes(vertices)
	assert.Len(t, data, 40)

	indices := IndexBytes([]uint32{0, 1, 2})
	assert.Len(t, indices, 12)
}
