package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiee/automancy/common"
)

func TestInternIsStable(t *testing.T) {
	m := NewManager()

	first := m.Intern("model/machine")
	second := m.Intern("model/machine")
	assert.Equal(t, first, second)

	other := m.Intern("model/miner")
	assert.NotEqual(t, first, other)
	assert.NotEqual(t, IDNone, other)
}

func TestReservedNamesRegisteredFirst(t *testing.T) {
	m := NewManager()

	missing, ok := m.Lookup(NameMissing)
	require.True(t, ok)
	assert.Equal(t, missing, m.MissingModel())

	cube, ok := m.Lookup(NameCube)
	require.True(t, ok)
	assert.Equal(t, cube, m.CubeModel())

	none, ok := m.Lookup(NameNone)
	require.True(t, ok)
	assert.Equal(t, none, m.NoneTile())

	// Reserved IDs do not depend on option order.
	other := NewManager(WithModel("model/zebra", Mesh{}))
	assert.Equal(t, missing, other.MissingModel())
	assert.Equal(t, cube, other.CubeModel())
	assert.Equal(t, none, other.NoneTile())
}

func TestLookupUnknownName(t *testing.T) {
	m := NewManager()

	id, ok := m.Lookup("model/unregistered")
	assert.False(t, ok)
	assert.Equal(t, IDNone, id)
}

func TestMeshOrMissing(t *testing.T) {
	missingMesh := Mesh{FirstIndex: 0, IndexCount: 3}
	machineMesh := Mesh{BaseVertex: 7, FirstIndex: 3, IndexCount: 36}
	m := NewManager(
		WithModel(NameMissing, missingMesh),
		WithModel("model/machine", machineMesh),
	)

	machine, ok := m.Lookup("model/machine")
	require.True(t, ok)

	t.Run("registered model resolves to its mesh", func(t *testing.T) {
		mesh, ok := m.Mesh(machine)
		require.True(t, ok)
		assert.Equal(t, machineMesh, mesh)
		assert.Equal(t, machineMesh, m.MeshOrMissing(machine))
	})

	t.Run("unregistered model falls back", func(t *testing.T) {
		_, ok := m.Mesh(ID(999))
		assert.False(t, ok)
		assert.Equal(t, missingMesh, m.MeshOrMissing(ID(999)))
	})
}

func TestTileAndItemModelFallbacks(t *testing.T) {
	m := NewManager(
		WithTileNamed("tile/machine", "model/machine", "", nil),
		WithItemNamed("item/ore", "model/ore"),
		WithTile("tile/blank", Tile{}),
	)

	machineTile, _ := m.Lookup("tile/machine")
	machineModel, _ := m.Lookup("model/machine")
	oreItem, _ := m.Lookup("item/ore")
	oreModel, _ := m.Lookup("model/ore")
	blankTile, _ := m.Lookup("tile/blank")

	t.Run("configured tile model", func(t *testing.T) {
		assert.Equal(t, machineModel, m.TileModelOrMissing(machineTile))
	})

	t.Run("configured item model", func(t *testing.T) {
		assert.Equal(t, oreModel, m.ItemModelOrMissing(oreItem))
	})

	t.Run("tile with zero model falls back", func(t *testing.T) {
		assert.Equal(t, m.MissingModel(), m.TileModelOrMissing(blankTile))
	})

	t.Run("unknown ids fall back", func(t *testing.T) {
		assert.Equal(t, m.MissingModel(), m.TileModelOrMissing(ID(999)))
		assert.Equal(t, m.MissingModel(), m.ItemModelOrMissing(ID(999)))
	})

	t.Run("none tile resolves to missing model", func(t *testing.T) {
		assert.Equal(t, m.MissingModel(), m.TileModelOrMissing(m.NoneTile()))
	})
}

func TestTileInactiveModel(t *testing.T) {
	m := NewManager(
		WithTileNamed("tile/machine", "model/machine", "model/machine_idle", nil),
		WithTileNamed("tile/storage", "model/storage", "", nil),
	)

	machine, _ := m.Lookup("tile/machine")
	idleModel, _ := m.Lookup("model/machine_idle")
	tile, ok := m.Tile(machine)
	require.True(t, ok)
	assert.Equal(t, idleModel, tile.InactiveModel)

	storage, _ := m.Lookup("tile/storage")
	tile, ok = m.Tile(storage)
	require.True(t, ok)
	assert.Equal(t, IDNone, tile.InactiveModel)
}

func TestDirectionColor(t *testing.T) {
	green := common.Color{0, 1, 0, 1}
	m := NewManager(
		WithTileNamed("tile/machine", "model/machine", "", &green),
		WithTileNamed("tile/storage", "model/storage", "", nil),
	)

	machine, _ := m.Lookup("tile/machine")
	storage, _ := m.Lookup("tile/storage")

	assert.Equal(t, green, m.DirectionColor(machine))
	assert.Equal(t, common.ColorOrange, m.DirectionColor(storage))
	assert.Equal(t, common.ColorOrange, m.DirectionColor(ID(999)))
}

func TestAnimationsComposeInRegistrationOrder(t *testing.T) {
	first := Track{Target: 1, Inputs: []float32{0, 1}}
	second := Track{Target: 1, Inputs: []float32{0, 2}}
	m := NewManager(
		WithAnimation("model/machine", first),
		WithAnimation("model/machine", second),
	)

	machine, _ := m.Lookup("model/machine")
	tracks := m.Animations(machine)
	require.Len(t, tracks, 2)
	assert.Equal(t, first.Inputs, tracks[0].Inputs)
	assert.Equal(t, second.Inputs, tracks[1].Inputs)

	assert.Nil(t, m.Animations(m.MissingModel()))
}

func TestWithGeometryBlobs(t *testing.T) {
	var builder GeometryBuilder
	hexVerts, hexIdx := HexagonGeometry(1, common.ColorWhite)
	mesh := builder.Append(hexVerts, hexIdx, 0)

	m := NewManager(
		WithModel("model/hex", mesh),
		WithGeometry(builder.VertexData(), builder.IndexData()),
	)

	assert.Len(t, m.VertexData(), len(hexVerts)*40)
	assert.Len(t, m.IndexData(), len(hexIdx)*4)
}

func TestTrackDuration(t *testing.T) {
	assert.Equal(t, float32(0), Track{}.Duration())
	assert.Equal(t, float32(2.5), Track{Inputs: []float32{0.5, 1, 2.5}}.Duration())
}
