package resource

import (
	"github.com/ckiee/automancy/common"
)

// manager is the implementation of the Manager interface.
type manager struct {
	names  map[string]ID
	nextID ID

	meshes     map[ID]Mesh
	animations map[ID][]Track
	tiles      map[ID]Tile
	items      map[ID]Item

	vertexData []byte
	indexData  []byte

	missingModel ID
	cubeModel    ID
	noneTile     ID
}

// Manager resolves interned identifiers to meshes, animation tracks, tile
// and item configurations, and holds the shared vertex/index buffer blobs.
// A Manager is immutable after construction: the render path may resolve
// IDs at any time without synchronization, and a resolved reference is never
// invalidated mid-frame. Unmapped model identifiers resolve to a designated
// "missing model" fallback rather than failing.
type Manager interface {
	// Intern returns the ID for a resource name, registering it if new.
	// Only used during construction; lookups on a built Manager should use
	// Lookup.
	Intern(name string) ID

	// Lookup returns the ID registered for a name.
	//
	// Returns:
	//   - ID: the interned ID, or IDNone
	//   - bool: whether the name is registered
	Lookup(name string) (ID, bool)

	// Mesh returns the mesh registered for a model ID.
	Mesh(model ID) (Mesh, bool)

	// MeshOrMissing returns the mesh for a model ID, falling back to the
	// missing-model mesh when the ID has none registered.
	MeshOrMissing(model ID) Mesh

	// Animations returns the keyframe tracks registered for a model, or nil
	// when the model is not animated.
	Animations(model ID) []Track

	// Tile returns the tile configuration for a tile type ID.
	Tile(id ID) (Tile, bool)

	// Item returns the item configuration for an item type ID.
	Item(id ID) (Item, bool)

	// TileModelOrMissing resolves a tile type to its configured model,
	// falling back to the missing model.
	TileModelOrMissing(id ID) ID

	// ItemModelOrMissing resolves an item type to its configured model,
	// falling back to the missing model.
	ItemModelOrMissing(id ID) ID

	// DirectionColor returns the configured direction-arrow tint of a tile
	// type, or the default orange when unspecified.
	DirectionColor(id ID) common.Color

	// MissingModel returns the designated fallback model.
	MissingModel() ID

	// CubeModel returns the cube model used for lines and arrows.
	CubeModel() ID

	// NoneTile returns the tile type used to backfill empty visible hexes.
	NoneTile() ID

	// VertexData returns the shared vertex buffer contents for GPU upload.
	VertexData() []byte

	// IndexData returns the shared index buffer contents for GPU upload.
	IndexData() []byte
}

var _ Manager = &manager{}

// Reserved resource names every Manager registers. The associated meshes
// must be provided through builder options; a zero mesh draws nothing.
const (
	NameMissing = "model/missing"
	NameCube    = "model/cube1x1"
	NameNone    = "tile/none"
)

// NewManager creates a Manager and applies the given options. The reserved
// fallback names are interned first so their IDs are stable across builds
// with identical option order.
//
// Parameters:
//   - options: functional options registering models, tiles, and items
//
// Returns:
//   - Manager: the built, immutable manager
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &manager{
		names:      make(map[string]ID),
		nextID:     1,
		meshes:     make(map[ID]Mesh),
		animations: make(map[ID][]Track),
		tiles:      make(map[ID]Tile),
		items:      make(map[ID]Item),
	}

	m.missingModel = m.Intern(NameMissing)
	m.cubeModel = m.Intern(NameCube)
	m.noneTile = m.Intern(NameNone)
	m.tiles[m.noneTile] = Tile{Model: m.missingModel}

	for _, opt := range options {
		opt(m)
	}

	return m
}

func (m *manager) Intern(name string) ID {
	if id, ok := m.names[name]; ok {
		return id
	}
	id := m.nextID
	m.nextID++
	m.names[name] = id
	return id
}

func (m *manager) Lookup(name string) (ID, bool) {
	id, ok := m.names[name]
	return id, ok
}

func (m *manager) Mesh(model ID) (Mesh, bool) {
	mesh, ok := m.meshes[model]
	return mesh, ok
}

func (m *manager) MeshOrMissing(model ID) Mesh {
	if mesh, ok := m.meshes[model]; ok {
		return mesh
	}
	return m.meshes[m.missingModel]
}

func (m *manager) Animations(model ID) []Track {
	return m.animations[model]
}

func (m *manager) Tile(id ID) (Tile, bool) {
	t, ok := m.tiles[id]
	return t, ok
}

func (m *manager) Item(id ID) (Item, bool) {
	it, ok := m.items[id]
	return it, ok
}

func (m *manager) TileModelOrMissing(id ID) ID {
	if t, ok := m.tiles[id]; ok && t.Model != IDNone {
		return t.Model
	}
	return m.missingModel
}

func (m *manager) ItemModelOrMissing(id ID) ID {
	if it, ok := m.items[id]; ok && it.Model != IDNone {
		return it.Model
	}
	return m.missingModel
}

func (m *manager) DirectionColor(id ID) common.Color {
	if t, ok := m.tiles[id]; ok && t.DirectionColor != nil {
		return *t.DirectionColor
	}
	return common.ColorOrange
}

func (m *manager) MissingModel() ID { return m.missingModel }
func (m *manager) CubeModel() ID    { return m.cubeModel }
func (m *manager) NoneTile() ID     { return m.noneTile }

func (m *manager) VertexData() []byte { return m.vertexData }
func (m *manager) IndexData() []byte  { return m.indexData }
