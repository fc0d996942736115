package resource

import "github.com/ckiee/automancy/common"

// ManagerBuilderOption is a functional option for configuring a Manager via
// NewManager.
type ManagerBuilderOption func(*manager)

// WithModel is an option builder that registers a model's mesh under a name.
//
// Parameters:
//   - name: the model identifier (e.g. "model/machine")
//   - mesh: the mesh ranges inside the shared buffers
//
// Returns:
//   - ManagerBuilderOption: a function that applies the model to a manager
func WithModel(name string, mesh Mesh) ManagerBuilderOption {
	return func(m *manager) {
		m.meshes[m.Intern(name)] = mesh
	}
}

// WithAnimation is an option builder that appends a keyframe track to a
// model. Tracks are evaluated, and compose per part, in registration order.
//
// Parameters:
//   - name: the model identifier the track animates
//   - track: the keyframe track
//
// Returns:
//   - ManagerBuilderOption: a function that applies the track to a manager
func WithAnimation(name string, track Track) ManagerBuilderOption {
	return func(m *manager) {
		id := m.Intern(name)
		m.animations[id] = append(m.animations[id], track)
	}
}

// WithTile is an option builder that registers a tile type's configuration.
//
// Parameters:
//   - name: the tile type identifier (e.g. "tile/machine")
//   - tile: the tile configuration
//
// Returns:
//   - ManagerBuilderOption: a function that applies the tile to a manager
func WithTile(name string, tile Tile) ManagerBuilderOption {
	return func(m *manager) {
		m.tiles[m.Intern(name)] = tile
	}
}

// WithTileNamed is an option builder that registers a tile type whose
// models are referenced by name, interning them as needed. An empty
// inactiveModelName leaves the tile without an inactive override.
//
// Parameters:
//   - name: the tile type identifier (e.g. "tile/machine")
//   - modelName: the tile's model identifier
//   - inactiveModelName: the model shown while the tile is inactive, or ""
//   - directionColor: the direction-arrow tint, nil for the default
//
// Returns:
//   - ManagerBuilderOption: a function that applies the tile to a manager
func WithTileNamed(name, modelName, inactiveModelName string, directionColor *common.Color) ManagerBuilderOption {
	return func(m *manager) {
		t := Tile{
			Model:          m.Intern(modelName),
			DirectionColor: directionColor,
		}
		if inactiveModelName != "" {
			t.InactiveModel = m.Intern(inactiveModelName)
		}
		m.tiles[m.Intern(name)] = t
	}
}

// WithItemNamed is an option builder that registers an item type whose
// model is referenced by name.
//
// Parameters:
//   - name: the item type identifier (e.g. "item/ingot")
//   - modelName: the item's model identifier
//
// Returns:
//   - ManagerBuilderOption: a function that applies the item to a manager
func WithItemNamed(name, modelName string) ManagerBuilderOption {
	return func(m *manager) {
		m.items[m.Intern(name)] = Item{Model: m.Intern(modelName)}
	}
}

// WithItem is an option builder that registers an item type's configuration.
//
// Parameters:
//   - name: the item type identifier (e.g. "item/ingot")
//   - item: the item configuration
//
// Returns:
//   - ManagerBuilderOption: a function that applies the item to a manager
func WithItem(name string, item Item) ManagerBuilderOption {
	return func(m *manager) {
		m.items[m.Intern(name)] = item
	}
}

// WithGeometry is an option builder that sets the shared vertex and index
// buffer blobs all meshes index into.
//
// Parameters:
//   - vertexData: raw vertex bytes for GPU upload
//   - indexData: raw uint32 index bytes for GPU upload
//
// Returns:
//   - ManagerBuilderOption: a function that applies the geometry to a manager
func WithGeometry(vertexData, indexData []byte) ManagerBuilderOption {
	return func(m *manager) {
		m.vertexData = vertexData
		m.indexData = indexData
	}
}
