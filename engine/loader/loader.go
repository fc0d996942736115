// Package loader imports glTF 2.0 model files into the resource manager's
// shared geometry buffers.
package loader

import (
	"fmt"
	"io"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/resource"
)

// loaderImpl is the implementation of the Loader interface.
type loaderImpl struct {
	geometry     resource.GeometryBuilder
	defaultColor common.Color
}

// Loader imports model files and accumulates their geometry into one shared
// vertex/index buffer pair, the way the GPU consumes it: every loaded mesh
// addresses the same buffers through its returned ranges. A Loader is not
// safe for concurrent use; load everything during startup, hand the blobs
// to the resource manager, then discard the Loader.
type Loader interface {
	// LoadModel parses a glTF or GLB file and appends its flattened
	// geometry to the shared buffers.
	//
	// Parameters:
	//   - path: path to the .gltf or .glb file
	//
	// Returns:
	//   - resource.Mesh: the appended mesh's buffer ranges and part
	//   - []resource.Track: the model's keyframe tracks, nil when unanimated
	//   - error: parse or extraction failure
	LoadModel(path string) (resource.Mesh, []resource.Track, error)

	// LoadModelReader parses glTF data from a reader. Use this for
	// embedded model assets.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//
	// Returns:
	//   - resource.Mesh: the appended mesh's buffer ranges and part
	//   - []resource.Track: the model's keyframe tracks, nil when unanimated
	//   - error: parse or extraction failure
	LoadModelReader(r io.Reader, isGLB bool) (resource.Mesh, []resource.Track, error)

	// AppendGeometry appends procedurally built geometry to the shared
	// buffers, for models with no asset file.
	//
	// Parameters:
	//   - vertices: the mesh's vertices
	//   - indices: the mesh's indices
	//
	// Returns:
	//   - resource.Mesh: the appended mesh's buffer ranges
	AppendGeometry(vertices []resource.Vertex, indices []uint32) resource.Mesh

	// VertexData returns the accumulated vertex blob for WithGeometry.
	//
	// Returns:
	//   - []byte: the packed vertex buffer contents
	VertexData() []byte

	// IndexData returns the accumulated index blob for WithGeometry.
	//
	// Returns:
	//   - []byte: the packed uint32 index buffer contents
	IndexData() []byte
}

var _ Loader = &loaderImpl{}

// NewLoader is the entry point to create a new Loader.
//
// Parameters:
//   - opts: a variadic list of LoaderBuilderOption functions to configure the loader
//
// Returns:
//   - Loader: a new Loader with the specified configuration
func NewLoader(opts ...LoaderBuilderOption) Loader {
	l := &loaderImpl{
		defaultColor: common.ColorWhite,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *loaderImpl) LoadModel(path string) (resource.Mesh, []resource.Track, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return resource.Mesh{}, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return l.appendParsed(parser)
}

func (l *loaderImpl) LoadModelReader(r io.Reader, isGLB bool) (resource.Mesh, []resource.Track, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return resource.Mesh{}, nil, err
	}
	return l.appendParsed(parser)
}

func (l *loaderImpl) appendParsed(parser gltfParser) (resource.Mesh, []resource.Track, error) {
	extracted, err := newGLTFModelExtractor(parser, l.defaultColor).Extract()
	if err != nil {
		return resource.Mesh{}, nil, err
	}
	mesh := l.geometry.Append(extracted.vertices, extracted.indices, extracted.part)
	return mesh, extracted.tracks, nil
}

func (l *loaderImpl) AppendGeometry(vertices []resource.Vertex, indices []uint32) resource.Mesh {
	return l.geometry.Append(vertices, indices, 0)
}

func (l *loaderImpl) VertexData() []byte {
	return l.geometry.VertexData()
}

func (l *loaderImpl) IndexData() []byte {
	return l.geometry.IndexData()
}
