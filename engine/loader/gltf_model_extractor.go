package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/resource"
)

// extractedModel is the flattened result of one glTF document: every mesh
// node's triangles baked into a single vertex/index pair, plus the keyframe
// tracks of the model's animated part.
type extractedModel struct {
	vertices []resource.Vertex
	indices  []uint32

	// part is the node index the tracks target, zero when unanimated.
	part   uint32
	tracks []resource.Track
}

// gltfModelExtractorImpl is the implementation of the gltfModelExtractor
// interface.
type gltfModelExtractorImpl struct {
	parser       gltfParser
	defaultColor common.Color
}

// gltfModelExtractor flattens a parsed document into engine geometry and
// animation tracks. Internal to the loader package.
type gltfModelExtractor interface {
	// Extract flattens every mesh node of the document's default scene.
	//
	// Returns:
	//   - *extractedModel: the flattened geometry and tracks
	//   - error: error if an accessor read fails
	Extract() (*extractedModel, error)
}

var _ gltfModelExtractor = &gltfModelExtractorImpl{}

// newGLTFModelExtractor creates an extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - defaultColor: the vertex color for primitives without COLOR_0
//
// Returns:
//   - gltfModelExtractor: a new extractor instance
func newGLTFModelExtractor(parser gltfParser, defaultColor common.Color) gltfModelExtractor {
	return &gltfModelExtractorImpl{parser: parser, defaultColor: defaultColor}
}

func (e *gltfModelExtractorImpl) Extract() (*extractedModel, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	out := &extractedModel{}
	e.findAnimatedPart(doc, out)

	for _, root := range e.rootNodes(doc) {
		if err := e.extractNode(doc, root, mgl32.Ident4(), out); err != nil {
			return nil, err
		}
	}

	if err := e.extractTracks(doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

// rootNodes returns the default scene's roots, or every node when the
// document declares no scene.
func (e *gltfModelExtractorImpl) rootNodes(doc *gltfDocument) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	roots := make([]int, len(doc.Nodes))
	for i := range doc.Nodes {
		roots[i] = i
	}
	return roots
}

// findAnimatedPart records the first animated mesh node as the model's
// part. A model contributes a single animation part; channels targeting
// any other node are dropped.
func (e *gltfModelExtractorImpl) findAnimatedPart(doc *gltfDocument, out *extractedModel) {
	for _, anim := range doc.Animations {
		for _, ch := range anim.Channels {
			if ch.Target.Node == nil || *ch.Target.Node >= len(doc.Nodes) {
				continue
			}
			if doc.Nodes[*ch.Target.Node].Mesh != nil {
				out.part = uint32(*ch.Target.Node)
				return
			}
		}
	}
}

// extractNode bakes one node's mesh into the output and recurses into its
// children. The animated node keeps its local geometry unbaked; its
// per-frame track transform replaces the node's own TRS.
func (e *gltfModelExtractorImpl) extractNode(doc *gltfDocument, nodeIndex int, parent mgl32.Mat4, out *extractedModel) error {
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", nodeIndex)
	}
	node := &doc.Nodes[nodeIndex]

	world := parent.Mul4(nodeTransform(node))

	if node.Mesh != nil {
		bake := world
		if out.part != 0 && uint32(nodeIndex) == out.part {
			// The animated node's own TRS is replaced per frame by its
			// tracks; bake only the parent transform.
			bake = parent
		}
		if err := e.extractMesh(doc, *node.Mesh, bake, out); err != nil {
			return fmt.Errorf("node %d: %w", nodeIndex, err)
		}
	}

	for _, child := range node.Children {
		if err := e.extractNode(doc, child, world, out); err != nil {
			return err
		}
	}
	return nil
}

func (e *gltfModelExtractorImpl) extractMesh(doc *gltfDocument, meshIndex int, bake mgl32.Mat4, out *extractedModel) error {
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	normalMatrix := bake.Inv().Transpose()

	for _, prim := range doc.Meshes[meshIndex].Primitives {
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			continue
		}

		posAccessor, ok := prim.Attributes["POSITION"]
		if !ok {
			continue
		}
		positions, err := e.parser.ReadVec3Accessor(posAccessor)
		if err != nil {
			return fmt.Errorf("POSITION: %w", err)
		}

		var normals [][3]float32
		if normAccessor, ok := prim.Attributes["NORMAL"]; ok {
			if normals, err = e.parser.ReadVec3Accessor(normAccessor); err != nil {
				return fmt.Errorf("NORMAL: %w", err)
			}
		}

		var colors [][4]float32
		if colorAccessor, ok := prim.Attributes["COLOR_0"]; ok {
			// Only float colors are read; normalized integer colors fall
			// back to the default.
			colors, _ = e.parser.ReadVec4Accessor(colorAccessor)
		}

		base := uint32(len(out.vertices))
		for i, pos := range positions {
			v := resource.Vertex{Color: e.defaultColor}
			if colors != nil && i < len(colors) {
				v.Color = colors[i]
			}

			p := mgl32.TransformCoordinate(mgl32.Vec3{pos[0], pos[1], pos[2]}, bake)
			v.Pos = [3]float32{p.X(), p.Y(), p.Z()}

			n := mgl32.Vec3{0, 0, 1}
			if normals != nil && i < len(normals) {
				n = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
			}
			n = mgl32.TransformNormal(n, normalMatrix)
			if n.Len() > 0 {
				n = n.Normalize()
			}
			v.Normal = [3]float32{n.X(), n.Y(), n.Z()}

			out.vertices = append(out.vertices, v)
		}

		if prim.Indices != nil {
			indices, err := e.parser.ReadIndicesAccessor(*prim.Indices)
			if err != nil {
				return fmt.Errorf("indices: %w", err)
			}
			for _, idx := range indices {
				out.indices = append(out.indices, base+idx)
			}
		} else {
			for i := range positions {
				out.indices = append(out.indices, base+uint32(i))
			}
		}
	}
	return nil
}

// extractTracks converts channels targeting the model's part into keyframe
// tracks, one per channel, ordered translation then rotation then scale so
// sequential composition yields T*R*S.
func (e *gltfModelExtractorImpl) extractTracks(doc *gltfDocument, out *extractedModel) error {
	if out.part == 0 {
		return nil
	}

	for _, path := range []string{gltfAnimationPathTranslation, gltfAnimationPathRotation, gltfAnimationPathScale} {
		for _, anim := range doc.Animations {
			for _, ch := range anim.Channels {
				if ch.Target.Node == nil || uint32(*ch.Target.Node) != out.part || ch.Target.Path != path {
					continue
				}
				if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
					return fmt.Errorf("animation %q: sampler %d out of range", anim.Name, ch.Sampler)
				}
				track, err := e.extractTrack(&anim.Samplers[ch.Sampler], path, out.part)
				if err != nil {
					return fmt.Errorf("animation %q: %w", anim.Name, err)
				}
				out.tracks = append(out.tracks, track)
			}
		}
	}
	return nil
}

func (e *gltfModelExtractorImpl) extractTrack(sampler *gltfAnimationSampler, path string, part uint32) (resource.Track, error) {
	inputs, err := e.parser.ReadScalarAccessor(sampler.Input)
	if err != nil {
		return resource.Track{}, fmt.Errorf("input: %w", err)
	}

	outputs := make([]mgl32.Mat4, 0, len(inputs))
	switch path {
	case gltfAnimationPathRotation:
		quats, err := e.parser.ReadVec4Accessor(sampler.Output)
		if err != nil {
			return resource.Track{}, fmt.Errorf("output: %w", err)
		}
		for _, q := range quats {
			outputs = append(outputs, mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}.Mat4())
		}
	case gltfAnimationPathTranslation:
		vecs, err := e.parser.ReadVec3Accessor(sampler.Output)
		if err != nil {
			return resource.Track{}, fmt.Errorf("output: %w", err)
		}
		for _, v := range vecs {
			outputs = append(outputs, mgl32.Translate3D(v[0], v[1], v[2]))
		}
	case gltfAnimationPathScale:
		vecs, err := e.parser.ReadVec3Accessor(sampler.Output)
		if err != nil {
			return resource.Track{}, fmt.Errorf("output: %w", err)
		}
		for _, v := range vecs {
			outputs = append(outputs, mgl32.Scale3D(v[0], v[1], v[2]))
		}
	}

	if len(outputs) > len(inputs) {
		outputs = outputs[:len(inputs)]
	}
	return resource.Track{Target: part, Inputs: inputs[:len(outputs)], Outputs: outputs}, nil
}

// nodeTransform returns a node's local transform: the explicit matrix when
// present, the composed TRS otherwise.
func nodeTransform(node *gltfNode) mgl32.Mat4 {
	if node.Matrix != nil {
		return mgl32.Mat4(*node.Matrix)
	}

	m := mgl32.Ident4()
	if node.Translation != nil {
		m = m.Mul4(mgl32.Translate3D(node.Translation[0], node.Translation[1], node.Translation[2]))
	}
	if node.Rotation != nil {
		r := node.Rotation
		m = m.Mul4(mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Mat4())
	}
	if node.Scale != nil {
		m = m.Mul4(mgl32.Scale3D(node.Scale[0], node.Scale[1], node.Scale[2]))
	}
	return m
}
