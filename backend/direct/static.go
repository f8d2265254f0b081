package direct

import (
	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/abi"
)

// Static holds the immutable half of a model, copied out of engine memory at
// derivation. Sharing it requires no locking.
type Static struct {
	canvas     cubism.CanvasInfo
	parameters []cubism.Parameter
	parts      []cubism.Part
	drawables  []cubism.Drawable
}

func buildStatic(m abi.Model) *Static {
	size, origin, ppu := m.CanvasInfo()
	s := &Static{
		canvas: cubism.CanvasInfo{
			SizeInPixels:   cubism.Vector2{X: size[0], Y: size[1]},
			OriginInPixels: cubism.Vector2{X: origin[0], Y: origin[1]},
			PixelsPerUnit:  ppu,
		},
	}

	ids := m.ParameterIDs()
	types := m.ParameterTypes()
	mins := m.ParameterMinimumValues()
	maxs := m.ParameterMaximumValues()
	defaults := m.ParameterDefaultValues()
	keys := m.ParameterKeyValues()
	s.parameters = make([]cubism.Parameter, m.ParameterCount())
	for i := range s.parameters {
		s.parameters[i] = cubism.Parameter{
			ID:           ids[i],
			Type:         cubism.ParameterType(types[i]),
			MinimumValue: mins[i],
			MaximumValue: maxs[i],
			DefaultValue: defaults[i],
			Keys:         append([]float32(nil), keys[i]...),
		}
	}

	partIDs := m.PartIDs()
	partParents := m.PartParentPartIndices()
	s.parts = make([]cubism.Part, m.PartCount())
	for i := range s.parts {
		idx, ok := cubism.ParentIndex(partParents[i])
		s.parts[i] = cubism.Part{
			ID:              partIDs[i],
			ParentPartIndex: idx,
			HasParent:       ok,
		}
	}

	drawIDs := m.DrawableIDs()
	constFlags := m.DrawableConstantFlags()
	textures := m.DrawableTextureIndices()
	masks := m.DrawableMasks()
	uvs := m.DrawableVertexUVs()
	indices := m.DrawableIndices()
	drawParents := m.DrawableParentPartIndices()
	s.drawables = make([]cubism.Drawable, m.DrawableCount())
	for i := range s.drawables {
		idx, ok := cubism.ParentIndex(drawParents[i])

		maskCopy := make([]int, len(masks[i]))
		for j, v := range masks[i] {
			maskCopy[j] = int(v)
		}
		uvCopy := make([]cubism.Vector2, len(uvs[i])/2)
		for j := range uvCopy {
			uvCopy[j] = cubism.Vector2{X: uvs[i][2*j], Y: uvs[i][2*j+1]}
		}

		s.drawables[i] = cubism.Drawable{
			ID:              drawIDs[i],
			ConstantFlags:   cubism.ConstantDrawableFlags(constFlags[i]),
			TextureIndex:    int(textures[i]),
			Masks:           maskCopy,
			VertexUVs:       uvCopy,
			TriangleIndices: append([]uint16(nil), indices[i]...),
			ParentPartIndex: idx,
			HasParent:       ok,
		}
	}

	return s
}

func (s *Static) CanvasInfo() cubism.CanvasInfo  { return s.canvas }
func (s *Static) Parameters() []cubism.Parameter { return s.parameters }
func (s *Static) Parts() []cubism.Part           { return s.parts }
func (s *Static) Drawables() []cubism.Drawable   { return s.drawables }
