package cubism

// Vector2 is a 2-component float32 vector with no padding.
type Vector2 struct {
	X, Y float32
}

// Vector4 is a 4-component float32 vector with no padding.
type Vector4 struct {
	X, Y, Z, W float32
}

// CanvasInfo describes the model canvas.
type CanvasInfo struct {
	// SizeInPixels is the canvas dimensions.
	SizeInPixels Vector2
	// OriginInPixels is the origin of the model on the canvas.
	OriginInPixels Vector2
	// PixelsPerUnit scales pixels to model units.
	PixelsPerUnit float32
}

// ParameterType classifies a parameter. Informative only; not required for
// evaluation.
type ParameterType int32

const (
	ParameterTypeNormal     ParameterType = 0
	ParameterTypeBlendShape ParameterType = 1
)

func (t ParameterType) String() string {
	switch t {
	case ParameterTypeNormal:
		return "normal"
	case ParameterTypeBlendShape:
		return "blend-shape"
	default:
		return "unknown"
	}
}

// Parameter is a named, ranged scalar animation control.
type Parameter struct {
	ID           string
	Type         ParameterType
	MinimumValue float32
	MaximumValue float32
	DefaultValue float32
	// Keys holds the parameter's discrete key values, empty when continuous.
	Keys []float32
}

// Part is a named grouping node used for opacity inheritance.
type Part struct {
	ID string
	// ParentPartIndex is the index of the parent part; valid only when
	// HasParent is true.
	ParentPartIndex int
	HasParent       bool
}

// ConstantDrawableFlags are fixed per-drawable render properties.
type ConstantDrawableFlags uint8

const (
	// BlendAdditive is mutually exclusive with BlendMultiplicative.
	BlendAdditive ConstantDrawableFlags = 1 << iota
	BlendMultiplicative
	IsDoubleSided
	IsInvertedMask
)

// Has reports whether every flag in mask is set.
func (f ConstantDrawableFlags) Has(mask ConstantDrawableFlags) bool {
	return f&mask == mask
}

// DynamicDrawableFlags are per-drawable flags refreshed by every update.
type DynamicDrawableFlags uint8

const (
	IsVisible DynamicDrawableFlags = 1 << iota
	VisibilityDidChange
	OpacityDidChange
	DrawOrderDidChange
	RenderOrderDidChange
	VertexPositionsDidChange
	BlendColorDidChange
)

// AllDidChange is every did-change bit, the pattern a freshly initialized or
// flag-reset drawable reports.
const AllDidChange = VisibilityDidChange | OpacityDidChange |
	DrawOrderDidChange | RenderOrderDidChange |
	VertexPositionsDidChange | BlendColorDidChange

// Has reports whether every flag in mask is set.
func (f DynamicDrawableFlags) Has(mask DynamicDrawableFlags) bool {
	return f&mask == mask
}

// Drawable is a named mesh entry. The slices are owned copies made at model
// derivation and never change afterwards.
type Drawable struct {
	ID            string
	ConstantFlags ConstantDrawableFlags
	TextureIndex  int
	// Masks lists the indices of the drawables masking this one.
	Masks []int
	// VertexUVs holds one texture coordinate per vertex.
	VertexUVs []Vector2
	// TriangleIndices holds vertex indices, three per triangle.
	TriangleIndices []uint16
	ParentPartIndex int
	HasParent       bool
}
