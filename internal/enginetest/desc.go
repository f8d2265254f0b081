package enginetest

import cubism "github.com/wippyai/cubism-runtime"

// Desc describes a model for the reference core. EncodeMoc serializes it
// into a fixture moc blob the core revives.
type Desc struct {
	CanvasSize    cubism.Vector2
	CanvasOrigin  cubism.Vector2
	PixelsPerUnit float32

	Parameters []ParameterDesc
	Parts      []PartDesc
	Drawables  []DrawableDesc
}

type ParameterDesc struct {
	ID      string
	Type    int32
	Minimum float32
	Maximum float32
	Default float32
	Keys    []float32
}

type PartDesc struct {
	ID string
	// RawParentIndex uses the engine's sentinel encoding: v > 0 means
	// parent at index v-1.
	RawParentIndex int32
}

type DrawableDesc struct {
	ID             string
	ConstantFlags  uint8
	TextureIndex   int32
	Masks          []int32
	VertexUVs      []cubism.Vector2
	Indices        []uint16
	RawParentIndex int32
}

// DemoDesc returns a small but fully populated model: two parameters, two
// parts with a parent link, and two drawables with masks, UVs and triangle
// indices.
func DemoDesc() Desc {
	return Desc{
		CanvasSize:    cubism.Vector2{X: 512, Y: 512},
		CanvasOrigin:  cubism.Vector2{X: 256, Y: 256},
		PixelsPerUnit: 2,
		Parameters: []ParameterDesc{
			{ID: "ParamAngleX", Type: 0, Minimum: -30, Maximum: 30, Default: 0, Keys: []float32{-30, 0, 30}},
			{ID: "ParamMouthOpen", Type: 1, Minimum: 0, Maximum: 1, Default: 0.25},
		},
		Parts: []PartDesc{
			{ID: "PartBody", RawParentIndex: 0},
			{ID: "PartMouth", RawParentIndex: 1},
		},
		Drawables: []DrawableDesc{
			{
				ID:            "D_Body",
				ConstantFlags: uint8(cubism.IsDoubleSided),
				TextureIndex:  0,
				VertexUVs: []cubism.Vector2{
					{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1},
				},
				Indices:        []uint16{0, 1, 2, 2, 1, 3},
				RawParentIndex: 1,
			},
			{
				ID:            "D_Mouth",
				ConstantFlags: uint8(cubism.BlendAdditive | cubism.IsInvertedMask),
				TextureIndex:  1,
				Masks:         []int32{0},
				VertexUVs: []cubism.Vector2{
					{X: 0.25, Y: 0.5}, {X: 0.75, Y: 0.5}, {X: 0.5, Y: 0.75},
				},
				Indices:        []uint16{0, 1, 2},
				RawParentIndex: 2,
			},
		},
	}
}
