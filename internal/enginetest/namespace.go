package enginetest

import (
	"github.com/wippyai/cubism-runtime/abi"
	"github.com/wippyai/cubism-runtime/backend/hostobj"
	"github.com/wippyai/cubism-runtime/memory"
)

// NewNamespace wraps a reference core in the host object graph the hostobj
// backend binds to. The graph owns its own storage blocks; the live arrays
// read and write them through bulk copies, the way a wasm-hosted core would.
func NewNamespace() map[string]any {
	eng := NewEngine()
	return map[string]any{
		"Version": map[string]any{
			"csmGetVersion":          func() uint32 { return eng.Version() },
			"csmGetLatestMocVersion": func() uint32 { return eng.LatestMocVersion() },
			"csmGetMocVersion":       func(moc []byte) uint32 { return eng.MocVersion(moc) },
		},
		"Moc": map[string]any{
			"fromBytes": func(data []byte) any { return mocFromBytes(eng, data) },
		},
		"Model": map[string]any{
			"fromMoc": func(moc any) any { return modelFromMoc(moc) },
		},
		"Logging": map[string]any{
			"csmSetLogFunction": func(fn func(string)) { eng.SetLogSink(fn) },
		},
	}
}

type mocHandle struct {
	core    abi.Moc
	storage *memory.AlignedBlock
}

func mocFromBytes(eng *Engine, data []byte) any {
	storage, err := memory.Alloc(len(data), abi.MocAlignment)
	if err != nil {
		return nil
	}
	if err := storage.CopyFrom(data); err != nil {
		storage.Release()
		return nil
	}
	core, err := eng.ReviveMocInPlace(storage.Bytes())
	if err != nil {
		storage.Release()
		return nil
	}
	h := &mocHandle{core: core, storage: storage}
	return map[string]any{
		"_handle": h,
		"release": func() { h.storage.Release() },
	}
}

func modelFromMoc(moc any) any {
	graph, ok := moc.(map[string]any)
	if !ok {
		return nil
	}
	h, ok := graph["_handle"].(*mocHandle)
	if !ok {
		return nil
	}

	storage := memoryBlockFor(h.core)
	if storage == nil {
		return nil
	}
	core, err := h.core.InitializeModelInPlace(storage.Bytes())
	if err != nil {
		storage.Release()
		return nil
	}
	return modelGraph(core, storage, h.storage.Retain())
}

func memoryBlockFor(core abi.Moc) *memory.AlignedBlock {
	size := core.ModelSize()
	if size == 0 {
		return nil
	}
	storage, err := memory.Alloc(int(size), abi.ModelAlignment)
	if err != nil {
		return nil
	}
	return storage
}

// modelGraph lays a model's members out the way the web core export surface
// does: static data as plain slices copied once, live state as typed arrays
// bulk-copying through the storage block.
func modelGraph(core abi.Model, storage, mocRef *memory.AlignedBlock) map[string]any {
	size, origin, ppu := core.CanvasInfo()

	f32 := func(span abi.Span) hostobj.Float32Array {
		return hostF32{func() []float32 { return f32s(storage.Bytes(), span) }}
	}
	i32 := func(span abi.Span) hostobj.Int32Array {
		return hostI32{func() []int32 { return i32s(storage.Bytes(), span) }}
	}

	flatUVs := core.DrawableVertexUVs()
	vertexArrays := make([]hostobj.Float32Array, core.DrawableCount())
	for i := range vertexArrays {
		i := i
		vertexArrays[i] = hostF32{func() []float32 {
			return f32s(storage.Bytes(), core.DrawableVertexPositionSpans()[i])
		}}
	}

	return map[string]any{
		"canvasinfo": map[string]any{
			"CanvasWidth":   size[0],
			"CanvasHeight":  size[1],
			"CanvasOriginX": origin[0],
			"CanvasOriginY": origin[1],
			"PixelsPerUnit": ppu,
		},
		"parameters": map[string]any{
			"count":         int(core.ParameterCount()),
			"ids":           core.ParameterIDs(),
			"types":         core.ParameterTypes(),
			"minimumValues": core.ParameterMinimumValues(),
			"maximumValues": core.ParameterMaximumValues(),
			"defaultValues": core.ParameterDefaultValues(),
			"keyValues":     core.ParameterKeyValues(),
			"values":        f32(core.ParameterValuesSpan()),
		},
		"parts": map[string]any{
			"count":         int(core.PartCount()),
			"ids":           core.PartIDs(),
			"parentIndices": core.PartParentPartIndices(),
			"opacities":     f32(core.PartOpacitiesSpan()),
		},
		"drawables": map[string]any{
			"count":             int(core.DrawableCount()),
			"ids":               core.DrawableIDs(),
			"constantFlags":     core.DrawableConstantFlags(),
			"textureIndices":    core.DrawableTextureIndices(),
			"masks":             core.DrawableMasks(),
			"vertexUvs":         flatUVs,
			"indices":           core.DrawableIndices(),
			"parentPartIndices": core.DrawableParentPartIndices(),

			"dynamicFlags": hostU8{func() []uint8 {
				return u8s(storage.Bytes(), core.DrawableDynamicFlagsSpan())
			}},
			"drawOrders":        i32(core.DrawableDrawOrdersSpan()),
			"renderOrders":      i32(core.DrawableRenderOrdersSpan()),
			"opacities":         f32(core.DrawableOpacitiesSpan()),
			"multiplyColors":    f32(core.DrawableMultiplyColorsSpan()),
			"screenColors":      f32(core.DrawableScreenColorsSpan()),
			"vertexPositions":   vertexArrays,
			"resetDynamicFlags": func() { core.ResetDrawableDynamicFlags() },
		},
		"update": func() { core.Update() },
		"release": func() {
			storage.Release()
			mocRef.Release()
		},
	}
}

type hostF32 struct{ view func() []float32 }

func (a hostF32) Length() int         { return len(a.view()) }
func (a hostF32) Load(dst []float32)  { copy(dst, a.view()) }
func (a hostF32) Store(src []float32) { copy(a.view(), src) }

type hostI32 struct{ view func() []int32 }

func (a hostI32) Length() int       { return len(a.view()) }
func (a hostI32) Load(dst []int32)  { copy(dst, a.view()) }
func (a hostI32) Store(src []int32) { copy(a.view(), src) }

type hostU8 struct{ view func() []uint8 }

func (a hostU8) Length() int       { return len(a.view()) }
func (a hostU8) Load(dst []uint8)  { copy(dst, a.view()) }
func (a hostU8) Store(src []uint8) { copy(a.view(), src) }
