package enginetest

import (
	"errors"
	"fmt"
	"unsafe"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/abi"
)

type vec2 = cubism.Vector2

var (
	errBadMagic      = errors.New("bad moc magic")
	errTrailingBytes = errors.New("trailing bytes after moc payload")
)

// CoreVersion is the packed version the reference core reports.
const CoreVersion = uint32(4<<24 | 2<<16 | 1)

// LatestMocVersion is the newest moc format version the reference core
// revives.
const LatestMocVersion = uint32(cubism.MocVersion42)

// Engine is the reference implementation of the abi contract.
type Engine struct {
	logf func(string)
}

// NewEngine returns a reference core.
func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Version() uint32          { return CoreVersion }
func (e *Engine) LatestMocVersion() uint32 { return LatestMocVersion }

// SetLogSink implements abi.LogSink.
func (e *Engine) SetLogSink(fn func(string)) {
	e.logf = fn
}

func (e *Engine) log(format string, args ...any) {
	if e.logf != nil {
		e.logf(fmt.Sprintf(format, args...))
	}
}

func (e *Engine) MocVersion(moc []byte) uint32 {
	if len(moc) < 8 || [4]byte(moc[:4]) != mocMagic {
		return 0
	}
	r := &reader{data: moc, pos: 4}
	v, _ := r.U32()
	return v
}

func (e *Engine) ReviveMocInPlace(moc []byte) (abi.Moc, error) {
	if addr := uintptr(unsafe.Pointer(unsafe.SliceData(moc))); addr%abi.MocAlignment != 0 {
		return nil, fmt.Errorf("moc storage misaligned: %#x", addr)
	}
	desc, err := decodeMoc(moc)
	if err != nil {
		return nil, err
	}
	e.log("revived moc: %d parameters, %d parts, %d drawables",
		len(desc.Parameters), len(desc.Parts), len(desc.Drawables))
	// The revived form keeps the raw bytes, mirroring an engine that
	// retains pointers into the moc storage.
	return &moc3{eng: e, desc: desc, raw: moc}, nil
}

type moc3 struct {
	eng  *Engine
	desc Desc
	raw  []byte
}

func (m *moc3) ModelSize() uint32 {
	return computeLayout(m.desc).size
}

func (m *moc3) InitializeModelInPlace(storage []byte) (abi.Model, error) {
	layout := computeLayout(m.desc)
	if uint32(len(storage)) != layout.size {
		return nil, fmt.Errorf("model storage size %d, need %d", len(storage), layout.size)
	}
	if addr := uintptr(unsafe.Pointer(unsafe.SliceData(storage))); addr%abi.ModelAlignment != 0 {
		return nil, fmt.Errorf("model storage misaligned: %#x", addr)
	}

	mdl := &model{
		eng:     m.eng,
		desc:    m.desc,
		storage: storage,
		layout:  layout,
	}
	mdl.initialize()
	m.eng.log("initialized model in %d bytes", layout.size)
	return mdl, nil
}

// modelLayout places every dynamic array inside the storage block. Sections
// are 16-byte aligned. Two alternating vertex-position regions exist so the
// core can relocate the buffers on every update.
type modelLayout struct {
	paramValues    abi.Span
	partOpacities  abi.Span
	dynFlags       abi.Span
	drawOrders     abi.Span
	renderOrders   abi.Span
	opacities      abi.Span
	multiplyColors abi.Span
	screenColors   abi.Span
	vertexA        []abi.Span
	vertexB        []abi.Span
	size           uint32
}

func computeLayout(desc Desc) modelLayout {
	var l modelLayout
	cursor := uint32(0)

	section := func(elemBytes, count uint32) abi.Span {
		cursor = (cursor + 15) &^ 15
		s := abi.Span{Offset: cursor, Count: count}
		cursor += elemBytes * count
		return s
	}

	p := uint32(len(desc.Parameters))
	t := uint32(len(desc.Parts))
	d := uint32(len(desc.Drawables))

	l.paramValues = section(4, p)
	l.partOpacities = section(4, t)
	l.dynFlags = section(1, d)
	l.drawOrders = section(4, d)
	l.renderOrders = section(4, d)
	l.opacities = section(4, d)
	l.multiplyColors = section(4, 4*d)
	l.screenColors = section(4, 4*d)

	vertexRegion := func() []abi.Span {
		spans := make([]abi.Span, d)
		for i, dr := range desc.Drawables {
			spans[i] = section(4, 2*uint32(len(dr.VertexUVs)))
		}
		return spans
	}
	l.vertexA = vertexRegion()
	l.vertexB = vertexRegion()

	l.size = (cursor + 15) &^ 15
	return l
}

type model struct {
	eng     *Engine
	desc    Desc
	storage []byte
	layout  modelLayout

	// active selects which vertex region currently holds live positions;
	// Update always writes the other one and flips.
	active bool

	prevScale     float32
	prevOpacities []float32
}

// raw view helpers; spans come from computeLayout so they are in bounds and
// element-aligned by construction.

func f32s(storage []byte, s abi.Span) []float32 {
	if s.Count == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&storage[s.Offset])), s.Count)
}

func i32s(storage []byte, s abi.Span) []int32 {
	if s.Count == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&storage[s.Offset])), s.Count)
}

func u8s(storage []byte, s abi.Span) []uint8 {
	if s.Count == 0 {
		return nil
	}
	return storage[s.Offset : s.Offset+s.Count]
}

func (m *model) initialize() {
	params := f32s(m.storage, m.layout.paramValues)
	for i, p := range m.desc.Parameters {
		params[i] = p.Default
	}
	partOps := f32s(m.storage, m.layout.partOpacities)
	for i := range partOps {
		partOps[i] = 1
	}

	flags := u8s(m.storage, m.layout.dynFlags)
	for i := range flags {
		flags[i] = uint8(cubism.IsVisible | cubism.AllDidChange)
	}

	drawOrders := i32s(m.storage, m.layout.drawOrders)
	renderOrders := i32s(m.storage, m.layout.renderOrders)
	opacities := f32s(m.storage, m.layout.opacities)
	for i := range m.desc.Drawables {
		drawOrders[i] = int32(500 + i)
		renderOrders[i] = int32(i)
		opacities[i] = 1
	}

	multiply := f32s(m.storage, m.layout.multiplyColors)
	screen := f32s(m.storage, m.layout.screenColors)
	for i := 0; i < len(m.desc.Drawables); i++ {
		copy(multiply[4*i:], []float32{1, 1, 1, 1})
		copy(screen[4*i:], []float32{0, 0, 0, 1})
	}

	for i, dr := range m.desc.Drawables {
		pos := f32s(m.storage, m.layout.vertexA[i])
		for j, uv := range dr.VertexUVs {
			pos[2*j] = uv.X
			pos[2*j+1] = uv.Y
		}
	}

	m.prevScale = m.scale()
	m.prevOpacities = append([]float32(nil), opacities...)
}

func (m *model) scale() float32 {
	params := f32s(m.storage, m.layout.paramValues)
	if len(params) == 0 {
		return 0
	}
	return params[0]
}

func (m *model) CanvasInfo() ([2]float32, [2]float32, float32) {
	return [2]float32{m.desc.CanvasSize.X, m.desc.CanvasSize.Y},
		[2]float32{m.desc.CanvasOrigin.X, m.desc.CanvasOrigin.Y},
		m.desc.PixelsPerUnit
}

func (m *model) ParameterCount() uint32 { return uint32(len(m.desc.Parameters)) }

func (m *model) ParameterIDs() []string {
	ids := make([]string, len(m.desc.Parameters))
	for i, p := range m.desc.Parameters {
		ids[i] = p.ID
	}
	return ids
}

func (m *model) ParameterTypes() []int32 {
	out := make([]int32, len(m.desc.Parameters))
	for i, p := range m.desc.Parameters {
		out[i] = p.Type
	}
	return out
}

func (m *model) ParameterMinimumValues() []float32 {
	out := make([]float32, len(m.desc.Parameters))
	for i, p := range m.desc.Parameters {
		out[i] = p.Minimum
	}
	return out
}

func (m *model) ParameterMaximumValues() []float32 {
	out := make([]float32, len(m.desc.Parameters))
	for i, p := range m.desc.Parameters {
		out[i] = p.Maximum
	}
	return out
}

func (m *model) ParameterDefaultValues() []float32 {
	out := make([]float32, len(m.desc.Parameters))
	for i, p := range m.desc.Parameters {
		out[i] = p.Default
	}
	return out
}

func (m *model) ParameterKeyCounts() []int32 {
	out := make([]int32, len(m.desc.Parameters))
	for i, p := range m.desc.Parameters {
		out[i] = int32(len(p.Keys))
	}
	return out
}

func (m *model) ParameterKeyValues() [][]float32 {
	out := make([][]float32, len(m.desc.Parameters))
	for i, p := range m.desc.Parameters {
		out[i] = p.Keys
	}
	return out
}

func (m *model) PartCount() uint32 { return uint32(len(m.desc.Parts)) }

func (m *model) PartIDs() []string {
	ids := make([]string, len(m.desc.Parts))
	for i, p := range m.desc.Parts {
		ids[i] = p.ID
	}
	return ids
}

func (m *model) PartParentPartIndices() []int32 {
	out := make([]int32, len(m.desc.Parts))
	for i, p := range m.desc.Parts {
		out[i] = p.RawParentIndex
	}
	return out
}

func (m *model) DrawableCount() uint32 { return uint32(len(m.desc.Drawables)) }

func (m *model) DrawableIDs() []string {
	ids := make([]string, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		ids[i] = d.ID
	}
	return ids
}

func (m *model) DrawableConstantFlags() []uint8 {
	out := make([]uint8, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		out[i] = d.ConstantFlags
	}
	return out
}

func (m *model) DrawableTextureIndices() []int32 {
	out := make([]int32, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		out[i] = d.TextureIndex
	}
	return out
}

func (m *model) DrawableMaskCounts() []int32 {
	out := make([]int32, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		out[i] = int32(len(d.Masks))
	}
	return out
}

func (m *model) DrawableMasks() [][]int32 {
	out := make([][]int32, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		out[i] = d.Masks
	}
	return out
}

func (m *model) DrawableVertexCounts() []int32 {
	out := make([]int32, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		out[i] = int32(len(d.VertexUVs))
	}
	return out
}

func (m *model) DrawableVertexUVs() [][]float32 {
	out := make([][]float32, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		flat := make([]float32, 0, 2*len(d.VertexUVs))
		for _, uv := range d.VertexUVs {
			flat = append(flat, uv.X, uv.Y)
		}
		out[i] = flat
	}
	return out
}

func (m *model) DrawableIndexCounts() []int32 {
	out := make([]int32, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		out[i] = int32(len(d.Indices))
	}
	return out
}

func (m *model) DrawableIndices() [][]uint16 {
	out := make([][]uint16, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		out[i] = d.Indices
	}
	return out
}

func (m *model) DrawableParentPartIndices() []int32 {
	out := make([]int32, len(m.desc.Drawables))
	for i, d := range m.desc.Drawables {
		out[i] = d.RawParentIndex
	}
	return out
}

func (m *model) ParameterValuesSpan() abi.Span        { return m.layout.paramValues }
func (m *model) PartOpacitiesSpan() abi.Span          { return m.layout.partOpacities }
func (m *model) DrawableDynamicFlagsSpan() abi.Span   { return m.layout.dynFlags }
func (m *model) DrawableDrawOrdersSpan() abi.Span     { return m.layout.drawOrders }
func (m *model) DrawableRenderOrdersSpan() abi.Span   { return m.layout.renderOrders }
func (m *model) DrawableOpacitiesSpan() abi.Span      { return m.layout.opacities }
func (m *model) DrawableMultiplyColorsSpan() abi.Span { return m.layout.multiplyColors }
func (m *model) DrawableScreenColorsSpan() abi.Span   { return m.layout.screenColors }

func (m *model) DrawableVertexPositionSpans() []abi.Span {
	if m.active {
		return append([]abi.Span(nil), m.layout.vertexB...)
	}
	return append([]abi.Span(nil), m.layout.vertexA...)
}

func (m *model) Update() {
	scale := m.scale()
	partOps := f32s(m.storage, m.layout.partOpacities)

	// Relocate vertex positions into the inactive region.
	target := m.layout.vertexB
	if m.active {
		target = m.layout.vertexA
	}
	for i, dr := range m.desc.Drawables {
		pos := f32s(m.storage, target[i])
		for j, uv := range dr.VertexUVs {
			pos[2*j] = uv.X * (1 + scale)
			pos[2*j+1] = uv.Y * (1 + scale)
		}
	}
	m.active = !m.active

	opacities := f32s(m.storage, m.layout.opacities)
	flags := u8s(m.storage, m.layout.dynFlags)
	for i, dr := range m.desc.Drawables {
		newOp := float32(1)
		if idx, ok := cubism.ParentIndex(dr.RawParentIndex); ok && idx < len(partOps) {
			newOp = partOps[idx]
		}

		f := cubism.IsVisible
		if newOp != m.prevOpacities[i] {
			f |= cubism.OpacityDidChange
		}
		if scale != m.prevScale {
			f |= cubism.VertexPositionsDidChange
		}
		opacities[i] = newOp
		flags[i] = uint8(f)
		m.prevOpacities[i] = newOp
	}
	m.prevScale = scale
}

func (m *model) ResetDrawableDynamicFlags() {
	flags := u8s(m.storage, m.layout.dynFlags)
	for i := range flags {
		flags[i] = uint8(cubism.IsVisible | cubism.AllDidChange)
	}
}
