// Package abi defines the call contract of an in-process animation core
// that operates on caller-owned memory.
//
// The contract mirrors the engine's C surface: the wrapper allocates every
// block the engine works in, hands over the raw bytes, and then reads the
// engine's own reports — element counts for the static arrays and
// offset/count spans for the live dynamic state. The wrapper never assumes
// a length the engine did not report.
package abi

// Alignment requirements of the engine's two block kinds. These come from
// the engine ABI, not from this module.
const (
	MocAlignment   = 64
	ModelAlignment = 16
)

// Span locates live engine state inside a model storage block: Offset is a
// byte offset into the block, Count an element count. The element type is
// fixed per accessor.
type Span struct {
	Offset uint32
	Count  uint32
}

// Engine is an in-process animation core.
type Engine interface {
	// Version returns the core version, packed 0xMMmmpppp.
	Version() uint32
	// LatestMocVersion returns the newest moc format version the core
	// decodes.
	LatestMocVersion() uint32
	// MocVersion reports the format version embedded in moc, or 0 when the
	// bytes are not a recognizable moc. moc must be MocAlignment-aligned.
	MocVersion(moc []byte) uint32
	// ReviveMocInPlace validates moc and decodes it in place. The engine
	// may retain pointers into moc, so the caller must keep the block alive
	// for as long as the returned Moc or any model derived from it exists.
	ReviveMocInPlace(moc []byte) (Moc, error)
}

// Moc is a revived compiled asset.
type Moc interface {
	// ModelSize returns the byte size a model instance of this moc
	// requires.
	ModelSize() uint32
	// InitializeModelInPlace lays a model out inside storage, which must be
	// ModelAlignment-aligned and exactly ModelSize bytes.
	InitializeModelInPlace(storage []byte) (Model, error)
}

// Model is a live model the engine maintains inside a caller-owned storage
// block.
//
// Static accessors return engine-owned data; callers must copy what they
// keep. Span accessors locate the dynamic arrays inside the storage block;
// all spans are stable across Update except DrawableVertexPositionSpans,
// which must be re-queried after every Update because the engine may
// relocate the per-drawable vertex buffers.
type Model interface {
	CanvasInfo() (sizeInPixels, originInPixels [2]float32, pixelsPerUnit float32)

	ParameterCount() uint32
	ParameterIDs() []string
	ParameterTypes() []int32
	ParameterMinimumValues() []float32
	ParameterMaximumValues() []float32
	ParameterDefaultValues() []float32
	ParameterKeyCounts() []int32
	ParameterKeyValues() [][]float32

	PartCount() uint32
	PartIDs() []string
	PartParentPartIndices() []int32

	DrawableCount() uint32
	DrawableIDs() []string
	DrawableConstantFlags() []uint8
	DrawableTextureIndices() []int32
	DrawableMaskCounts() []int32
	DrawableMasks() [][]int32
	DrawableVertexCounts() []int32
	DrawableVertexUVs() [][]float32
	DrawableIndexCounts() []int32
	DrawableIndices() [][]uint16
	DrawableParentPartIndices() []int32

	ParameterValuesSpan() Span        // float32
	PartOpacitiesSpan() Span          // float32
	DrawableDynamicFlagsSpan() Span   // uint8
	DrawableDrawOrdersSpan() Span     // int32
	DrawableRenderOrdersSpan() Span   // int32
	DrawableOpacitiesSpan() Span      // float32
	DrawableMultiplyColorsSpan() Span // 4 float32 per drawable
	DrawableScreenColorsSpan() Span   // 4 float32 per drawable

	// DrawableVertexPositionSpans returns one span per drawable, 2 float32
	// per vertex. Invalidated by Update.
	DrawableVertexPositionSpans() []Span

	// Update evaluates the model in place from the current input arrays.
	Update()
	// ResetDrawableDynamicFlags restores every drawable's dynamic flag set
	// to the initial all-changed pattern.
	ResetDrawableDynamicFlags()
}

// LogSink is implemented by engines that can forward their internal log
// lines. The runtime package injects its diagnostic sink here at
// construction; there is no process-global log hook.
type LogSink interface {
	SetLogSink(fn func(message string))
}
