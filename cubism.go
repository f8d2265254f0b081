package cubism

// Engine is the decode capability of a backend: it reports version
// information and deserializes compiled moc blobs.
//
// DecodeMoc is transactional: it either returns a fully validated,
// version-cleared Moc or an error. A blob whose embedded version is newer
// than LatestMocVersion fails with an unsupported-version error carrying
// both values, even if the lower-level decode already produced an internal
// handle.
type Engine interface {
	// Version returns the version of the wrapped engine core.
	Version() Version
	// LatestMocVersion returns the newest moc format version the engine
	// supports.
	LatestMocVersion() MocVersion
	// DecodeMoc deserializes a Moc from bytes.
	DecodeMoc(data []byte) (Moc, error)
}

// Moc is a validated compiled asset. It derives runtime instances; each
// NewModel call produces an independent (static, dynamic) pair. The moc's
// backing storage outlives every model derived from it: models keep their
// own reference, so closing the moc while models live is safe, but deriving
// from a closed moc fails.
type Moc interface {
	Version() MocVersion
	NewModel() (StaticView, DynamicView, error)

	// Close releases the moc's backend resources. Exactly one call is
	// required; further calls are no-ops.
	Close() error
}

// StaticView exposes the immutable half of a model. All collections are
// owned copies, safe to share without locking and index-aligned with the
// dynamic arrays of the same instance.
type StaticView interface {
	CanvasInfo() CanvasInfo
	Parameters() []Parameter
	Parts() []Part
	Drawables() []Drawable
}

// DynamicView exposes the mutable per-frame half of a model.
//
// ParameterValues, PartOpacities and DrawableDynamicFlags are inputs and may
// be written; the remaining slices are engine outputs and must be treated as
// read-only. All slices stay index-aligned with the static collections for
// the life of the instance. Slices returned before an Update call remain
// valid afterwards, except DrawableVertexPositions, which must be re-fetched
// after every Update.
//
// A DynamicView is not safe for concurrent use; the runtime package wraps it
// in a read/write lock.
type DynamicView interface {
	ParameterValues() []float32
	PartOpacities() []float32
	DrawableDynamicFlags() []DynamicDrawableFlags

	DrawableDrawOrders() []int32
	DrawableRenderOrders() []int32
	DrawableOpacities() []float32
	DrawableVertexPositions() [][]Vector2
	DrawableMultiplyColors() []Vector4
	DrawableScreenColors() []Vector4

	// Update evaluates the model: the engine reads the input arrays and
	// overwrites every output array in place.
	Update()
	// ResetDrawableDynamicFlags restores the per-drawable flag sets to the
	// engine's initial all-changed pattern.
	ResetDrawableDynamicFlags()

	// Close releases the instance's backend resources. Exactly one call is
	// required; further calls are no-ops.
	Close() error
}

// ParentIndex decodes the engine's parent-index sentinel: a raw value v > 0
// means the parent lives at index v-1, anything else means no parent. The
// encoding is engine-defined; do not "fix" it.
func ParentIndex(raw int32) (int, bool) {
	if raw > 0 {
		return int(raw - 1), true
	}
	return 0, false
}
