package runtime

import (
	"sync"

	"go.uber.org/zap"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/errors"
)

// Moc is a decoded compiled asset. It is safe for concurrent use; each
// NewModel call derives an independent instance. Models hold their own
// references to the asset, so closing the moc while models live is safe.
type Moc struct {
	core *Core
	moc  cubism.Moc

	mu     sync.Mutex
	closed bool
}

// Version returns the moc format version the blob declares.
func (m *Moc) Version() cubism.MocVersion {
	return m.moc.Version()
}

// Close releases the asset's backend resources. Models derived earlier stay
// valid; further derivations fail. Further calls are no-ops.
func (m *Moc) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.moc.Close()
}

// NewModel derives an independent model instance.
func (m *Moc) NewModel() (*Model, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errors.Released(errors.PhaseDerive, "moc")
	}
	static, dynamic, err := m.moc.NewModel()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m.core.log.Debug("model derived",
		zap.Int("drawables", len(static.Drawables())))
	return &Model{static: static, dynamic: dynamic}, nil
}

// Model pairs the static and dynamic halves of one instance. The static half
// is immutable and shared without locking; the dynamic half is guarded by a
// read/write lock scoped to the ReadDynamic and WriteDynamic callbacks.
type Model struct {
	static cubism.StaticView

	mu      sync.RWMutex
	dynamic cubism.DynamicView
	closed  bool
}

// Static returns the immutable half. No locking required.
func (m *Model) Static() cubism.StaticView {
	return m.static
}

// ReadDynamic runs fn under a shared lock. Any number of readers run
// concurrently; none overlaps a writer. The snapshot and every slice read
// from it are valid only inside fn.
func (m *Model) ReadDynamic(fn func(*DynamicSnapshot)) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errors.Released(errors.PhaseView, "model")
	}
	fn(&DynamicSnapshot{d: m.dynamic})
	return nil
}

// WriteDynamic runs fn under the exclusive lock. The state and every slice
// obtained from it are valid only inside fn.
func (m *Model) WriteDynamic(fn func(*DynamicState)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.Released(errors.PhaseUpdate, "model")
	}
	fn(&DynamicState{DynamicSnapshot{d: m.dynamic}})
	return nil
}

// Close releases the instance's backend resources. Further calls are no-ops.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.dynamic.Close()
}

// DynamicSnapshot is the shared-lock surface of the dynamic half. The
// returned slices alias live engine state: treat them as read-only and do
// not retain them past the callback.
type DynamicSnapshot struct {
	d cubism.DynamicView
}

func (s *DynamicSnapshot) ParameterValues() []float32 { return s.d.ParameterValues() }
func (s *DynamicSnapshot) PartOpacities() []float32   { return s.d.PartOpacities() }

func (s *DynamicSnapshot) DrawableDynamicFlags() []cubism.DynamicDrawableFlags {
	return s.d.DrawableDynamicFlags()
}

func (s *DynamicSnapshot) DrawableDrawOrders() []int32   { return s.d.DrawableDrawOrders() }
func (s *DynamicSnapshot) DrawableRenderOrders() []int32 { return s.d.DrawableRenderOrders() }
func (s *DynamicSnapshot) DrawableOpacities() []float32  { return s.d.DrawableOpacities() }

func (s *DynamicSnapshot) DrawableVertexPositions() [][]cubism.Vector2 {
	return s.d.DrawableVertexPositions()
}

func (s *DynamicSnapshot) DrawableMultiplyColors() []cubism.Vector4 {
	return s.d.DrawableMultiplyColors()
}

func (s *DynamicSnapshot) DrawableScreenColors() []cubism.Vector4 {
	return s.d.DrawableScreenColors()
}

// DynamicState is the exclusive-lock surface. Input slices
// (ParameterValues, PartOpacities, DrawableDynamicFlags) may be written
// before calling Update.
type DynamicState struct {
	DynamicSnapshot
}

// Update evaluates the model in place. Vertex-position slices fetched before
// this call are stale afterwards; re-fetch them.
func (s *DynamicState) Update() {
	s.d.Update()
}

// ResetDrawableDynamicFlags restores the per-drawable flag sets to the
// engine's initial all-changed pattern.
func (s *DynamicState) ResetDrawableDynamicFlags() {
	s.d.ResetDrawableDynamicFlags()
}
