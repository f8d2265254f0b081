package direct

import (
	"go.uber.org/zap"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/abi"
	"github.com/wippyai/cubism-runtime/memory"
)

// Dynamic exposes the mutable half of a model as typed views aliasing the
// instance's storage block. It is not safe for concurrent use; callers
// serialize access, typically through the runtime package.
type Dynamic struct {
	log     *zap.Logger
	core    abi.Model
	storage *memory.AlignedBlock
	mocRef  *memory.AlignedBlock

	paramValues     []float32
	partOpacities   []float32
	dynFlags        []cubism.DynamicDrawableFlags
	drawOrders      []int32
	renderOrders    []int32
	opacities       []float32
	multiplyColors  []cubism.Vector4
	screenColors    []cubism.Vector4
	vertexPositions [][]cubism.Vector2

	closed bool
}

// deriveViews builds every dynamic view from the spans the core reports.
// Every span the core hands out is validated against the block before a view
// is built; a failure means the core and wrapper disagree about the layout.
func (d *Dynamic) deriveViews() error {
	var err error

	view := func(dst *[]float32, s abi.Span) {
		if err == nil {
			*dst, err = memory.View[float32](d.storage, s.Offset, s.Count)
		}
	}
	view(&d.paramValues, d.core.ParameterValuesSpan())
	view(&d.partOpacities, d.core.PartOpacitiesSpan())
	view(&d.opacities, d.core.DrawableOpacitiesSpan())
	if err == nil {
		s := d.core.DrawableDynamicFlagsSpan()
		d.dynFlags, err = memory.View[cubism.DynamicDrawableFlags](d.storage, s.Offset, s.Count)
	}
	if err == nil {
		s := d.core.DrawableDrawOrdersSpan()
		d.drawOrders, err = memory.View[int32](d.storage, s.Offset, s.Count)
	}
	if err == nil {
		s := d.core.DrawableRenderOrdersSpan()
		d.renderOrders, err = memory.View[int32](d.storage, s.Offset, s.Count)
	}
	if err == nil {
		// Color spans count float32 elements, four per drawable.
		s := d.core.DrawableMultiplyColorsSpan()
		d.multiplyColors, err = memory.View[cubism.Vector4](d.storage, s.Offset, s.Count/4)
	}
	if err == nil {
		s := d.core.DrawableScreenColorsSpan()
		d.screenColors, err = memory.View[cubism.Vector4](d.storage, s.Offset, s.Count/4)
	}
	if err != nil {
		return err
	}
	return d.deriveVertexViews()
}

// deriveVertexViews rebuilds the vertex-position views from freshly queried
// spans. The core may relocate these buffers during Update, so this runs at
// derivation and again after every update.
func (d *Dynamic) deriveVertexViews() error {
	spans := d.core.DrawableVertexPositionSpans()
	views := make([][]cubism.Vector2, len(spans))
	for i, s := range spans {
		v, err := memory.View[cubism.Vector2](d.storage, s.Offset, s.Count/2)
		if err != nil {
			return err
		}
		views[i] = v
	}
	d.vertexPositions = views
	return nil
}

func (d *Dynamic) ParameterValues() []float32 { return d.paramValues }
func (d *Dynamic) PartOpacities() []float32   { return d.partOpacities }

func (d *Dynamic) DrawableDynamicFlags() []cubism.DynamicDrawableFlags {
	return d.dynFlags
}

func (d *Dynamic) DrawableDrawOrders() []int32   { return d.drawOrders }
func (d *Dynamic) DrawableRenderOrders() []int32 { return d.renderOrders }
func (d *Dynamic) DrawableOpacities() []float32  { return d.opacities }

func (d *Dynamic) DrawableVertexPositions() [][]cubism.Vector2 {
	return d.vertexPositions
}

func (d *Dynamic) DrawableMultiplyColors() []cubism.Vector4 { return d.multiplyColors }
func (d *Dynamic) DrawableScreenColors() []cubism.Vector4   { return d.screenColors }

// Update evaluates the model in place and re-derives the vertex-position
// views. A view failure after evaluation means the core reported spans
// outside its own storage block; that is unrecoverable and panics.
func (d *Dynamic) Update() {
	d.core.Update()
	if err := d.deriveVertexViews(); err != nil {
		d.log.Error("vertex span re-derivation failed", zap.Error(err))
		panic(err)
	}
}

// ResetDrawableDynamicFlags restores the flag arrays to the initial
// all-changed pattern. The flags view stays valid; its span is stable.
func (d *Dynamic) ResetDrawableDynamicFlags() {
	d.core.ResetDrawableDynamicFlags()
}

// Close releases the instance's storage block and its reference on the moc
// storage. Further calls are no-ops.
func (d *Dynamic) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.storage.Release()
	d.mocRef.Release()
	return nil
}
