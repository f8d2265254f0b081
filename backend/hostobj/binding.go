package hostobj

import (
	"github.com/wippyai/cubism-runtime/errors"
)

// binding holds the engine entry points, resolved from the namespace exactly
// once at construction.
type binding struct {
	getVersion          func() uint32
	getLatestMocVersion func() uint32
	getMocVersion       func(moc []byte) uint32
	mocFromBytes        func(data []byte) any
	modelFromMoc        func(moc any) any
}

func bind(ns any) (*binding, error) {
	var b binding
	var err error

	if b.getVersion, err = resolve[func() uint32](ns, "Version", "csmGetVersion"); err != nil {
		return nil, err
	}
	if b.getLatestMocVersion, err = resolve[func() uint32](ns, "Version", "csmGetLatestMocVersion"); err != nil {
		return nil, err
	}
	if b.getMocVersion, err = resolve[func([]byte) uint32](ns, "Version", "csmGetMocVersion"); err != nil {
		return nil, err
	}
	if b.mocFromBytes, err = resolve[func([]byte) any](ns, "Moc", "fromBytes"); err != nil {
		return nil, err
	}
	if b.modelFromMoc, err = resolve[func(any) any](ns, "Model", "fromMoc"); err != nil {
		return nil, err
	}
	return &b, nil
}

// modelBinding holds one model instance's members. Binding happens once per
// derivation; the live arrays and funcs stay valid until release, except the
// per-drawable vertex-position arrays, which are re-fetched after updates.
type modelBinding struct {
	handle    any
	drawables any

	update  func()
	reset   func()
	release func()

	paramValues    Float32Array
	partOpacities  Float32Array
	dynamicFlags   Uint8Array
	drawOrders     Int32Array
	renderOrders   Int32Array
	opacities      Float32Array
	multiplyColors Float32Array
	screenColors   Float32Array
}

func bindModel(handle any) (*modelBinding, error) {
	b := modelBinding{handle: handle}
	var err error

	if b.update, err = resolve[func()](handle, "update"); err != nil {
		return nil, err
	}
	if b.release, err = resolve[func()](handle, "release"); err != nil {
		return nil, err
	}
	if b.paramValues, err = resolve[Float32Array](handle, "parameters", "values"); err != nil {
		return nil, err
	}
	if b.partOpacities, err = resolve[Float32Array](handle, "parts", "opacities"); err != nil {
		return nil, err
	}

	if b.drawables, err = member(handle, "drawables"); err != nil {
		return nil, err
	}
	if b.reset, err = resolve[func()](b.drawables, "resetDynamicFlags"); err != nil {
		return nil, err
	}
	if b.dynamicFlags, err = resolve[Uint8Array](b.drawables, "dynamicFlags"); err != nil {
		return nil, err
	}
	if b.drawOrders, err = resolve[Int32Array](b.drawables, "drawOrders"); err != nil {
		return nil, err
	}
	if b.renderOrders, err = resolve[Int32Array](b.drawables, "renderOrders"); err != nil {
		return nil, err
	}
	if b.opacities, err = resolve[Float32Array](b.drawables, "opacities"); err != nil {
		return nil, err
	}
	if b.multiplyColors, err = resolve[Float32Array](b.drawables, "multiplyColors"); err != nil {
		return nil, err
	}
	if b.screenColors, err = resolve[Float32Array](b.drawables, "screenColors"); err != nil {
		return nil, err
	}

	// Probe the vertex arrays so a missing member fails the bind instead of
	// the first update.
	if _, err = resolve[[]Float32Array](b.drawables, "vertexPositions"); err != nil {
		return nil, err
	}
	return &b, nil
}

// vertexPositions re-fetches the per-drawable position arrays. The host may
// replace them during update, so they are never cached.
func (b *modelBinding) vertexPositions() []Float32Array {
	return mustResolve[[]Float32Array](b.drawables, "vertexPositions")
}

// checkLength verifies a live array matches the element count the static
// data implies.
func checkLength(path []string, got, want int) {
	if got != want {
		panic(errors.New(errors.PhaseHost, errors.KindHostContract).
			Path(path...).
			Detail("array length %d, want %d", got, want).
			Build())
	}
}
