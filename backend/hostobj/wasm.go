package hostobj

import (
	"context"
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/cubism-runtime/errors"
)

// WasmCore hosts a wasm-compiled animation core and exposes its export
// surface as a namespace the backend binds to. The synthesis mirrors what
// the core's browser shim does: raw csm* exports become an object graph of
// typed members.
type WasmCore struct {
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module
	fn      wasmFuncs

	// aligned allocations remember the raw pointer for free.
	rawPtr map[uint32]uint32
}

type wasmFuncs struct {
	getVersion          api.Function
	getLatestMocVersion api.Function
	getMocVersion       api.Function

	reviveMocInPlace       api.Function
	getSizeofModel         api.Function
	initializeModelInPlace api.Function
	updateModel            api.Function
	resetDynamicFlags      api.Function
	readCanvasInfo         api.Function

	malloc api.Function
	free   api.Function

	parameterCount         api.Function
	parameterIds           api.Function
	parameterTypes         api.Function
	parameterMinimumValues api.Function
	parameterMaximumValues api.Function
	parameterDefaultValues api.Function
	parameterValues        api.Function
	parameterKeyCounts     api.Function
	parameterKeyValues     api.Function

	partCount             api.Function
	partIds               api.Function
	partParentPartIndices api.Function
	partOpacities         api.Function

	drawableCount             api.Function
	drawableIds               api.Function
	drawableConstantFlags     api.Function
	drawableDynamicFlags      api.Function
	drawableTextureIndices    api.Function
	drawableDrawOrders        api.Function
	drawableRenderOrders      api.Function
	drawableOpacities         api.Function
	drawableMaskCounts        api.Function
	drawableMasks             api.Function
	drawableVertexCounts      api.Function
	drawableVertexUvs         api.Function
	drawableVertexPositions   api.Function
	drawableIndexCounts       api.Function
	drawableIndices           api.Function
	drawableParentPartIndices api.Function
	drawableMultiplyColors    api.Function
	drawableScreenColors      api.Function
}

// LoadWasmCore compiles and instantiates coreWasm and resolves every export
// the contract names. A missing export fails the load with a host-contract
// error; nothing is looked up lazily.
func LoadWasmCore(ctx context.Context, coreWasm []byte) (*WasmCore, error) {
	r := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	module, err := r.InstantiateWithConfig(ctx, coreWasm,
		wazero.NewModuleConfig().WithName("cubismcore"))
	if err != nil {
		r.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHost, errors.KindHostContract, err, "core instantiation failed")
	}

	c := &WasmCore{
		ctx:     ctx,
		runtime: r,
		module:  module,
		rawPtr:  make(map[uint32]uint32),
	}
	for _, e := range []struct {
		dst  *api.Function
		name string
	}{
		{&c.fn.getVersion, "csmGetVersion"},
		{&c.fn.getLatestMocVersion, "csmGetLatestMocVersion"},
		{&c.fn.getMocVersion, "csmGetMocVersion"},
		{&c.fn.reviveMocInPlace, "csmReviveMocInPlace"},
		{&c.fn.getSizeofModel, "csmGetSizeofModel"},
		{&c.fn.initializeModelInPlace, "csmInitializeModelInPlace"},
		{&c.fn.updateModel, "csmUpdateModel"},
		{&c.fn.resetDynamicFlags, "csmResetDrawableDynamicFlags"},
		{&c.fn.readCanvasInfo, "csmReadCanvasInfo"},
		{&c.fn.malloc, "malloc"},
		{&c.fn.free, "free"},
		{&c.fn.parameterCount, "csmGetParameterCount"},
		{&c.fn.parameterIds, "csmGetParameterIds"},
		{&c.fn.parameterTypes, "csmGetParameterTypes"},
		{&c.fn.parameterMinimumValues, "csmGetParameterMinimumValues"},
		{&c.fn.parameterMaximumValues, "csmGetParameterMaximumValues"},
		{&c.fn.parameterDefaultValues, "csmGetParameterDefaultValues"},
		{&c.fn.parameterValues, "csmGetParameterValues"},
		{&c.fn.parameterKeyCounts, "csmGetParameterKeyCounts"},
		{&c.fn.parameterKeyValues, "csmGetParameterKeyValues"},
		{&c.fn.partCount, "csmGetPartCount"},
		{&c.fn.partIds, "csmGetPartIds"},
		{&c.fn.partParentPartIndices, "csmGetPartParentPartIndices"},
		{&c.fn.partOpacities, "csmGetPartOpacities"},
		{&c.fn.drawableCount, "csmGetDrawableCount"},
		{&c.fn.drawableIds, "csmGetDrawableIds"},
		{&c.fn.drawableConstantFlags, "csmGetDrawableConstantFlags"},
		{&c.fn.drawableDynamicFlags, "csmGetDrawableDynamicFlags"},
		{&c.fn.drawableTextureIndices, "csmGetDrawableTextureIndices"},
		{&c.fn.drawableDrawOrders, "csmGetDrawableDrawOrders"},
		{&c.fn.drawableRenderOrders, "csmGetDrawableRenderOrders"},
		{&c.fn.drawableOpacities, "csmGetDrawableOpacities"},
		{&c.fn.drawableMaskCounts, "csmGetDrawableMaskCounts"},
		{&c.fn.drawableMasks, "csmGetDrawableMasks"},
		{&c.fn.drawableVertexCounts, "csmGetDrawableVertexCounts"},
		{&c.fn.drawableVertexUvs, "csmGetDrawableVertexUvs"},
		{&c.fn.drawableVertexPositions, "csmGetDrawableVertexPositions"},
		{&c.fn.drawableIndexCounts, "csmGetDrawableIndexCounts"},
		{&c.fn.drawableIndices, "csmGetDrawableIndices"},
		{&c.fn.drawableParentPartIndices, "csmGetDrawableParentPartIndices"},
		{&c.fn.drawableMultiplyColors, "csmGetDrawableMultiplyColors"},
		{&c.fn.drawableScreenColors, "csmGetDrawableScreenColors"},
	} {
		fn := module.ExportedFunction(e.name)
		if fn == nil {
			r.Close(ctx)
			return nil, errors.HostContract([]string{e.name}, "export not found")
		}
		*e.dst = fn
	}
	return c, nil
}

// Close tears down the wasm runtime and everything allocated inside it.
func (c *WasmCore) Close(ctx context.Context) error {
	return c.runtime.Close(ctx)
}

// Namespace returns the host object graph for New.
func (c *WasmCore) Namespace() map[string]any {
	return map[string]any{
		"Version": map[string]any{
			"csmGetVersion":          func() uint32 { return uint32(c.call(c.fn.getVersion)) },
			"csmGetLatestMocVersion": func() uint32 { return uint32(c.call(c.fn.getLatestMocVersion)) },
			"csmGetMocVersion": func(moc []byte) uint32 {
				ptr := c.allocAligned(uint32(len(moc)), 64)
				defer c.freeAligned(ptr)
				c.write(ptr, moc)
				return uint32(c.call(c.fn.getMocVersion, uint64(ptr), uint64(len(moc))))
			},
		},
		"Moc": map[string]any{
			"fromBytes": func(data []byte) any { return c.mocFromBytes(data) },
		},
		"Model": map[string]any{
			"fromMoc": func(moc any) any { return c.modelFromMoc(moc) },
		},
	}
}

// mocAlloc refcounts the guest block backing a revived moc. The handle holds
// the initial reference; every model derived from the moc takes another, so
// releasing the moc while models live cannot dangle their engine pointers.
type mocAlloc struct {
	c    *WasmCore
	ptr  uint32
	refs atomic.Int32
}

func (a *mocAlloc) retain() { a.refs.Add(1) }

func (a *mocAlloc) release() {
	if a.refs.Add(-1) == 0 {
		a.c.freeAligned(a.ptr)
	}
}

func (c *WasmCore) mocFromBytes(data []byte) any {
	ptr := c.allocAligned(uint32(len(data)), 64)
	c.write(ptr, data)
	mocPtr := uint32(c.call(c.fn.reviveMocInPlace, uint64(ptr), uint64(len(data))))
	if mocPtr == 0 {
		c.freeAligned(ptr)
		return nil
	}
	alloc := &mocAlloc{c: c, ptr: ptr}
	alloc.refs.Store(1)
	return map[string]any{
		"_ptr":    mocPtr,
		"_alloc":  alloc,
		"release": alloc.release,
	}
}

func (c *WasmCore) modelFromMoc(moc any) any {
	graph, ok := moc.(map[string]any)
	if !ok {
		return nil
	}
	mocPtr, ok := graph["_ptr"].(uint32)
	if !ok {
		return nil
	}
	alloc, ok := graph["_alloc"].(*mocAlloc)
	if !ok {
		return nil
	}

	size := uint32(c.call(c.fn.getSizeofModel, uint64(mocPtr)))
	if size == 0 {
		return nil
	}
	storage := c.allocAligned(size, 16)
	modelPtr := uint32(c.call(c.fn.initializeModelInPlace, uint64(mocPtr), uint64(storage), uint64(size)))
	if modelPtr == 0 {
		c.freeAligned(storage)
		return nil
	}
	alloc.retain()
	return c.modelGraph(modelPtr, storage, alloc)
}

func (c *WasmCore) modelGraph(model, storage uint32, mocRef *mocAlloc) map[string]any {
	paramCount := int(c.call(c.fn.parameterCount, uint64(model)))
	partCount := int(c.call(c.fn.partCount, uint64(model)))
	drawCount := int(c.call(c.fn.drawableCount, uint64(model)))

	keyCounts := c.readI32s(c.ptrOf(c.fn.parameterKeyCounts, model), paramCount)
	keyValuePtrs := c.readU32s(c.ptrOf(c.fn.parameterKeyValues, model), paramCount)
	keyValues := make([][]float32, paramCount)
	for i := range keyValues {
		keyValues[i] = c.readF32s(keyValuePtrs[i], int(keyCounts[i]))
	}

	maskCounts := c.readI32s(c.ptrOf(c.fn.drawableMaskCounts, model), drawCount)
	maskPtrs := c.readU32s(c.ptrOf(c.fn.drawableMasks, model), drawCount)
	masks := make([][]int32, drawCount)
	for i := range masks {
		masks[i] = c.readI32s(maskPtrs[i], int(maskCounts[i]))
	}

	vertexCounts := c.readI32s(c.ptrOf(c.fn.drawableVertexCounts, model), drawCount)
	uvPtrs := c.readU32s(c.ptrOf(c.fn.drawableVertexUvs, model), drawCount)
	uvs := make([][]float32, drawCount)
	for i := range uvs {
		uvs[i] = c.readF32s(uvPtrs[i], 2*int(vertexCounts[i]))
	}

	indexCounts := c.readI32s(c.ptrOf(c.fn.drawableIndexCounts, model), drawCount)
	indexPtrs := c.readU32s(c.ptrOf(c.fn.drawableIndices, model), drawCount)
	indices := make([][]uint16, drawCount)
	for i := range indices {
		indices[i] = c.readU16s(indexPtrs[i], int(indexCounts[i]))
	}

	// csmReadCanvasInfo writes two vectors and a scalar through out
	// pointers.
	canvasScratch := c.allocAligned(20, 4)
	c.call(c.fn.readCanvasInfo, uint64(model),
		uint64(canvasScratch), uint64(canvasScratch+8), uint64(canvasScratch+16))
	canvas := c.readF32s(canvasScratch, 5)
	c.freeAligned(canvasScratch)

	vertexArrays := make([]Float32Array, drawCount)
	for i := range vertexArrays {
		vertexArrays[i] = wasmF32Array{c: c, count: 2 * int(vertexCounts[i]), ptr: func() uint32 {
			return c.readU32s(c.ptrOf(c.fn.drawableVertexPositions, model), drawCount)[i]
		}}
	}

	fixed := func(fn api.Function) func() uint32 {
		ptr := c.ptrOf(fn, model)
		return func() uint32 { return ptr }
	}

	return map[string]any{
		"canvasinfo": map[string]any{
			"CanvasWidth":   canvas[0],
			"CanvasHeight":  canvas[1],
			"CanvasOriginX": canvas[2],
			"CanvasOriginY": canvas[3],
			"PixelsPerUnit": canvas[4],
		},
		"parameters": map[string]any{
			"count":         paramCount,
			"ids":           c.readCStrings(c.ptrOf(c.fn.parameterIds, model), paramCount),
			"types":         c.readI32s(c.ptrOf(c.fn.parameterTypes, model), paramCount),
			"minimumValues": c.readF32s(c.ptrOf(c.fn.parameterMinimumValues, model), paramCount),
			"maximumValues": c.readF32s(c.ptrOf(c.fn.parameterMaximumValues, model), paramCount),
			"defaultValues": c.readF32s(c.ptrOf(c.fn.parameterDefaultValues, model), paramCount),
			"keyValues":     keyValues,
			"values":        wasmF32Array{c: c, count: paramCount, ptr: fixed(c.fn.parameterValues)},
		},
		"parts": map[string]any{
			"count":         partCount,
			"ids":           c.readCStrings(c.ptrOf(c.fn.partIds, model), partCount),
			"parentIndices": c.readI32s(c.ptrOf(c.fn.partParentPartIndices, model), partCount),
			"opacities":     wasmF32Array{c: c, count: partCount, ptr: fixed(c.fn.partOpacities)},
		},
		"drawables": map[string]any{
			"count":             drawCount,
			"ids":               c.readCStrings(c.ptrOf(c.fn.drawableIds, model), drawCount),
			"constantFlags":     c.readU8s(c.ptrOf(c.fn.drawableConstantFlags, model), drawCount),
			"textureIndices":    c.readI32s(c.ptrOf(c.fn.drawableTextureIndices, model), drawCount),
			"masks":             masks,
			"vertexUvs":         uvs,
			"indices":           indices,
			"parentPartIndices": c.readI32s(c.ptrOf(c.fn.drawableParentPartIndices, model), drawCount),

			"dynamicFlags":      wasmU8Array{c: c, count: drawCount, ptr: fixed(c.fn.drawableDynamicFlags)},
			"drawOrders":        wasmI32Array{c: c, count: drawCount, ptr: fixed(c.fn.drawableDrawOrders)},
			"renderOrders":      wasmI32Array{c: c, count: drawCount, ptr: fixed(c.fn.drawableRenderOrders)},
			"opacities":         wasmF32Array{c: c, count: drawCount, ptr: fixed(c.fn.drawableOpacities)},
			"multiplyColors":    wasmF32Array{c: c, count: 4 * drawCount, ptr: fixed(c.fn.drawableMultiplyColors)},
			"screenColors":      wasmF32Array{c: c, count: 4 * drawCount, ptr: fixed(c.fn.drawableScreenColors)},
			"vertexPositions":   vertexArrays,
			"resetDynamicFlags": func() { c.call(c.fn.resetDynamicFlags, uint64(model)) },
		},
		"update": func() { c.call(c.fn.updateModel, uint64(model)) },
		"release": func() {
			c.freeAligned(storage)
			mocRef.release()
		},
	}
}

// call invokes a core export. A trap or host failure after a successful bind
// is a contract violation and panics.
func (c *WasmCore) call(fn api.Function, params ...uint64) uint64 {
	res, err := fn.Call(c.ctx, params...)
	if err != nil {
		panic(errors.Wrap(errors.PhaseHost, errors.KindHostContract, err, "core call failed"))
	}
	if len(res) == 0 {
		return 0
	}
	return res[0]
}

// ptrOf calls a per-model accessor returning a pointer into core memory.
func (c *WasmCore) ptrOf(fn api.Function, model uint32) uint32 {
	return uint32(c.call(fn, uint64(model)))
}

func (c *WasmCore) allocAligned(size, align uint32) uint32 {
	raw := uint32(c.call(c.fn.malloc, uint64(size+align)))
	if raw == 0 {
		panic(errors.AllocationFailed(int(size), int(align)))
	}
	aligned := (raw + align - 1) &^ (align - 1)
	c.rawPtr[aligned] = raw
	return aligned
}

func (c *WasmCore) freeAligned(aligned uint32) {
	if raw, ok := c.rawPtr[aligned]; ok {
		delete(c.rawPtr, aligned)
		c.call(c.fn.free, uint64(raw))
	}
}

func (c *WasmCore) write(ptr uint32, data []byte) {
	if !c.module.Memory().Write(ptr, data) {
		panic(errors.OutOfBounds(errors.PhaseHost, nil, int(ptr)+len(data), int(c.module.Memory().Size())))
	}
}

func (c *WasmCore) read(ptr, size uint32) []byte {
	b, ok := c.module.Memory().Read(ptr, size)
	if !ok {
		panic(errors.OutOfBounds(errors.PhaseHost, nil, int(ptr+size), int(c.module.Memory().Size())))
	}
	return b
}

func (c *WasmCore) readU32s(ptr uint32, count int) []uint32 {
	b := c.read(ptr, uint32(4*count))
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out
}

func (c *WasmCore) readI32s(ptr uint32, count int) []int32 {
	u := c.readU32s(ptr, count)
	out := make([]int32, count)
	for i, v := range u {
		out[i] = int32(v)
	}
	return out
}

func (c *WasmCore) readF32s(ptr uint32, count int) []float32 {
	u := c.readU32s(ptr, count)
	out := make([]float32, count)
	for i, v := range u {
		out[i] = math.Float32frombits(v)
	}
	return out
}

func (c *WasmCore) readU16s(ptr uint32, count int) []uint16 {
	b := c.read(ptr, uint32(2*count))
	out := make([]uint16, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return out
}

func (c *WasmCore) readU8s(ptr uint32, count int) []uint8 {
	return append([]uint8(nil), c.read(ptr, uint32(count))...)
}

// readCStrings reads an array of pointers to NUL-terminated strings.
func (c *WasmCore) readCStrings(ptr uint32, count int) []string {
	ptrs := c.readU32s(ptr, count)
	out := make([]string, count)
	for i, p := range ptrs {
		var buf []byte
		for {
			ch := c.read(p, 1)[0]
			if ch == 0 {
				break
			}
			buf = append(buf, ch)
			p++
		}
		out[i] = string(buf)
	}
	return out
}

// wasm-backed typed arrays bulk-copy through core memory. ptr is re-queried
// on every access because the core may relocate buffers across updates.

type wasmF32Array struct {
	c     *WasmCore
	count int
	ptr   func() uint32
}

func (a wasmF32Array) Length() int { return a.count }

func (a wasmF32Array) Load(dst []float32) {
	copy(dst, a.c.readF32s(a.ptr(), a.count))
}

func (a wasmF32Array) Store(src []float32) {
	n := min(len(src), a.count)
	b := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(src[i]))
	}
	a.c.write(a.ptr(), b)
}

type wasmI32Array struct {
	c     *WasmCore
	count int
	ptr   func() uint32
}

func (a wasmI32Array) Length() int { return a.count }

func (a wasmI32Array) Load(dst []int32) {
	copy(dst, a.c.readI32s(a.ptr(), a.count))
}

func (a wasmI32Array) Store(src []int32) {
	n := min(len(src), a.count)
	b := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(src[i]))
	}
	a.c.write(a.ptr(), b)
}

type wasmU8Array struct {
	c     *WasmCore
	count int
	ptr   func() uint32
}

func (a wasmU8Array) Length() int { return a.count }

func (a wasmU8Array) Load(dst []uint8) {
	copy(dst, a.c.read(a.ptr(), uint32(min(len(dst), a.count))))
}

func (a wasmU8Array) Store(src []uint8) {
	a.c.write(a.ptr(), src[:min(len(src), a.count)])
}
