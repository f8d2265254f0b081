package hostobj

import (
	"sync"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/errors"
)

// Static holds the immutable half of a model, copied out of the host graph
// at derivation. Sharing it requires no locking.
type Static struct {
	canvas     cubism.CanvasInfo
	parameters []cubism.Parameter
	parts      []cubism.Part
	drawables  []cubism.Drawable
}

func (s *Static) CanvasInfo() cubism.CanvasInfo  { return s.canvas }
func (s *Static) Parameters() []cubism.Parameter { return s.parameters }
func (s *Static) Parts() []cubism.Part           { return s.parts }
func (s *Static) Drawables() []cubism.Drawable   { return s.drawables }

// sized resolves a static slice member and checks it against the declared
// element count.
func sized[T any](root any, count int, path ...string) ([]T, error) {
	s, err := resolve[[]T](root, path...)
	if err != nil {
		return nil, err
	}
	if len(s) != count {
		return nil, errors.HostContract(path,
			"member length mismatch against declared count")
	}
	return s, nil
}

func buildStatic(handle any) (*Static, error) {
	s := &Static{}

	for _, f := range []struct {
		dst  *float32
		name string
	}{
		{&s.canvas.SizeInPixels.X, "CanvasWidth"},
		{&s.canvas.SizeInPixels.Y, "CanvasHeight"},
		{&s.canvas.OriginInPixels.X, "CanvasOriginX"},
		{&s.canvas.OriginInPixels.Y, "CanvasOriginY"},
		{&s.canvas.PixelsPerUnit, "PixelsPerUnit"},
	} {
		v, err := resolve[float32](handle, "canvasinfo", f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	params, err := member(handle, "parameters")
	if err != nil {
		return nil, err
	}
	paramCount, err := resolve[int](params, "count")
	if err != nil {
		return nil, err
	}
	ids, err := sized[string](params, paramCount, "ids")
	if err != nil {
		return nil, err
	}
	types, err := sized[int32](params, paramCount, "types")
	if err != nil {
		return nil, err
	}
	mins, err := sized[float32](params, paramCount, "minimumValues")
	if err != nil {
		return nil, err
	}
	maxs, err := sized[float32](params, paramCount, "maximumValues")
	if err != nil {
		return nil, err
	}
	defaults, err := sized[float32](params, paramCount, "defaultValues")
	if err != nil {
		return nil, err
	}
	keyValues, err := sized[[]float32](params, paramCount, "keyValues")
	if err != nil {
		return nil, err
	}
	s.parameters = make([]cubism.Parameter, paramCount)
	for i := range s.parameters {
		s.parameters[i] = cubism.Parameter{
			ID:           ids[i],
			Type:         cubism.ParameterType(types[i]),
			MinimumValue: mins[i],
			MaximumValue: maxs[i],
			DefaultValue: defaults[i],
			Keys:         append([]float32(nil), keyValues[i]...),
		}
	}

	parts, err := member(handle, "parts")
	if err != nil {
		return nil, err
	}
	partCount, err := resolve[int](parts, "count")
	if err != nil {
		return nil, err
	}
	partIDs, err := sized[string](parts, partCount, "ids")
	if err != nil {
		return nil, err
	}
	partParents, err := sized[int32](parts, partCount, "parentIndices")
	if err != nil {
		return nil, err
	}
	s.parts = make([]cubism.Part, partCount)
	for i := range s.parts {
		idx, ok := cubism.ParentIndex(partParents[i])
		s.parts[i] = cubism.Part{
			ID:              partIDs[i],
			ParentPartIndex: idx,
			HasParent:       ok,
		}
	}

	drawables, err := member(handle, "drawables")
	if err != nil {
		return nil, err
	}
	drawCount, err := resolve[int](drawables, "count")
	if err != nil {
		return nil, err
	}
	drawIDs, err := sized[string](drawables, drawCount, "ids")
	if err != nil {
		return nil, err
	}
	constFlags, err := sized[uint8](drawables, drawCount, "constantFlags")
	if err != nil {
		return nil, err
	}
	textures, err := sized[int32](drawables, drawCount, "textureIndices")
	if err != nil {
		return nil, err
	}
	masks, err := sized[[]int32](drawables, drawCount, "masks")
	if err != nil {
		return nil, err
	}
	uvs, err := sized[[]float32](drawables, drawCount, "vertexUvs")
	if err != nil {
		return nil, err
	}
	indices, err := sized[[]uint16](drawables, drawCount, "indices")
	if err != nil {
		return nil, err
	}
	drawParents, err := sized[int32](drawables, drawCount, "parentPartIndices")
	if err != nil {
		return nil, err
	}
	s.drawables = make([]cubism.Drawable, drawCount)
	for i := range s.drawables {
		idx, ok := cubism.ParentIndex(drawParents[i])

		maskCopy := make([]int, len(masks[i]))
		for j, v := range masks[i] {
			maskCopy[j] = int(v)
		}
		uvCopy := make([]cubism.Vector2, len(uvs[i])/2)
		for j := range uvCopy {
			uvCopy[j] = cubism.Vector2{X: uvs[i][2*j], Y: uvs[i][2*j+1]}
		}

		s.drawables[i] = cubism.Drawable{
			ID:              drawIDs[i],
			ConstantFlags:   cubism.ConstantDrawableFlags(constFlags[i]),
			TextureIndex:    int(textures[i]),
			Masks:           maskCopy,
			VertexUVs:       uvCopy,
			TriangleIndices: append([]uint16(nil), indices[i]...),
			ParentPartIndex: idx,
			HasParent:       ok,
		}
	}

	return s, nil
}

// Dynamic exposes the mutable half of a model through instance-owned scratch
// buffers. Update stores the input buffers into the host, evaluates, and
// loads every output buffer back. It is not safe for concurrent use; callers
// serialize access, typically through the runtime package.
type Dynamic struct {
	b      *modelBinding
	static *Static

	params    []float32
	partOps   []float32
	flags     []cubism.DynamicDrawableFlags
	flagBytes []uint8

	drawOrders      []int32
	renderOrders    []int32
	opacities       []float32
	multiply        []cubism.Vector4
	screen          []cubism.Vector4
	vertexPositions [][]cubism.Vector2

	colorStaging  []float32
	vertexStaging []float32

	closeOnce sync.Once
}

func newDynamic(b *modelBinding, static *Static) (*Dynamic, error) {
	p := len(static.parameters)
	t := len(static.parts)
	n := len(static.drawables)

	for _, c := range []struct {
		got  int
		want int
		name string
	}{
		{b.paramValues.Length(), p, "parameters.values"},
		{b.partOpacities.Length(), t, "parts.opacities"},
		{b.dynamicFlags.Length(), n, "drawables.dynamicFlags"},
		{b.drawOrders.Length(), n, "drawables.drawOrders"},
		{b.renderOrders.Length(), n, "drawables.renderOrders"},
		{b.opacities.Length(), n, "drawables.opacities"},
		{b.multiplyColors.Length(), 4 * n, "drawables.multiplyColors"},
		{b.screenColors.Length(), 4 * n, "drawables.screenColors"},
	} {
		if c.got != c.want {
			return nil, errors.HostContract([]string{c.name},
				"array length mismatch against static data")
		}
	}

	maxVerts := 0
	d := &Dynamic{
		b:      b,
		static: static,

		params:    make([]float32, p),
		partOps:   make([]float32, t),
		flags:     make([]cubism.DynamicDrawableFlags, n),
		flagBytes: make([]uint8, n),

		drawOrders:      make([]int32, n),
		renderOrders:    make([]int32, n),
		opacities:       make([]float32, n),
		multiply:        make([]cubism.Vector4, n),
		screen:          make([]cubism.Vector4, n),
		vertexPositions: make([][]cubism.Vector2, n),

		colorStaging: make([]float32, 4*n),
	}
	for i, dr := range static.drawables {
		d.vertexPositions[i] = make([]cubism.Vector2, len(dr.VertexUVs))
		if len(dr.VertexUVs) > maxVerts {
			maxVerts = len(dr.VertexUVs)
		}
	}
	d.vertexStaging = make([]float32, 2*maxVerts)

	// Prime the scratch buffers with the host's initial state so the inputs
	// start at the engine defaults.
	b.paramValues.Load(d.params)
	b.partOpacities.Load(d.partOps)
	d.loadOutputs()
	return d, nil
}

func (d *Dynamic) loadFlags() {
	d.b.dynamicFlags.Load(d.flagBytes)
	for i, v := range d.flagBytes {
		d.flags[i] = cubism.DynamicDrawableFlags(v)
	}
}

func loadColors(arr Float32Array, staging []float32, dst []cubism.Vector4) {
	arr.Load(staging)
	for i := range dst {
		dst[i] = cubism.Vector4{
			X: staging[4*i],
			Y: staging[4*i+1],
			Z: staging[4*i+2],
			W: staging[4*i+3],
		}
	}
}

func (d *Dynamic) loadVertices() {
	arrays := d.b.vertexPositions()
	checkLength([]string{"drawables", "vertexPositions"}, len(arrays), len(d.vertexPositions))
	for i, arr := range arrays {
		dst := d.vertexPositions[i]
		checkLength([]string{"drawables", "vertexPositions"}, arr.Length(), 2*len(dst))
		staging := d.vertexStaging[:2*len(dst)]
		arr.Load(staging)
		for j := range dst {
			dst[j] = cubism.Vector2{X: staging[2*j], Y: staging[2*j+1]}
		}
	}
}

func (d *Dynamic) loadOutputs() {
	d.loadFlags()
	d.b.drawOrders.Load(d.drawOrders)
	d.b.renderOrders.Load(d.renderOrders)
	d.b.opacities.Load(d.opacities)
	loadColors(d.b.multiplyColors, d.colorStaging, d.multiply)
	loadColors(d.b.screenColors, d.colorStaging, d.screen)
	d.loadVertices()
}

func (d *Dynamic) ParameterValues() []float32 { return d.params }
func (d *Dynamic) PartOpacities() []float32   { return d.partOps }

func (d *Dynamic) DrawableDynamicFlags() []cubism.DynamicDrawableFlags {
	return d.flags
}

func (d *Dynamic) DrawableDrawOrders() []int32   { return d.drawOrders }
func (d *Dynamic) DrawableRenderOrders() []int32 { return d.renderOrders }
func (d *Dynamic) DrawableOpacities() []float32  { return d.opacities }

func (d *Dynamic) DrawableVertexPositions() [][]cubism.Vector2 {
	return d.vertexPositions
}

func (d *Dynamic) DrawableMultiplyColors() []cubism.Vector4 { return d.multiply }
func (d *Dynamic) DrawableScreenColors() []cubism.Vector4   { return d.screen }

// Update stores the input buffers into the host, evaluates the model, and
// loads every output buffer back, including freshly fetched vertex arrays.
func (d *Dynamic) Update() {
	d.b.paramValues.Store(d.params)
	d.b.partOpacities.Store(d.partOps)
	for i, f := range d.flags {
		d.flagBytes[i] = uint8(f)
	}
	d.b.dynamicFlags.Store(d.flagBytes)

	d.b.update()

	d.loadOutputs()
}

// ResetDrawableDynamicFlags resets the flags host-side and reloads them so
// the scratch buffer shows the all-changed pattern immediately.
func (d *Dynamic) ResetDrawableDynamicFlags() {
	d.b.reset()
	d.loadFlags()
}

// Close releases the host-side instance. Further calls are no-ops.
func (d *Dynamic) Close() error {
	d.closeOnce.Do(d.b.release)
	return nil
}
