package enginetest

// Fixture moc layout, all little-endian:
//
//	"MOC3" magic, u32 version,
//	canvas (5 f32),
//	u32 parameter count, then per parameter:
//	  string id, i32 type, f32 min/max/default, u32 key count, f32 keys
//	u32 part count, then per part: string id, i32 raw parent index
//	u32 drawable count, then per drawable:
//	  string id, u8 constant flags, i32 texture index,
//	  u32 mask count + i32 masks,
//	  u32 vertex count + f32 uv pairs,
//	  u32 index count + u16 indices,
//	  i32 raw parent index

var mocMagic = [4]byte{'M', 'O', 'C', '3'}

// EncodeMoc serializes desc as a fixture moc blob declaring the given
// format version.
func EncodeMoc(desc Desc, version uint32) []byte {
	var w writer
	w.buf.Write(mocMagic[:])
	w.U32(version)

	w.F32(desc.CanvasSize.X)
	w.F32(desc.CanvasSize.Y)
	w.F32(desc.CanvasOrigin.X)
	w.F32(desc.CanvasOrigin.Y)
	w.F32(desc.PixelsPerUnit)

	w.U32(uint32(len(desc.Parameters)))
	for _, p := range desc.Parameters {
		w.String(p.ID)
		w.I32(p.Type)
		w.F32(p.Minimum)
		w.F32(p.Maximum)
		w.F32(p.Default)
		w.U32(uint32(len(p.Keys)))
		for _, k := range p.Keys {
			w.F32(k)
		}
	}

	w.U32(uint32(len(desc.Parts)))
	for _, p := range desc.Parts {
		w.String(p.ID)
		w.I32(p.RawParentIndex)
	}

	w.U32(uint32(len(desc.Drawables)))
	for _, d := range desc.Drawables {
		w.String(d.ID)
		w.U8(d.ConstantFlags)
		w.I32(d.TextureIndex)
		w.U32(uint32(len(d.Masks)))
		for _, m := range d.Masks {
			w.I32(m)
		}
		w.U32(uint32(len(d.VertexUVs)))
		for _, uv := range d.VertexUVs {
			w.F32(uv.X)
			w.F32(uv.Y)
		}
		w.U32(uint32(len(d.Indices)))
		for _, ix := range d.Indices {
			w.U16(ix)
		}
		w.I32(d.RawParentIndex)
	}

	return w.Bytes()
}

func decodeMoc(data []byte) (Desc, error) {
	r := &reader{data: data}

	magic, err := r.take(4)
	if err != nil {
		return Desc{}, err
	}
	if [4]byte(magic) != mocMagic {
		return Desc{}, errBadMagic
	}
	if _, err := r.U32(); err != nil { // version, validated by the caller
		return Desc{}, err
	}

	var desc Desc
	for _, f := range []*float32{
		&desc.CanvasSize.X, &desc.CanvasSize.Y,
		&desc.CanvasOrigin.X, &desc.CanvasOrigin.Y,
		&desc.PixelsPerUnit,
	} {
		if *f, err = r.F32(); err != nil {
			return Desc{}, err
		}
	}

	paramCount, err := r.U32()
	if err != nil {
		return Desc{}, err
	}
	for i := uint32(0); i < paramCount; i++ {
		var p ParameterDesc
		if p.ID, err = r.String(); err != nil {
			return Desc{}, err
		}
		if p.Type, err = r.I32(); err != nil {
			return Desc{}, err
		}
		if p.Minimum, err = r.F32(); err != nil {
			return Desc{}, err
		}
		if p.Maximum, err = r.F32(); err != nil {
			return Desc{}, err
		}
		if p.Default, err = r.F32(); err != nil {
			return Desc{}, err
		}
		keyCount, err := r.U32()
		if err != nil {
			return Desc{}, err
		}
		for i := uint32(0); i < keyCount; i++ {
			k, err := r.F32()
			if err != nil {
				return Desc{}, err
			}
			p.Keys = append(p.Keys, k)
		}
		desc.Parameters = append(desc.Parameters, p)
	}

	partCount, err := r.U32()
	if err != nil {
		return Desc{}, err
	}
	for i := uint32(0); i < partCount; i++ {
		var p PartDesc
		if p.ID, err = r.String(); err != nil {
			return Desc{}, err
		}
		if p.RawParentIndex, err = r.I32(); err != nil {
			return Desc{}, err
		}
		desc.Parts = append(desc.Parts, p)
	}

	drawableCount, err := r.U32()
	if err != nil {
		return Desc{}, err
	}
	for i := uint32(0); i < drawableCount; i++ {
		var d DrawableDesc
		if d.ID, err = r.String(); err != nil {
			return Desc{}, err
		}
		if d.ConstantFlags, err = r.U8(); err != nil {
			return Desc{}, err
		}
		if d.TextureIndex, err = r.I32(); err != nil {
			return Desc{}, err
		}
		maskCount, err := r.U32()
		if err != nil {
			return Desc{}, err
		}
		for i := uint32(0); i < maskCount; i++ {
			m, err := r.I32()
			if err != nil {
				return Desc{}, err
			}
			d.Masks = append(d.Masks, m)
		}
		vertexCount, err := r.U32()
		if err != nil {
			return Desc{}, err
		}
		for i := uint32(0); i < vertexCount; i++ {
			x, err := r.F32()
			if err != nil {
				return Desc{}, err
			}
			y, err := r.F32()
			if err != nil {
				return Desc{}, err
			}
			d.VertexUVs = append(d.VertexUVs, vec2{X: x, Y: y})
		}
		indexCount, err := r.U32()
		if err != nil {
			return Desc{}, err
		}
		for i := uint32(0); i < indexCount; i++ {
			ix, err := r.U16()
			if err != nil {
				return Desc{}, err
			}
			d.Indices = append(d.Indices, ix)
		}
		if d.RawParentIndex, err = r.I32(); err != nil {
			return Desc{}, err
		}
		desc.Drawables = append(desc.Drawables, d)
	}

	if r.remaining() != 0 {
		return Desc{}, errTrailingBytes
	}
	return desc, nil
}
