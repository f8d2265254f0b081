package enginetest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// writer provides buffered writing for the fixture moc encoding. All values
// are fixed-width little-endian.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *writer) U8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) I32(v int32) {
	w.U32(uint32(v))
}

func (w *writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

func (w *writer) String(s string) {
	w.U32(uint32(len(s)))
	w.buf.WriteString(s)
}

// reader decodes the fixture moc encoding with position tracking.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("truncated at offset %d: need %d bytes, have %d", r.pos, n, r.remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

func (r *reader) String() (string, error) {
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	if n > uint32(r.remaining()) {
		return "", fmt.Errorf("string length %d exceeds remaining %d", n, r.remaining())
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
