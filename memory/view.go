package memory

import (
	"unsafe"

	"github.com/wippyai/cubism-runtime/errors"
)

// View reinterprets count elements of type T starting at byteOff inside the
// block as a typed slice, without copying. The element type must contain no
// pointers; the slice aliases the block and is valid only until the block's
// final Release.
//
// Bounds come from the engine's own reports, never from caller guesses, so a
// violation here means the engine and wrapper disagree about the block
// layout and the view must not be built.
func View[T any](b *AlignedBlock, byteOff, count uint32) ([]T, error) {
	data := b.Bytes()
	if data == nil {
		if b.size > 0 || count > 0 {
			return nil, errors.Released(errors.PhaseView, "storage block")
		}
		return nil, nil
	}

	var zero T
	elem := uint64(unsafe.Sizeof(zero))
	need := uint64(count) * elem
	if uint64(byteOff)+need > uint64(len(data)) {
		return nil, errors.OutOfBounds(errors.PhaseView, nil, int(uint64(byteOff)+need), len(data))
	}
	if count == 0 {
		return []T{}, nil
	}

	p := unsafe.Pointer(&data[byteOff])
	if uintptr(p)%unsafe.Alignof(zero) != 0 {
		return nil, errors.New(errors.PhaseView, errors.KindOutOfBounds).
			Detail("offset %d misaligned for element size %d", byteOff, elem).
			Build()
	}
	return unsafe.Slice((*T)(p), count), nil
}
