package memory

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/wippyai/cubism-runtime/errors"
)

// AlignedBlock is an owned byte buffer whose address satisfies an explicit
// alignment. Address and size never change after allocation.
//
// Blocks are shared by reference counting: every additional owner calls
// Retain, every owner calls Release exactly once. The final Release poisons
// the block so stale access fails instead of reading freed state.
type AlignedBlock struct {
	raw  []byte
	data []byte
	size int
	refs atomic.Int64
}

// Alloc returns a zeroed block of exactly size bytes aligned to align, which
// must be a power of two. Invalid layout requests fail with an allocation
// error; a genuine out-of-memory condition aborts the process, which is the
// intended behavior for an engine-mandated allocation.
func Alloc(size, align int) (*AlignedBlock, error) {
	if size < 0 || align <= 0 || align&(align-1) != 0 {
		return nil, errors.AllocationFailed(size, align)
	}
	if size > math.MaxInt-align {
		return nil, errors.AllocationFailed(size, align)
	}

	raw := make([]byte, size+align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(unsafe.SliceData(raw))) % uintptr(align)); rem != 0 {
		off = align - rem
	}

	b := &AlignedBlock{
		raw:  raw,
		data: raw[off : off+size : off+size],
		size: size,
	}
	b.refs.Store(1)
	return b, nil
}

// Bytes returns the aligned contents. It returns nil after the final
// Release.
func (b *AlignedBlock) Bytes() []byte {
	return b.data
}

// Size returns the block size in bytes, which is fixed for the block's
// lifetime.
func (b *AlignedBlock) Size() int {
	return b.size
}

// CopyFrom copies src into the start of the block. It fails when src exceeds
// the block's capacity or the block has been released.
func (b *AlignedBlock) CopyFrom(src []byte) error {
	if b.data == nil && b.size > 0 {
		return errors.Released(errors.PhaseAlloc, "storage block")
	}
	if len(src) > b.size {
		return errors.OutOfBounds(errors.PhaseAlloc, nil, len(src), b.size)
	}
	copy(b.data, src)
	return nil
}

// Retain adds an owning reference and returns the block for chaining.
func (b *AlignedBlock) Retain() *AlignedBlock {
	if b.refs.Add(1) <= 1 {
		panic("memory: Retain on released block")
	}
	return b
}

// Release drops one owning reference. The last reference frees the block;
// releasing more often than retaining is a bug and panics.
func (b *AlignedBlock) Release() {
	switch n := b.refs.Add(-1); {
	case n == 0:
		b.data = nil
		b.raw = nil
	case n < 0:
		panic("memory: Release of released block")
	}
}
