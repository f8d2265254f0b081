// Package memory provides aligned, reference-counted storage blocks and
// bounds-checked typed views over them.
//
// The animation engine dictates the alignment of every block it operates on
// and reports the regions inside a block that hold live state. AlignedBlock
// owns such a block; View reinterprets a region of it as a typed slice
// without copying. A view is valid exactly as long as the block it was built
// from has not seen its final Release.
package memory
