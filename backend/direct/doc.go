// Package direct adapts an in-process animation core to the cubism
// contracts without copying dynamic state.
//
// The backend owns every block the core works in: moc bytes are copied once
// into 64-byte aligned storage and revived in place, and each model instance
// lives in its own 16-byte aligned block. Dynamic accessors are typed views
// aliasing that block at the offsets the core reports, so writes through
// ParameterValues land directly in engine memory and updates cost no
// marshalling.
//
// Vertex-position views are the one exception to view stability: the core
// may relocate the per-drawable vertex buffers during Update, so the backend
// re-derives those views from freshly queried spans after every update.
package direct
