// Package enginetest provides a reference animation core for exercising the
// wrapper layers without the proprietary engine.
//
// The core implements the abi contract over a fixture moc format
// (EncodeMoc), lays its model state out inside the caller's storage block,
// and deliberately relocates the vertex-position buffers on every update so
// view re-derivation is exercised. NewNamespace wraps the same core behind
// the host object graph the hostobj backend binds to, which makes
// cross-backend equivalence directly testable.
//
// Update semantics are deterministic: vertex positions derive from the UVs
// and the first parameter value, drawable opacities follow their parent
// part's opacity, orders and colors stay constant, and did-change flags
// reflect actual output changes. A flag reset restores IsVisible plus every
// did-change bit.
package enginetest
