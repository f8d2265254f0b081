// Package hostobj adapts a host-reflected animation core to the cubism
// contracts.
//
// The core lives behind an opaque object graph (a wasm module's export
// surface, or any other host namespace) whose members are found by name.
// Resolution happens exactly once: New binds the engine entry points and
// every model derivation binds that instance's members, failing with a
// host-contract error when a name is missing or has the wrong shape. After a
// successful bind the contract is settled, so a violation on a later call is
// a wrapper/host version mismatch and panics instead of returning an error.
//
// Dynamic state cannot be aliased across the host boundary. Each instance
// owns scratch buffers sized at derivation; Update runs in two phases,
// storing the input arrays into the host before evaluation and loading every
// output array back afterwards. Vertex-position arrays are re-fetched from
// the host on every update because the host may replace them.
package hostobj
