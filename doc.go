// Package cubism provides a memory-safe, thread-safe handle over the
// Live2D Cubism Core character-animation engine.
//
// The engine itself is an opaque black box: it decodes a compiled moc blob,
// lays a model out in memory, and recomputes drawable state on every update
// call. This module owns everything around that box: storage lifetime,
// aliasing discipline, marshalling, and the locking contract. The box is
// consumed through a fixed call contract and never reimplemented.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct
// responsibilities:
//
//	cubism/              Root package with backend contracts and model types
//	├── runtime/         High-level API: Core, Moc, Model and the lock discipline
//	├── abi/             Call contract of an in-process engine core
//	├── backend/direct/  Zero-copy backend aliasing into wrapper-owned memory
//	├── backend/hostobj/ Host-reflected backend marshalling through named lookups
//	├── memory/          Aligned, refcounted storage blocks and typed views
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Decode a moc and drive a model:
//
//	core := runtime.New(direct.New(engine))
//
//	moc, err := core.MocFromBytes(mocBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	model, err := moc.NewModel()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	model.WriteDynamic(func(d *runtime.DynamicState) {
//	    d.ParameterValues()[0] = 0.5
//	    d.Update()
//	})
//
// # Backends
//
// Two backends implement the same contracts with identical observable
// behavior. The direct backend (backend/direct) wraps an engine that
// operates in place on memory this module allocates, and exposes typed
// views that alias that memory without copying. The host-reflected backend
// (backend/hostobj) wraps an engine reachable only through a
// dynamically-typed object graph, such as an Emscripten-compiled core
// running under wazero, and copies state in and out of the host around
// every mutation. Calling code never observes which backend is active.
package cubism
