// Package errors provides structured error types for the cubism-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: field path, version
// diagnostics, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDerive, errors.KindOutOfBounds).
//		Path("drawables", "vertex-positions").
//		Detail("span exceeds model storage").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidMoc("blob too short")
//	err := errors.UnsupportedMocVersion(99, 4)
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind, so callers can classify without depending on
// message text:
//
//	if errors.Is(err, errors.UnsupportedMocVersion(0, 0)) { ... }
package errors
