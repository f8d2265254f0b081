package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode Phase = "decode" // moc deserialization
	PhaseAlloc  Phase = "alloc"  // aligned storage allocation
	PhaseDerive Phase = "derive" // model derivation from a moc
	PhaseUpdate Phase = "update" // model evaluation
	PhaseView   Phase = "view"   // typed view construction
	PhaseHost   Phase = "host"   // host namespace binding and calls
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidMoc         Kind = "invalid_moc"
	KindUnsupportedVersion Kind = "unsupported_version"
	KindAllocation         Kind = "allocation"
	KindHostContract       Kind = "host_contract"
	KindOutOfBounds        Kind = "out_of_bounds"
	KindInvalidInput       Kind = "invalid_input"
	KindNotInitialized     Kind = "not_initialized"
	KindReleased           Kind = "released"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string

	// Given and Latest carry version diagnostics for unsupported_version
	// errors: the version the blob declares and the newest one the engine
	// supports.
	Given  uint32
	Latest uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Kind == KindUnsupportedVersion {
		b.WriteString(fmt.Sprintf(": given %d, latest supported %d", e.Given, e.Latest))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidMoc creates an error for bytes that do not decode as a moc
func InvalidMoc(detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidMoc,
		Detail: detail,
	}
}

// UnsupportedMocVersion creates an error for a structurally valid moc whose
// declared version is newer than the engine supports
func UnsupportedMocVersion(given, latest uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnsupportedVersion,
		Given:  given,
		Latest: latest,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size, align int) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// HostContract creates an error for a missing or wrong-shaped host member.
// It indicates a version mismatch between the wrapper and the host engine
// and is never recoverable.
func HostContract(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindHostContract,
		Path:   path,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, offset, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("offset %d out of bounds (length %d)", offset, length),
		Value:  offset,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotInitialized creates a not-initialized error for a missing component
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Released creates an error for use of storage after its final release
func Released(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReleased,
		Detail: fmt.Sprintf("%s used after release", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
