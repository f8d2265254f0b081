package hostobj

import (
	"reflect"

	"github.com/wippyai/cubism-runtime/errors"
)

// A host namespace is an opaque object graph navigated by member name. A
// node is a map[string]any, a struct (fields and methods, addressable via
// pointer), or a leaf value such as a typed Go func, slice, scalar, or one
// of the typed-array interfaces below.

// Float32Array is a live float32 buffer owned by the host. Load and Store
// copy at most min(len, Length) elements.
type Float32Array interface {
	Length() int
	Load(dst []float32)
	Store(src []float32)
}

// Int32Array is a live int32 buffer owned by the host.
type Int32Array interface {
	Length() int
	Load(dst []int32)
	Store(src []int32)
}

// Uint8Array is a live uint8 buffer owned by the host.
type Uint8Array interface {
	Length() int
	Load(dst []uint8)
	Store(src []uint8)
}

// member walks the namespace graph one name at a time.
func member(root any, path ...string) (any, error) {
	cur := root
	for i, name := range path {
		if cur == nil {
			return nil, errors.HostContract(path[:i], "member is nil")
		}
		if m, ok := cur.(map[string]any); ok {
			next, ok := m[name]
			if !ok {
				return nil, errors.HostContract(path[:i+1], "member not found")
			}
			cur = next
			continue
		}

		v := reflect.ValueOf(cur)
		if mv := v.MethodByName(name); mv.IsValid() {
			cur = mv.Interface()
			continue
		}
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, errors.HostContract(path[:i], "member is nil")
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return nil, errors.HostContract(path[:i+1],
				"cannot look up member on "+v.Kind().String())
		}
		fv := v.FieldByName(name)
		if !fv.IsValid() {
			return nil, errors.HostContract(path[:i+1], "member not found")
		}
		cur = fv.Interface()
	}
	if cur == nil {
		return nil, errors.HostContract(path, "member is nil")
	}
	return cur, nil
}

// resolve fetches a member and asserts its Go type.
func resolve[T any](root any, path ...string) (T, error) {
	var zero T
	m, err := member(root, path...)
	if err != nil {
		return zero, err
	}
	t, ok := m.(T)
	if !ok {
		return zero, errors.HostContract(path,
			"member has type "+reflect.TypeOf(m).String()+
				", want "+reflect.TypeOf(&zero).Elem().String())
	}
	return t, nil
}

// mustResolve is resolve for members of an already-bound object: failure at
// this point is a host/wrapper version mismatch discovered after the
// contract was settled, so it panics.
func mustResolve[T any](root any, path ...string) T {
	t, err := resolve[T](root, path...)
	if err != nil {
		panic(err)
	}
	return t
}
