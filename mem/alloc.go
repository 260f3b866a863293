package mem

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// The generic helpers below carve typed storage out of registry-managed
// memory. The element type must not contain Go pointers (strings, slices,
// maps, chans, funcs, interfaces, or pointers at any nesting depth): the
// collector does not scan registry memory, so a pointer stored there keeps
// nothing alive. Violations panic with ErrPointerType at the call site.

// New allocates one zeroed T from h.
func New[T any](h Handle) (*T, error) {
	assertNoPointers[T]()
	var zero T
	size := int64(unsafe.Sizeof(zero))
	if size == 0 {
		return &zero, nil
	}
	ptr, err := Allocate(h, size, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	p := (*T)(ptr)
	*p = zero // recycled arena memory arrives dirty
	return p, nil
}

// Release returns storage obtained from New to h.
func Release[T any](h Handle, p *T) error {
	if p == nil {
		return nil
	}
	return Free(h, unsafe.Pointer(p))
}

// MakeSlice allocates a zeroed []T of length n from h.
func MakeSlice[T any](h Handle, n int) ([]T, error) {
	assertNoPointers[T]()
	if n < 0 {
		return nil, ErrBadSize
	}
	if n == 0 {
		return nil, nil
	}
	var zero T
	size := int64(unsafe.Sizeof(zero)) * int64(n)
	if size == 0 {
		return make([]T, n), nil // zero-width elements need no storage
	}
	ptr, err := Allocate(h, size, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	s := unsafe.Slice((*T)(ptr), n)
	clear(s)
	return s, nil
}

// FreeSlice returns storage obtained from MakeSlice to h.
func FreeSlice[T any](h Handle, s []T) error {
	if cap(s) == 0 {
		return nil
	}
	var zero T
	if unsafe.Sizeof(zero) == 0 {
		return nil
	}
	return Free(h, unsafe.Pointer(unsafe.SliceData(s)))
}

// HasPointers reports whether T contains Go pointers anywhere in its layout.
func HasPointers[T any]() bool {
	return typeHasPointers(reflect.TypeFor[T]())
}

var pointerFreeCache sync.Map // reflect.Type -> bool

func assertNoPointers[T any]() {
	t := reflect.TypeFor[T]()
	if v, ok := pointerFreeCache.Load(t); ok {
		if v.(bool) {
			return
		}
	} else {
		free := !typeHasPointers(t)
		pointerFreeCache.Store(t, free)
		if free {
			return
		}
	}
	panic(fmt.Errorf("%w: %v", ErrPointerType, t))
}

func typeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && typeHasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointers, strings, slices, maps, chans, funcs, interfaces,
		// unsafe.Pointer.
		return true
	}
}
