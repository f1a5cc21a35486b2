package iocraft

import (
	"fmt"
	"reflect"

	typetostring "github.com/samber/go-type-to-string"
)

func empty[T any]() T {
	var t T
	return t
}

func elem[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeName returns the display name of *T used in descriptors and errors.
func typeName[T any]() string {
	return typetostring.GetType[*T]()
}

// convert asserts v to V. nil is accepted for nilable V and becomes the zero value.
func convert[V any](key Key, v any) (V, error) {
	if vv, ok := v.(V); ok {
		return vv, nil
	}

	if v == nil && nilable(elem[V]()) {
		return empty[V](), nil
	}

	return empty[V](), &TypeMismatchError{
		Key:      key,
		Expected: typetostring.GetType[V](),
		Actual:   fmt.Sprintf("%T", v),
	}
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// tryWrap turns a panic raised by fn into an error.
func tryWrap(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok {
					err = fmt.Errorf("panic: %w", e)
					return
				}
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		return fn()
	}
}
