package iocraft

import "fmt"

// Ref is a handle to a raw service instance. It either holds the instance already or
// defers to a service that was still under construction when the handle was issued.
type Ref[T any] struct {
	ready    *T
	deferred *deferred[T]
}

type deferred[T any] struct {
	name  string
	force func() (*T, error)
	value *T
}

// ReadyRef wraps an existing instance.
func ReadyRef[T any](instance *T) Ref[T] {
	return Ref[T]{ready: instance}
}

func deferredRef[T any](name string, force func() (*T, error)) Ref[T] {
	return Ref[T]{deferred: &deferred[T]{name: name, force: force}}
}

// Get returns the instance. A deferred handle is resolved on first use and fails with
// a *PrematureAccessError while the construction it waits for is running.
func (r Ref[T]) Get() (*T, error) {
	if r.ready != nil {
		return r.ready, nil
	}

	if r.deferred == nil {
		return nil, fmt.Errorf("iocraft: %s: %w", typeName[T](), ErrNilInstance)
	}

	if r.deferred.value != nil {
		return r.deferred.value, nil
	}

	value, err := r.deferred.force()
	if err != nil {
		return nil, err
	}

	r.deferred.value = value
	return value, nil
}

// MustGet is like Get but panics on error.
func (r Ref[T]) MustGet() *T {
	v, err := r.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Deferred reports whether the handle has not been resolved yet.
func (r Ref[T]) Deferred() bool {
	return r.ready == nil && r.deferred != nil && r.deferred.value == nil
}

// IsZero reports whether the handle points nowhere.
func (r Ref[T]) IsZero() bool {
	return r.ready == nil && r.deferred == nil
}

func (r Ref[T]) String() string {
	switch {
	case r.IsZero():
		return "Ref(<nil>)"
	case r.Deferred():
		return fmt.Sprintf("Ref(%s, deferred)", r.deferred.name)
	default:
		return fmt.Sprintf("Ref(%s)", typeName[T]())
	}
}
