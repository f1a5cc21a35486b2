package iocraft

import (
	"log/slog"
	"reflect"
	"sync"

	typetostring "github.com/samber/go-type-to-string"
)

// Constructor builds a new instance of a service. It may resolve other services
// from the container; circular requests receive lazy handles.
type Constructor[T any] func(c *Container) (*T, error)

// Descriptor is the metadata attached to a registered service type.
// It is created once by Register and never mutated afterward.
type Descriptor struct {
	// Token is the identity of the service in every container.
	Token Token
	// Name is the display name used in diagnostics.
	Name string
	// UsesFacade reports whether flag-driven resolution returns a facade or the raw instance.
	UsesFacade bool

	typ       reflect.Type
	construct func(c *Container) (any, error)
	populate  func(b *facadeBuilder, instance any)
}

// Type returns the registered struct type.
func (d *Descriptor) Type() reflect.Type {
	return d.typ
}

// Service is implemented by every *Class and lets heterogeneous service lists be passed around.
type Service interface {
	Descriptor() *Descriptor
}

// Class is the handle returned by Register for a service type T.
type Class[T any] struct {
	descriptor *Descriptor
}

func (c *Class[T]) Descriptor() *Descriptor {
	return c.descriptor
}

func (c *Class[T]) Token() Token {
	return c.descriptor.Token
}

func (c *Class[T]) Name() string {
	return c.descriptor.Name
}

type registration struct {
	name   string
	facade bool
}

// Option customizes a registration.
type Option func(*registration)

// WithoutFacade makes flag-driven resolution (Resolve, Expose, eager loading) use the raw instance.
func WithoutFacade() Option {
	return func(r *registration) {
		r.facade = false
	}
}

// Named overrides the display name derived from the Go type.
func Named(name string) Option {
	return func(r *registration) {
		r.name = name
	}
}

// descriptors is zero-value safe, Register may run before package variables are initialized.
var descriptors struct {
	sync.RWMutex
	byType map[reflect.Type]*Descriptor
}

// Register attaches a descriptor to the service type T and returns its handle.
// Registering the same T again is a no-op that returns the handle of the first registration,
// the new constructor, schema and options are ignored.
// Register panics if the schema is invalid.
func Register[T any](ctor Constructor[T], schema Schema[T], opts ...Option) *Class[T] {
	typ := elem[T]()

	descriptors.Lock()
	defer descriptors.Unlock()

	if existing, ok := descriptors.byType[typ]; ok {
		slog.Debug("service already registered, ignoring", "service", existing.Name)
		return &Class[T]{descriptor: existing}
	}

	if ctor == nil {
		panic("iocraft: constructor of " + typeName[T]() + " cannot be nil")
	}

	if err := schema.validate(); err != nil {
		panic("iocraft: " + typeName[T]() + ": " + err.Error())
	}

	reg := &registration{name: typeName[T](), facade: true}
	for _, opt := range opts {
		opt(reg)
	}

	d := &Descriptor{
		Token:      newToken(reg.name),
		Name:       reg.name,
		UsesFacade: reg.facade,
		typ:        typ,
		construct: func(c *Container) (any, error) {
			instance, err := ctor(c)
			if err != nil || instance == nil {
				return nil, err
			}
			return instance, nil
		},
		populate: func(b *facadeBuilder, instance any) {
			populateFacade(b, instance.(*T), schema)
		},
	}

	if descriptors.byType == nil {
		descriptors.byType = map[reflect.Type]*Descriptor{}
	}
	descriptors.byType[typ] = d

	return &Class[T]{descriptor: d}
}

// Describe returns the descriptor of T.
func Describe[T any]() (*Descriptor, error) {
	if d, ok := lookupDescriptor(elem[T]()); ok {
		return d, nil
	}
	return nil, &NotRegisteredError{Name: typeName[T]()}
}

// DescriptorOf resolves a class handle, a reflect.Type, an instance pointer or a value to its descriptor.
func DescriptorOf(classOrInstance any) (*Descriptor, error) {
	var typ reflect.Type

	switch v := classOrInstance.(type) {
	case Service:
		return v.Descriptor(), nil
	case reflect.Type:
		typ = v
	case nil:
		return nil, &NotRegisteredError{Name: "<nil>"}
	default:
		typ = reflect.TypeOf(v)
	}

	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if d, ok := lookupDescriptor(typ); ok {
		return d, nil
	}

	return nil, &NotRegisteredError{Name: typetostring.GetReflectType(reflect.PointerTo(typ))}
}

func lookupDescriptor(typ reflect.Type) (*Descriptor, bool) {
	descriptors.RLock()
	defer descriptors.RUnlock()

	d, ok := descriptors.byType[typ]
	return d, ok
}
