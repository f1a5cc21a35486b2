package iocraft

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	typetostring "github.com/samber/go-type-to-string"
)

var (
	schemaValidatorOnce sync.Once
	schemaValidatorInst *validator.Validate
)

// schemaValidator is built on first use: Register runs during package initialization,
// possibly before package-level variables of this file are set.
func schemaValidator() *validator.Validate {
	schemaValidatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("func", func(fl validator.FieldLevel) bool {
			return fl.Field().Kind() == reflect.Func
		})
		schemaValidatorInst = v
	})
	return schemaValidatorInst
}

// Key identifies a facade member. It is either a plain name or a Symbol.
// Keys are comparable.
type Key struct {
	name string
	sym  *symbol
}

type symbol struct {
	desc string
}

// NewSymbol returns a key that is unique even among symbols with the same description.
func NewSymbol(desc string) Key {
	return Key{name: desc, sym: &symbol{desc: desc}}
}

// Name returns a plain, string-named key.
func Name(name string) Key {
	return Key{name: name}
}

// IsSymbol reports whether the key was created with NewSymbol.
func (k Key) IsSymbol() bool {
	return k.sym != nil
}

func (k Key) String() string {
	if k.IsSymbol() {
		return "Symbol(" + k.sym.desc + ")"
	}
	return k.name
}

// keyOf normalizes a string or Key into a Key.
func keyOf(key any) (Key, bool) {
	switch k := key.(type) {
	case Key:
		return k, true
	case string:
		return Name(k), true
	default:
		return Key{}, false
	}
}

func mustKey(key any) Key {
	k, ok := keyOf(key)
	if !ok {
		panic(fmt.Sprintf("iocraft: member key must be a string or an iocraft.Key, got %T", key))
	}
	return k
}

// Kind is the shape of a member.
type Kind int

const (
	// KindField is a plain data member, exposed as a live read/write pass-through.
	KindField Kind = iota + 1
	// KindAccessor is a getter and/or setter, re-invoked with the instance as receiver.
	KindAccessor
	// KindMethod is a function bound to the instance.
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindAccessor:
		return "accessor"
	case KindMethod:
		return "method"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Member describes one member of a *T: a field, an accessor or a method.
// Members are built with Field, Accessor and Method.
type Member[T any] struct {
	key       Key
	kind      Kind
	valueType string

	get  func(*T) any
	set  func(*T, any) error
	bind func(*T) any
}

// Key returns the member key.
func (m Member[T]) Key() Key {
	return m.key
}

// Kind returns the member kind.
func (m Member[T]) Kind() Kind {
	return m.kind
}

// Field declares a data member. ref returns the address of the field so reads and
// writes through a facade always reach the instance.
func Field[T any, V any](key any, ref func(*T) *V) Member[T] {
	k := mustKey(key)
	m := Member[T]{key: k, kind: KindField, valueType: typetostring.GetType[V]()}

	if ref != nil {
		m.get = func(t *T) any {
			return *ref(t)
		}
		m.set = func(t *T, v any) error {
			vv, err := convert[V](k, v)
			if err != nil {
				return err
			}
			*ref(t) = vv
			return nil
		}
	}

	return m
}

// Accessor declares a computed member. Either get or set may be nil, but not both.
func Accessor[T any, V any](key any, get func(*T) V, set func(*T, V)) Member[T] {
	k := mustKey(key)
	m := Member[T]{key: k, kind: KindAccessor, valueType: typetostring.GetType[V]()}

	if get != nil {
		m.get = func(t *T) any {
			return get(t)
		}
	}

	if set != nil {
		m.set = func(t *T, v any) error {
			vv, err := convert[V](k, v)
			if err != nil {
				return err
			}
			set(t, vv)
			return nil
		}
	}

	return m
}

// Method declares a method. bind returns the method value bound to the given instance,
// typically a method expression like `func(s *Svc) any { return s.Do }`.
func Method[T any](key any, bind func(*T) any) Member[T] {
	return Member[T]{key: mustKey(key), kind: KindMethod, bind: bind}
}

// Layer is one level of a service's member chain. Layers are ordered closest first:
// the service's own methods, then the layers of embedded types.
type Layer[T any] struct {
	Name    string
	Members []Member[T]
}

// NewLayer builds a layer.
func NewLayer[T any](name string, members ...Member[T]) Layer[T] {
	return Layer[T]{Name: name, Members: members}
}

// Embed lifts the layers of an embedded type E into the chain of T.
// ref returns the embedded value inside a *T.
func Embed[T any, E any](ref func(*T) *E, layers ...Layer[E]) []Layer[T] {
	lifted := make([]Layer[T], 0, len(layers))

	for _, layer := range layers {
		members := make([]Member[T], 0, len(layer.Members))
		for _, m := range layer.Members {
			members = append(members, liftMember(m, ref))
		}
		lifted = append(lifted, Layer[T]{Name: layer.Name, Members: members})
	}

	return lifted
}

func liftMember[T any, E any](m Member[E], ref func(*T) *E) Member[T] {
	lifted := Member[T]{key: m.key, kind: m.kind, valueType: m.valueType}

	if m.get != nil {
		lifted.get = func(t *T) any { return m.get(ref(t)) }
	}
	if m.set != nil {
		lifted.set = func(t *T, v any) error { return m.set(ref(t), v) }
	}
	if m.bind != nil {
		lifted.bind = func(t *T) any { return m.bind(ref(t)) }
	}

	return lifted
}

// StaticMember is a member bound to the service type rather than to an instance.
type StaticMember struct {
	key       Key
	kind      Kind
	valueType string

	get func() any
	set func(any) error
	fn  any
}

// StaticField declares a live pass-through to a package-level variable.
func StaticField[V any](key any, ptr *V) StaticMember {
	k := mustKey(key)
	m := StaticMember{key: k, kind: KindField, valueType: typetostring.GetType[V]()}

	if ptr != nil {
		m.get = func() any { return *ptr }
		m.set = func(v any) error {
			vv, err := convert[V](k, v)
			if err != nil {
				return err
			}
			*ptr = vv
			return nil
		}
	}

	return m
}

// StaticAccessor declares a type-level getter and/or setter.
func StaticAccessor[V any](key any, get func() V, set func(V)) StaticMember {
	k := mustKey(key)
	m := StaticMember{key: k, kind: KindAccessor, valueType: typetostring.GetType[V]()}

	if get != nil {
		m.get = func() any { return get() }
	}
	if set != nil {
		m.set = func(v any) error {
			vv, err := convert[V](k, v)
			if err != nil {
				return err
			}
			set(vv)
			return nil
		}
	}

	return m
}

// StaticMethod declares a type-level function. It is placed on the facade verbatim.
func StaticMethod(key any, fn any) StaticMember {
	return StaticMember{key: mustKey(key), kind: KindMethod, fn: fn}
}

// Schema is the explicit member model of a service type.
type Schema[T any] struct {
	// Own members live on the instance itself.
	Own []Member[T]
	// Layers are searched closest first after Own.
	Layers []Layer[T]
	// Static members belong to the type.
	Static []StaticMember
}

type memberRule struct {
	Key  string `validate:"required"`
	Kind Kind   `validate:"min=1,max=3"`
	Impl any    `validate:"required,func"`
}

func (s Schema[T]) validate() error {
	var rules []memberRule

	for _, m := range s.Own {
		rules = append(rules, m.rule())
	}
	for _, layer := range s.Layers {
		for _, m := range layer.Members {
			rules = append(rules, m.rule())
		}
	}
	for _, m := range s.Static {
		rules = append(rules, m.rule())
	}

	for _, rule := range rules {
		if err := schemaValidator().Struct(rule); err != nil {
			return fmt.Errorf("%w: member %q (%s): %w", ErrInvalidSchema, rule.Key, rule.Kind, err)
		}
	}

	return nil
}

func (m Member[T]) rule() memberRule {
	rule := memberRule{Key: m.key.String(), Kind: m.kind}

	switch {
	case m.kind == KindMethod && m.bind != nil:
		rule.Impl = m.bind
	case m.get != nil:
		rule.Impl = m.get
	case m.set != nil:
		rule.Impl = m.set
	}

	return rule
}

func (m StaticMember) rule() memberRule {
	rule := memberRule{Key: m.key.String(), Kind: m.kind}

	switch {
	case m.kind == KindMethod && m.fn != nil:
		rule.Impl = m.fn
	case m.get != nil:
		rule.Impl = m.get
	case m.set != nil:
		rule.Impl = m.set
	}

	return rule
}

// enumerate yields the keys of a member list the way own keys are enumerated:
// string keys first, then symbols, each in declaration order.
func enumerate[M interface{ memberKey() Key }](members []M) []M {
	ordered := slices.Clone(members)
	slices.SortStableFunc(ordered, func(a, b M) int {
		as, bs := a.memberKey().IsSymbol(), b.memberKey().IsSymbol()
		switch {
		case as == bs:
			return 0
		case bs:
			return -1
		default:
			return 1
		}
	})
	return ordered
}

func (m Member[T]) memberKey() Key {
	return m.key
}

func (m StaticMember) memberKey() Key {
	return m.key
}
