package iocraft

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Facade is a flat view of a service instance. Every member reads and writes through
// to the instance it was built from; nothing is copied.
//
// A facade handed out for a dependency that is still being constructed is lazy: it
// resolves its target on first access and fails with a *PrematureAccessError until
// the construction has completed.
type Facade struct {
	name  string
	token Token

	members map[Key]*member
	order   []Key

	force  func() (*Facade, error)
	target *Facade
}

type member struct {
	key       Key
	kind      Kind
	origin    string
	valueType string
	reactive  bool

	get func() any
	set func(any) error
	fn  any
}

// MemberInfo describes a facade member.
type MemberInfo struct {
	Key       Key
	Kind      Kind
	Origin    string
	ValueType string
	Readable  bool
	Writable  bool
	Reactive  bool
}

func newFacade(name string, token Token) *Facade {
	return &Facade{name: name, token: token, members: map[Key]*member{}}
}

func lazyFacade(name string, token Token, force func() (*Facade, error)) *Facade {
	return &Facade{name: name, token: token, force: force}
}

// Name returns the name of the service behind the facade.
func (f *Facade) Name() string {
	return f.name
}

// Token returns the token of the service behind the facade.
func (f *Facade) Token() Token {
	return f.token
}

// Lazy reports whether the facade still defers to a service under construction.
func (f *Facade) Lazy() bool {
	return f.force != nil && f.target == nil
}

func (f *Facade) resolve() (*Facade, error) {
	if f.force == nil {
		return f, nil
	}

	if f.target != nil {
		return f.target, nil
	}

	target, err := f.force()
	if err != nil {
		return nil, err
	}

	// a lazy facade may resolve to another lazy one
	target, err = target.resolve()
	if err != nil {
		return nil, err
	}

	f.target = target
	return target, nil
}

func (f *Facade) lookup(key any) (*Facade, *member, error) {
	target, err := f.resolve()
	if err != nil {
		return nil, nil, err
	}

	k, ok := keyOf(key)
	if !ok {
		return nil, nil, &MemberNotFoundError{Name: f.name, Key: Name(fmt.Sprint(key))}
	}

	m, ok := target.members[k]
	if !ok {
		return nil, nil, &MemberNotFoundError{Name: f.name, Key: k}
	}

	return target, m, nil
}

// Keys returns the member keys in the order they were defined.
func (f *Facade) Keys() ([]Key, error) {
	target, err := f.resolve()
	if err != nil {
		return nil, err
	}

	keys := make([]Key, len(target.order))
	copy(keys, target.order)

	return keys, nil
}

// Has reports whether the facade has a member with the given key. It is false for a
// lazy facade that cannot be resolved yet.
func (f *Facade) Has(key any) bool {
	_, _, err := f.lookup(key)
	return err == nil
}

// Members describes all members in definition order.
func (f *Facade) Members() ([]MemberInfo, error) {
	target, err := f.resolve()
	if err != nil {
		return nil, err
	}

	infos := make([]MemberInfo, 0, len(target.order))
	for _, key := range target.order {
		infos = append(infos, target.members[key].info())
	}

	return infos, nil
}

// Member describes one member.
func (f *Facade) Member(key any) (MemberInfo, error) {
	_, m, err := f.lookup(key)
	if err != nil {
		return MemberInfo{}, err
	}
	return m.info(), nil
}

func (m *member) info() MemberInfo {
	return MemberInfo{
		Key:       m.key,
		Kind:      m.kind,
		Origin:    m.origin,
		ValueType: m.valueType,
		Readable:  m.get != nil,
		Writable:  m.set != nil,
		Reactive:  m.reactive,
	}
}

// Get reads a field or accessor. Methods are returned as their bound function.
// Reactive values are returned as they are.
func (f *Facade) Get(key any) (any, error) {
	_, m, err := f.lookup(key)
	if err != nil {
		return nil, err
	}

	if m.kind == KindMethod {
		return m.fn, nil
	}

	if m.get == nil {
		return nil, &AccessError{Name: f.name, Key: m.key, Cause: ErrWriteOnlyMember}
	}

	return m.get(), nil
}

// Set writes a field or accessor through to the instance.
func (f *Facade) Set(key any, value any) error {
	_, m, err := f.lookup(key)
	if err != nil {
		return err
	}

	if m.set == nil {
		return &AccessError{Name: f.name, Key: m.key, Cause: ErrReadOnlyMember}
	}

	return m.set(value)
}

// Method returns the bound function of a method member.
func (f *Facade) Method(key any) (any, error) {
	_, m, err := f.lookup(key)
	if err != nil {
		return nil, err
	}

	if m.kind != KindMethod {
		return nil, &AccessError{Name: f.name, Key: m.key, Cause: ErrNotCallable}
	}

	return m.fn, nil
}

// Call invokes a method member with args. If the method's last result is a non-nil
// error it is also returned as the error.
func (f *Facade) Call(key any, args ...any) ([]any, error) {
	fn, err := f.Method(key)
	if err != nil {
		return nil, err
	}

	k, _ := keyOf(key)

	return callFunc(f.name, k, fn, args)
}

// Prop returns a live handle to a field or accessor, safe to keep after destructuring.
func (f *Facade) Prop(key any) (*Prop, error) {
	_, m, err := f.lookup(key)
	if err != nil {
		return nil, err
	}

	if m.kind == KindMethod {
		return nil, &AccessError{Name: f.name, Key: m.key, Cause: fmt.Errorf("%w: member is a method", ErrTypeMismatch)}
	}

	return &Prop{facade: f, key: m.key}, nil
}

// Destructure returns every member by key: methods as bound functions, fields and
// accessors as live *Prop handles.
func (f *Facade) Destructure() (map[Key]any, error) {
	target, err := f.resolve()
	if err != nil {
		return nil, err
	}

	result := make(map[Key]any, len(target.order))
	for _, key := range target.order {
		m := target.members[key]
		if m.kind == KindMethod {
			result[key] = m.fn
			continue
		}
		result[key] = &Prop{facade: target, key: key}
	}

	return result, nil
}

func (f *Facade) String() string {
	if f.Lazy() {
		return fmt.Sprintf("Facade(%s, lazy)", f.name)
	}
	return fmt.Sprintf("Facade(%s)", f.name)
}

// Prop is a live handle to one facade field or accessor.
type Prop struct {
	facade *Facade
	key    Key
}

func (p *Prop) Key() Key {
	return p.key
}

func (p *Prop) Get() (any, error) {
	return p.facade.Get(p.key)
}

func (p *Prop) Set(value any) error {
	return p.facade.Set(p.key, value)
}

// ValueOf reads a member and asserts it to V.
func ValueOf[V any](f *Facade, key any) (V, error) {
	v, err := f.Get(key)
	if err != nil {
		return empty[V](), err
	}

	k, _ := keyOf(key)
	return convert[V](k, v)
}

// MethodOf returns a method member asserted to the function type F.
func MethodOf[F any](f *Facade, key any) (F, error) {
	fn, err := f.Method(key)
	if err != nil {
		return empty[F](), err
	}

	k, _ := keyOf(key)
	if fn == nil {
		return empty[F](), &AccessError{Name: f.name, Key: k, Cause: ErrNotCallable}
	}

	return convert[F](k, fn)
}

var errorType = reflect.TypeFor[error]()

func callFunc(name string, key Key, fn any, args []any) ([]any, error) {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return nil, &AccessError{Name: name, Key: key, Cause: ErrNotCallable}
	}

	switch typed := fn.(type) {
	case func():
		if len(args) == 0 {
			typed()
			return nil, nil
		}
	case func() error:
		if len(args) == 0 {
			err := typed()
			return []any{err}, err
		}
	case func() any:
		if len(args) == 0 {
			return []any{typed()}, nil
		}
	case func(any) any:
		if len(args) == 1 {
			return []any{typed(args[0])}, nil
		}
	}

	v := reflect.ValueOf(fn)
	t := v.Type()

	arity := t.NumIn()
	if (!t.IsVariadic() && len(args) != arity) || (t.IsVariadic() && len(args) < arity-1) {
		return nil, &AccessError{
			Name:  name,
			Key:   key,
			Cause: fmt.Errorf("%w: expects %d arguments, got %d", ErrTypeMismatch, arity, len(args)),
		}
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var param reflect.Type
		if t.IsVariadic() && i >= arity-1 {
			param = t.In(arity - 1).Elem()
		} else {
			param = t.In(i)
		}

		if arg == nil {
			if !nilable(param) {
				return nil, &TypeMismatchError{Key: key, Expected: param.String(), Actual: "nil"}
			}
			in[i] = reflect.Zero(param)
			continue
		}

		value := reflect.ValueOf(arg)
		if !value.Type().AssignableTo(param) {
			return nil, &TypeMismatchError{Key: key, Expected: param.String(), Actual: value.Type().String()}
		}
		in[i] = value
	}

	out := v.Call(in)

	results := make([]any, len(out))
	for i, o := range out {
		results[i] = o.Interface()
	}

	if n := len(out); n > 0 && t.Out(n-1) == errorType && !out[n-1].IsNil() {
		return results, out[n-1].Interface().(error)
	}

	return results, nil
}

// facadeBuilder populates a facade. The first definition of a key wins.
type facadeBuilder struct {
	facade     *Facade
	logger     *slog.Logger
	isReactive func(any) bool
}

func newFacadeBuilder(d *Descriptor, logger *slog.Logger, isReactive func(any) bool) *facadeBuilder {
	return &facadeBuilder{
		facade:     newFacade(d.Name, d.Token),
		logger:     logger,
		isReactive: isReactive,
	}
}

func (b *facadeBuilder) has(key Key) bool {
	_, ok := b.facade.members[key]
	return ok
}

func (b *facadeBuilder) define(m *member) {
	if m.get != nil && b.isReactive != nil && m.kind != KindAccessor {
		m.reactive = b.isReactive(m.get())
	}

	b.facade.members[m.key] = m
	b.facade.order = append(b.facade.order, m.key)
}

// populateFacade runs the copy passes in precedence order: own fields, own accessors,
// layers closest first, static members.
func populateFacade[T any](b *facadeBuilder, instance *T, schema Schema[T]) {
	own := enumerate(schema.Own)

	for _, m := range own {
		if m.kind == KindMethod {
			warning := &FacadeCollisionWarning{Name: b.facade.name, Key: m.key}
			b.logger.Warn(warning.Error(), "service", b.facade.name, "key", m.key.String())
		}
	}

	addInstanceMembers(b, instance, own, KindField)
	addInstanceMembers(b, instance, own, KindAccessor)
	addLayerMembers(b, instance, schema.Layers)
	addStaticMembers(b, schema.Static)
}

func addInstanceMembers[T any](b *facadeBuilder, instance *T, members []Member[T], kind Kind) {
	for _, m := range members {
		if m.kind != kind || b.has(m.key) || isNativeKey(m.key) {
			continue
		}

		b.define(bindMember(instance, m, "own"))
	}
}

func addLayerMembers[T any](b *facadeBuilder, instance *T, layers []Layer[T]) {
	for _, layer := range layers {
		for _, m := range enumerate(layer.Members) {
			if b.has(m.key) || isNativeKey(m.key) {
				continue
			}

			b.define(bindMember(instance, m, layer.Name))
		}
	}
}

func addStaticMembers(b *facadeBuilder, members []StaticMember) {
	for _, m := range enumerate(members) {
		if b.has(m.key) || isStaticNoise(m.key) {
			continue
		}

		b.define(&member{
			key:       m.key,
			kind:      m.kind,
			origin:    "static",
			valueType: m.valueType,
			get:       m.get,
			set:       m.set,
			fn:        m.fn,
		})
	}
}

func bindMember[T any](instance *T, m Member[T], origin string) *member {
	bound := &member{key: m.key, kind: m.kind, origin: origin, valueType: m.valueType}

	if m.kind == KindMethod {
		bound.fn = m.bind(instance)
		bound.valueType = fmt.Sprintf("%T", bound.fn)
		return bound
	}

	if m.get != nil {
		get := m.get
		bound.get = func() any { return get(instance) }
	}

	if m.set != nil {
		set := m.set
		bound.set = func(v any) error { return set(instance, v) }
	}

	return bound
}
