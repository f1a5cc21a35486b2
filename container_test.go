package iocraft_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zhulik/iocraft"
)

// counted is a singleton whose constructor calls are counted.
type counted struct {
	id int
}

var countedCalls callCounter

var _ = iocraft.Register(func(c *iocraft.Container) (*counted, error) {
	countedCalls.inc(c)
	return &counted{id: rand.Int()}, nil
}, iocraft.Schema[counted]{
	Own: []iocraft.Member[counted]{
		iocraft.Field("id", func(c *counted) *int { return &c.id }),
	},
})

// twoA and twoB depend on each other.
type twoA struct {
	b *iocraft.Facade
}

type twoB struct {
	a *iocraft.Facade
}

var _ = iocraft.Register(func(c *iocraft.Container) (*twoA, error) {
	b, err := iocraft.Obtain[twoB](c)
	if err != nil {
		return nil, err
	}
	return &twoA{b: b}, nil
}, iocraft.Schema[twoA]{
	Layers: []iocraft.Layer[twoA]{
		iocraft.NewLayer("twoA",
			iocraft.Method("getName", func(*twoA) any { return func() string { return "A" } }),
			iocraft.Method("describeB", func(a *twoA) any {
				return func() (string, error) {
					results, err := a.b.Call("getName")
					if err != nil {
						return "", err
					}
					return results[0].(string), nil
				}
			}),
		),
	},
})

var _ = iocraft.Register(func(c *iocraft.Container) (*twoB, error) {
	a, err := iocraft.Obtain[twoA](c)
	if err != nil {
		return nil, err
	}
	return &twoB{a: a}, nil
}, iocraft.Schema[twoB]{
	Layers: []iocraft.Layer[twoB]{
		iocraft.NewLayer("twoB",
			iocraft.Method("getName", func(*twoB) any { return func() string { return "B" } }),
			iocraft.Method("describeA", func(b *twoB) any {
				return func() (string, error) {
					results, err := b.a.Call("getName")
					if err != nil {
						return "", err
					}
					return results[0].(string), nil
				}
			}),
		),
	},
})

// ring1 -> ring2 -> ring3 -> ring1, each one talks to the next one.
type ring1 struct{ next *iocraft.Facade }
type ring2 struct{ next *iocraft.Facade }
type ring3 struct{ next *iocraft.Facade }

func ringSchema[T any](name string, next func(*T) *iocraft.Facade) iocraft.Schema[T] {
	return iocraft.Schema[T]{
		Layers: []iocraft.Layer[T]{
			iocraft.NewLayer(name,
				iocraft.Method("name", func(*T) any { return func() string { return name } }),
				iocraft.Method("nextName", func(t *T) any {
					return func() (string, error) {
						results, err := next(t).Call("name")
						if err != nil {
							return "", err
						}
						return results[0].(string), nil
					}
				}),
			),
		},
	}
}

var _ = iocraft.Register(func(c *iocraft.Container) (*ring1, error) {
	next, err := iocraft.Obtain[ring2](c)
	return &ring1{next: next}, err
}, ringSchema("ring1", func(r *ring1) *iocraft.Facade { return r.next }))

var _ = iocraft.Register(func(c *iocraft.Container) (*ring2, error) {
	next, err := iocraft.Obtain[ring3](c)
	return &ring2{next: next}, err
}, ringSchema("ring2", func(r *ring2) *iocraft.Facade { return r.next }))

var _ = iocraft.Register(func(c *iocraft.Container) (*ring3, error) {
	next, err := iocraft.Obtain[ring1](c)
	return &ring3{next: next}, err
}, ringSchema("ring3", func(r *ring3) *iocraft.Facade { return r.next }))

// eagerA reads from eagerB inside its constructor while eagerB holds a lazy eagerA.
type eagerA struct {
	name string
}

type eagerB struct {
	a *iocraft.Facade
}

var _ = iocraft.Register(func(c *iocraft.Container) (*eagerA, error) {
	b, err := iocraft.Obtain[eagerB](c)
	if err != nil {
		return nil, err
	}

	results, err := b.Call("getName")
	if err != nil {
		return nil, err
	}

	return &eagerA{name: results[0].(string)}, nil
}, iocraft.Schema[eagerA]{})

var _ = iocraft.Register(func(c *iocraft.Container) (*eagerB, error) {
	a, err := iocraft.Obtain[eagerA](c)
	if err != nil {
		return nil, err
	}
	return &eagerB{a: a}, nil
}, iocraft.Schema[eagerB]{
	Layers: []iocraft.Layer[eagerB]{
		iocraft.NewLayer("eagerB",
			iocraft.Method("getName", func(*eagerB) any { return func() string { return "B" } }),
		),
	},
})

// selfReading reads its own lazy handle in its constructor.
type selfReading struct{}

var _ = iocraft.Register(func(c *iocraft.Container) (*selfReading, error) {
	self, err := iocraft.ObtainRaw[selfReading](c)
	if err != nil {
		return nil, err
	}
	if _, err := self.Get(); err != nil {
		return nil, err
	}
	return &selfReading{}, nil
}, iocraft.Schema[selfReading]{})

// recursive is a transient that depends on a new instance of itself.
type recursive struct {
	id    int
	child *iocraft.Facade
}

var recursiveCalls callCounter

var _ = iocraft.Register(func(c *iocraft.Container) (*recursive, error) {
	child, err := iocraft.ObtainInstance[recursive](c)
	if err != nil {
		return nil, err
	}
	return &recursive{id: recursiveCalls.inc(c), child: child}, nil
}, iocraft.Schema[recursive]{
	Own: []iocraft.Member[recursive]{
		iocraft.Field("id", func(r *recursive) *int { return &r.id }),
		iocraft.Field("child", func(r *recursive) **iocraft.Facade { return &r.child }),
	},
})

// mixedSingleton holds a transient mixedTransient which holds the singleton back.
type mixedSingleton struct {
	transient *iocraft.Facade
}

type mixedTransient struct {
	owner iocraft.Ref[mixedSingleton]
}

var _ = iocraft.Register(func(c *iocraft.Container) (*mixedSingleton, error) {
	t, err := iocraft.ObtainInstance[mixedTransient](c)
	if err != nil {
		return nil, err
	}
	return &mixedSingleton{transient: t}, nil
}, iocraft.Schema[mixedSingleton]{
	Layers: []iocraft.Layer[mixedSingleton]{
		iocraft.NewLayer("mixedSingleton",
			iocraft.Method("label", func(*mixedSingleton) any { return func() string { return "singleton" } }),
			iocraft.Method("transient", func(s *mixedSingleton) any { return func() *iocraft.Facade { return s.transient } }),
		),
	},
})

var _ = iocraft.Register(func(c *iocraft.Container) (*mixedTransient, error) {
	owner, err := iocraft.ObtainRaw[mixedSingleton](c)
	if err != nil {
		return nil, err
	}
	return &mixedTransient{owner: owner}, nil
}, iocraft.Schema[mixedTransient]{
	Layers: []iocraft.Layer[mixedTransient]{
		iocraft.NewLayer("mixedTransient",
			iocraft.Method("ownerTransient", func(t *mixedTransient) any {
				return func() (*iocraft.Facade, error) {
					owner, err := t.owner.Get()
					if err != nil {
						return nil, err
					}
					return owner.transient, nil
				}
			}),
		),
	},
})

// flaky fails or panics on demand, per container.
type flaky struct{}

type flakyMode struct {
	sync.Mutex
	fail  map[*iocraft.Container]error
	panic map[*iocraft.Container]bool
}

var flakyModes = flakyMode{fail: map[*iocraft.Container]error{}, panic: map[*iocraft.Container]bool{}}

func setFlaky(c *iocraft.Container, err error, panics bool) {
	flakyModes.Lock()
	defer flakyModes.Unlock()

	flakyModes.fail[c] = err
	flakyModes.panic[c] = panics
}

var _ = iocraft.Register(func(c *iocraft.Container) (*flaky, error) {
	flakyModes.Lock()
	err, panics := flakyModes.fail[c], flakyModes.panic[c]
	flakyModes.Unlock()

	if panics {
		panic("flaky panicked")
	}
	if err != nil {
		return nil, err
	}
	return &flaky{}, nil
}, iocraft.Schema[flaky]{})

type nilService struct{}

var _ = iocraft.Register(func(*iocraft.Container) (*nilService, error) {
	return nil, nil //nolint:nilnil
}, iocraft.Schema[nilService]{})

// lifecycle services for Shutdown and HealthCheck.
type leafService struct {
	mock.Mock
}

func (l *leafService) Shutdown(ctx context.Context) error {
	return l.Called(ctx).Error(0)
}

func (l *leafService) HealthCheck(ctx context.Context) error {
	return l.Called(ctx).Error(0)
}

type rootService struct {
	mock.Mock
	leaf iocraft.Ref[leafService]
}

func (r *rootService) Shutdown(ctx context.Context) error {
	return r.Called(ctx).Error(0)
}

func (r *rootService) HealthCheck(ctx context.Context) error {
	return r.Called(ctx).Error(0)
}

var _ = iocraft.Register(func(*iocraft.Container) (*leafService, error) {
	return &leafService{}, nil
}, iocraft.Schema[leafService]{}, iocraft.WithoutFacade())

var _ = iocraft.Register(func(c *iocraft.Container) (*rootService, error) {
	leaf, err := iocraft.ObtainRaw[leafService](c)
	if err != nil {
		return nil, err
	}
	return &rootService{leaf: leaf}, nil
}, iocraft.Schema[rootService]{}, iocraft.WithoutFacade())

func TestContainer_Singleton(t *testing.T) {
	t.Parallel()

	t.Run("returns the same facade and constructs once", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		first, err := iocraft.Obtain[counted](c)
		require.NoError(t, err)

		second, err := iocraft.Obtain[counted](c)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, countedCalls.get(c))

		ref, err := iocraft.ObtainRaw[counted](c)
		require.NoError(t, err)
		assert.False(t, ref.Deferred())
		assert.Equal(t, 1, countedCalls.get(c))

		id, err := iocraft.ValueOf[int](first, "id")
		require.NoError(t, err)
		assert.Equal(t, ref.MustGet().id, id)
	})

	t.Run("containers do not share instances", func(t *testing.T) {
		t.Parallel()

		c1, _ := newContainer()
		c2, _ := newContainer()

		f1, err := iocraft.Obtain[counted](c1)
		require.NoError(t, err)
		f2, err := iocraft.Obtain[counted](c2)
		require.NoError(t, err)

		assert.NotSame(t, f1, f2)
	})

	t.Run("has reports constructed singletons", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		assert.False(t, iocraft.Has[counted](c))
		_, err := iocraft.Obtain[counted](c)
		require.NoError(t, err)
		assert.True(t, iocraft.Has[counted](c))
		assert.False(t, iocraft.Has[neverRegistered](c))
	})

	t.Run("reset drops instances", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		first, err := iocraft.Obtain[counted](c)
		require.NoError(t, err)

		c.Reset()

		second, err := iocraft.Obtain[counted](c)
		require.NoError(t, err)

		assert.NotSame(t, first, second)
		assert.Equal(t, 2, countedCalls.get(c))
	})
}

func TestContainer_Transient(t *testing.T) {
	t.Parallel()

	c, _ := newContainer()

	first, err := iocraft.ObtainInstance[counted](c)
	require.NoError(t, err)

	second, err := iocraft.ObtainInstance[counted](c)
	require.NoError(t, err)

	assert.NotSame(t, first, second)

	id1, err := iocraft.ValueOf[int](first, "id")
	require.NoError(t, err)
	id2, err := iocraft.ValueOf[int](second, "id")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	assert.Equal(t, 2, countedCalls.get(c))
	assert.False(t, iocraft.Has[counted](c))
}

func TestContainer_NotRegistered(t *testing.T) {
	t.Parallel()

	c, _ := newContainer()

	_, err := iocraft.Obtain[neverRegistered](c)
	require.ErrorIs(t, err, iocraft.ErrNotRegistered)
	assert.Contains(t, err.Error(), "neverRegistered")

	_, err = iocraft.ObtainInstance[neverRegistered](c)
	require.ErrorIs(t, err, iocraft.ErrNotRegistered)

	_, err = iocraft.Resolve[neverRegistered](c)
	require.ErrorIs(t, err, iocraft.ErrNotRegistered)

	_, err = iocraft.ObtainRaw[neverRegistered](c)
	require.ErrorIs(t, err, iocraft.ErrNotRegistered)
}

func TestContainer_Cycles(t *testing.T) {
	t.Parallel()

	t.Run("two services", func(t *testing.T) {
		t.Parallel()

		c, logs := newContainer()

		a, err := iocraft.Obtain[twoA](c)
		require.NoError(t, err)

		b, err := iocraft.Obtain[twoB](c)
		require.NoError(t, err)

		assert.Equal(t, "B", call[string](a, "describeB"))
		assert.Equal(t, "A", call[string](b, "describeA"))

		assert.Contains(t, logs.String(), "circular dependency")
	})

	t.Run("starting from the other side", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		b, err := iocraft.Obtain[twoB](c)
		require.NoError(t, err)

		assert.Equal(t, "A", call[string](b, "describeA"))
	})

	t.Run("three services", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		r1, err := iocraft.Obtain[ring1](c)
		require.NoError(t, err)
		r2, err := iocraft.Obtain[ring2](c)
		require.NoError(t, err)
		r3, err := iocraft.Obtain[ring3](c)
		require.NoError(t, err)

		assert.Equal(t, "ring2", call[string](r1, "nextName"))
		assert.Equal(t, "ring3", call[string](r2, "nextName"))
		assert.Equal(t, "ring1", call[string](r3, "nextName"))

		cycles := c.Cycles()
		require.Len(t, cycles, 1)
		assert.Equal(t, "ring3", lastSegment(cycles[0].From.Name))
		assert.Equal(t, "ring1", lastSegment(cycles[0].To.Name))

		assert.Equal(t, 3, c.Graph().VertexCount())
		assert.Equal(t, 2, c.Graph().EdgeCount())
	})

	t.Run("singleton and transient", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		s, err := iocraft.Obtain[mixedSingleton](c)
		require.NoError(t, err)

		transient := call[*iocraft.Facade](s, "transient")
		assert.Same(t, transient, call[*iocraft.Facade](transient, "ownerTransient"))
	})

	t.Run("transient self dependency", func(t *testing.T) {
		t.Parallel()

		c, logs := newContainer()

		f, err := iocraft.ObtainInstance[recursive](c)
		require.NoError(t, err)
		assert.Equal(t, 1, recursiveCalls.get(c))

		assert.Contains(t, logs.String(), "transient")
		assert.Contains(t, logs.String(), "infinite recursion")

		child, err := iocraft.ValueOf[*iocraft.Facade](f, "child")
		require.NoError(t, err)
		assert.True(t, child.Lazy())

		childID, err := iocraft.ValueOf[int](child, "id")
		require.NoError(t, err)
		assert.Equal(t, 2, childID)
		assert.False(t, child.Lazy())

		// the child's own child is lazy again, resolution stays bounded
		grandchild, err := iocraft.ValueOf[*iocraft.Facade](child, "child")
		require.NoError(t, err)
		assert.True(t, grandchild.Lazy())
		assert.Equal(t, 2, recursiveCalls.get(c))
	})
}

func TestContainer_PrematureAccess(t *testing.T) {
	t.Parallel()

	t.Run("reading a cyclic dependency in a constructor", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		_, err := iocraft.Obtain[eagerA](c)
		require.ErrorIs(t, err, iocraft.ErrPrematureAccess)
		assert.Contains(t, err.Error(), "constructor")
		assert.Contains(t, err.Error(), "accessed before")

		var premature *iocraft.PrematureAccessError
		require.ErrorAs(t, err, &premature)
		assert.Equal(t, "eagerA", lastSegment(premature.Name))
		assert.Equal(t, "eagerB", lastSegment(premature.Via))

		assert.False(t, iocraft.Has[eagerA](c))
	})

	t.Run("reading itself in a constructor", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		_, err := iocraft.Obtain[selfReading](c)
		require.ErrorIs(t, err, iocraft.ErrPrematureAccess)
	})

	t.Run("starting from the other side", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		// eagerA is built inside eagerB's constructor and reads eagerB too early
		_, err := iocraft.Obtain[eagerB](c)
		require.ErrorIs(t, err, iocraft.ErrPrematureAccess)

		var premature *iocraft.PrematureAccessError
		require.ErrorAs(t, err, &premature)
		assert.Equal(t, "eagerB", lastSegment(premature.Name))
		assert.Empty(t, premature.Via)
	})
}

func TestContainer_ConstructorErrors(t *testing.T) {
	t.Parallel()

	t.Run("errors propagate unmodified", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()
		setFlaky(c, errTest, false)

		_, err := iocraft.Obtain[flaky](c)
		assert.Same(t, errTest, err)

		setFlaky(c, nil, false)

		_, err = iocraft.Obtain[flaky](c)
		assert.NoError(t, err)
	})

	t.Run("panics propagate and the creation stack unwinds", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()
		setFlaky(c, nil, true)

		assert.PanicsWithValue(t, "flaky panicked", func() {
			_, _ = iocraft.Obtain[flaky](c)
		})

		setFlaky(c, nil, false)

		// a leftover stack entry would turn this into a lazy handle
		ref, err := iocraft.ObtainRaw[flaky](c)
		require.NoError(t, err)
		assert.False(t, ref.Deferred())
	})

	t.Run("nil instances are rejected", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		_, err := iocraft.Obtain[nilService](c)
		assert.ErrorIs(t, err, iocraft.ErrNilInstance)
	})
}

func TestContainer_Shutdown(t *testing.T) {
	t.Parallel()

	t.Run("shuts down dependents first", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		root, err := iocraft.ObtainRaw[rootService](c)
		require.NoError(t, err)

		var order []string
		root.MustGet().On("Shutdown", mock.Anything).Run(func(mock.Arguments) { order = append(order, "root") }).Return(nil)
		root.MustGet().leaf.MustGet().On("Shutdown", mock.Anything).Run(func(mock.Arguments) { order = append(order, "leaf") }).Return(nil)

		require.NoError(t, c.Shutdown(t.Context()))
		assert.Equal(t, []string{"root", "leaf"}, order)
	})

	t.Run("continues after a failure and joins errors", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		root, err := iocraft.ObtainRaw[rootService](c)
		require.NoError(t, err)

		root.MustGet().On("Shutdown", mock.Anything).Return(errTest)
		root.MustGet().leaf.MustGet().On("Shutdown", mock.Anything).Return(nil)

		err = c.Shutdown(t.Context())
		require.ErrorIs(t, err, errTest)

		root.MustGet().leaf.MustGet().AssertExpectations(t)
	})

	t.Run("applies the shutdown timeout", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()
		require.NoError(t, iocraft.Install(c, iocraft.Options{ShutdownTimeout: time.Minute}))

		root, err := iocraft.ObtainRaw[rootService](c)
		require.NoError(t, err)

		root.MustGet().On("Shutdown", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		})).Return(nil)
		root.MustGet().leaf.MustGet().On("Shutdown", mock.Anything).Return(nil)

		require.NoError(t, c.Shutdown(t.Context()))
		root.MustGet().AssertExpectations(t)
	})
}

func TestContainer_HealthCheck(t *testing.T) {
	t.Parallel()

	t.Run("checks every singleton", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		root, err := iocraft.ObtainRaw[rootService](c)
		require.NoError(t, err)

		root.MustGet().On("HealthCheck", mock.Anything).Return(nil)
		root.MustGet().leaf.MustGet().On("HealthCheck", mock.Anything).Return(nil)

		require.NoError(t, c.HealthCheck(t.Context()))

		root.MustGet().AssertExpectations(t)
		root.MustGet().leaf.MustGet().AssertExpectations(t)
	})

	t.Run("returns the failure", func(t *testing.T) {
		t.Parallel()

		c, _ := newContainer()

		root, err := iocraft.ObtainRaw[rootService](c)
		require.NoError(t, err)

		root.MustGet().On("HealthCheck", mock.Anything).Return(nil)
		root.MustGet().leaf.MustGet().On("HealthCheck", mock.Anything).Return(errTest)

		err = c.HealthCheck(t.Context())
		assert.True(t, errors.Is(err, errTest))
	})
}

func TestContainer_Graph(t *testing.T) {
	t.Parallel()

	c, _ := newContainer()

	_, err := iocraft.ObtainRaw[rootService](c)
	require.NoError(t, err)

	rootDesc, err := iocraft.Describe[rootService]()
	require.NoError(t, err)
	leafDesc, err := iocraft.Describe[leafService]()
	require.NoError(t, err)

	assert.True(t, c.Graph().EdgeExists(rootDesc.Token, leafDesc.Token))
	assert.Empty(t, c.Cycles())
}

func lastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
