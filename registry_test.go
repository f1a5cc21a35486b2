package iocraft_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhulik/iocraft"
)

type registeredTwice struct {
	value string
}

type neverRegistered struct{}

type namedService struct{}

var namedServiceClass = iocraft.Register(func(*iocraft.Container) (*namedService, error) {
	return &namedService{}, nil
}, iocraft.Schema[namedService]{}, iocraft.Named("Named"), iocraft.WithoutFacade())

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("registering twice keeps the first token", func(t *testing.T) {
		t.Parallel()

		first := iocraft.Register(func(*iocraft.Container) (*registeredTwice, error) {
			return &registeredTwice{value: "first"}, nil
		}, iocraft.Schema[registeredTwice]{})

		second := iocraft.Register(func(*iocraft.Container) (*registeredTwice, error) {
			return &registeredTwice{value: "second"}, nil
		}, iocraft.Schema[registeredTwice]{}, iocraft.WithoutFacade())

		assert.Equal(t, first.Token(), second.Token())
		assert.Same(t, first.Descriptor(), second.Descriptor())
		assert.True(t, second.Descriptor().UsesFacade)

		c, _ := newContainer()
		ref, err := iocraft.ObtainRaw[registeredTwice](c)
		require.NoError(t, err)
		assert.Equal(t, "first", ref.MustGet().value)
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		d := namedServiceClass.Descriptor()
		assert.Equal(t, "Named", d.Name)
		assert.False(t, d.UsesFacade)
		assert.Equal(t, reflect.TypeFor[namedService](), d.Type())
		assert.Equal(t, "[iocraft]: Service - Named", d.Token.String())
		assert.False(t, d.Token.IsZero())
	})

	t.Run("derives the name from the type", func(t *testing.T) {
		t.Parallel()

		assert.True(t, strings.HasSuffix(profileClass.Name(), "profile"), profileClass.Name())
		assert.True(t, strings.HasPrefix(profileClass.Name(), "*"), profileClass.Name())
	})

	t.Run("panics on a nil constructor", func(t *testing.T) {
		t.Parallel()

		type nilConstructor struct{}

		assert.Panics(t, func() {
			iocraft.Register[nilConstructor](nil, iocraft.Schema[nilConstructor]{})
		})
	})

	t.Run("panics on an invalid schema", func(t *testing.T) {
		t.Parallel()

		type invalidSchema struct{ name string }

		assert.Panics(t, func() {
			iocraft.Register(func(*iocraft.Container) (*invalidSchema, error) {
				return &invalidSchema{}, nil
			}, iocraft.Schema[invalidSchema]{
				Own: []iocraft.Member[invalidSchema]{
					iocraft.Field[invalidSchema, string]("name", nil),
				},
			})
		})
	})
}

func TestRegister_StaticMethods(t *testing.T) {
	t.Parallel()

	type versioned struct{}

	var recovered any
	func() {
		defer func() { recovered = recover() }()

		iocraft.Register(func(*iocraft.Container) (*versioned, error) {
			return &versioned{}, nil
		}, iocraft.Schema[versioned]{
			Static: []iocraft.StaticMember{
				iocraft.StaticMethod("version", 42),
			},
		})
	}()

	require.NotNil(t, recovered)
	assert.Contains(t, recovered, iocraft.ErrInvalidSchema.Error())
	assert.Contains(t, recovered, "version")

	_, err := iocraft.Describe[versioned]()
	assert.ErrorIs(t, err, iocraft.ErrNotRegistered)
}

func TestDescriptorOf(t *testing.T) {
	t.Parallel()

	for name, input := range map[string]any{
		"class":         profileClass,
		"instance":      &profile{},
		"value":         profile{},
		"reflect type":  reflect.TypeFor[profile](),
		"pointer rtype": reflect.TypeFor[*profile](),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d, err := iocraft.DescriptorOf(input)
			require.NoError(t, err)
			assert.Equal(t, profileClass.Token(), d.Token)
		})
	}

	t.Run("unregistered type", func(t *testing.T) {
		t.Parallel()

		_, err := iocraft.DescriptorOf(&neverRegistered{})
		require.ErrorIs(t, err, iocraft.ErrNotRegistered)
		assert.Contains(t, err.Error(), "neverRegistered")
		assert.Contains(t, err.Error(), "iocraft.Register")

		// every lookup names the type the same way
		_, described := iocraft.Describe[neverRegistered]()
		require.Error(t, described)
		assert.Equal(t, described.Error(), err.Error())

		for _, input := range []any{neverRegistered{}, reflect.TypeFor[neverRegistered](), reflect.TypeFor[*neverRegistered]()} {
			_, err := iocraft.DescriptorOf(input)
			require.Error(t, err)
			assert.Equal(t, described.Error(), err.Error())
		}
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		_, err := iocraft.DescriptorOf(nil)
		assert.ErrorIs(t, err, iocraft.ErrNotRegistered)
	})
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	d, err := iocraft.Describe[profile]()
	require.NoError(t, err)
	assert.Same(t, profileClass.Descriptor(), d)

	_, err = iocraft.Describe[neverRegistered]()

	var notRegistered *iocraft.NotRegisteredError
	require.ErrorAs(t, err, &notRegistered)
	assert.Contains(t, notRegistered.Name, "neverRegistered")
}
