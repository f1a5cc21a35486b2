package iocraft

import (
	"fmt"
	"reflect"
)

// Obtain returns the facade of the singleton T, constructing it on first use.
// Every call returns the same *Facade.
//
// Called from a constructor that T itself depends on, Obtain returns a lazy facade that
// resolves on first member access and fails with *PrematureAccessError until T is built.
func Obtain[T any](c *Container) (*Facade, error) {
	d, err := Describe[T]()
	if err != nil {
		return nil, err
	}

	return c.obtainFacade(d)
}

// MustObtain is like Obtain but panics if an error occurs.
func MustObtain[T any](c *Container) *Facade {
	return must(Obtain[T](c))
}

// ObtainRaw returns a handle to the singleton instance of T.
func ObtainRaw[T any](c *Container) (Ref[T], error) {
	d, err := Describe[T]()
	if err != nil {
		return Ref[T]{}, err
	}

	instance, pending, reentrant, err := c.singleton(d)
	if err != nil {
		return Ref[T]{}, err
	}

	if reentrant {
		return deferredRef(d.Name, func() (*T, error) {
			instance, err := c.forceSingleton(d)
			if err != nil {
				return nil, err
			}
			if err := c.checkPending(d, c.stillPending(d.Token)); err != nil {
				return nil, err
			}
			return instance.(*T), nil
		}), nil
	}

	return guardRef(c, d, instance.(*T), pending), nil
}

// ObtainInstance constructs a new T and returns its facade. Inside component setup the
// instance's lifecycle methods are bound to the component and it is disposed with it.
func ObtainInstance[T any](c *Container) (*Facade, error) {
	d, err := Describe[T]()
	if err != nil {
		return nil, err
	}

	return c.obtainInstanceFacade(d)
}

// ObtainRawInstance constructs a new T and returns a handle to it. See ObtainInstance.
func ObtainRawInstance[T any](c *Container) (Ref[T], error) {
	d, err := Describe[T]()
	if err != nil {
		return Ref[T]{}, err
	}

	instance, pending, reentrant, err := c.transient(d)
	if err != nil {
		return Ref[T]{}, err
	}

	if reentrant {
		return deferredRef(d.Name, func() (*T, error) {
			instance, err := c.forceTransient(d)
			if err != nil {
				return nil, err
			}
			return instance.(*T), nil
		}), nil
	}

	return guardRef(c, d, instance.(*T), pending), nil
}

// Resolve returns the singleton T as a *Facade, or as a Ref[T] when T was registered WithoutFacade.
func Resolve[T any](c *Container) (any, error) {
	d, err := Describe[T]()
	if err != nil {
		return nil, err
	}

	if d.UsesFacade {
		return c.obtainFacade(d)
	}

	return ObtainRaw[T](c)
}

// ResolveTransient is like Resolve but constructs a new T.
func ResolveTransient[T any](c *Container) (any, error) {
	d, err := Describe[T]()
	if err != nil {
		return nil, err
	}

	if d.UsesFacade {
		return c.obtainInstanceFacade(d)
	}

	return ObtainRawInstance[T](c)
}

// ResolveService resolves the singleton behind any registered service handle: a *Facade,
// or the raw instance when the service was registered WithoutFacade.
func ResolveService(c *Container, service Service) (any, error) {
	d := service.Descriptor()

	if d.UsesFacade {
		return c.obtainFacade(d)
	}

	instance, _, reentrant, err := c.singleton(d)
	if err != nil {
		return nil, err
	}

	if reentrant {
		return nil, &PrematureAccessError{Name: d.Name}
	}

	return instance, nil
}

// ObtainFromContext returns the value an ancestor component published for T with Expose.
// It reports false when nothing was published or T is not registered.
func ObtainFromContext[T any](c *Container) (any, bool) {
	d, err := Describe[T]()
	if err != nil {
		return nil, false
	}

	return c.host.Inject(d.Token)
}

// Expose publishes instance to descendant components under the token of T: its facade,
// or the instance itself when T was registered WithoutFacade.
func Expose[T any](c *Container, instance *T) error {
	d, err := Describe[T]()
	if err != nil {
		return err
	}

	if instance == nil {
		return fmt.Errorf("iocraft: cannot expose %s: %w", d.Name, ErrNilInstance)
	}

	var value any = instance
	if d.UsesFacade {
		value = c.facadeOf(d, instance)
	}

	c.host.Provide(d.Token, value)
	c.logger.Debug("service exposed", "service", d.Name)

	return nil
}

// Has reports whether the singleton T has been constructed.
func Has[T any](c *Container) bool {
	d, err := Describe[T]()
	if err != nil {
		return false
	}

	_, ok := c.instances[d.Token]
	return ok
}

// FacadeOf returns the facade of any instance of a registered type. The instance must be
// a *T. The singleton's facade and the facades of component-bound instances are cached.
func FacadeOf(c *Container, instance any) (*Facade, error) {
	d, err := DescriptorOf(instance)
	if err != nil {
		return nil, err
	}

	if reflect.TypeOf(instance) != reflect.PointerTo(d.Type()) {
		return nil, fmt.Errorf("iocraft: facade of %s needs a pointer to the instance, got %T: %w",
			d.Name, instance, ErrTypeMismatch)
	}

	if reflect.ValueOf(instance).IsNil() {
		return nil, fmt.Errorf("iocraft: facade of %s: %w", d.Name, ErrNilInstance)
	}

	return c.facadeOf(d, instance), nil
}

func (c *Container) obtainFacade(d *Descriptor) (*Facade, error) {
	instance, pending, reentrant, err := c.singleton(d)
	if err != nil {
		return nil, err
	}

	if reentrant {
		return lazyFacade(d.Name, d.Token, func() (*Facade, error) {
			instance, err := c.forceSingleton(d)
			if err != nil {
				return nil, err
			}
			return c.guardFacade(d, c.singletonFacade(d, instance), c.stillPending(d.Token)), nil
		}), nil
	}

	return c.guardFacade(d, c.singletonFacade(d, instance), pending), nil
}

func (c *Container) obtainInstanceFacade(d *Descriptor) (*Facade, error) {
	instance, pending, reentrant, err := c.transient(d)
	if err != nil {
		return nil, err
	}

	if reentrant {
		return lazyFacade(d.Name, d.Token, func() (*Facade, error) {
			instance, err := c.forceTransient(d)
			if err != nil {
				return nil, err
			}
			return c.facadeOf(d, instance), nil
		}), nil
	}

	return c.guardFacade(d, c.facadeOf(d, instance), pending), nil
}

func guardRef[T any](c *Container, d *Descriptor, instance *T, pending []*Descriptor) Ref[T] {
	if len(pending) == 0 {
		return ReadyRef(instance)
	}

	return deferredRef(d.Name, func() (*T, error) {
		if err := c.checkPending(d, pending); err != nil {
			return nil, err
		}
		return instance, nil
	})
}

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}
