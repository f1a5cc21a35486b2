package iocraft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zhulik/iocraft/pkg/dag"
)

// Container owns the root registry, the facade caches and the creation stack.
//
// A Container is not safe for concurrent use: like the UI thread of its host, it
// must be driven from a single goroutine. Re-entrant calls from constructors on
// that goroutine are expected and handled.
type Container struct {
	host   Host
	logger *slog.Logger

	// root registry: one instance per singleton token
	instances map[Token]any
	// facade cache for singletons
	facades map[Token]*Facade
	// facade cache for scoped instances, evicted on teardown
	instanceFacades map[any]*Facade
	// instances bound to a component scope
	scoped map[any]bool

	// creation stack
	creating map[Token]bool
	chain    []*frame
	// singletons holding lazy handles to services still under construction
	pending map[Token][]*Descriptor

	graph  *dag.DAG[Token, *Descriptor]
	cycles []Edge

	healthCheckTimeout time.Duration
	shutdownTimeout    time.Duration
}

// frame is one construction in progress.
type frame struct {
	descriptor *Descriptor
	// pending holds services under construction this one received lazy handles to.
	pending []*Descriptor
}

func (f *frame) addPending(d *Descriptor) {
	for _, p := range f.pending {
		if p == d {
			return
		}
	}
	f.pending = append(f.pending, d)
}

// Edge is a dependency observed during construction.
type Edge struct {
	From, To *Descriptor
}

// New creates an empty container using NopHost and the default slog logger.
func New() *Container {
	c := &Container{
		host:   NopHost{},
		logger: slog.Default().With("component", "iocraft"),
	}
	c.Reset()

	return c
}

// WithHost sets the host framework collaborator.
func (c *Container) WithHost(host Host) *Container {
	c.host = host
	return c
}

// WithLogger sets the logger used for diagnostics.
func (c *Container) WithLogger(logger *slog.Logger) *Container {
	c.logger = logger
	return c
}

// Host returns the host framework collaborator.
func (c *Container) Host() Host {
	return c.host
}

// Logger returns the container's logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Reset drops every instance, facade and recorded dependency. Descriptors stay registered.
func (c *Container) Reset() {
	c.instances = map[Token]any{}
	c.facades = map[Token]*Facade{}
	c.instanceFacades = map[any]*Facade{}
	c.scoped = map[any]bool{}
	c.creating = map[Token]bool{}
	c.chain = nil
	c.pending = map[Token][]*Descriptor{}
	c.graph = dag.New[Token, *Descriptor]()
	c.cycles = nil
}

// Graph returns the dependency graph recorded so far. Edges that closed a cycle are
// not part of it, see Cycles.
func (c *Container) Graph() *dag.DAG[Token, *Descriptor] {
	return c.graph
}

// Cycles returns the dependency edges that closed a cycle, in the order they were observed.
func (c *Container) Cycles() []Edge {
	return append([]Edge(nil), c.cycles...)
}

// provide stores instance as the singleton of d, replacing any cached facade.
func (c *Container) provide(d *Descriptor, instance any) {
	c.graph.AddVertexIfNotExist(d.Token, d)
	c.instances[d.Token] = instance
	delete(c.facades, d.Token)
}

func (c *Container) isCreating(token Token) bool {
	return c.creating[token]
}

// singleton returns the canonical instance of d, constructing it on first use.
// reentrant is true when d is already under construction; the caller must hand out a lazy handle.
// pending lists services under construction the new instance holds lazy handles to.
func (c *Container) singleton(d *Descriptor) (instance any, pending []*Descriptor, reentrant bool, err error) {
	c.recordEdge(d)

	if instance, ok := c.instances[d.Token]; ok {
		return instance, c.stillPending(d.Token), false, nil
	}

	if c.isCreating(d.Token) {
		c.logger.Warn("circular dependency detected, resolving with a lazy handle; access dependencies in methods, not constructors",
			"service", d.Name, "cycle", c.markCycle(d))
		return nil, nil, true, nil
	}

	instance, pending, err = c.construct(d)
	if err != nil {
		return nil, nil, false, err
	}

	c.instances[d.Token] = instance
	if len(pending) > 0 {
		c.pending[d.Token] = pending
	}
	c.logger.Debug("singleton created", "service", d.Name)

	return instance, pending, false, nil
}

// transient constructs a new instance of d. Inside an active component the instance's
// lifecycle methods are bound and a teardown is registered.
func (c *Container) transient(d *Descriptor) (instance any, pending []*Descriptor, reentrant bool, err error) {
	c.recordEdge(d)

	if c.isCreating(d.Token) {
		c.logger.Warn("circular dependency in transient service; a new instance is created on every access, "+
			"which can cause infinite recursion, consider resolving at least one side as a singleton",
			"service", d.Name, "cycle", c.markCycle(d))
		return nil, nil, true, nil
	}

	component := c.host.CurrentComponent()

	instance, pending, err = c.construct(d)
	if err != nil {
		return nil, nil, false, err
	}

	if component != nil {
		c.bindScope(component, d, instance)
	}

	return instance, pending, false, nil
}

// construct runs the constructor of d with d pushed on the creation stack.
// The stack entry is removed on every exit path, panics included.
func (c *Container) construct(d *Descriptor) (any, []*Descriptor, error) {
	fr := &frame{descriptor: d}

	c.chain = append(c.chain, fr)
	c.creating[d.Token] = true

	defer func() {
		c.chain = c.chain[:len(c.chain)-1]
		delete(c.creating, d.Token)
	}()

	instance, err := d.construct(c)
	if err != nil {
		return nil, nil, err
	}

	if instance == nil {
		return nil, nil, fmt.Errorf("iocraft: %s: %w", d.Name, ErrNilInstance)
	}

	return instance, fr.pending, nil
}

// forceTransient builds a fresh instance for a lazy transient handle, outside of the
// construction that requested it.
func (c *Container) forceTransient(d *Descriptor) (any, error) {
	if c.isCreating(d.Token) {
		return nil, &PrematureAccessError{Name: d.Name}
	}

	instance, pending, err := c.construct(d)
	if err != nil {
		return nil, err
	}

	if err := c.checkPending(d, pending); err != nil {
		return nil, err
	}

	return instance, nil
}

// forceSingleton resolves a lazy singleton handle.
func (c *Container) forceSingleton(d *Descriptor) (any, error) {
	if instance, ok := c.instances[d.Token]; ok {
		return instance, nil
	}

	if c.isCreating(d.Token) {
		return nil, &PrematureAccessError{Name: d.Name}
	}

	// the original construction failed, try again
	instance, pending, _, err := c.singleton(d)
	if err != nil {
		return nil, err
	}

	if err := c.checkPending(d, pending); err != nil {
		return nil, err
	}

	return instance, nil
}

// stillPending returns the services the singleton behind token holds lazy handles to
// that are still under construction.
func (c *Container) stillPending(token Token) []*Descriptor {
	var pending []*Descriptor
	for _, p := range c.pending[token] {
		if c.isCreating(p.Token) {
			pending = append(pending, p)
		}
	}

	if len(pending) == 0 {
		delete(c.pending, token)
	}

	return pending
}

// checkPending fails while any service the instance of d holds a lazy handle to is still being constructed.
func (c *Container) checkPending(d *Descriptor, pending []*Descriptor) error {
	for _, p := range pending {
		if c.isCreating(p.Token) {
			return &PrematureAccessError{Name: p.Name, Via: d.Name}
		}
	}
	return nil
}

// markCycle records that every construction above d on the stack now depends on a
// lazy handle to d, and returns the cycle as text.
func (c *Container) markCycle(d *Descriptor) string {
	start := len(c.chain)
	for i, fr := range c.chain {
		if fr.descriptor.Token == d.Token {
			start = i
			break
		}
	}

	names := make([]string, 0, len(c.chain)-start+1)
	for i, fr := range c.chain[start:] {
		names = append(names, fr.descriptor.Name)
		if i > 0 {
			fr.addPending(d)
		}
	}
	names = append(names, d.Name)

	return strings.Join(names, " -> ")
}

// recordEdge adds d to the dependency graph, linked to the construction requesting it.
func (c *Container) recordEdge(d *Descriptor) {
	c.graph.AddVertexIfNotExist(d.Token, d)

	if len(c.chain) == 0 {
		return
	}

	parent := c.chain[len(c.chain)-1].descriptor

	err := c.graph.AddEdge(parent.Token, d.Token)
	if errors.Is(err, dag.ErrCycleDetected) {
		for _, e := range c.cycles {
			if e.From == parent && e.To == d {
				return
			}
		}
		c.cycles = append(c.cycles, Edge{From: parent, To: d})
	}
}

// singletonFacade returns the cached facade of a singleton, building it on first use.
func (c *Container) singletonFacade(d *Descriptor, instance any) *Facade {
	if f, ok := c.facades[d.Token]; ok {
		return f
	}

	f := c.buildFacade(d, instance)
	c.facades[d.Token] = f

	return f
}

func (c *Container) buildFacade(d *Descriptor, instance any) *Facade {
	b := newFacadeBuilder(d, c.logger, c.host.IsReactive)
	d.populate(b, instance)

	c.logger.Debug("facade built", "service", d.Name, "members", len(b.facade.order))

	return b.facade
}

// facadeOf returns the facade for any instance of d: the token-cached one for the
// singleton, a scope-cached one for instances bound to a component, a fresh one otherwise.
func (c *Container) facadeOf(d *Descriptor, instance any) *Facade {
	if singleton, ok := c.instances[d.Token]; ok && singleton == instance {
		return c.singletonFacade(d, instance)
	}

	if f, ok := c.instanceFacades[instance]; ok {
		return f
	}

	f := c.buildFacade(d, instance)
	if c.scoped[instance] {
		c.instanceFacades[instance] = f
	}

	return f
}

// guardFacade wraps f so it cannot be used while services it depends on lazily are under construction.
func (c *Container) guardFacade(d *Descriptor, f *Facade, pending []*Descriptor) *Facade {
	if len(pending) == 0 {
		return f
	}

	return lazyFacade(d.Name, d.Token, func() (*Facade, error) {
		if err := c.checkPending(d, pending); err != nil {
			return nil, err
		}
		return f, nil
	})
}

// HealthCheck runs HealthCheck on every singleton that implements HealthChecker, concurrently.
// It returns the first error.
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.healthCheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.healthCheckTimeout)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)

	for token, instance := range c.instances {
		d, _ := c.graph.GetVertex(token)
		name := token.String()
		if d != nil {
			name = d.Name
		}

		g.Go(func() error {
			return healthcheckService(ctx, instance, c.logger.With("service", name))
		})
	}

	return g.Wait()
}

// Shutdown calls Shutdown on every singleton that implements Shutdowner, dependents first.
// A failing service does not stop the sequence; all errors are returned joined.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.shutdownTimeout)
		defer cancel()
	}

	var errs []error

	for token, d := range c.graph.TopologicalOrder() {
		instance, ok := c.instances[token]
		if !ok {
			continue
		}

		errs = append(errs, shutdownService(ctx, instance, c.logger.With("service", d.Name)))
	}

	return errors.Join(errs...)
}
