// Package headless is an in-memory component host. It drives component setup, lifecycle
// events, provide/inject and scope teardown without a renderer, for tests and tools.
package headless

import (
	"log/slog"

	"github.com/zhulik/iocraft"
)

// Host implements iocraft.Host over a tree of Components.
// Like a UI thread it must be used from a single goroutine.
type Host struct {
	current *Component
	logger  *slog.Logger
}

// New creates a host with no active component.
func New() *Host {
	return &Host{logger: slog.Default().With("component", "headless")}
}

// WithLogger sets the logger used to report panics in teardown callbacks.
func (h *Host) WithLogger(logger *slog.Logger) *Host {
	h.logger = logger
	return h
}

// Setup creates a component under parent (nil for a root) and runs setup with it as
// the current component.
func (h *Host) Setup(name string, parent *Component, setup func()) *Component {
	component := &Component{
		name:     name,
		parent:   parent,
		host:     h,
		provides: map[any]any{},
		hooks:    map[iocraft.Hook][]func(){},
	}

	if parent != nil {
		parent.children = append(parent.children, component)
	}

	prev := h.current
	h.current = component
	defer func() { h.current = prev }()

	if setup != nil {
		setup()
	}

	return component
}

// CurrentComponent implements iocraft.Host.
func (h *Host) CurrentComponent() iocraft.Component {
	if h.current == nil {
		return nil
	}
	return h.current
}

// OnScopeTeardown implements iocraft.Host. Outside of setup it does nothing.
func (h *Host) OnScopeTeardown(fn func()) {
	if h.current == nil {
		return
	}
	h.current.teardown = append(h.current.teardown, fn)
}

// Provide implements iocraft.Host. Values are visible to descendants of the current component.
func (h *Host) Provide(key, value any) {
	if h.current == nil {
		h.logger.Warn("provide called outside of component setup", "key", key)
		return
	}
	h.current.provides[key] = value
}

// Inject implements iocraft.Host. The nearest ancestor providing key wins.
func (h *Host) Inject(key any) (any, bool) {
	if h.current == nil {
		return nil, false
	}

	for c := h.current.parent; c != nil; c = c.parent {
		if v, ok := c.provides[key]; ok {
			return v, true
		}
	}

	return nil, false
}

// IsReactive implements iocraft.Host: values created with NewSignal are reactive.
func (h *Host) IsReactive(v any) bool {
	_, ok := v.(reactive)
	return ok
}
