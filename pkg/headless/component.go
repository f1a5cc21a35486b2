package headless

import (
	"fmt"

	"github.com/zhulik/iocraft"
)

// Component is a node of the headless component tree.
type Component struct {
	name     string
	parent   *Component
	children []*Component
	host     *Host

	provides map[any]any
	hooks    map[iocraft.Hook][]func()
	teardown []func()

	mounted   bool
	unmounted bool
}

func (c *Component) Name() string {
	return c.name
}

func (c *Component) Parent() *Component {
	return c.parent
}

// On implements iocraft.Component.
func (c *Component) On(hook iocraft.Hook, fn func()) {
	c.hooks[hook] = append(c.hooks[hook], fn)
}

// Emit runs the callbacks registered for hook in registration order.
func (c *Component) Emit(hook iocraft.Hook) {
	for _, fn := range c.hooks[hook] {
		fn()
	}
}

// Mount mounts the component and then its children.
func (c *Component) Mount() {
	if c.mounted {
		return
	}

	c.Emit(iocraft.HookBeforeMount)
	for _, child := range c.children {
		child.Mount()
	}
	c.mounted = true
	c.Emit(iocraft.HookMounted)
}

// Update emits the update events on the component.
func (c *Component) Update() {
	c.Emit(iocraft.HookBeforeUpdate)
	c.Emit(iocraft.HookUpdated)
}

// Unmount unmounts the children first, then ends the component scope: teardown callbacks
// run in registration order. A panicking callback is logged and the others still run.
// A component that was never mounted only ends its scope, no unmount hooks are emitted.
func (c *Component) Unmount() {
	if c.unmounted {
		return
	}
	c.unmounted = true

	if c.mounted {
		c.Emit(iocraft.HookBeforeUnmount)
	}
	for _, child := range c.children {
		child.Unmount()
	}

	for _, fn := range c.teardown {
		c.runTeardown(fn)
	}
	c.teardown = nil

	if c.mounted {
		c.Emit(iocraft.HookUnmounted)
	}
}

func (c *Component) runTeardown(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.host.logger.Error("scope teardown callback panicked",
				"component", c.name, "error", fmt.Sprint(r))
		}
	}()

	fn()
}

// Mounted reports whether Mount was called and Unmount was not.
func (c *Component) Mounted() bool {
	return c.mounted && !c.unmounted
}
