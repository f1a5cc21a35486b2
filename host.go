package iocraft

// Hook names a component lifecycle event of the host framework.
type Hook int

const (
	HookMounted Hook = iota + 1
	HookUpdated
	HookUnmounted
	HookBeforeMount
	HookBeforeUpdate
	HookBeforeUnmount
	HookErrorCaptured
	HookRenderTracked
	HookRenderTriggered
	HookActivated
	HookDeactivated
	HookServerPrefetch
	HookScopeDispose
)

var hookNames = map[Hook]string{
	HookMounted:         "onMounted",
	HookUpdated:         "onUpdated",
	HookUnmounted:       "onUnmounted",
	HookBeforeMount:     "onBeforeMount",
	HookBeforeUpdate:    "onBeforeUpdate",
	HookBeforeUnmount:   "onBeforeUnmount",
	HookErrorCaptured:   "onErrorCaptured",
	HookRenderTracked:   "onRenderTracked",
	HookRenderTriggered: "onRenderTriggered",
	HookActivated:       "onActivated",
	HookDeactivated:     "onDeactivated",
	HookServerPrefetch:  "onServerPrefetch",
	HookScopeDispose:    "onScopeDispose",
}

func (h Hook) String() string {
	if name, ok := hookNames[h]; ok {
		return name
	}
	return "unknown"
}

// Component is the component currently being set up by the host.
type Component interface {
	// On registers fn to run when the component reaches the given lifecycle event.
	On(hook Hook, fn func())
}

// Host is the set of capabilities iocraft needs from the UI framework.
type Host interface {
	// CurrentComponent returns the component being set up, or nil outside of component setup.
	CurrentComponent() Component

	// OnScopeTeardown registers fn to run once when the active component scope ends.
	// Only valid while CurrentComponent returns non-nil.
	OnScopeTeardown(fn func())

	// Provide publishes value under key for descendants of the current component.
	Provide(key, value any)

	// Inject reads a value published under key by an ancestor.
	Inject(key any) (any, bool)

	// IsReactive reports whether v is one of the host's reactive primitives.
	// Facades never unwrap such values.
	IsReactive(v any) bool
}

// NopHost is a Host without components. Transient services never get lifecycle
// bindings and context lookups always miss.
type NopHost struct{}

func (NopHost) CurrentComponent() Component { return nil }

func (NopHost) OnScopeTeardown(func()) {}

func (NopHost) Provide(any, any) {}

func (NopHost) Inject(any) (any, bool) { return nil, false }

func (NopHost) IsReactive(any) bool { return false }
