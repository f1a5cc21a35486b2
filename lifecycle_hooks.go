package iocraft

// lifecycleHook extracts the handler of one hook from an instance, if it implements it.
type lifecycleHook func(instance any) (func(), bool)

// lifecycleHooks maps every bindable host event to the interface that opts into it.
// HookScopeDispose is absent: it is driven by the teardown sequence instead.
var lifecycleHooks = []struct {
	hook    Hook
	handler lifecycleHook
}{
	{HookMounted, hookOf[OnMounted](OnMounted.OnMounted)},
	{HookUpdated, hookOf[OnUpdated](OnUpdated.OnUpdated)},
	{HookUnmounted, hookOf[OnUnmounted](OnUnmounted.OnUnmounted)},
	{HookBeforeMount, hookOf[OnBeforeMount](OnBeforeMount.OnBeforeMount)},
	{HookBeforeUpdate, hookOf[OnBeforeUpdate](OnBeforeUpdate.OnBeforeUpdate)},
	{HookBeforeUnmount, hookOf[OnBeforeUnmount](OnBeforeUnmount.OnBeforeUnmount)},
	{HookErrorCaptured, hookOf[OnErrorCaptured](OnErrorCaptured.OnErrorCaptured)},
	{HookRenderTracked, hookOf[OnRenderTracked](OnRenderTracked.OnRenderTracked)},
	{HookRenderTriggered, hookOf[OnRenderTriggered](OnRenderTriggered.OnRenderTriggered)},
	{HookActivated, hookOf[OnActivated](OnActivated.OnActivated)},
	{HookDeactivated, hookOf[OnDeactivated](OnDeactivated.OnDeactivated)},
	{HookServerPrefetch, hookOf[OnServerPrefetch](OnServerPrefetch.OnServerPrefetch)},
}

func hookOf[I any](call func(I)) lifecycleHook {
	return func(instance any) (func(), bool) {
		i, ok := instance.(I)
		if !ok {
			return nil, false
		}
		return func() { call(i) }, true
	}
}

// bindLifecycleHooks registers every lifecycle method the instance implements on the component.
// It returns the hooks that were bound.
func bindLifecycleHooks(component Component, instance any) []Hook {
	var bound []Hook

	for _, h := range lifecycleHooks {
		if fn, ok := h.handler(instance); ok {
			component.On(h.hook, fn)
			bound = append(bound, h.hook)
		}
	}

	return bound
}
