package iocraft

import "context"

// Lifecycle-shaped interfaces. When a transient service is resolved during component
// setup, every one of these it implements is bound to the matching host event.

type OnMounted interface{ OnMounted() }

type OnUpdated interface{ OnUpdated() }

type OnUnmounted interface{ OnUnmounted() }

type OnBeforeMount interface{ OnBeforeMount() }

type OnBeforeUpdate interface{ OnBeforeUpdate() }

type OnBeforeUnmount interface{ OnBeforeUnmount() }

type OnErrorCaptured interface{ OnErrorCaptured() }

type OnRenderTracked interface{ OnRenderTracked() }

type OnRenderTriggered interface{ OnRenderTriggered() }

type OnActivated interface{ OnActivated() }

type OnDeactivated interface{ OnDeactivated() }

type OnServerPrefetch interface{ OnServerPrefetch() }

// OnScopeDispose is called when the component scope that resolved the service ends.
// It runs inside the teardown sequence: a panic is recovered and logged.
type OnScopeDispose interface{ OnScopeDispose() }

// Disposer is an optional interface for services that own resources.
type Disposer interface {
	// Dispose is called during scope teardown, after OnScopeDispose.
	// A returned error is logged, teardown continues regardless.
	Dispose() error
}

// HealthChecker is an optional interface that can be implemented by a singleton service.
type HealthChecker interface {
	// HealthCheck is being called by Container.HealthCheck. All singletons are checked concurrently,
	// the first error is returned.
	// ctx is canceled as soon as one of the checks fails.
	HealthCheck(ctx context.Context) error
}

// Shutdowner is an optional interface that can be implemented by a singleton service.
type Shutdowner interface {
	// Shutdown is being called by Container.Shutdown. Services are shut down dependents first.
	// If returns an error, shutdown continues with the remaining services and all errors are returned joined.
	Shutdown(ctx context.Context) error
}
