package iocraft

import (
	"context"
	"log/slog"
	"sync"
)

// bindScope ties a transient instance to the component that resolved it: its lifecycle
// methods are registered on the component and a teardown runs when the scope ends.
func (c *Container) bindScope(component Component, d *Descriptor, instance any) {
	logger := c.logger.With("service", d.Name)
	c.scoped[instance] = true

	if hooks := bindLifecycleHooks(component, instance); len(hooks) > 0 {
		logger.Debug("Lifecycle hooks bound", "hooks", hooks)
	}

	var once sync.Once
	c.host.OnScopeTeardown(func() {
		once.Do(func() {
			c.teardown(d, instance, logger)
		})
	})
}

// teardown disposes a scoped instance and evicts its facade. Failures of the instance's
// own disposal logic are logged and never stop the sequence.
func (c *Container) teardown(d *Descriptor, instance any, logger *slog.Logger) {
	logger.Debug("Tearing down")

	if disposer, ok := instance.(OnScopeDispose); ok {
		err := tryWrap(func() error {
			disposer.OnScopeDispose()
			return nil
		})()
		if err != nil {
			logger.Warn("OnScopeDispose failed", "error", &TeardownError{Name: d.Name, Cause: err})
		}
	}

	if disposer, ok := instance.(Disposer); ok {
		err := tryWrap(disposer.Dispose)()
		if err != nil {
			logger.Warn("Dispose failed", "error", &TeardownError{Name: d.Name, Cause: err})
		}
	}

	delete(c.instanceFacades, instance)
	delete(c.scoped, instance)
}

func healthcheckService(ctx context.Context, instance any, logger *slog.Logger) error {
	h, ok := instance.(HealthChecker)
	if !ok {
		return nil
	}

	err := tryWrap(func() error {
		return h.HealthCheck(ctx)
	})()
	if err != nil {
		logger.Warn("Healthcheck failed", "error", err)
		return err
	}

	return nil
}

func shutdownService(ctx context.Context, instance any, logger *slog.Logger) error {
	h, ok := instance.(Shutdowner)
	if !ok {
		return nil
	}

	err := tryWrap(func() error {
		return h.Shutdown(ctx)
	})()
	if err != nil {
		logger.Warn("Shutdown failed", "error", err)
		return err
	}

	logger.Debug("Shut down")

	return nil
}
