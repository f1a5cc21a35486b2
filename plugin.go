package iocraft

// Install bootstraps the container: the router, if any, is published as the Nav service
// and every EagerLoad service is constructed in order.
func Install(c *Container, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	c.healthCheckTimeout = opts.HealthCheckTimeout
	c.shutdownTimeout = opts.ShutdownTimeout

	if opts.Router != nil {
		c.provide(NavService.Descriptor(), &Nav{router: opts.Router})
		c.logger.Debug("router installed")
	}

	for _, service := range opts.EagerLoad {
		if _, err := ResolveService(c, service); err != nil {
			return err
		}
		c.logger.Debug("service eagerly loaded", "service", service.Descriptor().Name)
	}

	return nil
}
