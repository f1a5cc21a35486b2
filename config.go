package iocraft

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	optionsValidator = validator.New()
)

// Options configures Install.
type Options struct {
	// EagerLoad lists services constructed immediately, in order.
	EagerLoad []Service `validate:"dive,required"`
	// Router is published as the Nav service when set.
	Router Router `validate:"-"`

	// HealthCheckTimeout bounds Container.HealthCheck. Zero means no timeout.
	HealthCheckTimeout time.Duration `validate:"gte=0"`
	// ShutdownTimeout bounds Container.Shutdown. Zero means no timeout.
	ShutdownTimeout time.Duration `validate:"gte=0"`
}

func (o *Options) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}
