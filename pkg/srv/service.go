package srv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/tusk/pkg/log"
)

const DefaultShutdownTimeout = 10 * time.Second

type Service interface {
	// Start blocks until the service stops or fails.
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Run starts every service and blocks until ctx is done or one of them
// fails. Services are then shut down in reverse order and the first start
// failure, if any, is returned.
func Run(ctx context.Context, services []Service, shutdownTimeout time.Duration) error {
	logger := log.FromCtx(ctx)
	failed := make(chan error, len(services))

	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				failed <- fmt.Errorf("%T failed to start: %w", service, err)
			}
		}(service)
	}

	var startErr error
	select {
	case <-ctx.Done():
	case startErr = <-failed:
		logger.Error().Err(startErr).Msg("service failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return errors.Join(startErr, Shutdown(shutdownCtx, services))
}

// Shutdown stops services in reverse start order.
func Shutdown(ctx context.Context, services []Service) error {
	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", services[i])
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
