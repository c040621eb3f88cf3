// Package lifecycle pkg/lifecycle/daemon.go
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const ShutdownTimeout = 10 * time.Second

// Service defines the interface that all long-running daemon components
// implement: the scheduler, the renderer, and the status API server.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// DaemonOptions holds configuration for running a daemon.
type DaemonOptions struct {
	Name     string
	Services []Service
}

// RunDaemon starts every service, then blocks until a shutdown signal, a
// service error, or context cancellation, and stops the services with a
// bounded timeout.
func RunDaemon(ctx context.Context, opts *DaemonOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Printf("*** Starting %s", opts.Name)

	errChan := make(chan error, 1)

	for _, svc := range opts.Services {
		go func(svc Service) {
			if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				select {
				case errChan <- err:
				default:
					log.Printf("Service error: %v", err)
				}
			}
		}(svc)
	}

	return handleShutdown(ctx, cancel, opts.Services, errChan)
}

func handleShutdown(
	ctx context.Context, cancel context.CancelFunc, services []Service, errChan chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating shutdown", sig)
	case err := <-errChan:
		log.Printf("Received error: %v, initiating shutdown", err)
		runErr = fmt.Errorf("service error: %w", err)
	case <-ctx.Done():
		log.Printf("Context canceled, initiating shutdown")
		runErr = ctx.Err()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	// Stop in reverse start order: consumers go down before producers.
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(shutdownCtx); err != nil {
			log.Printf("Error during service shutdown: %v", err)

			if runErr == nil {
				runErr = fmt.Errorf("shutdown error: %w", err)
			}
		}
	}

	return runErr
}
