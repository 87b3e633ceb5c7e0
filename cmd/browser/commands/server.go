// Package commands contains the browser CLI command implementations.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/inesdata/dataspace-tools/internal/app"
	"github.com/inesdata/dataspace-tools/internal/config"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

type starter interface {
	Start(ctx context.Context) error
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// RunServer starts the API server and, when enabled, the metrics server.
// It blocks until SIGINT/SIGTERM or until a server fails, then shuts the
// container down within ShutdownTimeout.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := container.HTTPServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	servers := []starter{server}
	if metricsServer != nil {
		servers = append(servers, metricsServer)
	}

	return serve(ctx, servers, container, cfg.ShutdownTimeout, logger)
}

// serve runs every server until ctx is done or one of them fails, then
// shuts down through closer.
func serve(
	ctx context.Context,
	servers []starter,
	closer shutdowner,
	timeout time.Duration,
	logger *slog.Logger,
) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, s := range servers {
		g.Go(func() error {
			return s.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := closer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// RunCheck runs the identity provider readiness check once.
func RunCheck(ctx context.Context, out io.Writer) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	if err := container.Authenticator().Ping(ctx); err != nil {
		return fmt.Errorf("realm %s at %s: %w", cfg.KeycloakRealm, cfg.KeycloakURL, err)
	}

	_, _ = fmt.Fprintf(out, "realm %s at %s is reachable\n", cfg.KeycloakRealm, cfg.KeycloakURL)
	return nil
}
