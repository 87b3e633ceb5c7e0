// Package app assembles application components for the browser server and
// the deployer CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/inesdata/dataspace-tools/internal/auth"
	"github.com/inesdata/dataspace-tools/internal/config"
	"github.com/inesdata/dataspace-tools/internal/edc"
	exchangeHTTP "github.com/inesdata/dataspace-tools/internal/exchange/http"
	exchangeRepository "github.com/inesdata/dataspace-tools/internal/exchange/repository"
	exchangeUsecase "github.com/inesdata/dataspace-tools/internal/exchange/usecase"
	"github.com/inesdata/dataspace-tools/internal/http"
	"github.com/inesdata/dataspace-tools/internal/imaging"
	"github.com/inesdata/dataspace-tools/internal/metrics"
)

// Container holds the browser server dependencies.
// Components are created on first access.
type Container struct {
	config *config.Config

	logger          *slog.Logger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	sessions      *exchangeRepository.MemorySessionRepository
	authenticator *auth.OAuth2Authenticator
	edcClient     edc.Client
	synthesizer   imaging.Synthesizer
	useCase       exchangeUsecase.ExchangeUseCase

	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                  sync.Mutex
	loggerInit          sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	sessionsInit        sync.Once
	authenticatorInit   sync.Once
	edcClientInit       sync.Once
	synthesizerInit     sync.Once
	useCaseInit         sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the browser configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the JSON logger writing to stdout.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = newLogger(os.Stdout, c.config.LogLevel)
	})
	return c.logger
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(
			c.config.MetricsNamespace,
			attribute.String("dataspace.realm", c.config.KeycloakRealm),
			attribute.String("dataspace.provider", c.config.ProviderParticipantID),
		)
		if err != nil {
			c.setInitError("metricsProvider", fmt.Errorf("failed to create metrics provider: %w", err))
			return
		}
		c.metricsProvider = provider
	})
	if err := c.initError("metricsProvider"); err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the operation metrics, a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.setInitError("businessMetrics", err)
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.setInitError("businessMetrics", fmt.Errorf("failed to create business metrics: %w", err))
			return
		}
		c.businessMetrics = bm
	})
	if err := c.initError("businessMetrics"); err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// SessionRepository returns the in-memory session store.
func (c *Container) SessionRepository() *exchangeRepository.MemorySessionRepository {
	c.sessionsInit.Do(func() {
		c.sessions = exchangeRepository.NewMemorySessionRepository()
	})
	return c.sessions
}

// Authenticator returns the identity provider client.
func (c *Container) Authenticator() *auth.OAuth2Authenticator {
	c.authenticatorInit.Do(func() {
		c.authenticator = auth.NewOAuth2Authenticator(auth.Config{
			KeycloakURL: c.config.KeycloakURL,
			Realm:       c.config.KeycloakRealm,
			ClientID:    c.config.KeycloakClientID,
			Scopes:      c.config.KeycloakScopes,
		})
	})
	return c.authenticator
}

// EDCClient returns the consumer connector management API client.
func (c *Container) EDCClient() (edc.Client, error) {
	c.edcClientInit.Do(func() {
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.setInitError("edcClient", fmt.Errorf("failed to get business metrics for edc client: %w", err))
			return
		}
		client := edc.NewHTTPClient(edc.Config{
			ManagementURL:   c.config.ConsumerManagementAPI,
			ParticipantID:   c.config.ProviderParticipantID,
			RequestTimeout:  c.config.EDCRequestTimeout,
			StatusTimeout:   c.config.EDCStatusTimeout,
			DownloadTimeout: c.config.EDCDownloadTimeout,
		}, c.Logger())
		c.edcClient = edc.NewClientWithMetrics(client, bm)
	})
	if err := c.initError("edcClient"); err != nil {
		return nil, err
	}
	return c.edcClient, nil
}

// Synthesizer returns the image synthesis runner.
func (c *Container) Synthesizer() imaging.Synthesizer {
	c.synthesizerInit.Do(func() {
		if c.config.ImageSynthCommand == "" {
			c.Logger().Warn("IMAGE_SYNTH_COMMAND is not set; image synthesis is disabled")
		}
		c.synthesizer = imaging.NewExecSynthesizer(
			c.config.ImageSynthCommand,
			c.config.ImageSynthWorkDir,
			c.config.ImageSynthTimeout,
			c.Logger(),
		)
	})
	return c.synthesizer
}

// ExchangeUseCase returns the browser use case wrapped with metrics.
func (c *Container) ExchangeUseCase() (exchangeUsecase.ExchangeUseCase, error) {
	c.useCaseInit.Do(func() {
		client, err := c.EDCClient()
		if err != nil {
			c.setInitError("useCase", fmt.Errorf("failed to get edc client for exchange use case: %w", err))
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.setInitError("useCase", fmt.Errorf("failed to get business metrics for exchange use case: %w", err))
			return
		}
		useCase := exchangeUsecase.NewExchangeUseCase(
			exchangeUsecase.Settings{
				ProviderDSPEndpoint: c.config.ProviderDSPEndpoint,
				SessionTTL:          c.config.SessionTTL,
			},
			c.SessionRepository(),
			c.Authenticator(),
			client,
			c.Synthesizer(),
			c.Logger(),
		)
		c.useCase = exchangeUsecase.NewExchangeUseCaseWithMetrics(useCase, bm)
	})
	if err := c.initError("useCase"); err != nil {
		return nil, err
	}
	return c.useCase, nil
}

// HTTPServer returns the API server with its router set up. ctx bounds
// background work started by the router middleware.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	c.httpServerInit.Do(func() {
		useCase, err := c.ExchangeUseCase()
		if err != nil {
			c.setInitError("httpServer", fmt.Errorf("failed to get exchange use case for http server: %w", err))
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.setInitError("httpServer", fmt.Errorf("failed to get metrics provider for http server: %w", err))
			return
		}

		handler := exchangeHTTP.NewExchangeHandler(useCase, exchangeHTTP.CookieConfig{
			Name:   c.config.SessionCookieName,
			Secure: c.config.SessionCookieSecure,
			TTL:    c.config.SessionTTL,
		}, c.Logger())

		server := http.NewServer(c.config.ServerHost, c.config.ServerPort, c.Logger(), map[string]http.ReadinessCheck{
			"keycloak": c.Authenticator().Ping,
		})
		server.SetupRouter(ctx, c.config, handler, provider)
		c.httpServer = server
	})
	if err := c.initError("httpServer"); err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus scrape server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.setInitError("metricsServer", fmt.Errorf("failed to get metrics provider for metrics server: %w", err))
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
	})
	if err := c.initError("metricsServer"); err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown stops the servers, releases every session's generated images and
// flushes metrics.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.sessions != nil {
		if err := releaseSessions(ctx, c.sessions); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("session cleanup: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// releaseSessions drops every stored session and removes its generated images.
func releaseSessions(ctx context.Context, sessions *exchangeRepository.MemorySessionRepository) error {
	all, err := sessions.DeleteAll(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, session := range all {
		session.Lock()
		for _, ex := range session.Exchanges {
			if ex.Transfer != nil {
				errs = append(errs, imaging.Remove(ex.Transfer.Images))
			}
		}
		session.Unlock()
	}
	return errors.Join(errs...)
}

func (c *Container) setInitError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[name] = err
}

func (c *Container) initError(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}
