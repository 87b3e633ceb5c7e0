// Package http provides the browser API server and the metrics server.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inesdata/dataspace-tools/internal/config"
	exchangeHTTP "github.com/inesdata/dataspace-tools/internal/exchange/http"
	"github.com/inesdata/dataspace-tools/internal/metrics"
)

// readinessTimeout bounds each readiness check.
const readinessTimeout = 3 * time.Second

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// Server is the browser API server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
	checks map[string]ReadinessCheck
}

// NewServer creates the API server. checks are run by /ready, keyed by
// component name.
func NewServer(
	host string,
	port int,
	logger *slog.Logger,
	checks map[string]ReadinessCheck,
) *Server {
	return &Server{
		logger: logger,
		checks: checks,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter registers middleware and routes. ctx bounds background work
// started by middleware (the login rate limiter cleanup).
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	exchangeHandler *exchangeHTTP.ExchangeHandler,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	login := []gin.HandlerFunc{}
	if cfg.RateLimitLoginEnabled {
		login = append(login, exchangeHTTP.LoginRateLimitMiddleware(
			ctx,
			cfg.RateLimitLoginRequestsPerSec,
			cfg.RateLimitLoginBurst,
			s.logger,
		))
	}
	login = append(login, exchangeHandler.LoginHandler)
	v1.POST("/login", login...)
	v1.POST("/logout", exchangeHandler.LogoutHandler)

	session := v1.Group("")
	session.Use(exchangeHTTP.SessionMiddleware(exchangeHandler.CookieName(), s.logger))
	{
		session.GET("/catalog", exchangeHandler.CatalogHandler)
		session.GET("/downloads", exchangeHandler.DownloadsHandler)
		session.DELETE("/session", exchangeHandler.ClearSessionHandler)

		datasets := session.Group("/datasets/:id")
		{
			datasets.POST("/negotiations", exchangeHandler.NegotiateHandler)
			datasets.GET("/negotiation", exchangeHandler.GetNegotiationHandler)
			datasets.POST("/transfers", exchangeHandler.StartTransferHandler)
			datasets.GET("/transfer", exchangeHandler.GetTransferHandler)
			datasets.POST("/transfer/terminate", exchangeHandler.TerminateTransferHandler)
			datasets.POST("/download", exchangeHandler.DownloadHandler)
			datasets.GET("/data", exchangeHandler.DataHandler)
			datasets.POST("/images", exchangeHandler.SynthesizeHandler)
			datasets.GET("/images.zip", exchangeHandler.ImagesArchiveHandler)
			datasets.GET("/images/*name", exchangeHandler.ImageHandler)
			datasets.DELETE("/images", exchangeHandler.ClearImagesHandler)
		}
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler runs every readiness check and reports each component.
func (s *Server) readinessHandler(c *gin.Context) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	components := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		err := s.checks[name](ctx)
		cancel()

		if err != nil {
			s.logger.Warn("readiness check failed", slog.String("component", name), slog.Any("error", err))
			components[name] = "error"
			ready = false
			continue
		}
		components[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
