package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inesdata/dataspace-tools/internal/config"
	"github.com/inesdata/dataspace-tools/internal/edc"
	exchangeHTTP "github.com/inesdata/dataspace-tools/internal/exchange/http"
	"github.com/inesdata/dataspace-tools/internal/exchange/usecase/mocks"
	"github.com/inesdata/dataspace-tools/internal/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		SessionCookieName:            "dataspace_session",
		SessionTTL:                   time.Hour,
		RateLimitLoginEnabled:        true,
		RateLimitLoginRequestsPerSec: 1,
		RateLimitLoginBurst:          1,
		MetricsNamespace:             "dataspace_browser_test",
	}
}

// setupTestServer builds the full router around a mocked use case.
func setupTestServer(
	t *testing.T,
	checks map[string]ReadinessCheck,
	provider *metrics.Provider,
) (*Server, *mocks.MockExchangeUseCase) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testConfig()
	logger := discardLogger()
	useCase := mocks.NewMockExchangeUseCase(t)
	handler := exchangeHTTP.NewExchangeHandler(useCase, exchangeHTTP.CookieConfig{
		Name: cfg.SessionCookieName,
		TTL:  cfg.SessionTTL,
	}, logger)

	server := NewServer("127.0.0.1", 0, logger, checks)
	server.SetupRouter(ctx, cfg, handler, provider)
	return server, useCase
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	server, _ := setupTestServer(t, nil, nil)

	w := serve(server, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestServer_Readiness(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		server, _ := setupTestServer(t, map[string]ReadinessCheck{
			"keycloak": func(ctx context.Context) error { return nil },
		}, nil)

		w := serve(server, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "ready", response["status"])
		assert.Equal(t, map[string]any{"keycloak": "ok"}, response["components"])
	})

	t.Run("NotReady", func(t *testing.T) {
		server, _ := setupTestServer(t, map[string]ReadinessCheck{
			"keycloak": func(ctx context.Context) error { return errors.New("connection refused") },
			"workdir":  func(ctx context.Context) error { return nil },
		}, nil)

		w := serve(server, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "not_ready", response["status"])

		components, ok := response["components"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "error", components["keycloak"])
		assert.Equal(t, "ok", components["workdir"])
	})
}

func TestServer_RequestID(t *testing.T) {
	server, _ := setupTestServer(t, nil, nil)

	w := serve(server, httptest.NewRequest(http.MethodGet, "/health", nil))

	parsed, err := uuid.Parse(w.Header().Get("X-Request-Id"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, parsed)
}

func TestServer_SessionRoutesRequireCookie(t *testing.T) {
	server, _ := setupTestServer(t, nil, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/v1/catalog"},
		{http.MethodGet, "/v1/downloads"},
		{http.MethodDelete, "/v1/session"},
		{http.MethodPost, "/v1/datasets/asset-1/negotiations"},
		{http.MethodGet, "/v1/datasets/asset-1/images.zip"},
		{http.MethodGet, "/v1/datasets/asset-1/images/0/000000.png"},
	} {
		w := serve(server, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestServer_CatalogWithSession(t *testing.T) {
	server, useCase := setupTestServer(t, nil, nil)

	useCase.On("Catalog", mock.Anything, "sid-1", false).
		Return([]edc.Dataset{{ID: "asset-1"}}, nil).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/catalog", nil)
	req.AddCookie(&http.Cookie{Name: "dataspace_session", Value: "sid-1"})
	w := serve(server, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "asset-1")
}

func TestServer_LoginRateLimited(t *testing.T) {
	server, _ := setupTestServer(t, nil, nil)

	// Burst is 1: the first invalid body reaches the handler, the second is limited.
	first := serve(server, httptest.NewRequest(http.MethodPost, "/v1/login", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, first.Code)

	second := serve(server, httptest.NewRequest(http.MethodPost, "/v1/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestServer_NoMetricsEndpoint(t *testing.T) {
	provider, err := metrics.NewProvider("dataspace_browser_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	server, _ := setupTestServer(t, nil, provider)

	w := serve(server, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server, _ := setupTestServer(t, nil, nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, server.Shutdown(shutdownCtx))
	assert.NoError(t, <-errChan)
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("dataspace_browser_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
