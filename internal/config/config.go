// Package config provides application configuration through environment
// variables for the browser server and through a KEY=VALUE file for the
// deployer.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds the browser server configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int
	// ShutdownTimeout bounds the graceful shutdown of both servers.
	ShutdownTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// KeycloakURL is the base address of the identity provider.
	KeycloakURL string
	// KeycloakRealm is the dataspace realm users log into.
	KeycloakRealm string
	// KeycloakClientID is the public client used for the password grant.
	KeycloakClientID string
	// KeycloakScopes are requested on login.
	KeycloakScopes []string

	// ConsumerManagementAPI is the management API base of the consumer connector.
	ConsumerManagementAPI string
	// ProviderDSPEndpoint is the protocol endpoint of the default provider connector.
	ProviderDSPEndpoint string
	// ProviderParticipantID is sent as odrl:assigner in contract requests.
	ProviderParticipantID string
	// EDCRequestTimeout applies to POST calls against the management API.
	EDCRequestTimeout time.Duration
	// EDCStatusTimeout applies to GET status calls.
	EDCStatusTimeout time.Duration
	// EDCDownloadTimeout applies to data downloads from the provider data plane.
	EDCDownloadTimeout time.Duration

	// ImageSynthCommand is the external program turning tabular data into images.
	ImageSynthCommand string
	// ImageSynthWorkDir holds per-dataset synthesis inputs and outputs.
	ImageSynthWorkDir string
	// ImageSynthTimeout bounds one synthesis run.
	ImageSynthTimeout time.Duration

	// SessionCookieName is the cookie carrying the opaque session id.
	SessionCookieName string
	// SessionCookieSecure marks the session cookie as HTTPS-only.
	SessionCookieSecure bool
	// SessionTTL is the idle lifetime of a session.
	SessionTTL time.Duration

	// RateLimitLoginEnabled indicates whether rate limiting for the login endpoint is enabled.
	RateLimitLoginEnabled bool
	// RateLimitLoginRequestsPerSec is the number of login requests allowed per second per IP.
	RateLimitLoginRequestsPerSec float64
	// RateLimitLoginBurst is the burst size for login rate limiting.
	RateLimitLoginBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost:      env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort:      env.GetInt("SERVER_PORT", 8501),
		ShutdownTimeout: env.GetDuration("SHUTDOWN_TIMEOUT_SECONDS", 30, time.Second),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Keycloak
		KeycloakURL:      env.GetString("KEYCLOAK_URL", "http://keycloak.dev.ed.inesdata.upm"),
		KeycloakRealm:    env.GetString("KEYCLOAK_REALM", "demo"),
		KeycloakClientID: env.GetString("KEYCLOAK_CLIENT_ID", "dataspace-users"),
		KeycloakScopes:   splitList(env.GetString("KEYCLOAK_SCOPES", "openid,profile,email")),

		// Connectors
		ConsumerManagementAPI: env.GetString(
			"CONSUMER_MANAGEMENT_API",
			"http://conn-oeg-consumer.dev.ds.inesdata.upm/management",
		),
		ProviderDSPEndpoint: env.GetString(
			"PROVIDER_DSP_ENDPOINT",
			"http://conn-oeg-provider.dev.ds.inesdata.upm/protocol",
		),
		ProviderParticipantID: env.GetString("PROVIDER_PARTICIPANT_ID", "conn-oeg-provider"),
		EDCRequestTimeout:     env.GetDuration("EDC_REQUEST_TIMEOUT_SECONDS", 30, time.Second),
		EDCStatusTimeout:      env.GetDuration("EDC_STATUS_TIMEOUT_SECONDS", 10, time.Second),
		EDCDownloadTimeout:    env.GetDuration("EDC_DOWNLOAD_TIMEOUT_SECONDS", 60, time.Second),

		// Image synthesis
		ImageSynthCommand: env.GetString("IMAGE_SYNTH_COMMAND", ""),
		ImageSynthWorkDir: env.GetString("IMAGE_SYNTH_WORK_DIR", filepath.Join(os.TempDir(), "dataspace-browser")),
		ImageSynthTimeout: env.GetDuration("IMAGE_SYNTH_TIMEOUT_SECONDS", 600, time.Second),

		// Sessions
		SessionCookieName:   env.GetString("SESSION_COOKIE_NAME", "dataspace_session"),
		SessionCookieSecure: env.GetBool("SESSION_COOKIE_SECURE", false),
		SessionTTL:          env.GetDuration("SESSION_TTL_MINUTES", 480, time.Minute),

		// Rate Limiting for the login endpoint (IP-based, unauthenticated)
		RateLimitLoginEnabled:        env.GetBool("RATE_LIMIT_LOGIN_ENABLED", true),
		RateLimitLoginRequestsPerSec: env.GetFloat64("RATE_LIMIT_LOGIN_REQUESTS_PER_SEC", 1.0),
		RateLimitLoginBurst:          env.GetInt("RATE_LIMIT_LOGIN_BURST", 5),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "dataspace_browser"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	default:
		return "release"
	}
}

// splitList splits a comma-separated value, dropping blank items.
func splitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
