package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDeployerConfigFile is read from the working directory unless --config says otherwise.
const DefaultDeployerConfigFile = "deployer.config"

// Deployer holds the provisioning CLI configuration. Flags fill it first and
// the KEY=VALUE config file overrides whatever it defines.
type Deployer struct {
	// Postgres admin connection.
	PGUser     string
	PGPassword string
	PGHost     string
	PGSSLMode  string

	// Keycloak admin connection.
	KCUser        string
	KCPassword    string
	KCURL         string
	KCInternalURL string

	// Vault root connection.
	VTToken string
	VTURL   string

	// Environment is DEV or PRO.
	Environment string

	// MinIO endpoint used by the bucket check.
	MinioEndpoint  string
	MinioRegion    string
	MinioAccessKey string
	MinioSecretKey string

	// KeeperURL seals credential bundles when set (e.g. base64key://...).
	KeeperURL string

	TLSSkipVerify bool
	Timeout       time.Duration

	// Root is the directory holding deployments/ and the values templates.
	Root     string
	Rollback bool
	LogLevel string

	// FileValues are the raw config file entries. They feed the values templates.
	FileValues map[string]string
}

// DefaultDeployer returns the defaults used when neither flags nor the config file set a value.
func DefaultDeployer() Deployer {
	return Deployer{
		PGUser:        "postgres",
		PGPassword:    "inesdata",
		PGHost:        "localhost",
		PGSSLMode:     "disable",
		KCUser:        "admin",
		KCPassword:    "inesdata",
		KCURL:         "http://localhost:8080",
		KCInternalURL: "http://comsrv-keycloak.common-services.svc",
		VTToken:       "rt.0000000000000",
		VTURL:         "http://localhost:8280",
		Environment:   "DEV",
		MinioEndpoint: "http://localhost:9000",
		MinioRegion:   "us-east-1",
		Timeout:       30 * time.Second,
		Root:          ".",
		LogLevel:      "info",
		FileValues:    map[string]string{},
	}
}

// LoadDeployer overlays the config file at path onto base. A missing file is
// not an error and returns base unchanged.
func LoadDeployer(path string, base Deployer) (*Deployer, error) {
	cfg := base
	cfg.FileValues = map[string]string{}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	for key, value := range values {
		cfg.FileValues[key] = value
	}

	overlay := map[string]*string{
		"PG_USER":          &cfg.PGUser,
		"PG_PASSWORD":      &cfg.PGPassword,
		"PG_HOST":          &cfg.PGHost,
		"PG_SSLMODE":       &cfg.PGSSLMode,
		"KC_USER":          &cfg.KCUser,
		"KC_PASSWORD":      &cfg.KCPassword,
		"KC_URL":           &cfg.KCURL,
		"KC_INTERNAL_URL":  &cfg.KCInternalURL,
		"VT_TOKEN":         &cfg.VTToken,
		"VT_URL":           &cfg.VTURL,
		"ENVIRONMENT":      &cfg.Environment,
		"MINIO_ENDPOINT":   &cfg.MinioEndpoint,
		"MINIO_REGION":     &cfg.MinioRegion,
		"MINIO_ACCESS_KEY": &cfg.MinioAccessKey,
		"MINIO_SECRET_KEY": &cfg.MinioSecretKey,
		"KEEPER_URL":       &cfg.KeeperURL,
	}
	for key, field := range overlay {
		if value, ok := values[key]; ok {
			*field = value
		}
	}

	if value, ok := values["TLS_SKIP_VERIFY"]; ok {
		skip, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid TLS_SKIP_VERIFY %q: %w", value, err)
		}
		cfg.TLSSkipVerify = skip
	}
	if value, ok := values["TIMEOUT_SECONDS"]; ok {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEOUT_SECONDS %q: %w", value, err)
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	}

	return &cfg, nil
}
