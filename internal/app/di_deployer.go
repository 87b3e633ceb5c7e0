package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/inesdata/dataspace-tools/internal/certs"
	"github.com/inesdata/dataspace-tools/internal/config"
	"github.com/inesdata/dataspace-tools/internal/credentials"
	"github.com/inesdata/dataspace-tools/internal/keycloak"
	"github.com/inesdata/dataspace-tools/internal/objectstore"
	"github.com/inesdata/dataspace-tools/internal/postgres"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
	provisioningUsecase "github.com/inesdata/dataspace-tools/internal/provisioning/usecase"
	"github.com/inesdata/dataspace-tools/internal/render"
	"github.com/inesdata/dataspace-tools/internal/vault"
)

// DeployerContainer assembles the provisioning components used by the deployer CLI.
// Components are created on first access.
type DeployerContainer struct {
	config *config.Deployer
	out    io.Writer

	logger       *slog.Logger
	keeper       credentials.Keeper
	store        *credentials.Store
	db           *postgres.Provisioner
	vault        *vault.Provisioner
	buckets      *objectstore.Checker
	dataspaceUC  provisioningUsecase.DataspaceUseCase
	connectorUC  provisioningUsecase.ConnectorUseCase
	settings     provisioningUsecase.Settings
	settingsInit sync.Once

	mu              sync.Mutex
	loggerInit      sync.Once
	storeInit       sync.Once
	dbInit          sync.Once
	vaultInit       sync.Once
	bucketsInit     sync.Once
	dataspaceUCInit sync.Once
	connectorUCInit sync.Once
	initErrors      map[string]error
}

// NewDeployerContainer creates a container. Operator output goes to out.
func NewDeployerContainer(cfg *config.Deployer, out io.Writer) *DeployerContainer {
	return &DeployerContainer{
		config:     cfg,
		out:        out,
		initErrors: make(map[string]error),
	}
}

// Config returns the deployer configuration.
func (c *DeployerContainer) Config() *config.Deployer {
	return c.config
}

// Logger returns the structured logger. Logs go to stderr so stdout carries
// only operator output.
func (c *DeployerContainer) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = newLogger(os.Stderr, c.config.LogLevel)
	})
	return c.logger
}

// Settings returns the shared provisioning settings.
func (c *DeployerContainer) Settings() (provisioningUsecase.Settings, error) {
	c.settingsInit.Do(func() {
		env, err := domain.ParseEnvironment(c.config.Environment)
		if err != nil {
			c.setInitError("settings", err)
			return
		}
		c.settings = provisioningUsecase.Settings{
			Root:         c.config.Root,
			Env:          env,
			Rollback:     c.config.Rollback,
			TemplateKeys: c.config.FileValues,
		}
	})
	if err := c.initError("settings"); err != nil {
		return provisioningUsecase.Settings{}, err
	}
	return c.settings, nil
}

// CredentialStore returns the credential bundle store, sealed when a keeper URL is configured.
func (c *DeployerContainer) CredentialStore(ctx context.Context) (*credentials.Store, error) {
	c.storeInit.Do(func() {
		if c.config.KeeperURL == "" {
			c.store = credentials.NewStore(nil)
			return
		}
		keeper, err := credentials.OpenKeeper(ctx, c.config.KeeperURL)
		if err != nil {
			c.setInitError("store", err)
			return
		}
		c.mu.Lock()
		c.keeper = keeper
		c.mu.Unlock()
		c.store = credentials.NewStore(keeper)
	})
	if err := c.initError("store"); err != nil {
		return nil, err
	}
	return c.store, nil
}

// DatabaseProvisioner returns the Postgres provisioner.
func (c *DeployerContainer) DatabaseProvisioner() *postgres.Provisioner {
	c.dbInit.Do(func() {
		c.db = postgres.NewProvisioner(postgres.Config{
			Host:     c.config.PGHost,
			User:     c.config.PGUser,
			Password: c.config.PGPassword,
			SSLMode:  c.config.PGSSLMode,
			Timeout:  c.config.Timeout,
		}, c.Logger())
	})
	return c.db
}

// IdentityOpener returns a function that logs into Keycloak on demand.
func (c *DeployerContainer) IdentityOpener() provisioningUsecase.IdentityOpener {
	return func(ctx context.Context) (provisioningUsecase.IdentityProvisioner, error) {
		admin, err := keycloak.NewGocloakAdmin(
			ctx,
			c.config.KCURL,
			c.config.KCUser,
			c.config.KCPassword,
			c.config.TLSSkipVerify,
		)
		if err != nil {
			return nil, err
		}
		return keycloak.NewProvisioner(admin, c.config.KCInternalURL, c.out, c.Logger()), nil
	}
}

// VaultProvisioner returns the Vault provisioner authenticated with the root token.
func (c *DeployerContainer) VaultProvisioner() (*vault.Provisioner, error) {
	c.vaultInit.Do(func() {
		open := func(token string) (vault.API, error) {
			return vault.NewClient(vault.Config{
				Address:       c.config.VTURL,
				Token:         token,
				TLSSkipVerify: c.config.TLSSkipVerify,
				Timeout:       c.config.Timeout,
			})
		}
		admin, err := open(c.config.VTToken)
		if err != nil {
			c.setInitError("vault", err)
			return
		}
		c.vault = vault.NewProvisioner(admin, open, c.Logger())
	})
	if err := c.initError("vault"); err != nil {
		return nil, err
	}
	return c.vault, nil
}

// BucketChecker returns the object store checker.
func (c *DeployerContainer) BucketChecker() *objectstore.Checker {
	c.bucketsInit.Do(func() {
		open := objectstore.S3Opener(objectstore.Config{
			Endpoint:  c.config.MinioEndpoint,
			Region:    c.config.MinioRegion,
			AccessKey: c.config.MinioAccessKey,
			SecretKey: c.config.MinioSecretKey,
		})
		c.buckets = objectstore.NewChecker(open, c.Logger())
	})
	return c.buckets
}

// DataspaceUseCase returns the dataspace use case.
func (c *DeployerContainer) DataspaceUseCase(ctx context.Context) (provisioningUsecase.DataspaceUseCase, error) {
	c.dataspaceUCInit.Do(func() {
		settings, err := c.Settings()
		if err != nil {
			c.setInitError("dataspaceUseCase", err)
			return
		}
		store, err := c.CredentialStore(ctx)
		if err != nil {
			c.setInitError("dataspaceUseCase", fmt.Errorf("failed to get credential store for dataspace use case: %w", err))
			return
		}
		c.dataspaceUC = provisioningUsecase.NewDataspaceUseCase(
			settings,
			store,
			c.DatabaseProvisioner(),
			c.IdentityOpener(),
			render.NewRenderer(c.out, c.Logger()),
			c.out,
			c.Logger(),
		)
	})
	if err := c.initError("dataspaceUseCase"); err != nil {
		return nil, err
	}
	return c.dataspaceUC, nil
}

// ConnectorUseCase returns the connector use case.
func (c *DeployerContainer) ConnectorUseCase(ctx context.Context) (provisioningUsecase.ConnectorUseCase, error) {
	c.connectorUCInit.Do(func() {
		settings, err := c.Settings()
		if err != nil {
			c.setInitError("connectorUseCase", err)
			return
		}
		store, err := c.CredentialStore(ctx)
		if err != nil {
			c.setInitError("connectorUseCase", fmt.Errorf("failed to get credential store for connector use case: %w", err))
			return
		}
		secrets, err := c.VaultProvisioner()
		if err != nil {
			c.setInitError("connectorUseCase", fmt.Errorf("failed to get vault provisioner for connector use case: %w", err))
			return
		}
		c.connectorUC = provisioningUsecase.NewConnectorUseCase(settings, provisioningUsecase.ConnectorDeps{
			Store:    store,
			DB:       c.DatabaseProvisioner(),
			Identity: c.IdentityOpener(),
			Secrets:  secrets,
			Buckets:  c.BucketChecker(),
			Issuer:   certs.Issuer{Validity: certs.DefaultValidity},
			Renderer: render.NewRenderer(c.out, c.Logger()),
		}, c.out, c.Logger())
	})
	if err := c.initError("connectorUseCase"); err != nil {
		return nil, err
	}
	return c.connectorUC, nil
}

// Shutdown releases the credentials keeper if one was opened.
func (c *DeployerContainer) Shutdown(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			return fmt.Errorf("keeper close: %w", err)
		}
	}
	return nil
}

func (c *DeployerContainer) setInitError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[name] = err
}

func (c *DeployerContainer) initError(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}
