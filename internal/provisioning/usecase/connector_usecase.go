package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inesdata/dataspace-tools/internal/certs"
	"github.com/inesdata/dataspace-tools/internal/credentials"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
	"github.com/inesdata/dataspace-tools/internal/objectstore"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
	"github.com/inesdata/dataspace-tools/internal/render"
	"github.com/inesdata/dataspace-tools/internal/validation"
	"github.com/inesdata/dataspace-tools/internal/vault"
)

type connectorUseCase struct {
	settings Settings
	store    CredentialStore
	db       DatabaseProvisioner
	identity IdentityOpener
	secrets  SecretsProvisioner
	buckets  BucketChecker
	issuer   CertificateIssuer
	renderer ValuesRenderer
	printer  printer
	logger   *slog.Logger
}

// ConnectorDeps groups the services a ConnectorUseCase drives.
type ConnectorDeps struct {
	Store    CredentialStore
	DB       DatabaseProvisioner
	Identity IdentityOpener
	Secrets  SecretsProvisioner
	Buckets  BucketChecker
	Issuer   CertificateIssuer
	Renderer ValuesRenderer
}

// NewConnectorUseCase creates a ConnectorUseCase. Progress lines go to out.
func NewConnectorUseCase(settings Settings, deps ConnectorDeps, out io.Writer, logger *slog.Logger) ConnectorUseCase {
	return &connectorUseCase{
		settings: settings,
		store:    deps.Store,
		db:       deps.DB,
		identity: deps.Identity,
		secrets:  deps.Secrets,
		buckets:  deps.Buckets,
		issuer:   deps.Issuer,
		renderer: deps.Renderer,
		printer:  printer{out: out},
		logger:   logger,
	}
}

func validateConnectorArgs(name, dataspace string) error {
	return errors.Join(
		validation.ValidateEntityName("connector", name),
		validation.ValidateEntityName("dataspace", dataspace),
	)
}

// Create provisions a connector: database, certificates, Keycloak identity,
// Vault secrets, object-store policy and registration-service entry, then
// renders its values file.
func (c *connectorUseCase) Create(ctx context.Context, name, dataspace string) error {
	if err := validateConnectorArgs(name, dataspace); err != nil {
		return err
	}

	c.printer.printf("Creating connector %s in dataspace %s", name, dataspace)
	logger := c.logger.With(slog.String("connector", name), slog.String("dataspace", dataspace))
	bundle := c.settings.bundlePath(dataspace, credentials.KindConnector, name)
	record := recorderFor(c.store, bundle)
	dbName := domain.ConnectorDatabase(name)
	certPair := certs.Paths(c.settings.certificatesDir(dataspace), name)
	policyPath := objectstore.PolicyPath(c.settings.Root, string(c.settings.Env), dataspace, name)
	identity := &lazyIdentity{open: c.identity}

	steps := []domain.Step{
		{
			Name: "credentials file",
			Run: func(ctx context.Context) error {
				return c.store.Create(ctx, bundle)
			},
		},
		{
			Name: "database",
			Run: func(ctx context.Context) error {
				c.printer.printf("- Creating %s database", name)
				password, err := credentials.GeneratePassword(credentials.MinPasswordLength)
				if err != nil {
					return err
				}
				if err := c.db.CreateDatabase(ctx, dbName, dbName, password); err != nil {
					return err
				}
				creds := domain.DatabaseCredentials{Name: dbName, User: dbName, Password: password}
				return record(ctx, domain.CategoryDatabase, creds.Fields())
			},
			Compensate: func(ctx context.Context) error {
				return c.db.DeleteDatabase(ctx, dbName, dbName)
			},
		},
		{
			Name: "certificates",
			Run: func(ctx context.Context) error {
				c.printer.printf("- Generating %s connector certificates", name)
				password, err := credentials.GeneratePassword(credentials.MinPasswordLength)
				if err != nil {
					return err
				}
				if _, err := c.issuer.Issue(c.settings.certificatesDir(dataspace), name, password); err != nil {
					return err
				}
				return record(ctx, domain.CategoryCertificates, map[string]string{
					"path":   c.settings.relativeCertificatesDir(dataspace),
					"passwd": password,
				})
			},
			Compensate: func(context.Context) error {
				return c.issuer.Remove(certPair)
			},
		},
		{
			Name: "keycloak configuration",
			Run: func(ctx context.Context) error {
				c.printer.printf("- Creating %s keycloak configuration", name)
				idp, err := identity.get(ctx)
				if err != nil {
					return err
				}
				certPEM, _, err := c.issuer.Read(certPair)
				if err != nil {
					return err
				}
				return idp.EnsureConnector(ctx, dataspace, name, filepath.Base(certPair.CertPath), certPEM, record)
			},
			Compensate: func(ctx context.Context) error {
				idp, err := identity.get(ctx)
				if err != nil {
					return err
				}
				return c.deleteIdentity(ctx, idp, dataspace, name)
			},
		},
		{
			Name: "vault secrets",
			Run: func(ctx context.Context) error {
				c.printer.printf("- Creating %s vault secrets", name)
				certPEM, keyPEM, err := c.issuer.Read(certPair)
				if err != nil {
					return err
				}
				return c.secrets.ProvisionConnector(ctx, dataspace, name, certPEM, keyPEM, record)
			},
		},
		{
			Name: "minio policy",
			Run: func(context.Context) error {
				c.printer.printf("- Creating %s minio policy", name)
				return objectstore.WritePolicy(policyPath, dataspace, name)
			},
			Compensate: func(context.Context) error {
				if err := os.Remove(policyPath); err != nil && !os.IsNotExist(err) {
					return err
				}
				return nil
			},
		},
		{
			Name: "registration-service entry",
			Run: func(ctx context.Context) error {
				c.printer.printf("- Adding %s into registration-service", name)
				rsDB, _ := domain.RegistrationServiceDatabase(dataspace)
				return c.db.RegisterConnector(ctx, rsDB, name, dataspace, string(c.settings.Env))
			},
		},
		{
			Name: "values file",
			Run: func(ctx context.Context) error {
				return c.renderValues(ctx, bundle, name, dataspace)
			},
		},
	}

	if err := runSteps(ctx, steps, c.settings.Rollback, logger); err != nil {
		return fmt.Errorf("failed to create connector %s: %w", name, err)
	}

	c.printer.printf("Connector %s created successfully!", name)
	logger.Info("connector created")
	return nil
}

type deleteIdentityFunc func(IdentityProvisioner, context.Context, string, string) (bool, error)

var identityDeletions = []deleteIdentityFunc{
	IdentityProvisioner.DeleteConnectorUser,
	IdentityProvisioner.DeleteConnectorClient,
	IdentityProvisioner.DeleteConnectorGroup,
	IdentityProvisioner.DeleteConnectorRole,
}

func (c *connectorUseCase) deleteIdentity(ctx context.Context, idp IdentityProvisioner, realm, name string) error {
	var errs []error
	for _, del := range identityDeletions {
		if _, err := del(idp, ctx, realm, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *connectorUseCase) renderValues(ctx context.Context, bundlePath, name, dataspace string) error {
	bundle, err := c.store.Load(ctx, bundlePath)
	if err != nil {
		return err
	}
	keys := render.Keys(bundle, map[string]string{
		"dataspace_name": dataspace,
		"connector_name": name,
	}, c.settings.TemplateKeys)
	return c.renderer.RenderAll(render.ConnectorTargets(c.settings.Root, name), keys)
}

// Delete drops the connector database and its Keycloak user, client, group
// and role. Every task runs even when an earlier one fails.
func (c *connectorUseCase) Delete(ctx context.Context, name, dataspace string) (domain.Summary, error) {
	if err := validateConnectorArgs(name, dataspace); err != nil {
		return domain.Summary{}, err
	}

	c.printer.printf("Deleting connector %s...", name)
	logger := c.logger.With(slog.String("connector", name), slog.String("dataspace", dataspace))
	dbName := domain.ConnectorDatabase(name)
	identity := &lazyIdentity{open: c.identity}

	keycloakTask := func(kind string, del deleteIdentityFunc) domain.DeleteTask {
		return domain.DeleteTask{
			Name: fmt.Sprintf("%s keycloak %s", name, kind),
			Run: func(ctx context.Context) error {
				idp, err := identity.get(ctx)
				if err != nil {
					return err
				}
				deleted, err := del(idp, ctx, dataspace, name)
				if err != nil {
					return err
				}
				if deleted {
					c.printer.printf("  + Keycloak %s deleted", kind)
				} else {
					c.printer.printf("  + Keycloak %s not found", kind)
				}
				return nil
			},
		}
	}

	userTask := keycloakTask("user", IdentityProvisioner.DeleteConnectorUser)
	deleteUser := userTask.Run
	userTask.Run = func(ctx context.Context) error {
		c.printer.printf("- Deleting %s in keycloak", name)
		return deleteUser(ctx)
	}

	tasks := []domain.DeleteTask{
		{
			Name: name + " connector database",
			Run: func(ctx context.Context) error {
				c.printer.printf("- Deleting %s database", name)
				return c.db.DeleteDatabase(ctx, dbName, dbName)
			},
		},
		userTask,
		keycloakTask("client", IdentityProvisioner.DeleteConnectorClient),
		keycloakTask("group", IdentityProvisioner.DeleteConnectorGroup),
		keycloakTask("role", IdentityProvisioner.DeleteConnectorRole),
	}

	summary := runTasks(ctx, tasks, c.printer, logger)
	if summary.OK() {
		c.printer.printf("Connector %s deleted successfully!", name)
		logger.Info("connector deleted")
	} else {
		c.printer.printf("Connector %s deleted with errors", name)
		logger.Warn("connector deleted with errors", slog.Int("failed_tasks", len(summary.Failed())))
	}
	return summary, nil
}

// Fix applies pending schema fixes to the connector database.
func (c *connectorUseCase) Fix(ctx context.Context, name, dataspace string) error {
	if err := validateConnectorArgs(name, dataspace); err != nil {
		return err
	}
	dbName := domain.ConnectorDatabase(name)
	c.printer.printf("- Fixing %s database schema", name)
	if err := c.db.FixConnectorSchema(ctx, dbName); err != nil {
		return fmt.Errorf("failed to fix connector database %s: %w", dbName, err)
	}
	c.printer.printf("Connector %s database fixed", name)
	return nil
}

// Renew replaces the connector Vault token. The new token is recorded in the
// connector bundle when the bundle exists.
func (c *connectorUseCase) Renew(ctx context.Context, name, dataspace string) (*vault.SecretsReport, error) {
	if err := validateConnectorArgs(name, dataspace); err != nil {
		return nil, err
	}

	c.printer.printf("- Renewing %s vault token", name)
	token, err := c.secrets.RenewToken(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to renew token of connector %s: %w", name, err)
	}

	bundle := c.settings.bundlePath(dataspace, credentials.KindConnector, name)
	err = c.store.Register(ctx, bundle, domain.CategoryVault, map[string]string{
		"token": token,
		"path":  vault.SecretPrefix(dataspace, name),
	})
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		c.logger.Warn("credentials file missing, renewed token not recorded",
			slog.String("connector", name), slog.String("path", bundle))
	case err != nil:
		return nil, err
	}

	c.printer.printf("- Checking %s vault secrets", name)
	report, err := c.secrets.CheckSecrets(ctx, token, dataspace, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check secrets of connector %s: %w", name, err)
	}
	return report, nil
}

// CheckBucket inspects the connector bucket.
func (c *connectorUseCase) CheckBucket(ctx context.Context, name, dataspace string) (*objectstore.BucketReport, error) {
	if err := validateConnectorArgs(name, dataspace); err != nil {
		return nil, err
	}
	return c.buckets.CheckBucket(ctx, objectstore.BucketName(dataspace, name))
}

// CheckDatabase connects to the connector database with the credentials
// recorded in its bundle.
func (c *connectorUseCase) CheckDatabase(ctx context.Context, name, dataspace string) error {
	if err := validateConnectorArgs(name, dataspace); err != nil {
		return err
	}

	bundle, err := c.store.Load(ctx, c.settings.bundlePath(dataspace, credentials.KindConnector, name))
	if err != nil {
		return err
	}
	creds, err := domain.DatabaseCredentialsFromFields(bundle[domain.CategoryDatabase])
	if err != nil {
		return err
	}
	if err := c.db.CheckConnection(ctx, creds.Name, creds.User, creds.Password); err != nil {
		return fmt.Errorf("failed to connect to %s as %s: %w", creds.Name, creds.User, err)
	}
	c.printer.printf("Connected to database %s as %s", creds.Name, creds.User)
	return nil
}
