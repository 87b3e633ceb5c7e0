package usecase

import (
	"context"

	"github.com/inesdata/dataspace-tools/internal/certs"
	"github.com/inesdata/dataspace-tools/internal/credentials"
	"github.com/inesdata/dataspace-tools/internal/objectstore"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
	"github.com/inesdata/dataspace-tools/internal/render"
	"github.com/inesdata/dataspace-tools/internal/vault"
)

// CredentialStore persists credential bundles.
type CredentialStore interface {
	Create(ctx context.Context, path string) error
	Register(ctx context.Context, path, category string, fields map[string]string) error
	Load(ctx context.Context, path string) (credentials.Bundle, error)
}

// DatabaseProvisioner manages databases on the shared Postgres server.
type DatabaseProvisioner interface {
	CreateDatabase(ctx context.Context, dbName, user, password string) error
	DeleteDatabase(ctx context.Context, dbName, user string) error
	RegisterConnector(ctx context.Context, rsDatabase, connector, dataspace, env string) error
	CheckConnection(ctx context.Context, dbName, user, password string) error
	FixConnectorSchema(ctx context.Context, dbName string) error
}

// IdentityProvisioner manages realms and connector identities.
type IdentityProvisioner interface {
	EnsureDataspace(ctx context.Context, realm string, record credentials.RecordFunc) error
	EnsureConnector(
		ctx context.Context,
		realm, connector, certFileName string,
		certPEM []byte,
		record credentials.RecordFunc,
	) error
	DeleteRealm(ctx context.Context, realm string) (bool, error)
	DeleteConnectorUser(ctx context.Context, realm, connector string) (bool, error)
	DeleteConnectorClient(ctx context.Context, realm, connector string) (bool, error)
	DeleteConnectorGroup(ctx context.Context, realm, connector string) (bool, error)
	DeleteConnectorRole(ctx context.Context, realm, connector string) (bool, error)
}

// IdentityOpener opens an authenticated identity-provider admin session.
type IdentityOpener func(ctx context.Context) (IdentityProvisioner, error)

// SecretsProvisioner manages connector secrets in Vault.
type SecretsProvisioner interface {
	ProvisionConnector(
		ctx context.Context,
		dataspace, connector string,
		publicCert, privateKey []byte,
		record credentials.RecordFunc,
	) error
	RenewToken(ctx context.Context, connector string) (string, error)
	CheckSecrets(ctx context.Context, token, dataspace, connector string) (*vault.SecretsReport, error)
}

// BucketChecker inspects connector buckets.
type BucketChecker interface {
	CheckBucket(ctx context.Context, name string) (*objectstore.BucketReport, error)
}

// CertificateIssuer creates connector certificates on disk. password seals the keystore.
type CertificateIssuer interface {
	Issue(dir, name, password string) (certs.Pair, error)
	Read(pair certs.Pair) ([]byte, []byte, error)
	Remove(pair certs.Pair) error
}

// ValuesRenderer renders deployment values files.
type ValuesRenderer interface {
	RenderAll(targets []render.Target, keys map[string]any) error
}

// DataspaceUseCase creates and deletes dataspaces.
type DataspaceUseCase interface {
	Create(ctx context.Context, name string) error
	// Delete runs every deletion task and reports each outcome. The error is
	// only set when the request itself is invalid.
	Delete(ctx context.Context, name string) (domain.Summary, error)
}

// ConnectorUseCase manages the lifecycle of connectors inside a dataspace.
type ConnectorUseCase interface {
	Create(ctx context.Context, name, dataspace string) error
	Delete(ctx context.Context, name, dataspace string) (domain.Summary, error)
	Fix(ctx context.Context, name, dataspace string) error
	// Renew issues a new Vault token, stores it in the bundle and verifies it
	// can read the connector secrets.
	Renew(ctx context.Context, name, dataspace string) (*vault.SecretsReport, error)
	CheckBucket(ctx context.Context, name, dataspace string) (*objectstore.BucketReport, error)
	CheckDatabase(ctx context.Context, name, dataspace string) error
}
