package vault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inesdata/dataspace-tools/internal/credentials"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// TokenPeriod is the renewal period of connector tokens.
const TokenPeriod = "768h"

// ErrPolicyNotFound is returned when a token is requested for a connector whose
// policy was never created.
var ErrPolicyNotFound = apperrors.Wrap(apperrors.ErrPrecondition, "vault policy not found")

// Secret names stored under the connector prefix.
const (
	SecretPublicKey  = "public-key"
	SecretPrivateKey = "private-key"
	SecretAccessKey  = "aws-access-key"
	SecretSecretKey  = "aws-secret-key"
)

var secretNames = []string{SecretAccessKey, SecretSecretKey, SecretPublicKey, SecretPrivateKey}

// OpenFunc opens an API client authenticated with token.
type OpenFunc func(token string) (API, error)

// Provisioner creates connector policies, tokens and secrets.
type Provisioner struct {
	admin  API
	open   OpenFunc
	logger *slog.Logger
}

// NewProvisioner creates a Provisioner. admin authenticates with the root
// token; open builds clients for connector tokens when checking secrets.
func NewProvisioner(admin API, open OpenFunc, logger *slog.Logger) *Provisioner {
	return &Provisioner{admin: admin, open: open, logger: logger}
}

// PolicyName returns the policy bound to a connector's tokens.
func PolicyName(connector string) string {
	return connector + "-secrets-policy"
}

// SecretPrefix returns the API path prefix a connector token may access.
func SecretPrefix(dataspace, connector string) string {
	return fmt.Sprintf("%s/data/%s/%s/", KVMount, dataspace, connector)
}

// PolicyRules returns the HCL policy of a connector.
func PolicyRules(dataspace, connector string) string {
	return fmt.Sprintf(`path "%s*" {
    capabilities = ["create", "read", "update", "list", "delete"]
}
`, SecretPrefix(dataspace, connector))
}

func secretPath(dataspace, connector, name string) string {
	return fmt.Sprintf("%s/%s/%s", dataspace, connector, name)
}

// ProvisionConnector writes the connector policy, issues its token, records
// the vault category and stores the certificate pair plus a generated
// object-store key pair. The minio category is recorded last.
func (p *Provisioner) ProvisionConnector(
	ctx context.Context,
	dataspace, connector string,
	publicCert, privateKey []byte,
	record credentials.RecordFunc,
) error {
	policy := PolicyName(connector)
	if err := p.admin.PutPolicy(ctx, policy, PolicyRules(dataspace, connector)); err != nil {
		return err
	}
	p.logger.Info("vault policy written", slog.String("policy", policy))

	token, err := p.admin.CreatePeriodicToken(ctx, []string{policy}, TokenPeriod)
	if err != nil {
		return err
	}
	if err := record(ctx, credentials.CategoryVault, map[string]string{
		"token": token,
		"path":  SecretPrefix(dataspace, connector),
	}); err != nil {
		return err
	}

	accessKey, err := credentials.GenerateObjectStoreKey(16)
	if err != nil {
		return err
	}
	secretKey, err := credentials.GenerateObjectStoreKey(40)
	if err != nil {
		return err
	}
	consolePassword, err := credentials.GenerateObjectStoreKey(16)
	if err != nil {
		return err
	}

	secrets := []struct {
		name    string
		content string
	}{
		{SecretPublicKey, string(publicCert)},
		{SecretPrivateKey, string(privateKey)},
		{SecretAccessKey, accessKey},
		{SecretSecretKey, secretKey},
	}
	for _, s := range secrets {
		path := secretPath(dataspace, connector, s.name)
		if err := p.admin.PutSecret(ctx, path, map[string]any{"content": s.content}); err != nil {
			return err
		}
		p.logger.Debug("vault secret written", slog.String("path", path))
	}

	return record(ctx, credentials.CategoryMinio, map[string]string{
		"access_key": accessKey,
		"secret_key": secretKey,
		"user":       connector,
		"passwd":     consolePassword,
	})
}

// RenewToken issues a fresh periodic token under the connector's existing
// policy. It fails with ErrPolicyNotFound when the policy is missing.
func (p *Provisioner) RenewToken(ctx context.Context, connector string) (string, error) {
	policy := PolicyName(connector)
	rules, err := p.admin.GetPolicy(ctx, policy)
	if err != nil {
		return "", err
	}
	if rules == "" {
		return "", fmt.Errorf("%w: %s", ErrPolicyNotFound, policy)
	}

	token, err := p.admin.CreatePeriodicToken(ctx, []string{policy}, TokenPeriod)
	if err != nil {
		return "", err
	}
	p.logger.Info("vault token renewed", slog.String("policy", policy))
	return token, nil
}

// SecretStatus reports whether one connector secret is readable.
type SecretStatus struct {
	Path    string
	Present bool
	Err     error
}

// SecretsReport is the outcome of CheckSecrets. Secret values are never included.
type SecretsReport struct {
	Token   TokenInfo
	Secrets []SecretStatus
}

// CheckSecrets authenticates with a connector token and verifies it can read
// the four connector secrets.
func (p *Provisioner) CheckSecrets(ctx context.Context, token, dataspace, connector string) (*SecretsReport, error) {
	client, err := p.open(token)
	if err != nil {
		return nil, err
	}

	info, err := client.LookupSelf(ctx)
	if err != nil {
		return nil, err
	}

	report := &SecretsReport{Token: *info}
	for _, name := range secretNames {
		path := secretPath(dataspace, connector, name)
		data, err := client.GetSecret(ctx, path)
		status := SecretStatus{Path: path, Err: err}
		if err == nil {
			content, _ := data["content"].(string)
			status.Present = content != ""
		}
		report.Secrets = append(report.Secrets, status)
	}
	return report, nil
}
