// Package vault provisions the secrets-engine side of a connector: a policy
// scoped to the connector's KV prefix, a periodic token bound to it and the
// connector's key material.
package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// KVMount is the KV v2 mount holding connector secrets.
const KVMount = "secret"

// Config holds the connection settings of a Vault server.
type Config struct {
	Address       string
	Token         string
	TLSSkipVerify bool
	Timeout       time.Duration
}

// TokenInfo describes the token a client authenticates with.
type TokenInfo struct {
	TTL       time.Duration
	Policies  []string
	Renewable bool
}

// API is the subset of the Vault HTTP API used by the provisioner.
type API interface {
	PutPolicy(ctx context.Context, name, rules string) error
	// GetPolicy returns "" when the policy does not exist.
	GetPolicy(ctx context.Context, name string) (string, error)
	CreatePeriodicToken(ctx context.Context, policies []string, period string) (string, error)
	LookupSelf(ctx context.Context) (*TokenInfo, error)
	PutSecret(ctx context.Context, path string, data map[string]any) error
	GetSecret(ctx context.Context, path string) (map[string]any, error)
}

// Client implements API with the official Vault client.
type Client struct {
	client *api.Client
}

// NewClient creates a client authenticated with cfg.Token.
func NewClient(cfg Config) (*Client, error) {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.Address
	if cfg.Timeout > 0 {
		apiCfg.Timeout = cfg.Timeout
	}
	if err := apiCfg.ConfigureTLS(&api.TLSConfig{Insecure: cfg.TLSSkipVerify}); err != nil {
		return nil, fmt.Errorf("failed to configure vault TLS: %w", err)
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	return &Client{client: client}, nil
}

// PutPolicy creates or replaces an ACL policy.
func (c *Client) PutPolicy(ctx context.Context, name, rules string) error {
	if err := c.client.Sys().PutPolicyWithContext(ctx, name, rules); err != nil {
		return fmt.Errorf("failed to write policy %s: %w", name, err)
	}
	return nil
}

// GetPolicy returns the rules of an ACL policy.
func (c *Client) GetPolicy(ctx context.Context, name string) (string, error) {
	rules, err := c.client.Sys().GetPolicyWithContext(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to read policy %s: %w", name, err)
	}
	return rules, nil
}

// CreatePeriodicToken issues a renewable token with the given period.
func (c *Client) CreatePeriodicToken(ctx context.Context, policies []string, period string) (string, error) {
	renewable := true
	secret, err := c.client.Auth().Token().CreateWithContext(ctx, &api.TokenCreateRequest{
		Policies:  policies,
		Period:    period,
		Renewable: &renewable,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return "", apperrors.New("vault returned no client token")
	}
	return secret.Auth.ClientToken, nil
}

// LookupSelf describes the client's own token.
func (c *Client) LookupSelf(ctx context.Context) (*TokenInfo, error) {
	secret, err := c.client.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	ttl, err := secret.TokenTTL()
	if err != nil {
		return nil, fmt.Errorf("failed to read token ttl: %w", err)
	}
	policies, err := secret.TokenPolicies()
	if err != nil {
		return nil, fmt.Errorf("failed to read token policies: %w", err)
	}
	renewable, _ := secret.TokenIsRenewable()
	return &TokenInfo{TTL: ttl, Policies: policies, Renewable: renewable}, nil
}

// PutSecret writes a KV v2 secret under the secret mount.
func (c *Client) PutSecret(ctx context.Context, path string, data map[string]any) error {
	if _, err := c.client.KVv2(KVMount).Put(ctx, path, data); err != nil {
		return fmt.Errorf("failed to write secret %s: %w", path, err)
	}
	return nil
}

// GetSecret reads the latest version of a KV v2 secret.
func (c *Client) GetSecret(ctx context.Context, path string) (map[string]any, error) {
	secret, err := c.client.KVv2(KVMount).Get(ctx, path)
	if err != nil {
		if apperrors.Is(err, api.ErrSecretNotFound) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "secret %s", path)
		}
		return nil, fmt.Errorf("failed to read secret %s: %w", path, err)
	}
	return secret.Data, nil
}
