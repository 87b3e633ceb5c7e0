// Package auth signs dataspace users in against the identity provider with
// the OAuth2 resource-owner password grant.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// DefaultTimeout bounds every call to the token endpoint.
const DefaultTimeout = 10 * time.Second

// Config identifies the realm and public client used to sign users in.
type Config struct {
	KeycloakURL string
	Realm       string
	ClientID    string
	Scopes      []string
	Timeout     time.Duration
}

// TokenURL returns the realm's OpenID Connect token endpoint.
func (c Config) TokenURL() string {
	return fmt.Sprintf(
		"%s/realms/%s/protocol/openid-connect/token",
		strings.TrimRight(c.KeycloakURL, "/"),
		url.PathEscape(c.Realm),
	)
}

// DiscoveryURL returns the realm's OpenID Connect discovery document.
func (c Config) DiscoveryURL() string {
	return fmt.Sprintf(
		"%s/realms/%s/.well-known/openid-configuration",
		strings.TrimRight(c.KeycloakURL, "/"),
		url.PathEscape(c.Realm),
	)
}

// Authenticator exchanges user credentials for tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuth2Authenticator implements Authenticator with golang.org/x/oauth2.
type OAuth2Authenticator struct {
	config    oauth2.Config
	discovery string
	client    *http.Client
}

// NewOAuth2Authenticator creates an authenticator for a public client.
func NewOAuth2Authenticator(cfg Config) *OAuth2Authenticator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OAuth2Authenticator{
		config: oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: cfg.Scopes,
		},
		discovery: cfg.DiscoveryURL(),
		client:    &http.Client{Timeout: timeout},
	}
}

func (a *OAuth2Authenticator) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.client)
}

// Login performs the password grant.
func (a *OAuth2Authenticator) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	token, err := a.config.PasswordCredentialsToken(a.context(ctx), username, password)
	if err != nil {
		return nil, tokenError("login failed", err)
	}
	return token, nil
}

// Refresh obtains a new access token from a refresh token.
func (a *OAuth2Authenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "no refresh token")
	}

	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	token, err := a.config.TokenSource(a.context(ctx), expired).Token()
	if err != nil {
		return nil, tokenError("token refresh failed", err)
	}
	return token, nil
}

// Ping checks that the realm answers its discovery document. The API
// server uses it as a readiness check.
func (a *OAuth2Authenticator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.discovery, nil)
	if err != nil {
		return fmt.Errorf("failed to build discovery request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrUnavailable, "identity provider unreachable: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return apperrors.Wrapf(apperrors.ErrUnavailable, "identity provider discovery returned %d", resp.StatusCode)
	}
	return nil
}

// tokenError maps rejected credentials to ErrUnauthorized and everything
// else to ErrUnavailable.
func tokenError(message string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return apperrors.Wrap(apperrors.ErrUnauthorized, message)
		}
	}
	return apperrors.Wrapf(apperrors.ErrUnavailable, "%s: %v", message, err)
}
