package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

func newTokenServer(t *testing.T, handler http.HandlerFunc) *OAuth2Authenticator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOAuth2Authenticator(Config{
		KeycloakURL: server.URL + "/",
		Realm:       "demo",
		ClientID:    "dataspace-users",
		Scopes:      []string{"openid", "profile", "email"},
	})
}

func TestConfig_TokenURL(t *testing.T) {
	cfg := Config{KeycloakURL: "http://keycloak.local/", Realm: "demo"}
	assert.Equal(t, "http://keycloak.local/realms/demo/protocol/openid-connect/token", cfg.TokenURL())
}

func TestOAuth2Authenticator_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		a := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/realms/demo/protocol/openid-connect/token", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "password", r.PostForm.Get("grant_type"))
			assert.Equal(t, "alice", r.PostForm.Get("username"))
			assert.Equal(t, "secret", r.PostForm.Get("password"))
			assert.Equal(t, "dataspace-users", r.PostForm.Get("client_id"))
			assert.Equal(t, "openid profile email", r.PostForm.Get("scope"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":300}`))
		})

		token, err := a.Login(context.Background(), "alice", "secret")
		require.NoError(t, err)
		assert.Equal(t, "at", token.AccessToken)
		assert.Equal(t, "rt", token.RefreshToken)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		a := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		})

		_, err := a.Login(context.Background(), "alice", "wrong")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("ServerError", func(t *testing.T) {
		a := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := a.Login(context.Background(), "alice", "secret")
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})
}

func TestOAuth2Authenticator_Refresh(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		a := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at2","refresh_token":"rt2","token_type":"Bearer","expires_in":300}`))
		})

		token, err := a.Refresh(context.Background(), "rt")
		require.NoError(t, err)
		assert.Equal(t, "at2", token.AccessToken)
		assert.Equal(t, "rt2", token.RefreshToken)
	})

	t.Run("EmptyRefreshToken", func(t *testing.T) {
		a := NewOAuth2Authenticator(Config{KeycloakURL: "http://unused", Realm: "demo"})

		_, err := a.Refresh(context.Background(), "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestOAuth2Authenticator_Ping(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		a := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/realms/demo/.well-known/openid-configuration", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"issuer":"http://keycloak.local/realms/demo"}`))
		})

		assert.NoError(t, a.Ping(context.Background()))
	})

	t.Run("UnknownRealm", func(t *testing.T) {
		a := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		err := a.Ping(context.Background())
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})
}
