package vault_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
	"github.com/inesdata/dataspace-tools/internal/vault"
	"github.com/inesdata/dataspace-tools/internal/vault/mocks"
)

type recorder struct {
	order  []string
	fields map[string]map[string]string
}

func (r *recorder) record(_ context.Context, category string, fields map[string]string) error {
	if r.fields == nil {
		r.fields = map[string]map[string]string{}
	}
	r.order = append(r.order, category)
	r.fields[category] = fields
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPolicyRules(t *testing.T) {
	rules := vault.PolicyRules("demo", "conn-a")
	assert.Contains(t, rules, `path "secret/data/demo/conn-a/*"`)
	assert.Contains(t, rules, `capabilities = ["create", "read", "update", "list", "delete"]`)
	assert.Equal(t, "conn-a-secrets-policy", vault.PolicyName("conn-a"))
	assert.Equal(t, "secret/data/demo/conn-a/", vault.SecretPrefix("demo", "conn-a"))
}

func TestProvisioner_ProvisionConnector(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		api := &mocks.MockAPI{}
		api.On("PutPolicy", ctx, "conn-a-secrets-policy", vault.PolicyRules("demo", "conn-a")).Return(nil)
		api.On("CreatePeriodicToken", ctx, []string{"conn-a-secrets-policy"}, "768h").Return("hvs.token", nil)
		api.On("PutSecret", ctx, "demo/conn-a/public-key", map[string]any{"content": "CERT"}).Return(nil)
		api.On("PutSecret", ctx, "demo/conn-a/private-key", map[string]any{"content": "KEY"}).Return(nil)
		api.On("PutSecret", ctx, "demo/conn-a/aws-access-key", mock.Anything).Return(nil)
		api.On("PutSecret", ctx, "demo/conn-a/aws-secret-key", mock.Anything).Return(nil)

		rec := &recorder{}
		p := vault.NewProvisioner(api, nil, discardLogger())
		require.NoError(t, p.ProvisionConnector(ctx, "demo", "conn-a", []byte("CERT"), []byte("KEY"), rec.record))

		assert.Equal(t, []string{"vault", "minio"}, rec.order)
		assert.Equal(t, map[string]string{
			"token": "hvs.token",
			"path":  "secret/data/demo/conn-a/",
		}, rec.fields["vault"])

		minio := rec.fields["minio"]
		assert.Len(t, minio["access_key"], 16)
		assert.Len(t, minio["secret_key"], 40)
		assert.Len(t, minio["passwd"], 16)
		assert.Equal(t, "conn-a", minio["user"])

		api.AssertCalled(t, "PutSecret", ctx, "demo/conn-a/aws-access-key", map[string]any{"content": minio["access_key"]})
		api.AssertCalled(t, "PutSecret", ctx, "demo/conn-a/aws-secret-key", map[string]any{"content": minio["secret_key"]})
		api.AssertExpectations(t)
	})

	t.Run("Error_TokenCreation", func(t *testing.T) {
		api := &mocks.MockAPI{}
		api.On("PutPolicy", ctx, mock.Anything, mock.Anything).Return(nil)
		api.On("CreatePeriodicToken", ctx, mock.Anything, "768h").Return("", errors.New("permission denied"))

		rec := &recorder{}
		p := vault.NewProvisioner(api, nil, discardLogger())
		err := p.ProvisionConnector(ctx, "demo", "conn-a", nil, nil, rec.record)
		require.Error(t, err)
		assert.Empty(t, rec.order)
		api.AssertNotCalled(t, "PutSecret", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_SecretWriteKeepsVaultCategory", func(t *testing.T) {
		api := &mocks.MockAPI{}
		api.On("PutPolicy", ctx, mock.Anything, mock.Anything).Return(nil)
		api.On("CreatePeriodicToken", ctx, mock.Anything, mock.Anything).Return("hvs.token", nil)
		api.On("PutSecret", ctx, "demo/conn-a/public-key", mock.Anything).Return(errors.New("sealed"))

		rec := &recorder{}
		p := vault.NewProvisioner(api, nil, discardLogger())
		err := p.ProvisionConnector(ctx, "demo", "conn-a", []byte("CERT"), []byte("KEY"), rec.record)
		require.Error(t, err)
		assert.Equal(t, []string{"vault"}, rec.order)
	})
}

func TestProvisioner_RenewToken(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		api := &mocks.MockAPI{}
		api.On("GetPolicy", ctx, "conn-a-secrets-policy").Return("path ...", nil)
		api.On("CreatePeriodicToken", ctx, []string{"conn-a-secrets-policy"}, "768h").Return("hvs.new", nil)

		p := vault.NewProvisioner(api, nil, discardLogger())
		token, err := p.RenewToken(ctx, "conn-a")
		require.NoError(t, err)
		assert.Equal(t, "hvs.new", token)
		api.AssertExpectations(t)
	})

	t.Run("Error_PolicyMissing", func(t *testing.T) {
		api := &mocks.MockAPI{}
		api.On("GetPolicy", ctx, "conn-a-secrets-policy").Return("", nil)

		p := vault.NewProvisioner(api, nil, discardLogger())
		_, err := p.RenewToken(ctx, "conn-a")
		require.Error(t, err)
		assert.ErrorIs(t, err, vault.ErrPolicyNotFound)
		assert.ErrorIs(t, err, apperrors.ErrPrecondition)
		api.AssertNotCalled(t, "CreatePeriodicToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_PolicyLookup", func(t *testing.T) {
		api := &mocks.MockAPI{}
		api.On("GetPolicy", ctx, "conn-a-secrets-policy").Return("", errors.New("connection refused"))

		p := vault.NewProvisioner(api, nil, discardLogger())
		_, err := p.RenewToken(ctx, "conn-a")
		require.Error(t, err)
		assert.NotErrorIs(t, err, vault.ErrPolicyNotFound)
	})
}

func TestProvisioner_CheckSecrets(t *testing.T) {
	ctx := context.Background()

	connectorAPI := &mocks.MockAPI{}
	connectorAPI.On("LookupSelf", ctx).Return(&vault.TokenInfo{
		TTL:       768 * time.Hour,
		Policies:  []string{"conn-a-secrets-policy"},
		Renewable: true,
	}, nil)
	connectorAPI.On("GetSecret", ctx, "demo/conn-a/aws-access-key").Return(map[string]any{"content": "k"}, nil)
	connectorAPI.On("GetSecret", ctx, "demo/conn-a/aws-secret-key").Return(map[string]any{"content": "s"}, nil)
	connectorAPI.On("GetSecret", ctx, "demo/conn-a/public-key").Return(map[string]any{"content": "c"}, nil)
	connectorAPI.On("GetSecret", ctx, "demo/conn-a/private-key").
		Return(nil, apperrors.Wrap(apperrors.ErrNotFound, "secret"))

	var openedWith string
	open := func(token string) (vault.API, error) {
		openedWith = token
		return connectorAPI, nil
	}

	p := vault.NewProvisioner(&mocks.MockAPI{}, open, discardLogger())
	report, err := p.CheckSecrets(ctx, "hvs.conn", "demo", "conn-a")
	require.NoError(t, err)

	assert.Equal(t, "hvs.conn", openedWith)
	assert.Equal(t, 768*time.Hour, report.Token.TTL)
	require.Len(t, report.Secrets, 4)
	assert.True(t, report.Secrets[0].Present)
	assert.True(t, report.Secrets[2].Present)
	assert.False(t, report.Secrets[3].Present)
	assert.ErrorIs(t, report.Secrets[3].Err, apperrors.ErrNotFound)
}
