package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inesdata/dataspace-tools/internal/objectstore"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
	provisioningMocks "github.com/inesdata/dataspace-tools/internal/provisioning/usecase/mocks"
	"github.com/inesdata/dataspace-tools/internal/vault"
)

func TestRunCreateConnector(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		mockUseCase.On("Create", ctx, "conn-a", "ds1").Return(nil)

		require.NoError(t, RunCreateConnector(ctx, mockUseCase, logger, "conn-a", "ds1"))
		mockUseCase.AssertExpectations(t)
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		mockUseCase.On("Create", ctx, "conn-a", "ds1").Return(errors.New("vault down"))

		err := RunCreateConnector(ctx, mockUseCase, logger, "conn-a", "ds1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault down")
	})
}

func TestRunDeleteConnector(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		summary := domain.Summary{Results: []domain.TaskResult{{Name: "conn-a connector database"}}}
		mockUseCase.On("Delete", ctx, "conn-a", "ds1").Return(summary, nil)

		require.NoError(t, RunDeleteConnector(ctx, mockUseCase, logger, "conn-a", "ds1"))
	})

	t.Run("failed-task-gives-error", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		taskErr := errors.New("keycloak unreachable")
		summary := domain.Summary{Results: []domain.TaskResult{
			{Name: "conn-a connector database"},
			{Name: "conn-a keycloak user", Err: taskErr},
		}}
		mockUseCase.On("Delete", ctx, "conn-a", "ds1").Return(summary, nil)

		err := RunDeleteConnector(ctx, mockUseCase, logger, "conn-a", "ds1")
		require.Error(t, err)
		assert.ErrorIs(t, err, taskErr)
	})
}

func TestRunFixConnector(t *testing.T) {
	ctx := context.Background()
	mockUseCase := &provisioningMocks.MockConnectorUseCase{}
	mockUseCase.On("Fix", ctx, "conn-a", "ds1").Return(nil)

	require.NoError(t, RunFixConnector(ctx, mockUseCase, slog.Default(), "conn-a", "ds1"))
	mockUseCase.AssertExpectations(t)
}

func TestRunRenewConnector(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("all-secrets-readable", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		report := &vault.SecretsReport{
			Token: vault.TokenInfo{TTL: 768 * time.Hour, Policies: []string{"conn-a-secrets-policy"}},
			Secrets: []vault.SecretStatus{
				{Path: "ds1/conn-a/aws-access-key", Present: true},
				{Path: "ds1/conn-a/public-key", Present: true},
			},
		}
		mockUseCase.On("Renew", ctx, "conn-a", "ds1").Return(report, nil)
		var out bytes.Buffer

		err := RunRenewConnector(ctx, mockUseCase, logger, &out, "conn-a", "ds1")

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Token TTL: 768h0m0s")
		assert.Contains(t, out.String(), "ds1/conn-a/aws-access-key: ok")
	})

	t.Run("unreadable-secret-gives-error", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		report := &vault.SecretsReport{
			Secrets: []vault.SecretStatus{
				{Path: "ds1/conn-a/aws-access-key", Present: true},
				{Path: "ds1/conn-a/private-key", Err: errors.New("permission denied")},
			},
		}
		mockUseCase.On("Renew", ctx, "conn-a", "ds1").Return(report, nil)
		var out bytes.Buffer

		err := RunRenewConnector(ctx, mockUseCase, logger, &out, "conn-a", "ds1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot read 1 secrets")
		assert.Contains(t, out.String(), "ds1/conn-a/private-key: error (permission denied)")
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		mockUseCase.On("Renew", ctx, "conn-a", "ds1").Return(nil, errors.New("policy missing"))

		err := RunRenewConnector(ctx, mockUseCase, logger, &bytes.Buffer{}, "conn-a", "ds1")
		require.Error(t, err)
	})
}

func TestRunCheckBucket(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("accessible", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		report := &objectstore.BucketReport{Bucket: "ds1-conn-a", Accessible: true, Objects: []string{"a.csv", "b.csv"}}
		mockUseCase.On("CheckBucket", ctx, "conn-a", "ds1").Return(report, nil)
		var out bytes.Buffer

		require.NoError(t, RunCheckBucket(ctx, mockUseCase, logger, &out, "conn-a", "ds1"))
		assert.Contains(t, out.String(), "Bucket 'ds1-conn-a' already exists")
		assert.Contains(t, out.String(), "    - b.csv")
	})

	t.Run("not-accessible", func(t *testing.T) {
		mockUseCase := &provisioningMocks.MockConnectorUseCase{}
		report := &objectstore.BucketReport{Bucket: "ds1-conn-a"}
		mockUseCase.On("CheckBucket", ctx, "conn-a", "ds1").Return(report, nil)
		var out bytes.Buffer

		require.NoError(t, RunCheckBucket(ctx, mockUseCase, logger, &out, "conn-a", "ds1"))
		assert.Contains(t, out.String(), "Bucket 'ds1-conn-a' does not exist")
		assert.NotContains(t, out.String(), "Objects")
	})
}

func TestRunCheckDatabase(t *testing.T) {
	ctx := context.Background()
	mockUseCase := &provisioningMocks.MockConnectorUseCase{}
	mockUseCase.On("CheckDatabase", ctx, "conn-a", "ds1").Return(errors.New("password authentication failed"))

	err := RunCheckDatabase(ctx, mockUseCase, slog.Default(), "conn-a", "ds1")
	require.Error(t, err)
	mockUseCase.AssertExpectations(t)
}
