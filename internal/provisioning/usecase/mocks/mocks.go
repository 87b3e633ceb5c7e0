// Package mocks provides mock implementations of the provisioning use case
// dependencies for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/inesdata/dataspace-tools/internal/credentials"
	"github.com/inesdata/dataspace-tools/internal/objectstore"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
	"github.com/inesdata/dataspace-tools/internal/vault"
)

// MockDatabaseProvisioner is a mock implementation of DatabaseProvisioner.
type MockDatabaseProvisioner struct {
	mock.Mock
}

// CreateDatabase mocks the CreateDatabase method.
func (m *MockDatabaseProvisioner) CreateDatabase(ctx context.Context, dbName, user, password string) error {
	args := m.Called(ctx, dbName, user, password)
	return args.Error(0)
}

// DeleteDatabase mocks the DeleteDatabase method.
func (m *MockDatabaseProvisioner) DeleteDatabase(ctx context.Context, dbName, user string) error {
	args := m.Called(ctx, dbName, user)
	return args.Error(0)
}

// RegisterConnector mocks the RegisterConnector method.
func (m *MockDatabaseProvisioner) RegisterConnector(
	ctx context.Context,
	rsDatabase, connector, dataspace, env string,
) error {
	args := m.Called(ctx, rsDatabase, connector, dataspace, env)
	return args.Error(0)
}

// CheckConnection mocks the CheckConnection method.
func (m *MockDatabaseProvisioner) CheckConnection(ctx context.Context, dbName, user, password string) error {
	args := m.Called(ctx, dbName, user, password)
	return args.Error(0)
}

// FixConnectorSchema mocks the FixConnectorSchema method.
func (m *MockDatabaseProvisioner) FixConnectorSchema(ctx context.Context, dbName string) error {
	args := m.Called(ctx, dbName)
	return args.Error(0)
}

// MockIdentityProvisioner is a mock implementation of IdentityProvisioner.
type MockIdentityProvisioner struct {
	mock.Mock
}

// EnsureDataspace mocks the EnsureDataspace method.
func (m *MockIdentityProvisioner) EnsureDataspace(
	ctx context.Context,
	realm string,
	record credentials.RecordFunc,
) error {
	args := m.Called(ctx, realm, record)
	return args.Error(0)
}

// EnsureConnector mocks the EnsureConnector method.
func (m *MockIdentityProvisioner) EnsureConnector(
	ctx context.Context,
	realm, connector, certFileName string,
	certPEM []byte,
	record credentials.RecordFunc,
) error {
	args := m.Called(ctx, realm, connector, certFileName, certPEM, record)
	return args.Error(0)
}

// DeleteRealm mocks the DeleteRealm method.
func (m *MockIdentityProvisioner) DeleteRealm(ctx context.Context, realm string) (bool, error) {
	args := m.Called(ctx, realm)
	return args.Bool(0), args.Error(1)
}

// DeleteConnectorUser mocks the DeleteConnectorUser method.
func (m *MockIdentityProvisioner) DeleteConnectorUser(ctx context.Context, realm, connector string) (bool, error) {
	args := m.Called(ctx, realm, connector)
	return args.Bool(0), args.Error(1)
}

// DeleteConnectorClient mocks the DeleteConnectorClient method.
func (m *MockIdentityProvisioner) DeleteConnectorClient(ctx context.Context, realm, connector string) (bool, error) {
	args := m.Called(ctx, realm, connector)
	return args.Bool(0), args.Error(1)
}

// DeleteConnectorGroup mocks the DeleteConnectorGroup method.
func (m *MockIdentityProvisioner) DeleteConnectorGroup(ctx context.Context, realm, connector string) (bool, error) {
	args := m.Called(ctx, realm, connector)
	return args.Bool(0), args.Error(1)
}

// DeleteConnectorRole mocks the DeleteConnectorRole method.
func (m *MockIdentityProvisioner) DeleteConnectorRole(ctx context.Context, realm, connector string) (bool, error) {
	args := m.Called(ctx, realm, connector)
	return args.Bool(0), args.Error(1)
}

// MockSecretsProvisioner is a mock implementation of SecretsProvisioner.
type MockSecretsProvisioner struct {
	mock.Mock
}

// ProvisionConnector mocks the ProvisionConnector method.
func (m *MockSecretsProvisioner) ProvisionConnector(
	ctx context.Context,
	dataspace, connector string,
	publicCert, privateKey []byte,
	record credentials.RecordFunc,
) error {
	args := m.Called(ctx, dataspace, connector, publicCert, privateKey, record)
	return args.Error(0)
}

// RenewToken mocks the RenewToken method.
func (m *MockSecretsProvisioner) RenewToken(ctx context.Context, connector string) (string, error) {
	args := m.Called(ctx, connector)
	return args.String(0), args.Error(1)
}

// CheckSecrets mocks the CheckSecrets method.
func (m *MockSecretsProvisioner) CheckSecrets(
	ctx context.Context,
	token, dataspace, connector string,
) (*vault.SecretsReport, error) {
	args := m.Called(ctx, token, dataspace, connector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vault.SecretsReport), args.Error(1)
}

// MockBucketChecker is a mock implementation of BucketChecker.
type MockBucketChecker struct {
	mock.Mock
}

// CheckBucket mocks the CheckBucket method.
func (m *MockBucketChecker) CheckBucket(ctx context.Context, name string) (*objectstore.BucketReport, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.BucketReport), args.Error(1)
}

// MockDataspaceUseCase is a mock implementation of DataspaceUseCase.
type MockDataspaceUseCase struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockDataspaceUseCase) Create(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Delete mocks the Delete method.
func (m *MockDataspaceUseCase) Delete(ctx context.Context, name string) (domain.Summary, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Summary), args.Error(1)
}

// MockConnectorUseCase is a mock implementation of ConnectorUseCase.
type MockConnectorUseCase struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockConnectorUseCase) Create(ctx context.Context, name, dataspace string) error {
	args := m.Called(ctx, name, dataspace)
	return args.Error(0)
}

// Delete mocks the Delete method.
func (m *MockConnectorUseCase) Delete(ctx context.Context, name, dataspace string) (domain.Summary, error) {
	args := m.Called(ctx, name, dataspace)
	return args.Get(0).(domain.Summary), args.Error(1)
}

// Fix mocks the Fix method.
func (m *MockConnectorUseCase) Fix(ctx context.Context, name, dataspace string) error {
	args := m.Called(ctx, name, dataspace)
	return args.Error(0)
}

// Renew mocks the Renew method.
func (m *MockConnectorUseCase) Renew(ctx context.Context, name, dataspace string) (*vault.SecretsReport, error) {
	args := m.Called(ctx, name, dataspace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vault.SecretsReport), args.Error(1)
}

// CheckBucket mocks the CheckBucket method.
func (m *MockConnectorUseCase) CheckBucket(
	ctx context.Context,
	name, dataspace string,
) (*objectstore.BucketReport, error) {
	args := m.Called(ctx, name, dataspace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.BucketReport), args.Error(1)
}

// CheckDatabase mocks the CheckDatabase method.
func (m *MockConnectorUseCase) CheckDatabase(ctx context.Context, name, dataspace string) error {
	args := m.Called(ctx, name, dataspace)
	return args.Error(0)
}
