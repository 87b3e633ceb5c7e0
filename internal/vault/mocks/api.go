// Package mocks provides mock implementations of the Vault API for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/inesdata/dataspace-tools/internal/vault"
)

// MockAPI is a mock implementation of vault.API.
type MockAPI struct {
	mock.Mock
}

// PutPolicy mocks the PutPolicy method.
func (m *MockAPI) PutPolicy(ctx context.Context, name, rules string) error {
	args := m.Called(ctx, name, rules)
	return args.Error(0)
}

// GetPolicy mocks the GetPolicy method.
func (m *MockAPI) GetPolicy(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

// CreatePeriodicToken mocks the CreatePeriodicToken method.
func (m *MockAPI) CreatePeriodicToken(ctx context.Context, policies []string, period string) (string, error) {
	args := m.Called(ctx, policies, period)
	return args.String(0), args.Error(1)
}

// LookupSelf mocks the LookupSelf method.
func (m *MockAPI) LookupSelf(ctx context.Context) (*vault.TokenInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vault.TokenInfo), args.Error(1)
}

// PutSecret mocks the PutSecret method.
func (m *MockAPI) PutSecret(ctx context.Context, path string, data map[string]any) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}

// GetSecret mocks the GetSecret method.
func (m *MockAPI) GetSecret(ctx context.Context, path string) (map[string]any, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}
