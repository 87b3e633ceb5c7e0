// Package mocks provides mock implementations of the EDC client for testing.
package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/inesdata/dataspace-tools/internal/edc"
)

// MockClient is a mock implementation of edc.Client.
type MockClient struct {
	mock.Mock
}

// NewMockClient creates a MockClient that asserts its expectations on cleanup.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// GetCatalog mocks the GetCatalog method.
func (m *MockClient) GetCatalog(ctx context.Context, token string) (json.RawMessage, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// InitiateNegotiation mocks the InitiateNegotiation method.
func (m *MockClient) InitiateNegotiation(
	ctx context.Context,
	token string,
	offer map[string]any,
	assetID, providerEndpoint string,
) (string, error) {
	args := m.Called(ctx, token, offer, assetID, providerEndpoint)
	return args.String(0), args.Error(1)
}

// CheckNegotiationStatus mocks the CheckNegotiationStatus method.
func (m *MockClient) CheckNegotiationStatus(
	ctx context.Context,
	token, negotiationID string,
) (*edc.NegotiationStatus, error) {
	args := m.Called(ctx, token, negotiationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*edc.NegotiationStatus), args.Error(1)
}

// InitiateTransfer mocks the InitiateTransfer method.
func (m *MockClient) InitiateTransfer(
	ctx context.Context,
	token, agreementID, assetID, providerEndpoint string,
) (string, error) {
	args := m.Called(ctx, token, agreementID, assetID, providerEndpoint)
	return args.String(0), args.Error(1)
}

// CheckTransferStatus mocks the CheckTransferStatus method.
func (m *MockClient) CheckTransferStatus(
	ctx context.Context,
	token, transferID string,
) (*edc.TransferStatus, error) {
	args := m.Called(ctx, token, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*edc.TransferStatus), args.Error(1)
}

// GetEDR mocks the GetEDR method.
func (m *MockClient) GetEDR(ctx context.Context, token, transferID string) (*edc.EDR, error) {
	args := m.Called(ctx, token, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*edc.EDR), args.Error(1)
}

// DownloadData mocks the DownloadData method.
func (m *MockClient) DownloadData(ctx context.Context, edr edc.EDR) ([]byte, error) {
	args := m.Called(ctx, edr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// TerminateTransfer mocks the TerminateTransfer method.
func (m *MockClient) TerminateTransfer(ctx context.Context, token, transferID, reason string) error {
	args := m.Called(ctx, token, transferID, reason)
	return args.Error(0)
}
