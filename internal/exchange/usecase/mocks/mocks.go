// Package mocks provides mock implementations of the exchange use case for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/inesdata/dataspace-tools/internal/edc"
	"github.com/inesdata/dataspace-tools/internal/exchange/domain"
	"github.com/inesdata/dataspace-tools/internal/exchange/usecase"
	"github.com/inesdata/dataspace-tools/internal/imaging"
)

// MockExchangeUseCase is a mock implementation of usecase.ExchangeUseCase.
type MockExchangeUseCase struct {
	mock.Mock
}

// NewMockExchangeUseCase creates a MockExchangeUseCase that asserts its expectations on cleanup.
func NewMockExchangeUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockExchangeUseCase {
	m := &MockExchangeUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Login mocks the Login method.
func (m *MockExchangeUseCase) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// Logout mocks the Logout method.
func (m *MockExchangeUseCase) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

// Catalog mocks the Catalog method.
func (m *MockExchangeUseCase) Catalog(ctx context.Context, sessionID string, refresh bool) ([]edc.Dataset, error) {
	args := m.Called(ctx, sessionID, refresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]edc.Dataset), args.Error(1)
}

// Negotiate mocks the Negotiate method.
func (m *MockExchangeUseCase) Negotiate(ctx context.Context, sessionID, datasetID string) (*domain.Negotiation, error) {
	args := m.Called(ctx, sessionID, datasetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Negotiation), args.Error(1)
}

// CheckNegotiation mocks the CheckNegotiation method.
func (m *MockExchangeUseCase) CheckNegotiation(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Negotiation, error) {
	args := m.Called(ctx, sessionID, datasetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Negotiation), args.Error(1)
}

func (m *MockExchangeUseCase) transfer(args mock.Arguments) (*domain.Transfer, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transfer), args.Error(1)
}

// StartTransfer mocks the StartTransfer method.
func (m *MockExchangeUseCase) StartTransfer(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error) {
	return m.transfer(m.Called(ctx, sessionID, datasetID))
}

// CheckTransfer mocks the CheckTransfer method.
func (m *MockExchangeUseCase) CheckTransfer(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error) {
	return m.transfer(m.Called(ctx, sessionID, datasetID))
}

// TerminateTransfer mocks the TerminateTransfer method.
func (m *MockExchangeUseCase) TerminateTransfer(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Transfer, error) {
	return m.transfer(m.Called(ctx, sessionID, datasetID))
}

// Download mocks the Download method.
func (m *MockExchangeUseCase) Download(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error) {
	return m.transfer(m.Called(ctx, sessionID, datasetID))
}

// Data mocks the Data method.
func (m *MockExchangeUseCase) Data(ctx context.Context, sessionID, datasetID string) (*usecase.DataFile, error) {
	args := m.Called(ctx, sessionID, datasetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DataFile), args.Error(1)
}

// Synthesize mocks the Synthesize method.
func (m *MockExchangeUseCase) Synthesize(
	ctx context.Context,
	sessionID, datasetID string,
	req imaging.Request,
) (*imaging.Result, error) {
	args := m.Called(ctx, sessionID, datasetID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imaging.Result), args.Error(1)
}

// ImagesArchive mocks the ImagesArchive method.
func (m *MockExchangeUseCase) ImagesArchive(ctx context.Context, sessionID, datasetID string) ([]byte, error) {
	args := m.Called(ctx, sessionID, datasetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Image mocks the Image method.
func (m *MockExchangeUseCase) Image(ctx context.Context, sessionID, datasetID, name string) ([]byte, error) {
	args := m.Called(ctx, sessionID, datasetID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// ClearImages mocks the ClearImages method.
func (m *MockExchangeUseCase) ClearImages(ctx context.Context, sessionID, datasetID string) error {
	return m.Called(ctx, sessionID, datasetID).Error(0)
}

// ClearAll mocks the ClearAll method.
func (m *MockExchangeUseCase) ClearAll(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

// Downloads mocks the Downloads method.
func (m *MockExchangeUseCase) Downloads(ctx context.Context, sessionID string) (*domain.DownloadsOverview, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DownloadsOverview), args.Error(1)
}
