package edc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/inesdata/dataspace-tools/internal/edc"
	edcMocks "github.com/inesdata/dataspace-tools/internal/edc/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func expectRecord(m *mockBusinessMetrics, operation, status string) {
	m.On("RecordOperation", mock.Anything, "edc", operation, status).Once()
	m.On("RecordDuration", mock.Anything, "edc", operation, mock.AnythingOfType("time.Duration"), status).Once()
}

func TestClientWithMetrics_InitiateNegotiation(t *testing.T) {
	ctx := context.Background()
	offer := map[string]any{"@id": "offer-1"}

	t.Run("Success", func(t *testing.T) {
		next := edcMocks.NewMockClient(t)
		m := &mockBusinessMetrics{}
		next.On("InitiateNegotiation", ctx, "token", offer, "asset-1", "http://p").Return("neg-1", nil).Once()
		expectRecord(m, "negotiation_initiate", "success")

		id, err := edc.NewClientWithMetrics(next, m).InitiateNegotiation(ctx, "token", offer, "asset-1", "http://p")

		assert.NoError(t, err)
		assert.Equal(t, "neg-1", id)
		m.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		next := edcMocks.NewMockClient(t)
		m := &mockBusinessMetrics{}
		next.On("InitiateNegotiation", ctx, "token", offer, "asset-1", "http://p").
			Return("", errors.New("connector down")).
			Once()
		expectRecord(m, "negotiation_initiate", "error")

		_, err := edc.NewClientWithMetrics(next, m).InitiateNegotiation(ctx, "token", offer, "asset-1", "http://p")

		assert.Error(t, err)
		m.AssertExpectations(t)
	})
}

func TestClientWithMetrics_StatusAndDownload(t *testing.T) {
	ctx := context.Background()
	next := edcMocks.NewMockClient(t)
	m := &mockBusinessMetrics{}
	edr := edc.EDR{Endpoint: "http://dp", AuthKey: "Authorization", AuthCode: "tok"}

	next.On("CheckTransferStatus", ctx, "token", "tp-1").Return(&edc.TransferStatus{ID: "tp-1", State: "STARTED"}, nil).Once()
	next.On("GetEDR", ctx, "token", "tp-1").Return(&edr, nil).Once()
	next.On("DownloadData", ctx, edr).Return([]byte("data"), nil).Once()
	next.On("TerminateTransfer", ctx, "token", "tp-1", "").Return(nil).Once()
	expectRecord(m, "transfer_status", "success")
	expectRecord(m, "edr_get", "success")
	expectRecord(m, "data_download", "success")
	expectRecord(m, "transfer_terminate", "success")

	client := edc.NewClientWithMetrics(next, m)
	status, err := client.CheckTransferStatus(ctx, "token", "tp-1")
	assert.NoError(t, err)
	assert.Equal(t, "STARTED", status.State)

	got, err := client.GetEDR(ctx, "token", "tp-1")
	assert.NoError(t, err)
	data, err := client.DownloadData(ctx, *got)
	assert.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
	assert.NoError(t, client.TerminateTransfer(ctx, "token", "tp-1", ""))

	m.AssertExpectations(t)
}
