package edc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/inesdata/dataspace-tools/internal/metrics"
)

const metricsDomain = "edc"

// clientWithMetrics decorates Client with metrics instrumentation.
type clientWithMetrics struct {
	next    Client
	metrics metrics.BusinessMetrics
}

// NewClientWithMetrics wraps a Client with metrics recording.
func NewClientWithMetrics(client Client, m metrics.BusinessMetrics) Client {
	return &clientWithMetrics{
		next:    client,
		metrics: m,
	}
}

func (c *clientWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, c.metrics, metricsDomain, operation, start, err)
}

// GetCatalog records metrics for catalog requests.
func (c *clientWithMetrics) GetCatalog(ctx context.Context, token string) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.next.GetCatalog(ctx, token)
	c.record(ctx, "catalog_get", start, err)
	return raw, err
}

// InitiateNegotiation records metrics for contract requests.
func (c *clientWithMetrics) InitiateNegotiation(
	ctx context.Context,
	token string,
	offer map[string]any,
	assetID, providerEndpoint string,
) (string, error) {
	start := time.Now()
	id, err := c.next.InitiateNegotiation(ctx, token, offer, assetID, providerEndpoint)
	c.record(ctx, "negotiation_initiate", start, err)
	return id, err
}

// CheckNegotiationStatus records metrics for negotiation status checks.
func (c *clientWithMetrics) CheckNegotiationStatus(
	ctx context.Context,
	token, negotiationID string,
) (*NegotiationStatus, error) {
	start := time.Now()
	status, err := c.next.CheckNegotiationStatus(ctx, token, negotiationID)
	c.record(ctx, "negotiation_status", start, err)
	return status, err
}

// InitiateTransfer records metrics for transfer requests.
func (c *clientWithMetrics) InitiateTransfer(
	ctx context.Context,
	token, agreementID, assetID, providerEndpoint string,
) (string, error) {
	start := time.Now()
	id, err := c.next.InitiateTransfer(ctx, token, agreementID, assetID, providerEndpoint)
	c.record(ctx, "transfer_initiate", start, err)
	return id, err
}

// CheckTransferStatus records metrics for transfer status checks.
func (c *clientWithMetrics) CheckTransferStatus(
	ctx context.Context,
	token, transferID string,
) (*TransferStatus, error) {
	start := time.Now()
	status, err := c.next.CheckTransferStatus(ctx, token, transferID)
	c.record(ctx, "transfer_status", start, err)
	return status, err
}

// GetEDR records metrics for EDR lookups.
func (c *clientWithMetrics) GetEDR(ctx context.Context, token, transferID string) (*EDR, error) {
	start := time.Now()
	edr, err := c.next.GetEDR(ctx, token, transferID)
	c.record(ctx, "edr_get", start, err)
	return edr, err
}

// DownloadData records metrics for data pulls.
func (c *clientWithMetrics) DownloadData(ctx context.Context, edr EDR) ([]byte, error) {
	start := time.Now()
	data, err := c.next.DownloadData(ctx, edr)
	c.record(ctx, "data_download", start, err)
	return data, err
}

// TerminateTransfer records metrics for transfer terminations.
func (c *clientWithMetrics) TerminateTransfer(ctx context.Context, token, transferID, reason string) error {
	start := time.Now()
	err := c.next.TerminateTransfer(ctx, token, transferID, reason)
	c.record(ctx, "transfer_terminate", start, err)
	return err
}
