// Package edc is a client for the INESData connector Management API: the
// federated catalog, contract negotiations, transfer processes and EDR
// retrieval. Every call is a single attempt; failures surface to the caller.
package edc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// Management API paths, relative to the consumer management base URL.
const (
	CatalogPath      = "/federatedcatalog/request"
	NegotiationsPath = "/v3/contractnegotiations"
	TransfersPath    = "/v3/transferprocesses"
	EDRsPath         = "/v3/edrs"
)

// Values used in the JSON-LD requests.
const (
	vocabEDC             = "https://w3id.org/edc/v0.0.1/ns/"
	vocabODRL            = "http://www.w3.org/ns/odrl/2/"
	protocolDSP          = "dataspace-protocol-http"
	transferTypeHTTPPull = "HttpData-PULL"
	DefaultTerminateNote = "User requested termination"
	maxErrorBody         = 512
)

// Config holds the Management API location and per-call timeouts.
type Config struct {
	ManagementURL string
	// ParticipantID is sent as odrl:assigner in contract requests.
	ParticipantID   string
	RequestTimeout  time.Duration
	StatusTimeout   time.Duration
	DownloadTimeout time.Duration
}

// NegotiationStatus is the last known state of a contract negotiation.
type NegotiationStatus struct {
	ID          string         `json:"id"`
	State       string         `json:"state"`
	AgreementID string         `json:"contract_agreement_id,omitempty"`
	Raw         map[string]any `json:"raw"`
}

// TransferStatus is the last known state of a transfer process.
type TransferStatus struct {
	ID    string         `json:"id"`
	State string         `json:"state"`
	Raw   map[string]any `json:"raw"`
}

// EDR is an endpoint data reference: where to pull the data and the header
// that authorizes the pull.
type EDR struct {
	Endpoint string         `json:"endpoint"`
	AuthKey  string         `json:"auth_key"`
	AuthCode string         `json:"-"`
	Raw      map[string]any `json:"-"`
}

// Complete reports whether the EDR can be used to download data.
func (e *EDR) Complete() bool {
	return e != nil && e.Endpoint != "" && e.AuthCode != ""
}

// Client defines the Management API operations. token is the user's bearer token.
type Client interface {
	GetCatalog(ctx context.Context, token string) (json.RawMessage, error)
	InitiateNegotiation(
		ctx context.Context,
		token string,
		offer map[string]any,
		assetID, providerEndpoint string,
	) (string, error)
	// CheckNegotiationStatus returns nil without error when the connector
	// answers with a non-200 status.
	CheckNegotiationStatus(ctx context.Context, token, negotiationID string) (*NegotiationStatus, error)
	InitiateTransfer(ctx context.Context, token, agreementID, assetID, providerEndpoint string) (string, error)
	// CheckTransferStatus returns nil without error when the connector
	// answers with a non-200 status.
	CheckTransferStatus(ctx context.Context, token, transferID string) (*TransferStatus, error)
	GetEDR(ctx context.Context, token, transferID string) (*EDR, error)
	DownloadData(ctx context.Context, edr EDR) ([]byte, error)
	TerminateTransfer(ctx context.Context, token, transferID, reason string) error
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	cfg    Config
	client *resty.Client
	logger *slog.Logger
}

// NewHTTPClient creates a Management API client.
func NewHTTPClient(cfg Config, logger *slog.Logger) *HTTPClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ManagementURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &HTTPClient{cfg: cfg, client: client, logger: logger}
}

func (c *HTTPClient) request(ctx context.Context, token string) *resty.Request {
	return c.client.R().SetContext(ctx).SetAuthToken(token)
}

// GetCatalog requests the federated catalog with the default query.
func (c *HTTPClient) GetCatalog(ctx context.Context, token string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.request(ctx, token).Post(CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to request catalog: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("catalog request failed", resp)
	}
	return json.RawMessage(resp.Body()), nil
}

// NegotiationRequest builds the ContractRequest sent for an offer. The offer
// is copied and completed with the assigner and target.
func NegotiationRequest(offer map[string]any, assetID, providerEndpoint, participantID string) map[string]any {
	policy := make(map[string]any, len(offer)+2)
	for k, v := range offer {
		policy[k] = v
	}
	policy["odrl:assigner"] = map[string]any{"@id": participantID}
	policy["odrl:target"] = map[string]any{"@id": assetID}

	return map[string]any{
		"@context": map[string]any{
			"@vocab": vocabEDC,
			"edc":    vocabEDC,
			"odrl":   vocabODRL,
		},
		"@type":               "ContractRequest",
		"counterPartyAddress": providerEndpoint,
		"protocol":            protocolDSP,
		"policy":              policy,
	}
}

// InitiateNegotiation starts a contract negotiation and returns its id.
func (c *HTTPClient) InitiateNegotiation(
	ctx context.Context,
	token string,
	offer map[string]any,
	assetID, providerEndpoint string,
) (string, error) {
	payload := NegotiationRequest(offer, assetID, providerEndpoint, c.cfg.ParticipantID)
	return c.create(ctx, token, NegotiationsPath, payload, "negotiation failed")
}

// TransferRequest builds the TransferRequest for an agreed contract.
func TransferRequest(agreementID, assetID, providerEndpoint string) map[string]any {
	return map[string]any{
		"@context": map[string]any{
			"@vocab": vocabEDC,
			"edc":    vocabEDC,
		},
		"@type":               "TransferRequest",
		"counterPartyAddress": providerEndpoint,
		"contractId":          agreementID,
		"assetId":             assetID,
		"protocol":            protocolDSP,
		"transferType":        transferTypeHTTPPull,
		"dataDestination": map[string]any{
			"@type": "DataAddress",
			"type":  "HttpData",
		},
	}
}

// InitiateTransfer starts a pull transfer and returns the transfer process id.
func (c *HTTPClient) InitiateTransfer(
	ctx context.Context,
	token, agreementID, assetID, providerEndpoint string,
) (string, error) {
	payload := TransferRequest(agreementID, assetID, providerEndpoint)
	return c.create(ctx, token, TransfersPath, payload, "transfer failed")
}

func (c *HTTPClient) create(ctx context.Context, token, path string, payload any, failure string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.request(ctx, token).SetBody(payload).Post(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", failure, err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", statusError(failure, resp)
	}

	var doc map[string]any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return "", apperrors.Wrapf(apperrors.ErrUnavailable, "%s: malformed response: %v", failure, err)
	}
	id := firstString(doc, idKeys)
	if id == "" {
		return "", apperrors.Wrapf(apperrors.ErrUnavailable, "%s: response has no id", failure)
	}
	return id, nil
}

// CheckNegotiationStatus reads the state of a negotiation.
func (c *HTTPClient) CheckNegotiationStatus(
	ctx context.Context,
	token, negotiationID string,
) (*NegotiationStatus, error) {
	doc, err := c.status(ctx, token, NegotiationsPath+"/"+negotiationID)
	if err != nil || doc == nil {
		return nil, err
	}
	return &NegotiationStatus{
		ID:          negotiationID,
		State:       stringOr(doc, stateKeys, "UNKNOWN"),
		AgreementID: firstString(doc, agreementKeys),
		Raw:         doc,
	}, nil
}

// CheckTransferStatus reads the state of a transfer process.
func (c *HTTPClient) CheckTransferStatus(ctx context.Context, token, transferID string) (*TransferStatus, error) {
	doc, err := c.status(ctx, token, TransfersPath+"/"+transferID)
	if err != nil || doc == nil {
		return nil, err
	}
	return &TransferStatus{
		ID:    transferID,
		State: stringOr(doc, stateKeys, "UNKNOWN"),
		Raw:   doc,
	}, nil
}

func (c *HTTPClient) status(ctx context.Context, token, path string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	resp, err := c.request(ctx, token).Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check status: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Debug("status not available",
			slog.String("path", path),
			slog.Int("status_code", resp.StatusCode()),
		)
		return nil, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUnavailable, "malformed status response: %v", err)
	}
	return doc, nil
}

// NormalizeEDR extracts the endpoint and authorization of a data address.
func NormalizeEDR(doc map[string]any) EDR {
	return EDR{
		Endpoint: firstString(doc, edrEndpointKeys),
		AuthKey:  stringOr(doc, edrAuthKeyKeys, defaultEDRAuthKey),
		AuthCode: firstString(doc, edrAuthCodeKeys),
		Raw:      doc,
	}
}

// GetEDR fetches the data address of a started transfer. A non-200 answer
// means the EDR is not available yet and is reported as ErrNotFound.
func (c *HTTPClient) GetEDR(ctx context.Context, token, transferID string) (*EDR, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	resp, err := c.request(ctx, token).Get(EDRsPath + "/" + transferID + "/dataaddress")
	if err != nil {
		return nil, fmt.Errorf("failed to get EDR: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apperrors.Wrapf(
			apperrors.ErrNotFound,
			"EDR not available yet (status %d), transfer may still be in progress",
			resp.StatusCode(),
		)
	}

	var doc map[string]any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUnavailable, "malformed EDR: %v", err)
	}
	edr := NormalizeEDR(doc)
	return &edr, nil
}

// DownloadData pulls the data behind an EDR. The auth code is sent raw under
// the EDR's header name, without a Bearer prefix. An EDR without endpoint or
// auth code is rejected before any request is sent.
func (c *HTTPClient) DownloadData(ctx context.Context, edr EDR) ([]byte, error) {
	if !edr.Complete() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "EDR has no endpoint or auth code")
	}
	if edr.AuthKey == "" {
		edr.AuthKey = defaultEDRAuthKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	defer cancel()

	c.logger.Info("downloading data", slog.String("endpoint", edr.Endpoint), slog.String("auth_header", edr.AuthKey))

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader(edr.AuthKey, edr.AuthCode).
		SetHeader("Accept", "*/*").
		Get(edr.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to download data: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("download failed", resp)
	}
	return resp.Body(), nil
}

// TerminateTransfer asks the connector to terminate a transfer process.
func (c *HTTPClient) TerminateTransfer(ctx context.Context, token, transferID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	if reason == "" {
		reason = DefaultTerminateNote
	}
	payload := map[string]any{
		"@context": map[string]any{"@vocab": vocabEDC},
		"reason":   reason,
	}

	resp, err := c.request(ctx, token).SetBody(payload).Post(TransfersPath + "/" + transferID + "/terminate")
	if err != nil {
		return fmt.Errorf("failed to terminate transfer: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return statusError("failed to terminate", resp)
	}
	return nil
}

func statusError(message string, resp *resty.Response) error {
	body := resp.String()
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	sentinel := apperrors.ErrUnavailable
	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		sentinel = apperrors.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = apperrors.ErrForbidden
	case http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	}
	return apperrors.Wrapf(sentinel, "%s: %d - %s", message, resp.StatusCode(), body)
}
