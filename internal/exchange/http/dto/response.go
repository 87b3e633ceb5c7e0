package dto

import (
	"net/url"
	"strings"
	"time"

	"github.com/inesdata/dataspace-tools/internal/edc"
	"github.com/inesdata/dataspace-tools/internal/exchange/domain"
	"github.com/inesdata/dataspace-tools/internal/imaging"
)

// LoginResponse describes the opened session. The session id travels in a cookie.
type LoginResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MapSessionToLoginResponse converts a session to a login response.
func MapSessionToLoginResponse(session *domain.Session) LoginResponse {
	return LoginResponse{
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	}
}

// CatalogResponse is one page of flattened catalog datasets.
type CatalogResponse struct {
	Data   []edc.Dataset `json:"data"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// NegotiationResponse describes a contract negotiation.
type NegotiationResponse struct {
	ID                  string         `json:"id"`
	Status              string         `json:"status"`
	ContractAgreementID string         `json:"contract_agreement_id,omitempty"`
	Details             map[string]any `json:"details,omitempty"`
}

// MapNegotiationToResponse converts a negotiation to a response.
func MapNegotiationToResponse(n *domain.Negotiation) NegotiationResponse {
	return NegotiationResponse{
		ID:                  n.ID,
		Status:              n.Status,
		ContractAgreementID: n.AgreementID,
		Details:             n.Raw,
	}
}

// TransferResponse describes a transfer process and what was pulled through it.
type TransferResponse struct {
	ID                  string         `json:"id"`
	Status              string         `json:"status"`
	ContractAgreementID string         `json:"contract_agreement_id"`
	EDRAvailable        bool           `json:"edr_available"`
	EDREndpoint         string         `json:"edr_endpoint,omitempty"`
	Downloaded          bool           `json:"downloaded"`
	Size                int            `json:"size"`
	HasImages           bool           `json:"has_images"`
	Details             map[string]any `json:"details,omitempty"`
}

// MapTransferToResponse converts a transfer to a response. The EDR auth code
// is never returned.
func MapTransferToResponse(t *domain.Transfer) TransferResponse {
	resp := TransferResponse{
		ID:                  t.ID,
		Status:              t.Status,
		ContractAgreementID: t.AgreementID,
		EDRAvailable:        t.EDR.Complete(),
		Downloaded:          t.Downloaded(),
		Size:                len(t.Data),
		HasImages:           t.Images != nil,
		Details:             t.Raw,
	}
	if t.EDR != nil {
		resp.EDREndpoint = t.EDR.Endpoint
	}
	return resp
}

// ImageResponse names one generated image and where to fetch it.
type ImageResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ImagesResponse lists generated images. Preview holds the first
// imaging.PreviewLimit of them for a thumbnail grid.
type ImagesResponse struct {
	Method  string          `json:"method"`
	Count   int             `json:"count"`
	Images  []ImageResponse `json:"images"`
	Preview []ImageResponse `json:"preview"`
}

// ImageURL returns the API path serving one image of a dataset.
func ImageURL(datasetID, name string) string {
	segments := strings.Split(name, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return "/v1/datasets/" + url.PathEscape(datasetID) + "/images/" + strings.Join(segments, "/")
}

// MapImagesToResponse converts a synthesis result of a dataset to a response.
// Only names relative to the run output are exposed, never server paths.
func MapImagesToResponse(datasetID string, r *imaging.Result) ImagesResponse {
	images := make([]ImageResponse, 0, len(r.Images))
	for _, name := range r.Images {
		images = append(images, ImageResponse{Name: name, URL: ImageURL(datasetID, name)})
	}
	return ImagesResponse{
		Method:  r.Method,
		Count:   len(images),
		Images:  images,
		Preview: images[:min(len(images), imaging.PreviewLimit)],
	}
}

// DownloadedDatasetResponse summarizes one downloaded dataset.
type DownloadedDatasetResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Size      int    `json:"size"`
	HasImages bool   `json:"has_images"`
}

// DownloadsResponse lists downloaded datasets with totals.
type DownloadsResponse struct {
	Data      []DownloadedDatasetResponse `json:"data"`
	Total     int                         `json:"total"`
	Processed int                         `json:"processed"`
	TotalSize int                         `json:"total_size"`
}

// MapDownloadsToResponse converts a downloads overview to a response.
func MapDownloadsToResponse(o *domain.DownloadsOverview) DownloadsResponse {
	data := make([]DownloadedDatasetResponse, 0, len(o.Datasets))
	for _, d := range o.Datasets {
		data = append(data, DownloadedDatasetResponse{
			ID:        d.ID,
			Name:      d.Name,
			Filename:  d.Filename,
			Format:    d.Format,
			Size:      d.Size,
			HasImages: d.HasImages,
		})
	}
	return DownloadsResponse{
		Data:      data,
		Total:     o.Total,
		Processed: o.Processed,
		TotalSize: o.TotalSize,
	}
}
