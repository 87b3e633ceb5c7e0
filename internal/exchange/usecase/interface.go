// Package usecase implements the dataspace browser actions: sign-in, catalog
// browsing, contract negotiation, transfer, download and image synthesis.
package usecase

import (
	"context"
	"time"

	"github.com/inesdata/dataspace-tools/internal/edc"
	"github.com/inesdata/dataspace-tools/internal/exchange/domain"
	"github.com/inesdata/dataspace-tools/internal/imaging"
)

// SessionRepository stores browser sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) ([]*domain.Session, error)
}

// Settings holds the browser defaults that are not per request.
type Settings struct {
	// ProviderDSPEndpoint is used when a catalog entry carries no endpoint.
	ProviderDSPEndpoint string
	SessionTTL          time.Duration
}

// DataFile is downloaded dataset content with the name to save it under.
type DataFile struct {
	Name string
	Data []byte
}

// ExchangeUseCase defines one operation per browser action. Every operation
// except Login works on the session identified by sessionID.
type ExchangeUseCase interface {
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	// Logout terminates active transfers, releases generated images and
	// drops the session. Unknown sessions are ignored.
	Logout(ctx context.Context, sessionID string) error
	// Catalog returns the catalog snapshot, fetching it on first use or when
	// refresh is set.
	Catalog(ctx context.Context, sessionID string, refresh bool) ([]edc.Dataset, error)
	Negotiate(ctx context.Context, sessionID, datasetID string) (*domain.Negotiation, error)
	CheckNegotiation(ctx context.Context, sessionID, datasetID string) (*domain.Negotiation, error)
	StartTransfer(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error)
	// CheckTransfer refreshes the transfer state and fetches the EDR once the
	// transfer is STARTED or COMPLETED.
	CheckTransfer(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error)
	TerminateTransfer(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error)
	Download(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error)
	Data(ctx context.Context, sessionID, datasetID string) (*DataFile, error)
	Synthesize(ctx context.Context, sessionID, datasetID string, req imaging.Request) (*imaging.Result, error)
	ImagesArchive(ctx context.Context, sessionID, datasetID string) ([]byte, error)
	// Image returns one image listed by the last synthesis of the dataset.
	Image(ctx context.Context, sessionID, datasetID, name string) ([]byte, error)
	ClearImages(ctx context.Context, sessionID, datasetID string) error
	// ClearAll terminates active transfers and forgets every negotiation and
	// transfer. The catalog snapshot is kept.
	ClearAll(ctx context.Context, sessionID string) error
	Downloads(ctx context.Context, sessionID string) (*domain.DownloadsOverview, error)
}
