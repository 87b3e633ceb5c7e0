package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inesdata/dataspace-tools/internal/auth"
	"github.com/inesdata/dataspace-tools/internal/edc"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
	"github.com/inesdata/dataspace-tools/internal/exchange/domain"
	"github.com/inesdata/dataspace-tools/internal/imaging"
)

// tokenLeeway refreshes access tokens slightly before they expire.
const tokenLeeway = 30 * time.Second

type exchangeUseCase struct {
	settings    Settings
	sessions    SessionRepository
	auth        auth.Authenticator
	client      edc.Client
	synthesizer imaging.Synthesizer
	logger      *slog.Logger
	now         func() time.Time
}

// NewExchangeUseCase creates an ExchangeUseCase.
func NewExchangeUseCase(
	settings Settings,
	sessions SessionRepository,
	authenticator auth.Authenticator,
	client edc.Client,
	synthesizer imaging.Synthesizer,
	logger *slog.Logger,
) ExchangeUseCase {
	return &exchangeUseCase{
		settings:    settings,
		sessions:    sessions,
		auth:        authenticator,
		client:      client,
		synthesizer: synthesizer,
		logger:      logger,
		now:         time.Now,
	}
}

// withSession runs fn with the session locked and a valid access token.
func (e *exchangeUseCase) withSession(
	ctx context.Context,
	sessionID string,
	fn func(session *domain.Session, token string) error,
) error {
	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	session.Lock()
	defer session.Unlock()

	token, err := e.accessToken(ctx, session)
	if err != nil {
		return err
	}
	return fn(session, token)
}

func (e *exchangeUseCase) accessToken(ctx context.Context, session *domain.Session) (string, error) {
	if session.TokenExpiry.IsZero() || e.now().Add(tokenLeeway).Before(session.TokenExpiry) {
		return session.AccessToken, nil
	}

	token, err := e.auth.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return "", err
	}
	session.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		session.RefreshToken = token.RefreshToken
	}
	session.TokenExpiry = token.Expiry
	e.logger.Debug("access token refreshed", slog.String("username", session.Username))
	return session.AccessToken, nil
}

// Login signs the user in and opens a session.
func (e *exchangeUseCase) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	e.purgeExpired(ctx)

	token, err := e.auth.Login(ctx, username, password)
	if err != nil {
		e.logger.Warn("login failed", slog.String("username", username), slog.Any("error", err))
		return nil, err
	}

	session := domain.NewSession(uuid.NewString(), username, e.now(), e.settings.SessionTTL)
	session.AccessToken = token.AccessToken
	session.RefreshToken = token.RefreshToken
	session.TokenExpiry = token.Expiry

	if err := e.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	e.logger.Info("user signed in", slog.String("username", username))
	return session, nil
}

func (e *exchangeUseCase) purgeExpired(ctx context.Context) {
	expired, err := e.sessions.DeleteExpired(ctx)
	if err != nil {
		e.logger.Warn("failed to purge expired sessions", slog.Any("error", err))
		return
	}
	for _, session := range expired {
		session.Lock()
		e.releaseImages(session)
		session.Unlock()
	}
}

// Logout terminates active transfers and drops the session.
func (e *exchangeUseCase) Logout(ctx context.Context, sessionID string) error {
	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if apperrors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	session.Lock()
	e.terminateActive(ctx, session, session.AccessToken)
	e.releaseImages(session)
	session.Exchanges = make(map[string]*domain.Exchange)
	session.Unlock()

	e.logger.Info("user signed out", slog.String("username", session.Username))
	return e.sessions.Delete(ctx, sessionID)
}

// Catalog returns the session catalog snapshot.
func (e *exchangeUseCase) Catalog(ctx context.Context, sessionID string, refresh bool) ([]edc.Dataset, error) {
	var datasets []edc.Dataset
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		if refresh {
			session.Catalog = nil
		}
		if err := e.ensureCatalog(ctx, session, token); err != nil {
			return err
		}
		datasets = session.Catalog
		return nil
	})
	return datasets, err
}

func (e *exchangeUseCase) ensureCatalog(ctx context.Context, session *domain.Session, token string) error {
	if session.Catalog != nil {
		return nil
	}

	raw, err := e.client.GetCatalog(ctx, token)
	if err != nil {
		return err
	}
	if _, single, err := edc.CatalogItems(raw); err == nil && single {
		e.logger.Debug("catalog returned a single object, treating it as one item")
	}
	datasets, err := edc.ParseCatalogDatasets(raw)
	if err != nil {
		return err
	}

	session.Catalog = datasets
	e.logger.Info("catalog fetched",
		slog.String("username", session.Username),
		slog.Int("datasets", len(datasets)),
	)
	return nil
}

func (e *exchangeUseCase) dataset(
	ctx context.Context,
	session *domain.Session,
	token, datasetID string,
) (edc.Dataset, error) {
	if err := e.ensureCatalog(ctx, session, token); err != nil {
		return edc.Dataset{}, err
	}
	ds, ok := session.Dataset(datasetID)
	if !ok {
		return edc.Dataset{}, domain.ErrDatasetNotFound
	}
	return ds, nil
}

func (e *exchangeUseCase) providerEndpoint(ds edc.Dataset) string {
	if ds.Endpoint == "" || ds.Endpoint == "Unknown" {
		return e.settings.ProviderDSPEndpoint
	}
	return ds.Endpoint
}

// Negotiate starts a contract negotiation for the dataset's offer.
func (e *exchangeUseCase) Negotiate(ctx context.Context, sessionID, datasetID string) (*domain.Negotiation, error) {
	var result domain.Negotiation
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		ds, err := e.dataset(ctx, session, token, datasetID)
		if err != nil {
			return err
		}
		if len(ds.Offer) == 0 {
			return domain.ErrNoOffer
		}

		id, err := e.client.InitiateNegotiation(ctx, token, ds.Offer, ds.ID, e.providerEndpoint(ds))
		if err != nil {
			return err
		}

		negotiation := &domain.Negotiation{ID: id, Status: domain.StateInitiated, StartedAt: e.now()}
		session.Exchange(datasetID).Negotiation = negotiation
		result = *negotiation

		e.logger.Info("negotiation started",
			slog.String("dataset_id", datasetID),
			slog.String("negotiation_id", id),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckNegotiation refreshes the negotiation state. The agreement id is only
// recorded once the negotiation is FINALIZED.
func (e *exchangeUseCase) CheckNegotiation(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Negotiation, error) {
	var result domain.Negotiation
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		ex, ok := session.Lookup(datasetID)
		if !ok || ex.Negotiation == nil {
			return domain.ErrNoNegotiation
		}
		negotiation := ex.Negotiation

		status, err := e.client.CheckNegotiationStatus(ctx, token, negotiation.ID)
		if err != nil {
			return err
		}
		if status != nil {
			negotiation.Status = status.State
			negotiation.Raw = status.Raw
			if status.State == domain.StateFinalized && status.AgreementID != "" {
				negotiation.AgreementID = status.AgreementID
			}
		}

		result = *negotiation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// StartTransfer requests a pull transfer under the negotiated agreement.
func (e *exchangeUseCase) StartTransfer(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error) {
	var result domain.Transfer
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		ex, ok := session.Lookup(datasetID)
		if !ok || !ex.Negotiation.Agreed() {
			return domain.ErrNoAgreement
		}
		ds, err := e.dataset(ctx, session, token, datasetID)
		if err != nil {
			return err
		}

		agreementID := ex.Negotiation.AgreementID
		id, err := e.client.InitiateTransfer(ctx, token, agreementID, ds.ID, e.providerEndpoint(ds))
		if err != nil {
			return err
		}

		e.releaseTransfer(ex.Transfer)
		transfer := &domain.Transfer{
			ID:          id,
			Status:      domain.StateInitiated,
			AgreementID: agreementID,
			StartedAt:   e.now(),
		}
		ex.Transfer = transfer
		result = *transfer

		e.logger.Info("transfer started",
			slog.String("dataset_id", datasetID),
			slog.String("transfer_id", id),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func transferOf(session *domain.Session, datasetID string) (*domain.Transfer, error) {
	ex, ok := session.Lookup(datasetID)
	if !ok || ex.Transfer == nil {
		return nil, domain.ErrNoTransfer
	}
	return ex.Transfer, nil
}

// CheckTransfer refreshes the transfer state and obtains the EDR when ready.
// A missing or incomplete EDR is logged and leaves the transfer without one.
func (e *exchangeUseCase) CheckTransfer(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error) {
	var result domain.Transfer
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		transfer, err := transferOf(session, datasetID)
		if err != nil {
			return err
		}

		status, err := e.client.CheckTransferStatus(ctx, token, transfer.ID)
		if err != nil {
			return err
		}
		if status != nil {
			transfer.Status = status.State
			transfer.Raw = status.Raw
		}

		if transfer.Status == domain.StateStarted || transfer.Status == domain.StateCompleted {
			e.fetchEDR(ctx, token, datasetID, transfer)
		}

		result = *transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (e *exchangeUseCase) fetchEDR(ctx context.Context, token, datasetID string, transfer *domain.Transfer) {
	logger := e.logger.With(slog.String("dataset_id", datasetID), slog.String("transfer_id", transfer.ID))

	edr, err := e.client.GetEDR(ctx, token, transfer.ID)
	if err != nil {
		logger.Warn("EDR not available", slog.Any("error", err))
		return
	}
	if !edr.Complete() {
		logger.Warn("EDR incomplete",
			slog.Bool("endpoint", edr.Endpoint != ""),
			slog.Bool("auth", edr.AuthCode != ""),
		)
		return
	}

	transfer.EDR = edr
	logger.Info("EDR obtained", slog.String("endpoint", edr.Endpoint))
}

// TerminateTransfer stops a STARTED or REQUESTED transfer.
func (e *exchangeUseCase) TerminateTransfer(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Transfer, error) {
	var result domain.Transfer
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		transfer, err := transferOf(session, datasetID)
		if err != nil {
			return err
		}
		if !transfer.Active() {
			return domain.ErrTransferNotActive
		}

		if err := e.client.TerminateTransfer(ctx, token, transfer.ID, edc.DefaultTerminateNote); err != nil {
			return err
		}
		transfer.Status = domain.StateTerminated
		result = *transfer

		e.logger.Info("transfer terminated",
			slog.String("dataset_id", datasetID),
			slog.String("transfer_id", transfer.ID),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Download pulls the dataset through the transfer's EDR and keeps the bytes
// in the session.
func (e *exchangeUseCase) Download(ctx context.Context, sessionID, datasetID string) (*domain.Transfer, error) {
	var result domain.Transfer
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		transfer, err := transferOf(session, datasetID)
		if err != nil {
			return err
		}
		if !transfer.EDR.Complete() {
			return domain.ErrNoEDR
		}

		data, err := e.client.DownloadData(ctx, *transfer.EDR)
		if err != nil {
			return err
		}
		transfer.Data = data
		transfer.DownloadedAt = e.now()
		result = *transfer

		e.logger.Info("dataset downloaded",
			slog.String("dataset_id", datasetID),
			slog.Int("bytes", len(data)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Data returns the downloaded bytes of a dataset.
func (e *exchangeUseCase) Data(ctx context.Context, sessionID, datasetID string) (*DataFile, error) {
	var file *DataFile
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		ex, ok := session.Lookup(datasetID)
		if !ok || !ex.Transfer.Downloaded() {
			return domain.ErrNoData
		}

		name := datasetID + ".data"
		if ds, ok := session.Dataset(datasetID); ok {
			name = domain.DownloadName(ds)
		}
		file = &DataFile{Name: name, Data: ex.Transfer.Data}
		return nil
	})
	return file, err
}

// Synthesize generates synthetic images from the downloaded data, replacing
// any earlier images of the dataset.
func (e *exchangeUseCase) Synthesize(
	ctx context.Context,
	sessionID, datasetID string,
	req imaging.Request,
) (*imaging.Result, error) {
	var result *imaging.Result
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		ex, ok := session.Lookup(datasetID)
		if !ok || !ex.Transfer.Downloaded() {
			return domain.ErrNoData
		}

		images, err := e.synthesizer.Synthesize(ctx, ex.Transfer.Data, req)
		if err != nil {
			return err
		}
		e.removeImages(ex.Transfer.Images)
		ex.Transfer.Images = images
		result = images
		return nil
	})
	return result, err
}

// ImagesArchive zips the generated images of a dataset.
func (e *exchangeUseCase) ImagesArchive(ctx context.Context, sessionID, datasetID string) ([]byte, error) {
	var archive []byte
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		ex, ok := session.Lookup(datasetID)
		if !ok || ex.Transfer == nil || ex.Transfer.Images == nil {
			return domain.ErrNoImages
		}

		data, err := imaging.Archive(ex.Transfer.Images)
		if err != nil {
			return err
		}
		archive = data
		return nil
	})
	return archive, err
}

// Image returns one generated image of a dataset.
func (e *exchangeUseCase) Image(ctx context.Context, sessionID, datasetID, name string) ([]byte, error) {
	var data []byte
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		ex, ok := session.Lookup(datasetID)
		if !ok || ex.Transfer == nil || ex.Transfer.Images == nil {
			return domain.ErrNoImages
		}

		image, err := ex.Transfer.Images.Read(name)
		if err != nil {
			return err
		}
		data = image
		return nil
	})
	return data, err
}

// ClearImages drops the generated images of a dataset.
func (e *exchangeUseCase) ClearImages(ctx context.Context, sessionID, datasetID string) error {
	return e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		ex, ok := session.Lookup(datasetID)
		if !ok || ex.Transfer == nil {
			return nil
		}
		e.removeImages(ex.Transfer.Images)
		ex.Transfer.Images = nil
		return nil
	})
}

// ClearAll terminates active transfers and forgets every exchange.
func (e *exchangeUseCase) ClearAll(ctx context.Context, sessionID string) error {
	return e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		e.terminateActive(ctx, session, token)
		e.releaseImages(session)
		session.Exchanges = make(map[string]*domain.Exchange)
		e.logger.Info("session cleared", slog.String("username", session.Username))
		return nil
	})
}

// Downloads returns the overview of downloaded datasets.
func (e *exchangeUseCase) Downloads(ctx context.Context, sessionID string) (*domain.DownloadsOverview, error) {
	var overview domain.DownloadsOverview
	err := e.withSession(ctx, sessionID, func(session *domain.Session, token string) error {
		overview = session.Downloads()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &overview, nil
}

// terminateActive terminates STARTED and REQUESTED transfers. Failures are
// logged and do not stop the remaining terminations.
func (e *exchangeUseCase) terminateActive(ctx context.Context, session *domain.Session, token string) {
	for datasetID, ex := range session.Exchanges {
		if !ex.Transfer.Active() {
			continue
		}
		err := e.client.TerminateTransfer(ctx, token, ex.Transfer.ID, edc.DefaultTerminateNote)
		if err != nil {
			e.logger.Warn("failed to terminate transfer",
				slog.String("dataset_id", datasetID),
				slog.String("transfer_id", ex.Transfer.ID),
				slog.Any("error", err),
			)
			continue
		}
		ex.Transfer.Status = domain.StateTerminated
	}
}

func (e *exchangeUseCase) releaseImages(session *domain.Session) {
	for _, ex := range session.Exchanges {
		e.releaseTransfer(ex.Transfer)
	}
}

func (e *exchangeUseCase) releaseTransfer(transfer *domain.Transfer) {
	if transfer != nil {
		e.removeImages(transfer.Images)
		transfer.Images = nil
	}
}

func (e *exchangeUseCase) removeImages(result *imaging.Result) {
	if err := imaging.Remove(result); err != nil {
		e.logger.Warn("failed to remove images", slog.Any("error", err))
	}
}
