package usecase

import (
	"context"
	"time"

	"github.com/inesdata/dataspace-tools/internal/edc"
	"github.com/inesdata/dataspace-tools/internal/exchange/domain"
	"github.com/inesdata/dataspace-tools/internal/imaging"
	"github.com/inesdata/dataspace-tools/internal/metrics"
)

// exchangeUseCaseWithMetrics decorates ExchangeUseCase with metrics instrumentation.
type exchangeUseCaseWithMetrics struct {
	next    ExchangeUseCase
	metrics metrics.BusinessMetrics
}

// NewExchangeUseCaseWithMetrics wraps an ExchangeUseCase with metrics recording.
func NewExchangeUseCaseWithMetrics(useCase ExchangeUseCase, m metrics.BusinessMetrics) ExchangeUseCase {
	return &exchangeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (e *exchangeUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, e.metrics, "exchange", operation, start, err)
}

// Login records metrics for sign-ins.
func (e *exchangeUseCaseWithMetrics) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	start := time.Now()
	session, err := e.next.Login(ctx, username, password)
	e.record(ctx, "login", start, err)
	return session, err
}

// Logout records metrics for sign-outs.
func (e *exchangeUseCaseWithMetrics) Logout(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := e.next.Logout(ctx, sessionID)
	e.record(ctx, "logout", start, err)
	return err
}

// Catalog records metrics for catalog reads.
func (e *exchangeUseCaseWithMetrics) Catalog(
	ctx context.Context,
	sessionID string,
	refresh bool,
) ([]edc.Dataset, error) {
	start := time.Now()
	datasets, err := e.next.Catalog(ctx, sessionID, refresh)
	e.record(ctx, "catalog", start, err)
	return datasets, err
}

// Negotiate records metrics for negotiation starts.
func (e *exchangeUseCaseWithMetrics) Negotiate(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Negotiation, error) {
	start := time.Now()
	negotiation, err := e.next.Negotiate(ctx, sessionID, datasetID)
	e.record(ctx, "negotiate", start, err)
	return negotiation, err
}

// CheckNegotiation records metrics for negotiation checks.
func (e *exchangeUseCaseWithMetrics) CheckNegotiation(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Negotiation, error) {
	start := time.Now()
	negotiation, err := e.next.CheckNegotiation(ctx, sessionID, datasetID)
	e.record(ctx, "negotiation_check", start, err)
	return negotiation, err
}

// StartTransfer records metrics for transfer starts.
func (e *exchangeUseCaseWithMetrics) StartTransfer(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Transfer, error) {
	start := time.Now()
	transfer, err := e.next.StartTransfer(ctx, sessionID, datasetID)
	e.record(ctx, "transfer_start", start, err)
	return transfer, err
}

// CheckTransfer records metrics for transfer checks.
func (e *exchangeUseCaseWithMetrics) CheckTransfer(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Transfer, error) {
	start := time.Now()
	transfer, err := e.next.CheckTransfer(ctx, sessionID, datasetID)
	e.record(ctx, "transfer_check", start, err)
	return transfer, err
}

// TerminateTransfer records metrics for transfer terminations.
func (e *exchangeUseCaseWithMetrics) TerminateTransfer(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Transfer, error) {
	start := time.Now()
	transfer, err := e.next.TerminateTransfer(ctx, sessionID, datasetID)
	e.record(ctx, "transfer_terminate", start, err)
	return transfer, err
}

// Download records metrics for data pulls.
func (e *exchangeUseCaseWithMetrics) Download(
	ctx context.Context,
	sessionID, datasetID string,
) (*domain.Transfer, error) {
	start := time.Now()
	transfer, err := e.next.Download(ctx, sessionID, datasetID)
	e.record(ctx, "download", start, err)
	return transfer, err
}

// Data records metrics for downloaded data reads.
func (e *exchangeUseCaseWithMetrics) Data(ctx context.Context, sessionID, datasetID string) (*DataFile, error) {
	start := time.Now()
	file, err := e.next.Data(ctx, sessionID, datasetID)
	e.record(ctx, "data", start, err)
	return file, err
}

// Synthesize records metrics for image synthesis.
func (e *exchangeUseCaseWithMetrics) Synthesize(
	ctx context.Context,
	sessionID, datasetID string,
	req imaging.Request,
) (*imaging.Result, error) {
	start := time.Now()
	result, err := e.next.Synthesize(ctx, sessionID, datasetID, req)
	e.record(ctx, "synthesize", start, err)
	return result, err
}

// ImagesArchive records metrics for image archives.
func (e *exchangeUseCaseWithMetrics) ImagesArchive(
	ctx context.Context,
	sessionID, datasetID string,
) ([]byte, error) {
	start := time.Now()
	archive, err := e.next.ImagesArchive(ctx, sessionID, datasetID)
	e.record(ctx, "images_archive", start, err)
	return archive, err
}

// Image records metrics for single image reads.
func (e *exchangeUseCaseWithMetrics) Image(ctx context.Context, sessionID, datasetID, name string) ([]byte, error) {
	start := time.Now()
	data, err := e.next.Image(ctx, sessionID, datasetID, name)
	e.record(ctx, "image_read", start, err)
	return data, err
}

// ClearImages records metrics for image removal.
func (e *exchangeUseCaseWithMetrics) ClearImages(ctx context.Context, sessionID, datasetID string) error {
	start := time.Now()
	err := e.next.ClearImages(ctx, sessionID, datasetID)
	e.record(ctx, "images_clear", start, err)
	return err
}

// ClearAll records metrics for session resets.
func (e *exchangeUseCaseWithMetrics) ClearAll(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := e.next.ClearAll(ctx, sessionID)
	e.record(ctx, "clear_all", start, err)
	return err
}

// Downloads records metrics for the downloads overview.
func (e *exchangeUseCaseWithMetrics) Downloads(
	ctx context.Context,
	sessionID string,
) (*domain.DownloadsOverview, error) {
	start := time.Now()
	overview, err := e.next.Downloads(ctx, sessionID)
	e.record(ctx, "downloads", start, err)
	return overview, err
}
