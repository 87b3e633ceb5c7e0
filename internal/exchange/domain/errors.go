package domain

import (
	"github.com/inesdata/dataspace-tools/internal/errors"
)

// Exchange error definitions.
var (
	// ErrSessionNotFound indicates the session cookie is missing, unknown or expired.
	ErrSessionNotFound = errors.Wrap(errors.ErrUnauthorized, "session not found")

	// ErrDatasetNotFound indicates the dataset is not in the catalog.
	ErrDatasetNotFound = errors.Wrap(errors.ErrNotFound, "dataset not found")

	// ErrNoOffer indicates the dataset has no contract offer to negotiate.
	ErrNoOffer = errors.Wrap(errors.ErrPrecondition, "dataset has no offer")

	// ErrNoNegotiation indicates no negotiation was started for the dataset.
	ErrNoNegotiation = errors.Wrap(errors.ErrNotFound, "no negotiation for dataset")

	// ErrNoAgreement indicates the negotiation has not finalized with an agreement.
	ErrNoAgreement = errors.Wrap(errors.ErrPrecondition, "negotiation has no contract agreement")

	// ErrNoTransfer indicates no transfer was started for the dataset.
	ErrNoTransfer = errors.Wrap(errors.ErrNotFound, "no transfer for dataset")

	// ErrTransferNotActive indicates the transfer is not STARTED or REQUESTED.
	ErrTransferNotActive = errors.Wrap(errors.ErrPrecondition, "transfer is not active")

	// ErrNoEDR indicates no endpoint data reference has been obtained yet.
	ErrNoEDR = errors.Wrap(errors.ErrPrecondition, "no EDR available, check the transfer status first")

	// ErrNoData indicates the dataset has not been downloaded.
	ErrNoData = errors.Wrap(errors.ErrPrecondition, "dataset has not been downloaded")

	// ErrNoImages indicates no synthetic images exist for the dataset.
	ErrNoImages = errors.Wrap(errors.ErrNotFound, "no images generated for dataset")
)
