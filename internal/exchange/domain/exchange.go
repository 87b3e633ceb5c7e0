// Package domain defines the browser session and the per-dataset exchange
// state (negotiation, transfer, downloaded data, generated images).
package domain

import (
	"sync"
	"time"

	"github.com/inesdata/dataspace-tools/internal/edc"
	"github.com/inesdata/dataspace-tools/internal/imaging"
)

// Connector states the browser acts on.
const (
	StateInitiated  = "INITIATED"
	StateRequested  = "REQUESTED"
	StateStarted    = "STARTED"
	StateCompleted  = "COMPLETED"
	StateFinalized  = "FINALIZED"
	StateTerminated = "TERMINATED"
)

// Negotiation tracks a contract negotiation for one dataset.
type Negotiation struct {
	ID          string
	Status      string
	AgreementID string
	Raw         map[string]any
	StartedAt   time.Time
}

// Agreed reports whether a transfer can be started from this negotiation.
func (n *Negotiation) Agreed() bool {
	return n != nil && n.Status == StateFinalized && n.AgreementID != ""
}

// Transfer tracks a transfer process for one dataset and what was pulled through it.
type Transfer struct {
	ID           string
	Status       string
	AgreementID  string
	Raw          map[string]any
	EDR          *edc.EDR
	Data         []byte
	DownloadedAt time.Time
	Images       *imaging.Result
	StartedAt    time.Time
}

// Active reports whether the transfer can still be terminated.
func (t *Transfer) Active() bool {
	return t != nil && (t.Status == StateStarted || t.Status == StateRequested)
}

// Downloaded reports whether data has been pulled.
func (t *Transfer) Downloaded() bool {
	return t != nil && len(t.Data) > 0
}

// Exchange groups the negotiation and transfer of one dataset.
type Exchange struct {
	Negotiation *Negotiation
	Transfer    *Transfer
}

// Session is the state of one signed-in user. Callers hold the lock while
// reading or changing it.
type Session struct {
	mu sync.Mutex

	ID           string
	Username     string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	// Catalog is nil until fetched; it is kept until an explicit refresh.
	Catalog   []edc.Dataset
	Exchanges map[string]*Exchange
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession creates an empty session.
func NewSession(id, username string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		Username:  username,
		Exchanges: make(map[string]*Exchange),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Lock acquires the session lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Expired reports whether the session is past its lifetime.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Dataset looks a dataset up in the catalog snapshot.
func (s *Session) Dataset(id string) (edc.Dataset, bool) {
	for _, ds := range s.Catalog {
		if ds.ID == id {
			return ds, true
		}
	}
	return edc.Dataset{}, false
}

// Exchange returns the exchange for a dataset, creating it when missing.
func (s *Session) Exchange(datasetID string) *Exchange {
	ex, ok := s.Exchanges[datasetID]
	if !ok {
		ex = &Exchange{}
		s.Exchanges[datasetID] = ex
	}
	return ex
}

// Lookup returns the exchange for a dataset without creating it.
func (s *Session) Lookup(datasetID string) (*Exchange, bool) {
	ex, ok := s.Exchanges[datasetID]
	return ex, ok
}
