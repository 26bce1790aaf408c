package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncRecord is the local ledger entry for the last reconciliation of one order.
type SyncRecord struct {
	ID           uuid.UUID
	ExternalID   string
	InternalID   string
	TranID       string
	CustomerID   string
	Path         ReconcilePath
	State        ReconcileState
	ErrorKind    string
	ErrorSummary string
	Attempts     int
	ArchiveKey   string
	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSyncRecord starts a ledger entry for an order.
func NewSyncRecord(externalID string) *SyncRecord {
	now := time.Now()
	return &SyncRecord{
		ID:         uuid.New(),
		ExternalID: externalID,
		State:      StateNotStarted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RecordAttempt stores the outcome of one reconciliation pass.
func (r *SyncRecord) RecordAttempt(path ReconcilePath, state ReconcileState, errKind, summary string) {
	now := time.Now()
	r.Path = path
	r.State = state
	r.ErrorKind = errKind
	r.ErrorSummary = summary
	r.Attempts++
	r.LastSyncedAt = now
	r.UpdatedAt = now
}

// Succeeded reports whether the last attempt reached Created or Updated.
func (r *SyncRecord) Succeeded() bool {
	return r.State == StateCreated || r.State == StateUpdated
}

// SyncRecordFilter narrows a ledger listing.
type SyncRecordFilter struct {
	State    ReconcileState
	Page     int
	PageSize int
	OrderBy  string // last_synced_at (default), created_at, external_id, attempts
	OrderDir string // asc or desc (default)
}

// SyncRecordRepository persists the reconciliation ledger.
type SyncRecordRepository interface {
	// FindByExternalID returns ErrSyncRecordNotFound when the order was never seen.
	FindByExternalID(ctx context.Context, externalID string) (*SyncRecord, error)
	Save(ctx context.Context, record *SyncRecord) error
	List(ctx context.Context, filter SyncRecordFilter) ([]*SyncRecord, int64, error)
}

// OrderLock serializes reconciliations of the same external id across workers.
type OrderLock interface {
	// Acquire returns a release func, or ErrOrderLocked when another holder has the key.
	Acquire(ctx context.Context, externalID string, ttl time.Duration) (func(context.Context) error, error)
	Close() error
}

// PayloadArchive keeps a copy of every received payload.
type PayloadArchive interface {
	// Store returns the key the payload was written under.
	Store(ctx context.Context, externalID string, payload []byte) (string, error)
}
