package integration

import (
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync DTOs
// ---------------------------------------------------------------------------

// SyncResult is the outcome of reconciling one order.
type SyncResult struct {
	ExternalID    string                     `json:"external_id"`
	InternalID    string                     `json:"internal_id,omitempty"`
	TranID        string                     `json:"tran_id,omitempty"`
	CustomerID    string                     `json:"customer_id,omitempty"`
	Path          integration.ReconcilePath  `json:"path,omitempty"`
	State         integration.ReconcileState `json:"state"`
	ErrorKind     string                     `json:"error_kind,omitempty"`
	ErrorSummary  string                     `json:"error_summary,omitempty"`
	DepositID     string                     `json:"deposit_id,omitempty"`
	ArchiveKey    string                     `json:"archive_key,omitempty"`
	IgnoredFields []string                   `json:"ignored_fields,omitempty"`
	Attempts      int                        `json:"attempts"`
}

// BatchItemResult pairs a batch position with its result or error.
type BatchItemResult struct {
	Index  int         `json:"index"`
	Result *SyncResult `json:"result,omitempty"`
	Err    error       `json:"-"`
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts successes and failures.
func Summarize(items []BatchItemResult) BatchSummary {
	s := BatchSummary{Total: len(items)}
	for _, it := range items {
		if it.Err == nil && it.Result != nil &&
			(it.Result.State == integration.StateCreated || it.Result.State == integration.StateUpdated) {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// SyncRecordResponse is a ledger entry in API responses.
type SyncRecordResponse struct {
	ID           uuid.UUID                  `json:"id"`
	ExternalID   string                     `json:"external_id"`
	InternalID   string                     `json:"internal_id,omitempty"`
	TranID       string                     `json:"tran_id,omitempty"`
	CustomerID   string                     `json:"customer_id,omitempty"`
	Path         integration.ReconcilePath  `json:"path,omitempty"`
	State        integration.ReconcileState `json:"state"`
	ErrorKind    string                     `json:"error_kind,omitempty"`
	ErrorSummary string                     `json:"error_summary,omitempty"`
	Attempts     int                        `json:"attempts"`
	ArchiveKey   string                     `json:"archive_key,omitempty"`
	LastSyncedAt time.Time                  `json:"last_synced_at"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// ToSyncRecordResponse converts a ledger entry.
func ToSyncRecordResponse(r *integration.SyncRecord) SyncRecordResponse {
	return SyncRecordResponse{
		ID:           r.ID,
		ExternalID:   r.ExternalID,
		InternalID:   r.InternalID,
		TranID:       r.TranID,
		CustomerID:   r.CustomerID,
		Path:         r.Path,
		State:        r.State,
		ErrorKind:    r.ErrorKind,
		ErrorSummary: r.ErrorSummary,
		Attempts:     r.Attempts,
		ArchiveKey:   r.ArchiveKey,
		LastSyncedAt: r.LastSyncedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ListSyncRecordsQuery filters a ledger listing.
type ListSyncRecordsQuery struct {
	State    string `form:"state" binding:"omitempty,sync_state"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=last_synced_at created_at external_id attempts"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ToFilter converts the query into a repository filter with defaults applied.
func (q ListSyncRecordsQuery) ToFilter() integration.SyncRecordFilter {
	f := integration.SyncRecordFilter{
		State:    integration.ReconcileState(q.State),
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	return f
}
