package models

import (
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
)

// OrderSyncRecordModel is the persistence model for integration.SyncRecord.
type OrderSyncRecordModel struct {
	BaseModel
	ExternalID   string                     `gorm:"type:varchar(100);not null;uniqueIndex:idx_order_sync_records_external_id"`
	InternalID   string                     `gorm:"type:varchar(50)"`
	TranID       string                     `gorm:"type:varchar(50)"`
	CustomerID   string                     `gorm:"type:varchar(50)"`
	Path         integration.ReconcilePath  `gorm:"type:varchar(10)"`
	State        integration.ReconcileState `gorm:"type:varchar(20);not null;index:idx_order_sync_records_state"`
	ErrorKind    string                     `gorm:"type:varchar(40)"`
	ErrorSummary string                     `gorm:"type:text"`
	Attempts     int                        `gorm:"not null;default:0"`
	ArchiveKey   string                     `gorm:"type:varchar(500)"`
	LastSyncedAt *time.Time                 `gorm:"index:idx_order_sync_records_last_synced_at"`
}

// TableName returns the table name for GORM
func (OrderSyncRecordModel) TableName() string {
	return "order_sync_records"
}

// ToDomain converts the model to a domain SyncRecord.
func (m *OrderSyncRecordModel) ToDomain() *integration.SyncRecord {
	r := &integration.SyncRecord{
		ID:           m.ID,
		ExternalID:   m.ExternalID,
		InternalID:   m.InternalID,
		TranID:       m.TranID,
		CustomerID:   m.CustomerID,
		Path:         m.Path,
		State:        m.State,
		ErrorKind:    m.ErrorKind,
		ErrorSummary: m.ErrorSummary,
		Attempts:     m.Attempts,
		ArchiveKey:   m.ArchiveKey,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.LastSyncedAt != nil {
		r.LastSyncedAt = *m.LastSyncedAt
	}
	return r
}

// OrderSyncRecordModelFromDomain converts a domain SyncRecord to its model.
func OrderSyncRecordModelFromDomain(r *integration.SyncRecord) *OrderSyncRecordModel {
	m := &OrderSyncRecordModel{
		BaseModel: BaseModel{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
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
	}
	if !r.LastSyncedAt.IsZero() {
		t := r.LastSyncedAt
		m.LastSyncedAt = &t
	}
	return m
}
