package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSyncRecordRepository implements integration.SyncRecordRepository using GORM
type GormSyncRecordRepository struct {
	db *gorm.DB
}

var _ integration.SyncRecordRepository = (*GormSyncRecordRepository)(nil)

// NewGormSyncRecordRepository creates a new GormSyncRecordRepository
func NewGormSyncRecordRepository(db *gorm.DB) *GormSyncRecordRepository {
	return &GormSyncRecordRepository{db: db}
}

// FindByExternalID finds the ledger entry of one storefront order
func (r *GormSyncRecordRepository) FindByExternalID(ctx context.Context, externalID string) (*integration.SyncRecord, error) {
	var model models.OrderSyncRecordModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts the record or overwrites the entry with the same external id
func (r *GormSyncRecordRepository) Save(ctx context.Context, record *integration.SyncRecord) error {
	model := models.OrderSyncRecordModelFromDomain(record)
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = time.Now()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = model.UpdatedAt
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"internal_id", "tran_id", "customer_id", "path", "state",
			"error_kind", "error_summary", "attempts", "archive_key",
			"last_synced_at", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save sync record %s: %w", record.ExternalID, err)
	}
	return nil
}

// List returns one page of ledger entries and the total matching count
func (r *GormSyncRecordRepository) List(ctx context.Context, filter integration.SyncRecordFilter) ([]*integration.SyncRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderSyncRecordModel{})
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	orderBy := ValidateSortField(filter.OrderBy, SyncRecordSortFields, "last_synced_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.OrderSyncRecordModel
	if err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Order("external_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	records := make([]*integration.SyncRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, total, nil
}

// CountByState returns the number of ledger entries per reconcile state
func (r *GormSyncRecordRepository) CountByState(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		State string
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.OrderSyncRecordModel{}).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}
