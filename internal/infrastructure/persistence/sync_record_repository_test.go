package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteSyncRecordRepository backs the repository with an in-memory database
func newSQLiteSyncRecordRepository(t *testing.T) *GormSyncRecordRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OrderSyncRecordModel{}))
	return NewGormSyncRecordRepository(db)
}

// newMockSyncRecordRepository creates a repository with a mocked SQL connection
func newMockSyncRecordRepository(t *testing.T) (*GormSyncRecordRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormSyncRecordRepository(gormDB), mock, mockDB
}

func seedRecord(t *testing.T, repo *GormSyncRecordRepository, externalID string, state integration.ReconcileState, syncedAt time.Time) {
	t.Helper()
	r := integration.NewSyncRecord(externalID)
	r.State = state
	r.Path = integration.PathCreate
	r.Attempts = 1
	r.LastSyncedAt = syncedAt
	require.NoError(t, repo.Save(context.Background(), r))
}

// ---------------------------------------------------------------------------
// FindByExternalID
// ---------------------------------------------------------------------------

func TestGormSyncRecordRepository_FindByExternalID(t *testing.T) {
	t.Run("query shape", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncRecordRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "external_id", "internal_id", "tran_id", "state", "attempts"}).
			AddRow(id, "R1001", "9001", "SO-1001", "CREATED", 2)
		mock.ExpectQuery(`SELECT \* FROM "order_sync_records" WHERE external_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("R1001", 1).
			WillReturnRows(rows)

		record, err := repo.FindByExternalID(context.Background(), "R1001")
		require.NoError(t, err)
		assert.Equal(t, id, record.ID)
		assert.Equal(t, "SO-1001", record.TranID)
		assert.Equal(t, integration.StateCreated, record.State)
		assert.Equal(t, 2, record.Attempts)
		assert.True(t, record.LastSyncedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found maps to sentinel", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncRecordRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "order_sync_records"`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByExternalID(context.Background(), "R404")
		assert.ErrorIs(t, err, integration.ErrSyncRecordNotFound)
	})

	t.Run("driver errors pass through", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncRecordRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "order_sync_records"`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByExternalID(context.Background(), "R1001")
		require.Error(t, err)
		assert.NotErrorIs(t, err, integration.ErrSyncRecordNotFound)
	})
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestGormSyncRecordRepository_Save(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteSyncRecordRepository(t)

	record := integration.NewSyncRecord("R1001")
	record.RecordAttempt(integration.PathCreate, integration.StateFailed, "remote_validation", "Invalid email")
	require.NoError(t, repo.Save(ctx, record))

	// A fresh in-memory record for the same order overwrites the ledger row.
	retry := integration.NewSyncRecord("R1001")
	retry.Attempts = record.Attempts
	retry.InternalID = "9001"
	retry.TranID = "SO-1001"
	retry.ArchiveKey = "orders/R1001/20260314T120000Z.json"
	retry.RecordAttempt(integration.PathCreate, integration.StateCreated, "", "")
	require.NoError(t, repo.Save(ctx, retry))

	got, err := repo.FindByExternalID(ctx, "R1001")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID, "row identity survives the upsert")
	assert.Equal(t, integration.StateCreated, got.State)
	assert.Equal(t, "9001", got.InternalID)
	assert.Equal(t, "SO-1001", got.TranID)
	assert.Equal(t, 2, got.Attempts)
	assert.Empty(t, got.ErrorSummary)
	assert.Equal(t, "orders/R1001/20260314T120000Z.json", got.ArchiveKey)
	assert.False(t, got.LastSyncedAt.IsZero())

	_, total, err := repo.List(ctx, integration.SyncRecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// ---------------------------------------------------------------------------
// List / CountByState
// ---------------------------------------------------------------------------

func TestGormSyncRecordRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteSyncRecordRepository(t)
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	seedRecord(t, repo, "R1", integration.StateCreated, base)
	seedRecord(t, repo, "R2", integration.StateFailed, base.Add(time.Minute))
	seedRecord(t, repo, "R3", integration.StateFailed, base.Add(2*time.Minute))
	seedRecord(t, repo, "R4", integration.StateUpdated, base.Add(3*time.Minute))

	tests := []struct {
		name      string
		filter    integration.SyncRecordFilter
		wantIDs   []string
		wantTotal int64
	}{
		{
			name:      "newest first by default",
			filter:    integration.SyncRecordFilter{},
			wantIDs:   []string{"R4", "R3", "R2", "R1"},
			wantTotal: 4,
		},
		{
			name:      "state filter",
			filter:    integration.SyncRecordFilter{State: integration.StateFailed},
			wantIDs:   []string{"R3", "R2"},
			wantTotal: 2,
		},
		{
			name:      "second page",
			filter:    integration.SyncRecordFilter{Page: 2, PageSize: 3},
			wantIDs:   []string{"R1"},
			wantTotal: 4,
		},
		{
			name:      "ascending external id",
			filter:    integration.SyncRecordFilter{OrderBy: "external_id", OrderDir: "asc", PageSize: 2},
			wantIDs:   []string{"R1", "R2"},
			wantTotal: 4,
		},
		{
			name:      "unknown sort column falls back",
			filter:    integration.SyncRecordFilter{OrderBy: "error_summary; DROP TABLE x"},
			wantIDs:   []string{"R4", "R3", "R2", "R1"},
			wantTotal: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			ids := make([]string, len(records))
			for i, r := range records {
				ids[i] = r.ExternalID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestGormSyncRecordRepository_CountByState(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteSyncRecordRepository(t)
	now := time.Now()

	seedRecord(t, repo, "R1", integration.StateCreated, now)
	seedRecord(t, repo, "R2", integration.StateFailed, now)
	seedRecord(t, repo, "R3", integration.StateFailed, now)

	counts, err := repo.CountByState(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"CREATED": 1, "FAILED": 2}, counts)
}
