package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func newLedger(t *testing.T) *persistence.GormSyncRecordRepository {
	t.Helper()
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	return persistence.NewGormSyncRecordRepository(tdb.DB)
}

func seedRecord(t *testing.T, repo *persistence.GormSyncRecordRepository, externalID string, state integration.ReconcileState, attempts int) *integration.SyncRecord {
	t.Helper()
	record := integration.NewSyncRecord(externalID)
	for i := 0; i < attempts; i++ {
		path := integration.PathCreate
		if i > 0 {
			path = integration.PathUpdate
		}
		record.RecordAttempt(path, state, "", "")
	}
	require.NoError(t, repo.Save(context.Background(), record))
	return record
}

// ---------------------------------------------------------------------------
// Save / FindByExternalID
// ---------------------------------------------------------------------------

func TestSyncRecordRepository_SaveAndFind(t *testing.T) {
	repo := newLedger(t)
	ctx := context.Background()
	externalID := gofakeit.Numerify("R#########")

	record := integration.NewSyncRecord(externalID)
	record.InternalID = "5501"
	record.TranID = "SO-1001"
	record.CustomerID = "812"
	record.ArchiveKey = "orders/" + externalID + "/payload.json"
	record.RecordAttempt(integration.PathCreate, integration.StateCreated, "", "")
	require.NoError(t, repo.Save(ctx, record))

	found, err := repo.FindByExternalID(ctx, externalID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
	assert.Equal(t, "5501", found.InternalID)
	assert.Equal(t, "SO-1001", found.TranID)
	assert.Equal(t, "812", found.CustomerID)
	assert.Equal(t, integration.PathCreate, found.Path)
	assert.Equal(t, integration.StateCreated, found.State)
	assert.Equal(t, 1, found.Attempts)
	assert.Equal(t, record.ArchiveKey, found.ArchiveKey)
	assert.False(t, found.LastSyncedAt.IsZero())
	assert.True(t, found.Succeeded())
}

func TestSyncRecordRepository_SaveOverwritesSameExternalID(t *testing.T) {
	repo := newLedger(t)
	ctx := context.Background()

	first := seedRecord(t, repo, "R1001", integration.StateFailed, 1)
	first.ErrorKind = "lookup"
	first.ErrorSummary = "inventory item SKU-9 not found"
	require.NoError(t, repo.Save(ctx, first))

	// A second worker building a fresh record for the same order must not
	// create a duplicate row.
	again := integration.NewSyncRecord("R1001")
	again.InternalID = "5502"
	again.RecordAttempt(integration.PathUpdate, integration.StateUpdated, "", "")
	again.Attempts = first.Attempts + 1
	require.NoError(t, repo.Save(ctx, again))

	found, err := repo.FindByExternalID(ctx, "R1001")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "5502", found.InternalID)
	assert.Equal(t, integration.StateUpdated, found.State)
	assert.Equal(t, integration.PathUpdate, found.Path)
	assert.Equal(t, 2, found.Attempts)
	assert.Empty(t, found.ErrorKind)
	assert.Empty(t, found.ErrorSummary)

	_, total, err := repo.List(ctx, integration.SyncRecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSyncRecordRepository_FindMissing(t *testing.T) {
	repo := newLedger(t)

	_, err := repo.FindByExternalID(context.Background(), "R-missing")
	assert.ErrorIs(t, err, integration.ErrSyncRecordNotFound)
}

// ---------------------------------------------------------------------------
// List / CountByState
// ---------------------------------------------------------------------------

func TestSyncRecordRepository_List(t *testing.T) {
	repo := newLedger(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		seedRecord(t, repo, fmt.Sprintf("R20%02d", i), integration.StateCreated, i)
	}
	seedRecord(t, repo, "R3001", integration.StateFailed, 2)
	seedRecord(t, repo, "R3002", integration.StateFailed, 4)

	tests := []struct {
		name      string
		filter    integration.SyncRecordFilter
		wantTotal int64
		wantIDs   []string
	}{
		{
			name:      "failed only by external id",
			filter:    integration.SyncRecordFilter{State: integration.StateFailed, OrderBy: "external_id", OrderDir: "asc"},
			wantTotal: 2,
			wantIDs:   []string{"R3001", "R3002"},
		},
		{
			name:      "created by attempts desc second page",
			filter:    integration.SyncRecordFilter{State: integration.StateCreated, OrderBy: "attempts", OrderDir: "desc", Page: 2, PageSize: 2},
			wantTotal: 5,
			wantIDs:   []string{"R2003", "R2002"},
		},
		{
			name:      "unknown sort field falls back",
			filter:    integration.SyncRecordFilter{OrderBy: "error_summary; DROP TABLE x", PageSize: 100},
			wantTotal: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			if tt.wantIDs == nil {
				assert.Len(t, records, int(tt.wantTotal))
				return
			}
			ids := make([]string, len(records))
			for i, r := range records {
				ids[i] = r.ExternalID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSyncRecordRepository_CountByState(t *testing.T) {
	repo := newLedger(t)

	seedRecord(t, repo, "R4001", integration.StateCreated, 1)
	seedRecord(t, repo, "R4002", integration.StateCreated, 1)
	seedRecord(t, repo, "R4003", integration.StateUpdated, 2)
	seedRecord(t, repo, "R4004", integration.StateFailed, 1)

	counts, err := repo.CountByState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		"CREATED": 2,
		"UPDATED": 1,
		"FAILED":  1,
	}, counts)
}
