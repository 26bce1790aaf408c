package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ordersync/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{"", "postgres", false},
		{"postgres", "postgres", false},
		{"mysql", "mysql", false},
		{"sqlserver", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := Dialector(&config.DatabaseConfig{Driver: tt.driver, Host: "db", Port: 1, DBName: "x"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	db, err := wrap(gormDB)
	require.NoError(t, err)
	return db, mock
}

func TestDatabase_PingAndClose(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_WaitReady(t *testing.T) {
	t.Run("recovers after a failed ping", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing()

		assert.NoError(t, db.waitReady(context.Background(), 3, time.Millisecond))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		err := db.waitReady(context.Background(), 2, time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("stops on context cancel", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := db.waitReady(ctx, 5, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
