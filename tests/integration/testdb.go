// Package integration runs the sync ledger against a real PostgreSQL started
// with testcontainers.
package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/erp/ordersync/internal/infrastructure/migration"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// shared holds one migrated container per test binary.
var shared struct {
	sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
	err       error
}

// TestDB is a connection to the shared, migrated database.
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewSharedTestDB connects to the package-wide container, starting and
// migrating it on first use. Tests call CleanTables to isolate themselves.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	dsn, err := sharedDSN()
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gormLogger()})
	require.NoError(t, err, "connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, t: t}
}

// sharedDSN starts the container once. A failed start is remembered so later
// tests fail fast instead of retrying.
func sharedDSN() (string, error) {
	shared.Lock()
	defer shared.Unlock()
	if shared.container != nil || shared.err != nil {
		return shared.dsn, shared.err
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ordersync_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		shared.err = fmt.Errorf("start postgres container: %w", err)
		return "", shared.err
	}
	shared.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		err = migrate(dsn)
	}
	if err != nil {
		shared.err = err
		return "", err
	}
	shared.dsn = dsn
	return dsn, nil
}

func migrate(dsn string) error {
	root := findMigrationsRoot()
	if root == "" {
		return errors.New("migrations directory not found")
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gormLogger()})
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	m, err := migration.New(sqlDB, "postgres", root, nil)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func gormLogger() logger.Interface {
	if os.Getenv("TEST_DB_DEBUG") != "" {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Silent)
}

// CleanTables truncates every application table.
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	require.NoError(tdb.t, tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'
	`).Scan(&tables).Error)

	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE "+table+" CASCADE").Error)
	}
}

// CleanupSharedContainer terminates the shared container. Call it from TestMain.
func CleanupSharedContainer() {
	shared.Lock()
	defer shared.Unlock()
	if shared.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = shared.container.Terminate(ctx)
	shared.container = nil
	shared.dsn = ""
}

// findMigrationsRoot walks up from this file to the directory holding
// migrations/postgres.
func findMigrationsRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	for dir := filepath.Dir(filename); dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(filepath.Join(candidate, "postgres")); err == nil {
			return candidate
		}
	}
	return ""
}
