// Package persistence stores the reconciliation ledger with GORM.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/ordersync/internal/infrastructure/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// connectAttempts bounds the startup ping loop while the database container
// comes up.
const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// Database is an open GORM handle plus its pool.
type Database struct {
	DB   *gorm.DB
	pool *sql.DB
}

// NewDatabase opens the configured driver, applies pool settings and waits
// for the server to answer a ping. A nil gormLogger keeps GORM silent.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialector.Name(), err)
	}
	db, err := wrap(gdb)
	if err != nil {
		return nil, err
	}

	db.pool.SetMaxOpenConns(cfg.MaxOpenConns)
	db.pool.SetMaxIdleConns(cfg.MaxIdleConns)
	db.pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := db.waitReady(ctx, connectAttempts, connectBackoff); err != nil {
		_ = db.pool.Close()
		return nil, err
	}
	return db, nil
}

func wrap(gdb *gorm.DB) (*Database, error) {
	pool, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	return &Database{DB: gdb, pool: pool}, nil
}

// waitReady pings up to attempts times, sleeping backoff between tries.
func (d *Database) waitReady(ctx context.Context, attempts int, backoff time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = d.pool.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping database: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("ping database after %d attempts: %w", attempts, err)
}

// Dialector returns the GORM dialector for cfg.Driver.
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "mysql":
		return mysql.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close closes the pool.
func (d *Database) Close() error {
	return d.pool.Close()
}

// Ping checks the connection. It backs the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}
