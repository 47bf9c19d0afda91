// package database provides connection management for the content store.
//
// A postgres url opens a pgx pool plus a GORM handle over the same
// database. Anything else is treated as a sqlite file path.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// sqlitePragmas keep a single-file store usable by concurrent readers
// while the ingestion goroutine writes.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// DB wraps a GORM instance and, for postgres, the underlying pgx pool.
type DB struct {
	Pool *pgxpool.Pool
	GORM *gorm.DB
}

// Option customises the GORM configuration.
type Option func(*gorm.Config)

// WithLogger routes GORM diagnostics to l.
func WithLogger(l gormlogger.Interface) Option {
	return func(c *gorm.Config) { c.Logger = l }
}

// New opens the database named by databaseURL.
func New(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	gcfg := &gorm.Config{}
	for _, opt := range opts {
		opt(gcfg)
	}

	if IsPostgresURL(databaseURL) {
		return openPostgres(ctx, databaseURL, gcfg)
	}
	return openSQLite(ctx, databaseURL, gcfg)
}

// IsPostgresURL reports whether url selects the postgres driver.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

func openPostgres(ctx context.Context, databaseURL string, gcfg *gorm.Config) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.Open(databaseURL), gcfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	return &DB{Pool: pool, GORM: gormDB}, nil
}

func openSQLite(ctx context.Context, path string, gcfg *gorm.Config) (*DB, error) {
	dsn := path
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + sqlitePragmas
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{GORM: gormDB}
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the content tables.
func (db *DB) Migrate() error {
	if err := db.GORM.AutoMigrate(models.Tables()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the pool and the GORM connection.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if sqlDB, err := db.sqlDB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Ping checks if the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	sqlDB, err := db.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Dialect returns the GORM dialector name ("postgres" or "sqlite").
func (db *DB) Dialect() string {
	return db.GORM.Dialector.Name()
}

func (db *DB) sqlDB() (*sql.DB, error) {
	return db.GORM.DB()
}
