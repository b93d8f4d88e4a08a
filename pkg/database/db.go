// Package database wraps sqlx with the subset of operations the repositories use.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DB interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	PingContext(ctx context.Context) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	Rebind(query string) string
	Unsafe() *sqlx.DB
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

// ConnConfig holds postgres connection settings.
type ConnConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MaxAttempts bounds the startup ping retries. Zero means a single attempt.
	MaxAttempts int
}

// Connect opens a postgres connection pool and verifies it with a ping,
// retrying while the database comes up.
func Connect(ctx context.Context, cfg ConnConfig, logger ectologger.Logger) (DB, *sqlx.DB, error) {
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	var pingErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			break
		}
		if attempt < cfg.MaxAttempts {
			logger.WithError(pingErr).WithField("attempt", attempt).Warn("Postgres not ready, retrying")
			select {
			case <-ctx.Done():
				db.Close()
				return nil, nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	if pingErr != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping postgres: %w", pingErr)
	}

	logger.WithFields(map[string]any{"host": cfg.Host, "database": cfg.Database}).Info("Connected to postgres")
	return NewDatabaseInstance(db, logger), db, nil
}
