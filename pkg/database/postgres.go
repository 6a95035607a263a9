package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/logging"
	"github.com/trackmap/trackmap-engine/pkg/retry"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	*pgxpool.Pool
}

// Config holds database connection configuration.
type Config struct {
	URL             string
	MaxConnections  int32
	MinConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewConnection creates a new database connection pool.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 25
	}
	poolConfig.MinConns = cfg.MinConnections

	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}

	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = time.Minute * 30
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Connect opens the pool, retrying with backoff while the database is starting up.
func Connect(ctx context.Context, cfg *Config, retryCfg *retry.Config, logger *zap.Logger) (*DB, error) {
	attempt := 0
	return retry.DoWithResult(ctx, retryCfg, func() (*DB, error) {
		attempt++
		db, err := NewConnection(ctx, cfg)
		if err != nil {
			logger.Warn("Database connection attempt failed",
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
			if isFatalConnectError(err) {
				return nil, retry.Permanent(err)
			}
			return nil, err
		}
		return db, nil
	})
}

// isFatalConnectError reports errors that waiting will not fix: bad
// credentials or a database that does not exist.
func isFatalConnectError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "28P01", "28000", "3D000":
		return true
	}
	return false
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
