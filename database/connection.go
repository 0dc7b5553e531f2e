package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing is deliberately small. The tracker holds one reconciliation
// transaction per club at a time; the rest of the load is short bot and
// admin API reads.
const (
	maxPoolConns = 8
	pingTimeout  = 5 * time.Second
)

// DB wraps the pgx pool shared by the repositories and the unit of work
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens the pool and verifies the database is reachable
// before anything else starts
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	cfg.MaxConns = maxPoolConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool, waiting for checked-out connections to return
func (db *DB) Close() {
	db.Pool.Close()
}
