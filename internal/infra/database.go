package infra

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions sizes the connection pool and the startup retry loop
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	ConnectAttempts int
	RetryDelay      time.Duration
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConns <= 0 {
		o.MaxConns = 10
	}
	if o.MinConns <= 0 || o.MinConns > o.MaxConns {
		o.MinConns = 2
		if o.MinConns > o.MaxConns {
			o.MinConns = o.MaxConns
		}
	}
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = 5
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	return o
}

// NewDatabase creates the PostgreSQL pool. The first ping is retried so the
// service can start alongside its database container.
func NewDatabase(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	opts = opts.withDefaults()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = opts.MaxConns
	config.MinConns = opts.MinConns
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for attempt := 1; ; attempt++ {
		log.Printf("Connecting to PostgreSQL database (attempt %d/%d)...", attempt, opts.ConnectAttempts)
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == opts.ConnectAttempts {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Printf("[WARN] Database not ready: %v", err)

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(opts.RetryDelay):
		}
	}

	log.Printf("[OK] Database connected successfully (max_conns=%d)", opts.MaxConns)
	return pool, nil
}
