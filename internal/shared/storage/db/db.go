// Package db opens the Postgres handle used by the snapshot persister and
// applies its embedded migrations.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"interview-backend/internal/shared/telemetry"
)

// ErrNoURL is returned by Connect when no DATABASE_URL is configured.
var ErrNoURL = errors.New("DATABASE_URL is empty")

// Options sizes the pool. The persister writes one snapshot row at a time,
// so a handful of connections is plenty.
type Options struct {
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultOptions is used when the caller leaves a field zero.
var DefaultOptions = Options{
	MaxOpenConns:    4,
	ConnMaxLifetime: time.Hour,
	PingTimeout:     5 * time.Second,
}

var openDB = sql.Open

func (o Options) withDefaults() Options {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = DefaultOptions.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = DefaultOptions.ConnMaxLifetime
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = DefaultOptions.PingTimeout
	}
	return o
}

// Connect opens a pgx-backed *sql.DB and pings it before returning.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoURL
	}
	opts = opts.withDefaults()

	handle, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	handle.SetMaxOpenConns(opts.MaxOpenConns)
	handle.SetMaxIdleConns(max(1, opts.MaxOpenConns/2))
	handle.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := handle.PingContext(pingCtx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	telemetry.Info("db.connected", map[string]any{"max_open": opts.MaxOpenConns})
	return handle, nil
}
