// Package postgres is the primary store: the authoritative, queryable home
// of events plus the auxiliary configuration and offset tables.
package postgres

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          BIGINT PRIMARY KEY,
	app_id      TEXT NOT NULL,
	ts          TIMESTAMPTZ NOT NULL,
	host        TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	sourcetype  TEXT,
	severity    INT,
	message     TEXT NOT NULL,
	fields      JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS events_app_ts_idx ON events (app_id, ts DESC);

CREATE TABLE IF NOT EXISTS apps (
	app_id      TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS app_sources (
	id           BIGSERIAL PRIMARY KEY,
	app_id       TEXT NOT NULL,
	kind         TEXT NOT NULL,
	path         TEXT NOT NULL,
	recursive    BOOLEAN NOT NULL DEFAULT FALSE,
	encoding     TEXT NOT NULL DEFAULT 'utf-8',
	include_glob TEXT,
	exclude_glob TEXT,
	enabled      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tail_offsets (
	id           BIGSERIAL PRIMARY KEY,
	source_id    BIGINT NOT NULL,
	file_path    TEXT NOT NULL,
	offset_bytes BIGINT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	UNIQUE (source_id, file_path)
);
`

// Store aggregates the connection pool and the per-table repositories.
type Store struct {
	log  *zap.Logger
	Pool *pgxpool.Pool

	Events      *EventRepository
	Apps        *AppRepository
	Sources     *SourceRepository
	TailOffsets *TailOffsetRepository
}

// Open connects, waits for the database to come up, and bootstraps the
// schema. The pool is externally provisioned database-wise; tables are ours.
func Open(ctx context.Context, log *zap.Logger, url string) (*Store, error) {
	log = log.Named("postgres")

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	// The database container often races us at startup; retry the first ping.
	ping := func() error { return pool.Ping(ctx) }
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 6), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Store{
		log:         log,
		Pool:        pool,
		Events:      newEventRepository(log, pool),
		Apps:        newAppRepository(log, pool),
		Sources:     newSourceRepository(log, pool),
		TailOffsets: newTailOffsetRepository(log, pool),
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.Pool.Close() }
