package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const schemaSQL = `
CREATE TABLE IF NOT EXISTS learner_blobs (
	namespace  TEXT        NOT NULL,
	kind       TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, kind)
);
CREATE TABLE IF NOT EXISTS learner_events (
	id         BIGSERIAL   PRIMARY KEY,
	namespace  TEXT        NOT NULL,
	session_id TEXT,
	event_type TEXT        NOT NULL,
	data       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS learner_events_namespace_idx ON learner_events (namespace, created_at);
`

// Migrate creates the tables used by PostgresStore and PostgresEventLogger.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// PostgresStore is a PostgreSQL-backed BlobStore. Blobs are stored as jsonb.
type PostgresStore struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgresStore creates a store for one namespace.
func NewPostgresStore(pool *pgxpool.Pool, namespace string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	return &PostgresStore{pool: pool, namespace: namespace}, nil
}

func (s *PostgresStore) Load(ctx context.Context, kind BlobKind) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data::text FROM learner_blobs WHERE namespace = $1 AND kind = $2`,
		s.namespace,
		string(kind),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s blob: %w", kind, err)
	}
	return data, nil
}

func (s *PostgresStore) Save(ctx context.Context, kind BlobKind, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO learner_blobs (namespace, kind, data, updated_at)
		 VALUES ($1, $2, $3::jsonb, now())
		 ON CONFLICT (namespace, kind)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		s.namespace,
		string(kind),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert %s blob: %w", kind, err)
	}
	return nil
}
