// Package postgres provides a PostgreSQL-backed repo.Store using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pensieveco/pensieve/pkg/repo"
)

// Store implements repo.Store on a PostgreSQL database.
// Documents are stored as JSONB so operators can inspect state with SQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at connString (a pgx connection URL)
// and ensures the state_records table exists.
func NewStore(ctx context.Context, connString string) (*Store, error) {
	if connString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrConnection, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", repo.ErrConnection, err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS state_records (
			collection TEXT  NOT NULL,
			id         TEXT  NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating state_records table: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM state_records WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *Store) Upsert(ctx context.Context, collection, id string, doc []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO state_records (collection, id, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, id)
		DO UPDATE SET doc = excluded.doc, updated_at = now()
	`, collection, id, doc)
	if err != nil {
		return fmt.Errorf("upserting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM state_records WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) All(ctx context.Context, collection string) (map[string][]byte, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doc FROM state_records WHERE collection = $1`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", collection, err)
		}
		out[id] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", collection, err)
	}
	return out, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
