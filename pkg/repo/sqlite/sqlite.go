// Package sqlite provides a SQLite-backed repo.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pensieveco/pensieve/pkg/repo"
)

// Store implements repo.Store on a single SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the state database at dbPath.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	// Full synchronous so a returned Upsert is on disk; the services rely
	// on write durability for correctness, not throughput.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS state_records (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			doc        TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state_records table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM state_records WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *Store) Upsert(ctx context.Context, collection, id string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state_records (collection, id, doc, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, id)
		DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP
	`, collection, id, doc)
	if err != nil {
		return fmt.Errorf("upserting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM state_records WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) All(ctx context.Context, collection string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc FROM state_records WHERE collection = ?`,
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
	return s.db.Close()
}
