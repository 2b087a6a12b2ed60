// Package sqlite provides a SQLite-backed memstore.Store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pensieveco/pensieve/pkg/memstore"
)

// Store implements memstore.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the memory database at dbPath.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id              TEXT PRIMARY KEY,
			summary         TEXT NOT NULL DEFAULT '',
			frames          TEXT NOT NULL DEFAULT '',
			tags            TEXT NOT NULL DEFAULT '',
			salience        REAL NOT NULL DEFAULT 0.5,
			retrieval_hints TEXT NOT NULL DEFAULT '',
			verbatim        TEXT,
			timestamp       TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating memories table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, id string) (*memstore.Memory, error) {
	var (
		m        memstore.Memory
		frames   string
		tags     string
		hints    string
		verbatim sql.NullString
		ts       sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, summary, frames, tags, salience, retrieval_hints, verbatim, timestamp
		FROM memories WHERE id = ?
	`, id).Scan(&m.ID, &m.Summary, &frames, &tags, &m.Salience, &hints, &verbatim, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, memstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying memory %s: %w", id, err)
	}

	m.Frames = splitList(frames)
	m.Tags = splitList(tags)
	m.RetrievalHints = splitList(hints)
	if verbatim.Valid && verbatim.String != "" {
		m.Verbatim = json.RawMessage(verbatim.String)
	}
	if ts.Valid {
		m.Timestamp = ts.Time
	}

	return &m, nil
}

func (s *Store) Put(ctx context.Context, m *memstore.Memory) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("memory with ID is required")
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, summary, frames, tags, salience, retrieval_hints, verbatim, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			summary = excluded.summary,
			frames = excluded.frames,
			tags = excluded.tags,
			salience = excluded.salience,
			retrieval_hints = excluded.retrieval_hints,
			verbatim = excluded.verbatim,
			timestamp = excluded.timestamp
	`, m.ID, m.Summary, joinList(m.Frames), joinList(m.Tags), m.Salience,
		joinList(m.RetrievalHints), string(m.Verbatim), ts)
	if err != nil {
		return fmt.Errorf("upserting memory %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) PutVerbatim(ctx context.Context, id string, verbatim json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET verbatim = ? WHERE id = ?`,
		string(verbatim), id,
	)
	if err != nil {
		return fmt.Errorf("updating verbatim for %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking verbatim update for %s: %w", id, err)
	}
	if n == 0 {
		return memstore.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM memories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning memory id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memories: %w", err)
	}
	return ids, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

func joinList(v []string) string {
	return strings.Join(v, ",")
}
