// Package fs provides a filesystem-backed archive store, one JSON file per
// archived payload.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pensieveco/pensieve/pkg/archive"
)

// Store implements archive.Store on a local directory.
type Store struct {
	dir string
}

// NewStore creates an archive store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("archive directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Put writes the payload to a new file. The write goes through a temp file
// and rename so a crash never leaves a half-written blob under a live handle.
func (s *Store) Put(_ context.Context, _ string, verbatim json.RawMessage) (string, error) {
	handle := uuid.NewString() + ".json"
	final := filepath.Join(s.dir, handle)

	tmp, err := os.CreateTemp(s.dir, ".archive-*")
	if err != nil {
		return "", fmt.Errorf("creating archive blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(verbatim); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing archive blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("syncing archive blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing archive blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("placing archive blob: %w", err)
	}

	return handle, nil
}

// Get reads a payload back by handle.
func (s *Store) Get(_ context.Context, handle string) (json.RawMessage, error) {
	path, err := s.path(handle)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, archive.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading archive blob %s: %w", handle, err)
	}
	return data, nil
}

// Delete removes a payload by handle.
func (s *Store) Delete(_ context.Context, handle string) error {
	path, err := s.path(handle)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting archive blob %s: %w", handle, err)
	}
	return nil
}

// path resolves a handle inside the archive directory, rejecting handles
// that would escape it.
func (s *Store) path(handle string) (string, error) {
	if handle == "" || handle != filepath.Base(handle) {
		return "", fmt.Errorf("invalid archive handle %q", handle)
	}
	return filepath.Join(s.dir, handle), nil
}
