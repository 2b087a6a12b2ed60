package tier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// placeholder is what replaces a memory's verbatim payload while the real
// payload lives in the archive. The reconstructable hints stay live so the
// gist remains usable without a restore.
type placeholder struct {
	Archived        bool            `json:"_archived"`
	ArchiveHandle   string          `json:"_archive_handle"`
	Reconstructable json.RawMessage `json:"reconstructable,omitempty"`
}

// ArchiveVerbatim moves a cold memory's verbatim payload into the archive
// store, leaving a placeholder in its place. The operation is all-or-nothing:
// on any failure after the blob is written, the blob is removed and the live
// record left untouched.
func (m *Manager) ArchiveVerbatim(ctx context.Context, id string) error {
	if m.memories == nil || m.blobs == nil {
		return errors.New("archival requires a memory store and an archive store")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	if state.Tier != TierCold {
		return ErrNotCold
	}
	if state.VerbatimArchived {
		return nil
	}

	mem, err := m.memories.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading memory %s: %w", id, err)
	}
	if len(mem.Verbatim) == 0 {
		return ErrNoVerbatim
	}

	handle, err := m.blobs.Put(ctx, id, mem.Verbatim)
	if err != nil {
		return fmt.Errorf("archiving verbatim for %s: %w", id, err)
	}

	ph := placeholder{
		Archived:        true,
		ArchiveHandle:   handle,
		Reconstructable: reconstructableHints(mem.Verbatim),
	}
	phDoc, err := json.Marshal(ph)
	if err != nil {
		m.discardBlob(ctx, handle)
		return fmt.Errorf("encoding archive placeholder for %s: %w", id, err)
	}

	if err := m.memories.PutVerbatim(ctx, id, phDoc); err != nil {
		m.discardBlob(ctx, handle)
		return fmt.Errorf("placing archive placeholder for %s: %w", id, err)
	}

	state.VerbatimArchived = true
	state.ArchiveHandle = handle
	if err := m.save(ctx, state); err != nil {
		// Roll the live record back so it never points at untracked state.
		if putErr := m.memories.PutVerbatim(ctx, id, mem.Verbatim); putErr != nil {
			m.logger.Error("rollback after failed archive state save failed",
				"memory_id", id, "archive_handle", handle, "error", putErr)
			return err
		}
		m.discardBlob(ctx, handle)
		return err
	}

	m.logger.Info("archived verbatim", "memory_id", id, "archive_handle", handle)
	return nil
}

// RestoreVerbatim brings an archived verbatim payload back into the live
// record, byte for byte, and removes the archive blob.
func (m *Manager) RestoreVerbatim(ctx context.Context, id string) error {
	if m.memories == nil || m.blobs == nil {
		return errors.New("restore requires a memory store and an archive store")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	if !state.VerbatimArchived || state.ArchiveHandle == "" {
		return ErrNotArchived
	}

	blob, err := m.blobs.Get(ctx, state.ArchiveHandle)
	if err != nil {
		return fmt.Errorf("reading archived verbatim for %s: %w", id, err)
	}

	if err := m.memories.PutVerbatim(ctx, id, blob); err != nil {
		return fmt.Errorf("restoring verbatim for %s: %w", id, err)
	}

	handle := state.ArchiveHandle
	state.VerbatimArchived = false
	state.ArchiveHandle = ""
	if err := m.save(ctx, state); err != nil {
		// The payload is live again; the blob stays so the retried restore
		// still has a source.
		return err
	}

	m.discardBlob(ctx, handle)
	m.logger.Info("restored verbatim", "memory_id", id)
	return nil
}

// reconstructableHints extracts the reconstructable section from a verbatim
// payload, if it is an object carrying one.
func reconstructableHints(verbatim json.RawMessage) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(verbatim, &fields); err != nil {
		return nil
	}
	return fields["reconstructable"]
}

// discardBlob deletes an archive blob, logging failures. An orphaned blob
// wastes space but never corrupts state.
func (m *Manager) discardBlob(ctx context.Context, handle string) {
	if err := m.blobs.Delete(ctx, handle); err != nil {
		m.logger.Warn("deleting archive blob failed", "archive_handle", handle, "error", err)
	}
}
