package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

// Undo reverts one tracked mutation: the named entry, or the newest entry not
// yet undone when entryID is empty. Nothing eligible reports false, not an
// error, so callers can probe freely.
func (s *Service) Undo(ctx context.Context, actor Actor, entryID string) (bool, error) {
	entry, ok, err := s.resolveHistoryEntry(ctx, entryID, false)
	if err != nil || !ok {
		return false, err
	}
	unlock := s.lockKey(entry.StorageKey)
	defer unlock()
	if err := s.writeRawState(ctx, entry.StorageKey, entry.BeforeState); err != nil {
		return false, err
	}
	if err := s.history.SetUndone(ctx, entry.EntryID, true); err != nil {
		return false, fmt.Errorf("mark entry undone: %w", err)
	}
	s.logger.Info("history entry undone",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "undo",
		"outcome", "success", "entry_id", entry.EntryID,
		"storage_key", entry.StorageKey, "request_id", actor.RequestID)
	return true, nil
}

// Redo re-applies an undone mutation, newest first.
func (s *Service) Redo(ctx context.Context, actor Actor, entryID string) (bool, error) {
	entry, ok, err := s.resolveHistoryEntry(ctx, entryID, true)
	if err != nil || !ok {
		return false, err
	}
	unlock := s.lockKey(entry.StorageKey)
	defer unlock()
	if err := s.writeRawState(ctx, entry.StorageKey, entry.AfterState); err != nil {
		return false, err
	}
	if err := s.history.SetUndone(ctx, entry.EntryID, false); err != nil {
		return false, fmt.Errorf("mark entry redone: %w", err)
	}
	s.logger.Info("history entry redone",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "redo",
		"outcome", "success", "entry_id", entry.EntryID,
		"storage_key", entry.StorageKey, "request_id", actor.RequestID)
	return true, nil
}

func (s *Service) resolveHistoryEntry(ctx context.Context, entryID string, wantUndone bool) (domain.HistoryEntry, bool, error) {
	if entryID == "" {
		entry, err := s.history.LatestEligible(ctx, wantUndone)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.HistoryEntry{}, false, nil
		}
		if err != nil {
			return domain.HistoryEntry{}, false, fmt.Errorf("scan history: %w", err)
		}
		return entry, true, nil
	}
	entry, err := s.history.GetByID(ctx, entryID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.HistoryEntry{}, false, nil
	}
	if err != nil {
		return domain.HistoryEntry{}, false, fmt.Errorf("load history entry %s: %w", entryID, err)
	}
	if entry.IsUndone != wantUndone {
		// An already-undone (or never-undone) entry is not an error: the
		// operation reports false the same way the empty-ID probe does.
		return domain.HistoryEntry{}, false, nil
	}
	return entry, true, nil
}

// writeRawState puts a stored document back verbatim; a nil document means
// the key did not exist at that point and is removed.
func (s *Service) writeRawState(ctx context.Context, key string, raw json.RawMessage) error {
	if raw == nil {
		if err := s.state.Remove(ctx, key); err != nil {
			return fmt.Errorf("%w: remove %s: %v", domain.ErrStateUnavailable, key, err)
		}
		return nil
	}
	if err := s.state.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStateUnavailable, key, err)
	}
	return nil
}

// ListHistory returns the newest entries of the undo ledger.
func (s *Service) ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	entries, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Snapshot captures the fixed learned-state key set under one restorable ID.
// All key locks are held in declaration order so the cut is consistent.
func (s *Service) Snapshot(ctx context.Context, actor Actor, name string) (*domain.StateSnapshot, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: snapshot name is required", domain.ErrInvalidInput)
	}
	return s.takeSnapshot(ctx, actor, name, false)
}

func (s *Service) takeSnapshot(ctx context.Context, actor Actor, name string, autoBackup bool) (*domain.StateSnapshot, error) {
	unlocks := make([]func(), 0, len(snapshotKeys))
	for _, key := range snapshotKeys {
		unlocks = append(unlocks, s.lockKey(key))
	}
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}()

	snapshot := domain.StateSnapshot{
		SnapshotID: uuid.NewString(),
		Name:       name,
		Keys:       map[string]json.RawMessage{},
		AutoBackup: autoBackup,
		CreatedAt:  s.nowFn(),
	}
	for _, key := range snapshotKeys {
		raw, found, err := s.state.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStateUnavailable, key, err)
		}
		if found {
			snapshot.Keys[key] = raw
		}
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}
	s.logger.Info("snapshot created",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "snapshot",
		"outcome", "success", "snapshot_id", snapshot.SnapshotID,
		"auto_backup", autoBackup, "request_id", actor.RequestID)
	return &snapshot, nil
}

// RestoreResult reports a completed restore and the safety backup taken
// immediately before it.
type RestoreResult struct {
	SnapshotID string `json:"snapshot_id"`
	BackupID   string `json:"backup_id"`
	KeyCount   int    `json:"key_count"`
}

// Restore writes a snapshot's key set back over the live state. The current
// state is backed up first, and every key write lands in the history ledger
// so a restore is itself undoable.
func (s *Service) Restore(ctx context.Context, actor Actor, snapshotID string) (*RestoreResult, error) {
	if snapshotID == "" {
		return nil, fmt.Errorf("%w: snapshot_id is required", domain.ErrInvalidInput)
	}
	snapshot, err := s.snapshots.GetByID(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", snapshotID, err)
	}

	backup, err := s.takeSnapshot(ctx, actor, "pre-restore "+snapshot.Name, true)
	if err != nil {
		return nil, err
	}

	for _, key := range snapshotKeys {
		unlock := s.lockKey(key)
		raw, present := snapshot.Keys[key]
		if !present {
			before, _, getErr := s.state.Get(ctx, key)
			if getErr == nil && before != nil {
				if err := s.writeRawState(ctx, key, nil); err != nil {
					unlock()
					return nil, err
				}
				s.appendRestoreEntry(ctx, key, before, nil)
			}
			unlock()
			continue
		}
		before, _, getErr := s.state.Get(ctx, key)
		if getErr != nil {
			unlock()
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStateUnavailable, key, getErr)
		}
		if err := s.writeRawState(ctx, key, raw); err != nil {
			unlock()
			return nil, err
		}
		s.appendRestoreEntry(ctx, key, before, raw)
		unlock()
	}

	s.emitEvent(ctx, contracts.EventSnapshotRestored, snapshotID, contracts.SnapshotRestoredData{
		SnapshotID: snapshotID,
		BackupID:   backup.SnapshotID,
	})
	s.logger.Info("snapshot restored",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "restore",
		"outcome", "success", "snapshot_id", snapshotID,
		"backup_id", backup.SnapshotID, "request_id", actor.RequestID)
	return &RestoreResult{SnapshotID: snapshotID, BackupID: backup.SnapshotID, KeyCount: len(snapshot.Keys)}, nil
}

func (s *Service) appendRestoreEntry(ctx context.Context, key string, before, after json.RawMessage) {
	entry := domain.HistoryEntry{
		EntryID:     uuid.NewString(),
		Type:        domain.HistoryRestore,
		StorageKey:  key,
		BeforeState: before,
		AfterState:  after,
		CreatedAt:   s.nowFn(),
	}
	if _, err := s.history.Append(ctx, entry); err != nil {
		s.logger.Warn("history append failed",
			"module", s.cfg.ServiceName, "layer", "application",
			"storage_key", key, "error", err)
	}
}

// ListSnapshots returns recent snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context, limit int) ([]domain.StateSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	snapshots, err := s.snapshots.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snapshots, nil
}
