package domain

import (
	"encoding/json"
	"time"
)

type HistoryEntryType string

const (
	HistoryWeightAdjustment HistoryEntryType = "weight_adjustment"
	HistoryBaselineUpdate   HistoryEntryType = "baseline_update"
	HistorySegmentUpdate    HistoryEntryType = "segment_update"
	HistoryModeChange       HistoryEntryType = "mode_change"
	HistoryDiscoveryUpdate  HistoryEntryType = "discovery_update"
	HistoryRestore          HistoryEntryType = "restore"
)

// HistoryEntry is one reversible mutation of a tracked storage key.
// Entries are append-only; only ring trimming removes them.
type HistoryEntry struct {
	EntryID     string           `json:"entry_id"`
	Type        HistoryEntryType `json:"type"`
	StorageKey  string           `json:"storage_key"`
	BeforeState json.RawMessage  `json:"before_state"`
	AfterState  json.RawMessage  `json:"after_state"`
	IsUndone    bool             `json:"is_undone"`
	CreatedAt   time.Time        `json:"created_at"`
}

// StateSnapshot bundles the full learned state under one restorable ID.
type StateSnapshot struct {
	SnapshotID string                     `json:"snapshot_id"`
	Name       string                     `json:"name"`
	Keys       map[string]json.RawMessage `json:"keys"`
	AutoBackup bool                       `json:"auto_backup"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// RecalculationLog is the one-row summary of a recalculation sweep.
type RecalculationLog struct {
	RecalcID      string    `json:"recalc_id"`
	Trigger       string    `json:"trigger"`
	AffectedCount int       `json:"affected_count"`
	TotalDelta    int       `json:"total_delta"`
	AvgDelta      float64   `json:"avg_delta"`
	CreatedAt     time.Time `json:"created_at"`
}
