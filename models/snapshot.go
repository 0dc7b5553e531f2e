package models

import (
	"sort"
	"time"
)

// SnapshotEntry is one member's reading within a snapshot
type SnapshotEntry struct {
	TrainerID   string
	TrainerName string
	FanCount    int64
}

// Snapshot is one point-in-time read of all members' cumulative fan counts
// for a club. It is a value object: build it once, never mutate it.
type Snapshot struct {
	FetchedAt time.Time
	Entries   map[string]SnapshotEntry // keyed by trainer id
}

// NewSnapshot builds a snapshot from a list of entries
func NewSnapshot(fetchedAt time.Time, entries []SnapshotEntry) *Snapshot {
	m := make(map[string]SnapshotEntry, len(entries))
	for _, e := range entries {
		m[e.TrainerID] = e
	}
	return &Snapshot{FetchedAt: fetchedAt, Entries: m}
}

// IsEmpty reports whether the snapshot contains no member readings. An empty
// snapshot is treated as a data-source failure, never as "everyone departed".
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Entries) == 0
}

// TrainerIDs returns the snapshot's member identifiers in a stable order
func (s *Snapshot) TrainerIDs() []string {
	ids := make([]string, 0, len(s.Entries))
	for id := range s.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
