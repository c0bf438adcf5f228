// Package store holds per-(driver, application) trial outcome tallies.
package store

import "shadowbench/internal/core"

// Store maps TrialKeys to TrialRecords and remembers the order in which keys
// were first seen.
//
// A Store is NOT safe for concurrent use; the controller that owns it
// serializes every call.
type Store struct {
	records map[core.TrialKey]*core.TrialRecord
	order   []core.TrialKey
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		records: make(map[core.TrialKey]*core.TrialRecord),
	}
}

// Increment adds exactly one trial of kind to key, creating the record on
// first submission.
func (s *Store) Increment(key core.TrialKey, kind core.OutcomeKind) {
	rec, ok := s.records[key]
	if !ok {
		rec = &core.TrialRecord{Key: key}
		s.records[key] = rec
		s.order = append(s.order, key)
	}
	switch kind {
	case core.AutomaticRecovery:
		rec.Automatic++
	case core.ManualRecovery:
		rec.Manual++
	case core.FailedRecovery:
		rec.Failed++
	}
}

// Get returns a copy of the record for key.
func (s *Store) Get(key core.TrialKey) (core.TrialRecord, bool) {
	rec, ok := s.records[key]
	if !ok {
		return core.TrialRecord{}, false
	}
	return *rec, true
}

// Len returns the number of keys with at least one recorded trial.
func (s *Store) Len() int {
	return len(s.order)
}

// Reset discards every record.
func (s *Store) Reset() {
	s.records = make(map[core.TrialKey]*core.TrialRecord)
	s.order = nil
}

// Snapshot returns a copy of all records in first-seen order.
func (s *Store) Snapshot() []core.TrialRecord {
	result := make([]core.TrialRecord, 0, len(s.order))
	for _, key := range s.order {
		result = append(result, *s.records[key])
	}
	return result
}
