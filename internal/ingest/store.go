// Package ingest accumulates decoded analytics records for the currently
// active subscription scope.
package ingest

import (
	"sync"

	"nostrlytics/internal/events"
)

// Entry wraps a decoded record with pipeline metadata.
type Entry struct {
	// DayBucket is the UTC start-of-day in epoch milliseconds derived
	// from the transport timestamp. Grouping key only.
	DayBucket int64
	// Timestamp is the authoritative event time in epoch seconds,
	// assigned by the transport, never by the payload.
	Timestamp int64
	Data      events.Record
}

// Store is an append-only collection of entries partitioned by record
// type. Entries are only ever removed wholesale via ResetAll when the
// subscription scope changes.
type Store struct {
	mu          sync.Mutex
	impressions []Entry
	clickOuts   []Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append routes an entry to the impression or click-out collection by its
// record type. Click-outs without a destination URL are dropped: the
// click-out collection invariant requires one.
func (s *Store) Append(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch entry.Data.Type {
	case events.EventTypePageImpression:
		s.impressions = append(s.impressions, entry)
	case events.EventTypeClickOut:
		if entry.Data.ClickOutURL != "" {
			s.clickOuts = append(s.clickOuts, entry)
		}
	}
}

// ResetAll clears both collections. Must run before the first event of a
// new scope is accepted so scopes never contaminate each other.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.impressions = nil
	s.clickOuts = nil
}

// Impressions returns a snapshot of the impression collection.
func (s *Store) Impressions() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.impressions...)
}

// ClickOuts returns a snapshot of the click-out collection.
func (s *Store) ClickOuts() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.clickOuts...)
}

// Len returns the total number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.impressions) + len(s.clickOuts)
}
