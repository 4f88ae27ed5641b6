package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nostrlytics/internal/events"
	"nostrlytics/internal/ingest"
)

func impression(ts int64) ingest.Entry {
	return ingest.Entry{
		DayBucket: ts / 86400 * 86400 * 1000,
		Timestamp: ts,
		Data: events.Record{
			Kind:     events.RecordKind,
			Type:     events.EventTypePageImpression,
			Location: "https://example.com/",
		},
	}
}

func clickOut(ts int64, url string) ingest.Entry {
	return ingest.Entry{
		DayBucket: ts / 86400 * 86400 * 1000,
		Timestamp: ts,
		Data: events.Record{
			Kind:        events.RecordKind,
			Type:        events.EventTypeClickOut,
			Location:    "https://example.com/",
			ClickOutURL: url,
		},
	}
}

func TestStore_AppendRoutesByType(t *testing.T) {
	store := ingest.NewStore()

	store.Append(impression(1700000000))
	store.Append(clickOut(1700000100, "https://github.com/"))
	store.Append(impression(1700000200))

	assert.Len(t, store.Impressions(), 2)
	assert.Len(t, store.ClickOuts(), 1)
	assert.Equal(t, 3, store.Len())
}

func TestStore_ClickOutWithoutURLDropped(t *testing.T) {
	store := ingest.NewStore()

	store.Append(clickOut(1700000000, ""))

	assert.Empty(t, store.ClickOuts())
	assert.Equal(t, 0, store.Len())
}

func TestStore_NoDeduplication(t *testing.T) {
	store := ingest.NewStore()

	entry := impression(1700000000)
	store.Append(entry)
	store.Append(entry)

	assert.Len(t, store.Impressions(), 2)
}

func TestStore_ResetAll(t *testing.T) {
	store := ingest.NewStore()
	store.Append(impression(1700000000))
	store.Append(clickOut(1700000100, "https://github.com/"))

	store.ResetAll()

	assert.Empty(t, store.Impressions())
	assert.Empty(t, store.ClickOuts())
	assert.Equal(t, 0, store.Len())
}

func TestStore_SnapshotsAreCopies(t *testing.T) {
	store := ingest.NewStore()
	store.Append(impression(1700000000))

	snapshot := store.Impressions()
	snapshot[0].Timestamp = 0

	assert.Equal(t, int64(1700000000), store.Impressions()[0].Timestamp)
}
