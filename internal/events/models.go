// Package events defines the decoded analytics record and the decoder
// that turns raw encrypted feed events into records.
package events

// RecordKind is the payload discriminator. Anything else is rejected
// before it can enter the store.
const RecordKind = "nstrly-event"

// EventType is the analytics record variant.
type EventType string

const (
	EventTypePageImpression EventType = "page-impression"
	EventTypeClickOut       EventType = "click-out"
)

// Record is a decoded, schema-validated analytics event.
type Record struct {
	Kind        string    `json:"kind"`
	Type        EventType `json:"type"`
	UserAgent   string    `json:"userAgent"`
	Language    string    `json:"language"`
	Location    string    `json:"location"`
	ClickOutURL string    `json:"clickOutUrl,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
}
