package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"nostrlytics/internal/nostr"
)

// Rejection reasons. Every failure mode of Decode wraps one of these so
// callers can classify with errors.Is; all of them mean "drop the event
// silently and move on".
var (
	ErrNoConnection  = errors.New("no account connection")
	ErrDecryptFailed = errors.New("decryption failed")
	ErrBadPayload    = errors.New("payload is not valid JSON")
	ErrUnknownKind   = errors.New("payload kind is not an analytics event")
	ErrUnknownType   = errors.New("unknown analytics event type")
)

// Decode decrypts and validates a raw feed event into a Record. It is
// total: any input yields either a record or a rejection error, never a
// panic. Only kind-4 events should be offered; the subscription layer
// filters the rest.
func Decode(event *nostr.Event, dec nostr.Decrypter) (*Record, error) {
	if dec == nil {
		return nil, ErrNoConnection
	}

	plaintext, err := dec.Decrypt(event.PubKey, event.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	var record Record
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	if record.Kind != RecordKind {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, record.Kind)
	}

	switch record.Type {
	case EventTypePageImpression, EventTypeClickOut:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, record.Type)
	}

	return &record, nil
}
