// Package testsupport provides shared fixtures for tests that need a
// connected account and encrypted feed events.
package testsupport

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"nostrlytics/internal/events"
	"nostrlytics/internal/nostr"
)

// Fixed key material. The decrypter factory below returns the matching
// secret, so events built here always open under the test connection.
const (
	ViewerPublicKey  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	ViewerPrivateKey = "1111111111111111111111111111111111111111111111111111111111111111"
	SenderPublicKey  = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	// ChromeWindowsUA parses to a Chrome-on-Windows client.
	ChromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Secret returns the shared secret both sides of the test conversation
// derive.
func Secret() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

// Connection returns a valid account connection for the fixed keys.
func Connection() nostr.AccountConnection {
	return nostr.AccountConnection{
		Type:       nostr.ConnectionTypeInputKeys,
		PublicKey:  ViewerPublicKey,
		PrivateKey: ViewerPrivateKey,
	}
}

// DecrypterFactory opens events built by this package, regardless of the
// connection passed in.
func DecrypterFactory(nostr.AccountConnection) (nostr.Decrypter, error) {
	return &nostr.NIP04Decrypter{
		Secret: func(string) ([]byte, error) { return Secret(), nil },
	}, nil
}

// EncryptedRecord wraps any record into an encrypted kind-4 event
// addressed to the test viewer.
func EncryptedRecord(t *testing.T, id string, createdAt int64, rec events.Record) nostr.Event {
	t.Helper()

	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	content, err := nostr.EncryptNIP04(Secret(), payload)
	require.NoError(t, err)

	return nostr.Event{
		ID:        id,
		PubKey:    SenderPublicKey,
		CreatedAt: createdAt,
		Kind:      nostr.KindEncryptedDirectMessage,
		Tags:      [][]string{{"p", ViewerPublicKey}},
		Content:   content,
	}
}

// EncryptedImpression builds an encrypted page-impression event.
func EncryptedImpression(t *testing.T, id string, createdAt int64, referrer string) nostr.Event {
	t.Helper()
	return EncryptedRecord(t, id, createdAt, events.Record{
		Kind:      events.RecordKind,
		Type:      events.EventTypePageImpression,
		UserAgent: ChromeWindowsUA,
		Language:  "en-US",
		Location:  "https://site/a",
		Referrer:  referrer,
	})
}

// EncryptedClickOut builds an encrypted click-out event.
func EncryptedClickOut(t *testing.T, id string, createdAt int64, destination string) nostr.Event {
	t.Helper()
	return EncryptedRecord(t, id, createdAt, events.Record{
		Kind:        events.RecordKind,
		Type:        events.EventTypeClickOut,
		UserAgent:   ChromeWindowsUA,
		Language:    "en-US",
		Location:    "https://site/a",
		ClickOutURL: destination,
	})
}
