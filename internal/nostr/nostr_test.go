package nostr_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostrlytics/internal/nostr"
)

const (
	testPubKey = "e8b487c079b0f67c695ae6c4c2552a47f38adfa2533cc5926bd2c102942fdcb7"
	testPrivKey = "91ba716fa9e7ea2fcbad360cf4f8e0d312f73984da63d90f524ad61a6a1e7dbe"
)

func TestIsValidKey(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		valid bool
	}{
		{name: "valid lowercase hex", key: testPubKey, valid: true},
		{name: "empty", key: "", valid: false},
		{name: "too short", key: "abcd1234", valid: false},
		{name: "uppercase rejected", key: strings.ToUpper(testPubKey), valid: false},
		{name: "non-hex characters", key: strings.Repeat("zz", 32), valid: false},
		{name: "surrounding whitespace trimmed", key: "  " + testPubKey + " ", valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, nostr.IsValidKey(tc.key))
		})
	}
}

func TestAccountConnection_Validate(t *testing.T) {
	conn := nostr.AccountConnection{
		Type:       nostr.ConnectionTypeInputKeys,
		PublicKey:  testPubKey,
		PrivateKey: testPrivKey,
	}
	assert.NoError(t, conn.Validate())

	missingPriv := conn
	missingPriv.PrivateKey = ""
	assert.Error(t, missingPriv.Validate())

	badType := conn
	badType.Type = "browser-extension"
	assert.Error(t, badType.Validate())
}

func TestTrimPublicKey(t *testing.T) {
	trimmed := nostr.TrimPublicKey(testPubKey, 12)
	assert.Equal(t, "e8b487...2fdcb7", trimmed)

	// Shorter than the requested length passes through untouched.
	assert.Equal(t, "abcdef", nostr.TrimPublicKey("abcdef", 12))
}

func TestFilter_Matches(t *testing.T) {
	event := &nostr.Event{
		ID:        "event-1",
		PubKey:    "sender",
		CreatedAt: 1700000000,
		Kind:      nostr.KindEncryptedDirectMessage,
		Tags:      [][]string{{"p", testPubKey}},
	}

	filter := nostr.Filter{
		Kinds:     []int{nostr.KindEncryptedDirectMessage},
		Recipient: testPubKey,
		Since:     1699990000,
		Until:     1700090000,
	}
	assert.True(t, filter.Matches(event))

	wrongKind := *event
	wrongKind.Kind = 1
	assert.False(t, filter.Matches(&wrongKind))

	wrongRecipient := *event
	wrongRecipient.Tags = [][]string{{"p", "somebody-else"}}
	assert.False(t, filter.Matches(&wrongRecipient))

	tooEarly := *event
	tooEarly.CreatedAt = filter.Since - 1
	assert.False(t, filter.Matches(&tooEarly))

	tooLate := *event
	tooLate.CreatedAt = filter.Until + 1
	assert.False(t, filter.Matches(&tooLate))
}

func TestEvent_TagValue(t *testing.T) {
	event := &nostr.Event{Tags: [][]string{{"e", "ref"}, {"p", "recipient"}}}
	assert.Equal(t, "recipient", event.TagValue("p"))
	assert.Equal(t, "", event.TagValue("missing"))
}

func fixedSecret(key []byte) nostr.SharedSecretFunc {
	return func(string) ([]byte, error) { return key, nil }
}

func TestNIP04_RoundTrip(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	plaintext := []byte(`{"kind":"nstrly-event","type":"page-impression"}`)

	content, err := nostr.EncryptNIP04(key, plaintext)
	require.NoError(t, err)
	require.Contains(t, content, "?iv=")

	dec := &nostr.NIP04Decrypter{Secret: fixedSecret(key)}
	got, err := dec.Decrypt("sender", content)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestNIP04_WrongKeyFails(t *testing.T) {
	content, err := nostr.EncryptNIP04([]byte(strings.Repeat("a", 32)), []byte("payload"))
	require.NoError(t, err)

	dec := &nostr.NIP04Decrypter{Secret: fixedSecret([]byte(strings.Repeat("b", 32)))}
	_, err = dec.Decrypt("sender", content)
	assert.Error(t, err)
}

func TestNIP04_MalformedContent(t *testing.T) {
	dec := &nostr.NIP04Decrypter{Secret: fixedSecret([]byte(strings.Repeat("k", 32)))}

	testCases := []struct {
		name    string
		content string
	}{
		{name: "missing iv separator", content: "YWJjZGVmZ2g="},
		{name: "bad ciphertext base64", content: "!!!?iv=YWJjZGVmZ2hpamtsbW5vcA=="},
		{name: "bad iv base64", content: "YWJjZGVmZ2g=?iv=!!!"},
		{name: "short iv", content: "YWJjZGVmZ2g=?iv=YWJj"},
		{name: "empty", content: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dec.Decrypt("sender", tc.content)
			assert.Error(t, err)
		})
	}
}

func TestNIP44_RoundTrip(t *testing.T) {
	key := []byte(strings.Repeat("c", 32))
	plaintext := []byte(`{"kind":"nstrly-event","type":"click-out","clickOutUrl":"https://example.com"}`)

	content, err := nostr.EncryptNIP44(key, plaintext)
	require.NoError(t, err)

	dec := &nostr.NIP44Decrypter{ConversationKey: fixedSecret(key)}
	got, err := dec.Decrypt("sender", content)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestNIP44_TamperedPayloadFails(t *testing.T) {
	key := []byte(strings.Repeat("c", 32))
	content, err := nostr.EncryptNIP44(key, []byte("hello world"))
	require.NoError(t, err)

	// Flip a character in the middle of the base64 payload.
	raw := []byte(content)
	mid := len(raw) / 2
	if raw[mid] == 'A' {
		raw[mid] = 'B'
	} else {
		raw[mid] = 'A'
	}

	dec := &nostr.NIP44Decrypter{ConversationKey: fixedSecret(key)}
	_, err = dec.Decrypt("sender", string(raw))
	assert.Error(t, err)
}

func TestNIP44_WrongKeyFails(t *testing.T) {
	content, err := nostr.EncryptNIP44([]byte(strings.Repeat("a", 32)), []byte("hello"))
	require.NoError(t, err)

	dec := &nostr.NIP44Decrypter{ConversationKey: fixedSecret([]byte(strings.Repeat("b", 32)))}
	_, err = dec.Decrypt("sender", content)
	assert.Error(t, err)
}

func TestNIP44_UnsupportedVersion(t *testing.T) {
	dec := &nostr.NIP44Decrypter{ConversationKey: fixedSecret([]byte(strings.Repeat("c", 32)))}

	_, err := dec.Decrypt("sender", "#legacy-payload")
	assert.Error(t, err)

	_, err = dec.Decrypt("sender", "not base64 at all!!!")
	assert.Error(t, err)
}
