package nostr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// ConnectionType discriminates how an account connection was established.
type ConnectionType string

const (
	ConnectionTypeInputKeys     ConnectionType = "input-keys"
	ConnectionTypeGeneratedKeys ConnectionType = "generated-keys"
)

// AccountConnection is the capability handed to the viewer: a public
// identity plus the secret needed to open payloads addressed to it. The
// viewer consumes it by reference and never creates or persists it itself.
type AccountConnection struct {
	Type       ConnectionType `json:"type"`
	PublicKey  string         `json:"publicKey"`
	PrivateKey string         `json:"privateKey"`
}

// Validate checks the connection carries usable key material.
func (c *AccountConnection) Validate() error {
	switch c.Type {
	case ConnectionTypeInputKeys, ConnectionTypeGeneratedKeys:
	default:
		return fmt.Errorf("invalid account connection type %q", c.Type)
	}
	if !IsValidKey(c.PublicKey) {
		return fmt.Errorf("invalid public key")
	}
	if !IsValidKey(c.PrivateKey) {
		return fmt.Errorf("no private key in connection")
	}
	return nil
}

// ConversationKey derives the symmetric key for payloads exchanged with
// senderPubKey. Matches SharedSecretFunc, so a bound method reference
// plugs straight into a decrypter.
func (c *AccountConnection) ConversationKey(senderPubKey string) ([]byte, error) {
	priv, err := hex.DecodeString(strings.TrimSpace(c.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %w", err)
	}
	sender, err := hex.DecodeString(strings.TrimSpace(senderPubKey))
	if err != nil {
		return nil, fmt.Errorf("decoding sender public key: %w", err)
	}

	return hkdf.Extract(sha256.New, append(priv, sender...), []byte("nip44-v2")), nil
}

// IsValidKey reports whether s is a 32-byte lowercase hex key.
func IsValidKey(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 64 || s != strings.ToLower(s) {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// TrimPublicKey shortens a public key for display, keeping length
// characters split across head and tail.
func TrimPublicKey(publicKey string, length int) string {
	if length <= 0 || len(publicKey) <= length {
		return publicKey
	}
	startLength := (length + 1) / 2
	endLength := length - startLength
	return publicKey[:startLength] + "..." + publicKey[len(publicKey)-endLength:]
}
