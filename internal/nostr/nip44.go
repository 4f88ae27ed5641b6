package nostr

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// NIP-44 v2 payload layout: base64(version || nonce || ciphertext || mac).
const (
	nip44Version       byte = 0x02
	nip44NonceSize          = 32
	nip44MacSize            = sha256.Size
	nip44MinPlaintext       = 1
	nip44MaxPlaintext       = 65535
)

// Message key material expanded per payload: 32-byte ChaCha20 key,
// 12-byte ChaCha20 nonce, 32-byte HMAC key.
const nip44MessageKeySize = chacha20.KeySize + chacha20.NonceSize + 32

// NIP44Decrypter opens version-2 encrypted payloads: HKDF-SHA256 message
// key expansion from a per-conversation key, ChaCha20 encryption and an
// HMAC-SHA256 authentication tag over nonce||ciphertext.
type NIP44Decrypter struct {
	// ConversationKey returns the 32-byte conversation key shared with
	// senderPubKey. Like NIP04Decrypter.Secret, the ECDH step stays
	// external.
	ConversationKey SharedSecretFunc
}

// Decrypt opens a NIP-44 payload.
func (d *NIP44Decrypter) Decrypt(senderPubKey, content string) ([]byte, error) {
	if d.ConversationKey == nil {
		return nil, fmt.Errorf("no conversation key available")
	}
	if len(content) > 0 && content[0] == '#' {
		return nil, fmt.Errorf("unsupported payload version")
	}

	payload, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if len(payload) < 1+nip44NonceSize+1+nip44MacSize {
		return nil, fmt.Errorf("payload is %d bytes, too short", len(payload))
	}
	if payload[0] != nip44Version {
		return nil, fmt.Errorf("unsupported payload version %d", payload[0])
	}

	nonce := payload[1 : 1+nip44NonceSize]
	ciphertext := payload[1+nip44NonceSize : len(payload)-nip44MacSize]
	mac := payload[len(payload)-nip44MacSize:]

	conversationKey, err := d.ConversationKey(senderPubKey)
	if err != nil {
		return nil, fmt.Errorf("deriving conversation key: %w", err)
	}

	chachaKey, chachaNonce, hmacKey, err := expandMessageKeys(conversationKey, nonce)
	if err != nil {
		return nil, err
	}

	expected := authTag(hmacKey, nonce, ciphertext)
	if !hmac.Equal(mac, expected) {
		return nil, fmt.Errorf("authentication failed (wrong key or tampered payload)")
	}

	stream, err := chacha20.NewUnauthenticatedCipher(chachaKey, chachaNonce)
	if err != nil {
		return nil, fmt.Errorf("creating ChaCha20 cipher: %w", err)
	}
	padded := make([]byte, len(ciphertext))
	stream.XORKeyStream(padded, ciphertext)

	return unpadNIP44(padded)
}

// EncryptNIP44 seals plaintext under a conversation key with a random
// nonce. Counterpart of NIP44Decrypter.Decrypt.
func EncryptNIP44(conversationKey, plaintext []byte) (string, error) {
	if len(plaintext) < nip44MinPlaintext || len(plaintext) > nip44MaxPlaintext {
		return "", fmt.Errorf("plaintext length %d out of range", len(plaintext))
	}

	nonce := make([]byte, nip44NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	chachaKey, chachaNonce, hmacKey, err := expandMessageKeys(conversationKey, nonce)
	if err != nil {
		return "", err
	}

	padded := make([]byte, 2+paddedLen(len(plaintext)))
	binary.BigEndian.PutUint16(padded, uint16(len(plaintext)))
	copy(padded[2:], plaintext)

	stream, err := chacha20.NewUnauthenticatedCipher(chachaKey, chachaNonce)
	if err != nil {
		return "", fmt.Errorf("creating ChaCha20 cipher: %w", err)
	}
	ciphertext := make([]byte, len(padded))
	stream.XORKeyStream(ciphertext, padded)

	payload := make([]byte, 0, 1+nip44NonceSize+len(ciphertext)+nip44MacSize)
	payload = append(payload, nip44Version)
	payload = append(payload, nonce...)
	payload = append(payload, ciphertext...)
	payload = append(payload, authTag(hmacKey, nonce, ciphertext)...)

	return base64.StdEncoding.EncodeToString(payload), nil
}

func expandMessageKeys(conversationKey, nonce []byte) (chachaKey, chachaNonce, hmacKey []byte, err error) {
	if len(conversationKey) != 32 {
		return nil, nil, nil, fmt.Errorf("conversation key must be 32 bytes, got %d", len(conversationKey))
	}

	keys := make([]byte, nip44MessageKeySize)
	reader := hkdf.Expand(sha256.New, conversationKey, nonce)
	if _, err := io.ReadFull(reader, keys); err != nil {
		return nil, nil, nil, fmt.Errorf("HKDF message key expansion failed: %w", err)
	}

	chachaKey = keys[:chacha20.KeySize]
	chachaNonce = keys[chacha20.KeySize : chacha20.KeySize+chacha20.NonceSize]
	hmacKey = keys[chacha20.KeySize+chacha20.NonceSize:]
	return chachaKey, chachaNonce, hmacKey, nil
}

func authTag(hmacKey, nonce, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(nonce)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

// paddedLen implements the NIP-44 padding schedule: plaintexts are padded
// to 32-byte chunks below 256 bytes, and to next-power-of-two eighths
// above, hiding exact message lengths.
func paddedLen(unpadded int) int {
	if unpadded <= 32 {
		return 32
	}
	nextPower := 1 << bits.Len(uint(unpadded-1))
	chunk := 32
	if nextPower > 256 {
		chunk = nextPower / 8
	}
	return chunk * ((unpadded + chunk - 1) / chunk)
}

func unpadNIP44(padded []byte) ([]byte, error) {
	if len(padded) < 2 {
		return nil, fmt.Errorf("padded plaintext is too short")
	}
	n := int(binary.BigEndian.Uint16(padded))
	if n < nip44MinPlaintext || 2+n > len(padded) || len(padded) != 2+paddedLen(n) {
		return nil, fmt.Errorf("invalid padding")
	}
	return padded[2 : 2+n], nil
}
