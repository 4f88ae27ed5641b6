package nostr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// Decrypter opens the encrypted content of a feed event sent by
// senderPubKey. Implementations must fail with an error on any malformed
// or foreign ciphertext, never panic: the decoder treats every error as a
// silent per-event rejection.
type Decrypter interface {
	Decrypt(senderPubKey, content string) ([]byte, error)
}

// SharedSecretFunc returns the 32-byte shared secret for a conversation
// with senderPubKey. The ECDH derivation over the identity curve lives
// behind this function; the ciphers below only consume its output.
type SharedSecretFunc func(senderPubKey string) ([]byte, error)

// NIP04Decrypter opens legacy direct-message payloads: AES-256-CBC with
// the content encoded as "base64(ciphertext)?iv=base64(iv)".
type NIP04Decrypter struct {
	Secret SharedSecretFunc
}

// Decrypt opens a NIP-04 payload.
func (d *NIP04Decrypter) Decrypt(senderPubKey, content string) ([]byte, error) {
	if d.Secret == nil {
		return nil, fmt.Errorf("no shared secret available")
	}

	ciphertextB64, ivB64, found := strings.Cut(content, "?iv=")
	if !found {
		return nil, fmt.Errorf("content is missing iv separator")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return nil, fmt.Errorf("decoding iv: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv is %d bytes, want %d", len(iv), aes.BlockSize)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(ciphertext))
	}

	key, err := d.Secret(senderPubKey)
	if err != nil {
		return nil, fmt.Errorf("deriving shared secret: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return stripPKCS7(plaintext)
}

// EncryptNIP04 is the inverse of NIP04Decrypter.Decrypt. The tracker side
// of the protocol uses it, and fixtures in tests do too.
func EncryptNIP04(key, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating AES cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext) +
		"?iv=" + base64.StdEncoding.EncodeToString(iv), nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func stripPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}
