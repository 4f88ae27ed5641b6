package keystore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostrlytics/internal/keystore"
	"nostrlytics/internal/logging"
	"nostrlytics/internal/nostr"
)

func openTestKeystore(t *testing.T) *keystore.Keystore {
	t.Helper()
	ks, err := keystore.Open(filepath.Join(t.TempDir(), "keystore.db"), logging.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ks.Close() })
	return ks
}

func validConnection() nostr.AccountConnection {
	return nostr.AccountConnection{
		Type:       nostr.ConnectionTypeGeneratedKeys,
		PublicKey:  "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		PrivateKey: "1111111111111111111111111111111111111111111111111111111111111111",
	}
}

func TestKeystore_LoadEmpty(t *testing.T) {
	ks := openTestKeystore(t)

	_, found, err := ks.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeystore_SaveAndLoad(t *testing.T) {
	ks := openTestKeystore(t)

	conn := validConnection()
	require.NoError(t, ks.Save(conn))

	loaded, found, err := ks.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, conn, loaded)
}

func TestKeystore_SaveReplacesPrevious(t *testing.T) {
	ks := openTestKeystore(t)

	require.NoError(t, ks.Save(validConnection()))

	replacement := validConnection()
	replacement.PublicKey = "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"
	require.NoError(t, ks.Save(replacement))

	loaded, found, err := ks.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, replacement.PublicKey, loaded.PublicKey)
}

func TestKeystore_RejectsInvalidConnection(t *testing.T) {
	ks := openTestKeystore(t)

	invalid := validConnection()
	invalid.PrivateKey = ""
	require.Error(t, ks.Save(invalid))

	_, found, err := ks.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeystore_Clear(t *testing.T) {
	ks := openTestKeystore(t)

	require.NoError(t, ks.Save(validConnection()))
	require.NoError(t, ks.Clear())

	_, found, err := ks.Load()
	require.NoError(t, err)
	assert.False(t, found)
}
