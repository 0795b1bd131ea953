package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	t.Parallel()

	sealer, err := NewSealer([]byte("store-master-key"))
	require.NoError(t, err)

	plaintext := []byte(`{"access_token":"tok1","token_type":"Bearer"}`)
	sealed, err := sealer.Seal(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestSealer_NoncesAreFresh(t *testing.T) {
	t.Parallel()

	sealer, err := NewSealer([]byte("store-master-key"))
	require.NoError(t, err)

	a, err := sealer.Seal([]byte("same input"))
	require.NoError(t, err)
	b, err := sealer.Seal([]byte("same input"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSealer_Open_Errors(t *testing.T) {
	t.Parallel()

	sealer, err := NewSealer([]byte("store-master-key"))
	require.NoError(t, err)

	t.Run("truncated input", func(t *testing.T) {
		_, err := sealer.Open([]byte("short"))
		require.Error(t, err)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		sealed, err := sealer.Seal([]byte("secret"))
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff

		_, err = sealer.Open(sealed)
		require.Error(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		sealed, err := sealer.Seal([]byte("secret"))
		require.NoError(t, err)

		other, err := NewSealer([]byte("different-key"))
		require.NoError(t, err)
		_, err = other.Open(sealed)
		require.Error(t, err)
	})
}

func TestNewSealer_EmptyKey(t *testing.T) {
	t.Parallel()

	_, err := NewSealer(nil)
	require.Error(t, err)
}
