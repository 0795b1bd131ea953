package tokenstore

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fhirstack/smartauth/pkg/smartauth"
)

// memoryBlobs is the BlobStore test double.
type memoryBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{blobs: make(map[string][]byte)}
}

func (b *memoryBlobs) SaveBlob(_ context.Context, serverURL string, blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[serverURL] = blob
	return nil
}

func (b *memoryBlobs) LoadBlob(_ context.Context, serverURL string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	blob, ok := b.blobs[serverURL]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return blob, nil
}

func (b *memoryBlobs) DeleteBlob(_ context.Context, serverURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, serverURL)
	return nil
}

const testServerURL = "https://ehr.example.com/fhir"

func sampleToken() *smartauth.Token {
	return &smartauth.Token{
		AccessToken:  "tok1",
		TokenType:    "Bearer",
		ExpiresAt:    time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
		RefreshToken: "ref1",
		Scope:        "launch openid patient/Patient.read",
		PatientID:    "Patient/42",
	}
}

func TestJSONStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round-trips a token", func(t *testing.T) {
		store := JSON(newMemoryBlobs())
		require.NoError(t, store.Save(ctx, testServerURL, sampleToken()))

		loaded, err := store.Load(ctx, testServerURL)
		require.NoError(t, err)
		require.Equal(t, sampleToken(), loaded)
	})

	t.Run("a never-expiring token stays never-expiring", func(t *testing.T) {
		blobs := newMemoryBlobs()
		store := JSON(blobs)
		token := sampleToken()
		token.ExpiresAt = time.Time{}
		require.NoError(t, store.Save(ctx, testServerURL, token))

		// The wire form must omit the field entirely, not write a zero
		// timestamp.
		var raw map[string]any
		require.NoError(t, json.Unmarshal(blobs.blobs[testServerURL], &raw))
		require.NotContains(t, raw, "expires_at")

		loaded, err := store.Load(ctx, testServerURL)
		require.NoError(t, err)
		require.True(t, loaded.ExpiresAt.IsZero())
		require.False(t, loaded.IsExpired())
	})

	t.Run("missing token", func(t *testing.T) {
		store := JSON(newMemoryBlobs())
		_, err := store.Load(ctx, testServerURL)
		require.ErrorIs(t, err, smartauth.ErrTokenNotFound)
	})

	t.Run("delete removes the blob", func(t *testing.T) {
		store := JSON(newMemoryBlobs())
		require.NoError(t, store.Save(ctx, testServerURL, sampleToken()))
		require.NoError(t, store.Delete(ctx, testServerURL))

		_, err := store.Load(ctx, testServerURL)
		require.ErrorIs(t, err, smartauth.ErrTokenNotFound)
	})

	t.Run("corrupt blob", func(t *testing.T) {
		blobs := newMemoryBlobs()
		store := JSON(blobs)
		require.NoError(t, blobs.SaveBlob(ctx, testServerURL, []byte("not json")))

		_, err := store.Load(ctx, testServerURL)
		require.Error(t, err)
		require.NotErrorIs(t, err, smartauth.ErrTokenNotFound)
	})
}

func TestSealed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round-trips through encryption", func(t *testing.T) {
		blobs := newMemoryBlobs()
		sealed, err := Sealed(blobs, []byte("storage-key-material"))
		require.NoError(t, err)

		store := JSON(sealed)
		require.NoError(t, store.Save(ctx, testServerURL, sampleToken()))

		// The blob at rest must not leak the token.
		require.NotContains(t, string(blobs.blobs[testServerURL]), "tok1")
		require.NotContains(t, string(blobs.blobs[testServerURL]), "ref1")

		loaded, err := store.Load(ctx, testServerURL)
		require.NoError(t, err)
		require.Equal(t, sampleToken(), loaded)
	})

	t.Run("wrong key fails to open", func(t *testing.T) {
		blobs := newMemoryBlobs()
		sealed, err := Sealed(blobs, []byte("key-one"))
		require.NoError(t, err)
		require.NoError(t, JSON(sealed).Save(ctx, testServerURL, sampleToken()))

		other, err := Sealed(blobs, []byte("key-two"))
		require.NoError(t, err)
		_, err = JSON(other).Load(ctx, testServerURL)
		require.Error(t, err)
	})

	t.Run("empty key material is rejected", func(t *testing.T) {
		_, err := Sealed(newMemoryBlobs(), nil)
		require.Error(t, err)
	})
}

func TestMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemory()

	_, err := store.Load(ctx, testServerURL)
	require.ErrorIs(t, err, smartauth.ErrTokenNotFound)

	require.NoError(t, store.Save(ctx, testServerURL, sampleToken()))
	loaded, err := store.Load(ctx, testServerURL)
	require.NoError(t, err)
	require.Equal(t, "tok1", loaded.AccessToken)

	require.NoError(t, store.Delete(ctx, testServerURL))
	_, err = store.Load(ctx, testServerURL)
	require.ErrorIs(t, err, smartauth.ErrTokenNotFound)
}
