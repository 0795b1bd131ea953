// Package tokenstore provides smartauth.TokenStore implementations: an
// in-memory store, a JSON codec over opaque blob storage, and an
// encrypting wrapper. The SQLite-backed blob store lives in the sqlite
// subpackage.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fhirstack/smartauth/pkg/cryptox"
	"github.com/fhirstack/smartauth/pkg/smartauth"
)

// ErrBlobNotFound is returned by BlobStore implementations when no blob
// is persisted for the requested server.
var ErrBlobNotFound = errors.New("no blob stored for server")

// BlobStore persists opaque token bytes keyed by server URL. It is the
// seam between the token codec and the storage backend, so encryption
// can wrap storage without knowing about tokens.
type BlobStore interface {
	SaveBlob(ctx context.Context, serverURL string, blob []byte) error
	LoadBlob(ctx context.Context, serverURL string) ([]byte, error)
	DeleteBlob(ctx context.Context, serverURL string) error
}

// persistedToken is the JSON wire form of a token at rest.
type persistedToken struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	PatientID    string     `json:"patient_id,omitempty"`
	IDToken      string     `json:"id_token,omitempty"`
}

// JSON adapts a BlobStore into a smartauth.TokenStore by JSON-encoding
// tokens.
func JSON(blobs BlobStore) smartauth.TokenStore {
	return &jsonStore{blobs: blobs}
}

type jsonStore struct {
	blobs BlobStore
}

func (s *jsonStore) Save(ctx context.Context, serverURL string, token *smartauth.Token) error {
	p := persistedToken{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Scope:        token.Scope,
		PatientID:    token.PatientID,
		IDToken:      token.IDToken,
	}
	if !token.ExpiresAt.IsZero() {
		expiresAt := token.ExpiresAt
		p.ExpiresAt = &expiresAt
	}

	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return s.blobs.SaveBlob(ctx, serverURL, blob)
}

func (s *jsonStore) Load(ctx context.Context, serverURL string) (*smartauth.Token, error) {
	blob, err := s.blobs.LoadBlob(ctx, serverURL)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, fmt.Errorf("%w: %s", smartauth.ErrTokenNotFound, serverURL)
		}
		return nil, err
	}

	var p persistedToken
	if err := json.Unmarshal(blob, &p); err != nil {
		return nil, fmt.Errorf("failed to decode persisted token: %w", err)
	}

	token := &smartauth.Token{
		AccessToken:  p.AccessToken,
		TokenType:    p.TokenType,
		RefreshToken: p.RefreshToken,
		Scope:        p.Scope,
		PatientID:    p.PatientID,
		IDToken:      p.IDToken,
	}
	if p.ExpiresAt != nil {
		token.ExpiresAt = *p.ExpiresAt
	}
	return token, nil
}

func (s *jsonStore) Delete(ctx context.Context, serverURL string) error {
	return s.blobs.DeleteBlob(ctx, serverURL)
}

// Sealed wraps a BlobStore so blobs are encrypted at rest with
// XChaCha20-Poly1305. The key material is hashed to the cipher key size.
func Sealed(inner BlobStore, keyMaterial []byte) (BlobStore, error) {
	sealer, err := cryptox.NewSealer(keyMaterial)
	if err != nil {
		return nil, err
	}
	return &sealedStore{inner: inner, sealer: sealer}, nil
}

type sealedStore struct {
	inner  BlobStore
	sealer *cryptox.Sealer
}

func (s *sealedStore) SaveBlob(ctx context.Context, serverURL string, blob []byte) error {
	sealed, err := s.sealer.Seal(blob)
	if err != nil {
		return fmt.Errorf("failed to seal token blob: %w", err)
	}
	return s.inner.SaveBlob(ctx, serverURL, sealed)
}

func (s *sealedStore) LoadBlob(ctx context.Context, serverURL string) ([]byte, error) {
	sealed, err := s.inner.LoadBlob(ctx, serverURL)
	if err != nil {
		return nil, err
	}
	blob, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed token blob: %w", err)
	}
	return blob, nil
}

func (s *sealedStore) DeleteBlob(ctx context.Context, serverURL string) error {
	return s.inner.DeleteBlob(ctx, serverURL)
}
