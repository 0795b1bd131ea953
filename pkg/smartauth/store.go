package smartauth

import "context"

// TokenStore persists tokens across process restarts, keyed by the FHIR
// server URL. Implementations own the persisted bytes; this package only
// calls the interface. See the tokenstore package for in-memory and
// SQLite-backed implementations.
//
// Load returns ErrTokenNotFound (possibly wrapped) when nothing is
// persisted for the server.
type TokenStore interface {
	Save(ctx context.Context, serverURL string, token *Token) error
	Load(ctx context.Context, serverURL string) (*Token, error)
	Delete(ctx context.Context, serverURL string) error
}
