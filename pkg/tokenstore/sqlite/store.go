// Package sqlite persists token blobs in a SQLite database, one row per
// FHIR server. Pair it with tokenstore.JSON (and optionally
// tokenstore.Sealed) to obtain a smartauth.TokenStore:
//
//	db, err := sqlite.NewStore("tokens.db")
//	err = db.ApplyMigrations()
//	store := tokenstore.JSON(db)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fhirstack/smartauth/pkg/idx"
	"github.com/fhirstack/smartauth/pkg/tokenstore"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed tokenstore.BlobStore.
type Store struct {
	db  *sql.DB
	dsn string
}

// NewStore opens (creating if needed) the SQLite database at dsn.
// Call ApplyMigrations before first use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) SaveBlob(ctx context.Context, serverURL string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (id, server_url, token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (server_url) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at
	`, idx.New().String(), serverURL, blob, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to save token blob: %w", err)
	}
	return nil
}

func (s *Store) LoadBlob(ctx context.Context, serverURL string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM tokens WHERE server_url = ?`, serverURL,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", tokenstore.ErrBlobNotFound, serverURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token blob: %w", err)
	}
	return blob, nil
}

func (s *Store) DeleteBlob(ctx context.Context, serverURL string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE server_url = ?`, serverURL,
	); err != nil {
		return fmt.Errorf("failed to delete token blob: %w", err)
	}
	return nil
}
