package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	// Suitable for state values and other short-lived nonces.
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	// Suitable for PKCE verifiers and API credentials.
	TokenSize256 = 32
)

// GenerateToken creates a cryptographically secure random token of the
// specified byte length using the process entropy source. The token is
// returned as a base64url-encoded string (URL-safe, no padding).
func GenerateToken(size int) (string, error) {
	return GenerateTokenFrom(rand.Reader, size)
}

// GenerateTokenFrom is like GenerateToken but draws randomness from the
// given reader. The reader must be cryptographically secure; it is
// injectable so tests can supply deterministic bytes.
func GenerateTokenFrom(r io.Reader, size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
