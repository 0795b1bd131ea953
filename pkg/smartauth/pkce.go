package smartauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/fhirstack/smartauth/pkg/cryptox"
)

// MethodS256 is the only PKCE challenge method this package offers.
// The plain method is never used.
const MethodS256 = "S256"

// PKCEChallenge holds a PKCE verifier and challenge pair per RFC 7636.
// The verifier is kept secret by the client until code exchange; the
// challenge is sent to the authorization endpoint. The verifier is not
// persisted by this package, so callers must retain it for the exchange.
type PKCEChallenge struct {
	// Verifier is the high-entropy random string (43 chars, base64url
	// alphabet) kept secret by the client.
	Verifier string

	// Challenge is the unpadded base64url encoding of SHA256(Verifier).
	Challenge string

	// Method is always "S256".
	Method string
}

// GeneratePKCE creates a new verifier/challenge pair from the process
// entropy source.
func GeneratePKCE() (*PKCEChallenge, error) {
	return GeneratePKCEFrom(rand.Reader)
}

// GeneratePKCEFrom creates a verifier/challenge pair drawing randomness
// from the given cryptographically secure reader. 32 random bytes yield
// a 43-character verifier, within the 43-128 range RFC 7636 requires.
func GeneratePKCEFrom(r io.Reader) (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateTokenFrom(r, cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPKCEGenerationFailed, err)
	}

	// The challenge hashes the verifier's ASCII bytes. The base64url
	// alphabet guarantees ASCII, but the contract keeps the failure path.
	for i := 0; i < len(verifier); i++ {
		if verifier[i] > 127 {
			return nil, fmt.Errorf("%w: verifier contains non-ASCII byte at index %d", ErrPKCEGenerationFailed, i)
		}
	}

	digest := cryptox.Sum256([]byte(verifier))
	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(digest[:]),
		Method:    MethodS256,
	}, nil
}
