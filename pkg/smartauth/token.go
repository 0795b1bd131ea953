package smartauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRefreshWindow is how long before expiry a token is considered
// due for refresh.
const DefaultRefreshWindow = 60 * time.Second

// RawTokenResponse mirrors the token endpoint's JSON body (RFC 6749 §5.1
// plus the SMART patient launch-context field). It is transient and
// immediately converted to a Token.
type RawTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    *int64 `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	Patient      string `json:"patient,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// Token is the domain view of an issued access token. Tokens are never
// mutated after construction; a refresh produces a new Token.
type Token struct {
	AccessToken string

	// TokenType defaults to "Bearer" when the server omits it.
	TokenType string

	// ExpiresAt is the capture time of the response plus expires_in.
	// The zero value means the server sent no expires_in: the token is
	// treated as never expiring for refresh purposes.
	ExpiresAt time.Time

	RefreshToken string
	Scope        string

	// PatientID is the SMART patient launch-context value, when granted.
	PatientID string

	// IDToken is the raw OpenID Connect ID token, carried opaque. See
	// IDClaims for unverified claim extraction.
	IDToken string
}

// newToken converts a wire response captured at the given instant.
func newToken(raw RawTokenResponse, capturedAt time.Time) *Token {
	t := &Token{
		AccessToken:  raw.AccessToken,
		TokenType:    raw.TokenType,
		RefreshToken: raw.RefreshToken,
		Scope:        raw.Scope,
		PatientID:    raw.Patient,
		IDToken:      raw.IDToken,
	}
	if t.TokenType == "" {
		t.TokenType = "Bearer"
	}
	if raw.ExpiresIn != nil {
		t.ExpiresAt = capturedAt.Add(time.Duration(*raw.ExpiresIn) * time.Second)
	}
	return t
}

// IsExpired reports whether the token has passed its expiry. Tokens
// without an expiry never expire.
func (t *Token) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsExpiredAt is IsExpired evaluated at an explicit instant.
func (t *Token) IsExpiredAt(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}

// NeedsRefresh reports whether the token is within the refresh window of
// its expiry. Tokens without an expiry never need refresh.
func (t *Token) NeedsRefresh(within time.Duration) bool {
	return t.NeedsRefreshAt(time.Now(), within)
}

// NeedsRefreshAt is NeedsRefresh evaluated at an explicit instant.
func (t *Token) NeedsRefreshAt(now time.Time, within time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(within).Before(t.ExpiresAt)
}

// GrantedScopes parses the granted scope string.
func (t *Token) GrantedScopes() ScopeSet {
	return ParseScopes(t.Scope)
}

// IDTokenClaims carries the SMART launch-context claims of an ID token.
type IDTokenClaims struct {
	Subject string
	Issuer  string

	// FHIRUser is the absolute reference of the FHIR resource
	// representing the authorized user (e.g. ".../Practitioner/123").
	FHIRUser string

	// Profile is the legacy name for the same claim.
	Profile string
}

// IDClaims extracts launch-context claims from the ID token WITHOUT
// verifying its signature. ID-token validation is out of scope for this
// package; do not treat these claims as authenticated.
func (t *Token) IDClaims() (*IDTokenClaims, error) {
	if t.IDToken == "" {
		return nil, fmt.Errorf("token carries no id_token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.IDToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token: %w", err)
	}

	out := &IDTokenClaims{}
	if v, ok := claims["sub"].(string); ok {
		out.Subject = v
	}
	if v, ok := claims["iss"].(string); ok {
		out.Issuer = v
	}
	if v, ok := claims["fhirUser"].(string); ok {
		out.FHIRUser = v
	}
	if v, ok := claims["profile"].(string); ok {
		out.Profile = v
	}
	return out, nil
}
