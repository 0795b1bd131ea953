package smartauth

import (
	"errors"
	"fmt"
)

// Grant identifies which token-endpoint operation an error belongs to.
type Grant string

const (
	// GrantAuthorizationCode is the authorization_code grant (RFC 6749 §4.1).
	GrantAuthorizationCode Grant = "authorization_code"

	// GrantRefreshToken is the refresh_token grant (RFC 6749 §6).
	GrantRefreshToken Grant = "refresh_token"

	// GrantRevocation tags errors from the token revocation endpoint
	// (RFC 7009). Not a grant type on the wire, but revocation failures
	// share the token-endpoint error shape.
	GrantRevocation Grant = "revocation"
)

// ErrPKCEGenerationFailed reports that a PKCE verifier/challenge pair
// could not be produced, either because the entropy source failed or the
// verifier could not be encoded as ASCII before hashing.
var ErrPKCEGenerationFailed = errors.New("pkce generation failed")

// ErrTokenNotFound is returned by TokenStore implementations when no
// token is persisted for the requested server.
var ErrTokenNotFound = errors.New("no token stored for server")

// InvalidConfigurationError reports a malformed URL or a missing
// endpoint in the client or server configuration.
type InvalidConfigurationError struct {
	Reason string
	Cause  error
}

func (e *InvalidConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error { return e.Cause }

// AuthorizationFailedError reports that no usable token is available and
// a fresh authorization-code flow is required.
type AuthorizationFailedError struct {
	Reason string
	Cause  error
}

func (e *AuthorizationFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authorization failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("authorization failed: %s", e.Reason)
}

func (e *AuthorizationFailedError) Unwrap() error { return e.Cause }

// TokenRequestError reports a non-2xx status or an undecodable body from
// the token endpoint. Grant distinguishes the code-exchange path from the
// refresh path; the raw response body is preserved verbatim for
// diagnostics.
type TokenRequestError struct {
	Grant      Grant
	StatusCode int
	Body       string
	Cause      error
}

func (e *TokenRequestError) Error() string {
	op := "token request"
	if e.Grant == GrantRefreshToken {
		op = "token refresh"
	} else if e.Grant == GrantRevocation {
		op = "token revocation"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s failed with status %d: %v", op, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s failed with status %d: %s", op, e.StatusCode, e.Body)
}

func (e *TokenRequestError) Unwrap() error { return e.Cause }

// IsRefresh reports whether the refresh_token grant was in flight.
func (e *TokenRequestError) IsRefresh() bool { return e.Grant == GrantRefreshToken }

// InvalidStateError reports a mismatch between the state value a caller
// sent to the authorization endpoint and the one returned on the
// callback. State generation and comparison are the caller's
// responsibility; this subsystem only surfaces the constructor.
type InvalidStateError struct {
	Expected string
	Got      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("state mismatch: expected %q, got %q", e.Expected, e.Got)
}

// MissingWellKnownConfigError reports that the SMART well-known
// configuration document could not be fetched or decoded.
type MissingWellKnownConfigError struct {
	ServerURL string
	Cause     error
}

func (e *MissingWellKnownConfigError) Error() string {
	return fmt.Sprintf("missing well-known smart configuration for %s: %v", e.ServerURL, e.Cause)
}

func (e *MissingWellKnownConfigError) Unwrap() error { return e.Cause }

// ScopeNotGrantedError reports requested scopes absent from the granted
// scope string.
type ScopeNotGrantedError struct {
	Requested ScopeSet
	Granted   ScopeSet
	Missing   ScopeSet
}

func (e *ScopeNotGrantedError) Error() string {
	return fmt.Sprintf("scopes not granted: missing %q (granted %q)", e.Missing.String(), e.Granted.String())
}

// NetworkError wraps a transport-level failure. Raw transport errors are
// never surfaced directly by this package.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }
