package smartauth

import (
	"fmt"
	"net/url"

	"github.com/fhirstack/smartauth/pkg/cryptox"
)

// AuthorizeRequest describes one authorization attempt for
// BuildAuthorizationURL.
type AuthorizeRequest struct {
	Config AuthConfig

	// LaunchType selects standalone or EHR launch. Launch carries the
	// opaque launch context token handed to the app by the EHR; it is
	// only emitted for EHR launches.
	LaunchType LaunchType
	Launch     string

	// State is an opaque caller-supplied CSRF value. Callers generate it
	// (see GenerateState) and compare it on the callback; this package
	// never verifies it.
	State string

	// PKCE, when set, adds code_challenge and code_challenge_method.
	PKCE *PKCEChallenge
}

// BuildAuthorizationURL constructs the authorization-endpoint redirect
// URL for the SMART App Launch authorization code flow. The host app
// opens the returned URL in the user agent to begin authorization.
//
// Always present: response_type=code, client_id, redirect_uri, scope and
// aud (the FHIR server URL). state, code_challenge and launch are added
// conditionally. Parameters are emitted in sorted key order, so the
// output is stable for a given request.
func BuildAuthorizationURL(req AuthorizeRequest) (string, error) {
	base, err := url.Parse(req.Config.AuthorizeURL)
	if err != nil {
		return "", &InvalidConfigurationError{
			Reason: fmt.Sprintf("authorize URL %q is not a valid URL", req.Config.AuthorizeURL),
			Cause:  err,
		}
	}
	if !base.IsAbs() {
		return "", &InvalidConfigurationError{
			Reason: fmt.Sprintf("authorize URL %q must be absolute", req.Config.AuthorizeURL),
		}
	}

	params := base.Query()
	params.Set("response_type", "code")
	params.Set("client_id", req.Config.ClientID)
	params.Set("redirect_uri", req.Config.RedirectURI)
	params.Set("scope", req.Config.Scopes.String())
	params.Set("aud", req.Config.ServerURL)

	if req.State != "" {
		params.Set("state", req.State)
	}

	if req.PKCE != nil {
		params.Set("code_challenge", req.PKCE.Challenge)
		params.Set("code_challenge_method", req.PKCE.Method)
	}

	// Standalone launches never emit launch, even if a context token was
	// supplied by mistake.
	if req.LaunchType == LaunchEHR && req.Launch != "" {
		params.Set("launch", req.Launch)
	}

	base.RawQuery = params.Encode()
	return base.String(), nil
}

// ParseAuthorizationCallback extracts the authorization code and state
// from the redirect URL the authorization server sent the user agent to.
// An error response on the callback (error / error_description) is
// surfaced as an AuthorizationFailedError.
//
// Callers must compare the returned state against the one they sent;
// this package does not.
func ParseAuthorizationCallback(callbackURL string) (code, state string, err error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", &AuthorizationFailedError{
			Reason: "callback URL could not be parsed",
			Cause:  err,
		}
	}

	query := u.Query()

	if errorCode := query.Get("error"); errorCode != "" {
		return "", "", &AuthorizationFailedError{
			Reason: fmt.Sprintf("%s: %s", errorCode, query.Get("error_description")),
		}
	}

	code = query.Get("code")
	if code == "" {
		return "", "", &AuthorizationFailedError{Reason: "callback missing authorization code"}
	}

	return code, query.Get("state"), nil
}

// GenerateState produces a 128-bit random URL-safe state value. The
// caller keeps it, sends it via AuthorizeRequest.State and compares it
// against the callback's state.
func GenerateState() (string, error) {
	return cryptox.GenerateToken(cryptox.TokenSize128)
}
