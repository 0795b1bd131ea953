package smartauth

import (
	"fmt"
	"net/url"
)

// LaunchType selects between the two SMART App Launch modes.
type LaunchType int

const (
	// LaunchStandalone is an app launched independently of an EHR
	// session. Standalone launches never emit a launch parameter.
	LaunchStandalone LaunchType = iota

	// LaunchEHR is an app launched from within an EHR session, carrying
	// an opaque launch context token from the EHR.
	LaunchEHR
)

func (l LaunchType) String() string {
	switch l {
	case LaunchEHR:
		return "ehr"
	default:
		return "standalone"
	}
}

// AuthConfig holds the immutable OAuth2 configuration for one
// (client, FHIR server) pair. Construct it with NewAuthConfig, which
// validates the URLs.
type AuthConfig struct {
	ClientID     string
	RedirectURI  string
	Scopes       ScopeSet
	ServerURL    string
	TokenURL     string
	AuthorizeURL string
}

// NewAuthConfig validates and assembles an AuthConfig. Every URL must be
// absolute; ServerURL doubles as the aud parameter of authorization
// requests and the TokenStore key.
func NewAuthConfig(clientID, redirectURI, serverURL, authorizeURL, tokenURL string, scopes ScopeSet) (AuthConfig, error) {
	if clientID == "" {
		return AuthConfig{}, &InvalidConfigurationError{Reason: "client ID must not be empty"}
	}

	for name, raw := range map[string]string{
		"redirect URI":  redirectURI,
		"server URL":    serverURL,
		"authorize URL": authorizeURL,
		"token URL":     tokenURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return AuthConfig{}, &InvalidConfigurationError{
				Reason: fmt.Sprintf("%s %q is not a valid URL", name, raw),
				Cause:  err,
			}
		}
		if !u.IsAbs() {
			return AuthConfig{}, &InvalidConfigurationError{
				Reason: fmt.Sprintf("%s %q must be absolute", name, raw),
			}
		}
	}

	return AuthConfig{
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		Scopes:       scopes,
		ServerURL:    serverURL,
		TokenURL:     tokenURL,
		AuthorizeURL: authorizeURL,
	}, nil
}
