package smartauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fhirstack/smartauth/pkg/httpx"
)

// WellKnownPath is the SMART configuration document path, relative to
// the FHIR server base URL.
const WellKnownPath = "/.well-known/smart-configuration"

// WellKnownConfig is the SMART well-known configuration document. It is
// a read-only snapshot; this package does not cache it across calls.
type WellKnownConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`

	RevocationEndpoint    string `json:"revocation_endpoint,omitempty"`
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`
	UserInfoEndpoint      string `json:"userinfo_endpoint,omitempty"`
	RegistrationEndpoint  string `json:"registration_endpoint,omitempty"`

	Capabilities                  []string `json:"capabilities,omitempty"`
	ScopesSupported               []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported        []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported           []string `json:"grant_types_supported,omitempty"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// SupportsS256 reports whether the server advertises the S256 PKCE
// challenge method. An empty advertisement does not imply absence.
func (c *WellKnownConfig) SupportsS256() bool {
	for _, m := range c.CodeChallengeMethodsSupported {
		if m == MethodS256 {
			return true
		}
	}
	return false
}

// DiscoveryClient fetches the SMART well-known configuration document.
type DiscoveryClient struct {
	transport httpx.Doer
}

// NewDiscoveryClient returns a DiscoveryClient using the given
// transport. A nil transport falls back to http.DefaultClient.
func NewDiscoveryClient(transport httpx.Doer) *DiscoveryClient {
	if transport == nil {
		transport = http.DefaultClient
	}
	return &DiscoveryClient{transport: transport}
}

// Discover fetches GET {serverURL}/.well-known/smart-configuration.
// Transport failures, non-200 statuses, undecodable bodies and documents
// missing the required endpoints all surface as
// MissingWellKnownConfigError.
func (c *DiscoveryClient) Discover(ctx context.Context, serverURL string) (*WellKnownConfig, error) {
	wellKnownURL := strings.TrimSuffix(serverURL, "/") + WellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnownURL, nil)
	if err != nil {
		return nil, &MissingWellKnownConfigError{
			ServerURL: serverURL,
			Cause:     fmt.Errorf("failed to create request: %w", err),
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, &MissingWellKnownConfigError{
			ServerURL: serverURL,
			Cause:     &NetworkError{URL: wellKnownURL, Cause: err},
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &MissingWellKnownConfigError{
			ServerURL: serverURL,
			Cause:     &NetworkError{URL: wellKnownURL, Cause: err},
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &MissingWellKnownConfigError{
			ServerURL: serverURL,
			Cause:     fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var config WellKnownConfig
	if err := json.Unmarshal(body, &config); err != nil {
		return nil, &MissingWellKnownConfigError{
			ServerURL: serverURL,
			Cause:     fmt.Errorf("failed to decode response: %w", err),
		}
	}

	if config.AuthorizationEndpoint == "" || config.TokenEndpoint == "" {
		return nil, &MissingWellKnownConfigError{
			ServerURL: serverURL,
			Cause:     fmt.Errorf("document missing authorization_endpoint or token_endpoint"),
		}
	}

	return &config, nil
}
