package smartauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fhirstack/smartauth/pkg/httpx"
)

// TokenExchanger performs the token-endpoint HTTP exchanges: code for
// token and refresh token for token. It carries no state besides the
// endpoint and transport; serialization belongs to the
// TokenLifecycleManager.
type TokenExchanger struct {
	tokenURL  string
	transport httpx.Doer

	// now is the response capture clock, injectable for tests.
	now func() time.Time
}

// NewTokenExchanger returns an exchanger for the given token endpoint.
// A nil transport falls back to http.DefaultClient.
func NewTokenExchanger(tokenURL string, transport httpx.Doer) *TokenExchanger {
	if transport == nil {
		transport = http.DefaultClient
	}
	return &TokenExchanger{
		tokenURL:  tokenURL,
		transport: transport,
		now:       time.Now,
	}
}

// ExchangeAuthorizationCode trades an authorization code for a Token.
// codeVerifier is the PKCE verifier from the original challenge; pass
// the empty string only when the authorization request carried no PKCE.
func (e *TokenExchanger) ExchangeAuthorizationCode(
	ctx context.Context,
	code, redirectURI, clientID, codeVerifier string,
) (*Token, error) {
	data := url.Values{
		"grant_type":   {string(GrantAuthorizationCode)},
		"code":         {code},
		"redirect_uri": {redirectURI},
		"client_id":    {clientID},
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return e.requestToken(ctx, GrantAuthorizationCode, data)
}

// ExchangeRefreshToken trades a refresh token for a new Token.
func (e *TokenExchanger) ExchangeRefreshToken(
	ctx context.Context,
	refreshToken, clientID string,
) (*Token, error) {
	if refreshToken == "" {
		return nil, &TokenRequestError{
			Grant: GrantRefreshToken,
			Cause: fmt.Errorf("no refresh token available"),
		}
	}

	data := url.Values{
		"grant_type":    {string(GrantRefreshToken)},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}

	return e.requestToken(ctx, GrantRefreshToken, data)
}

// requestToken POSTs the form body and converts the response. The
// capture time is taken before the request is sent so a computed expiry
// errs on the early side.
func (e *TokenExchanger) requestToken(ctx context.Context, grant Grant, data url.Values) (*Token, error) {
	capturedAt := e.now()

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.tokenURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, &TokenRequestError{
			Grant: grant,
			Cause: fmt.Errorf("failed to create request: %w", err),
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.transport.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: e.tokenURL, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: e.tokenURL, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TokenRequestError{
			Grant:      grant,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var raw RawTokenResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &TokenRequestError{
			Grant:      grant,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Cause:      fmt.Errorf("failed to decode response: %w", err),
		}
	}

	return newToken(raw, capturedAt), nil
}
