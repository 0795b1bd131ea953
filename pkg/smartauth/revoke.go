package smartauth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fhirstack/smartauth/pkg/httpx"
)

// RevocationHandler revokes tokens at the server's revocation endpoint
// (RFC 7009) and clears local state on success. The endpoint is looked
// up through discovery on every call.
type RevocationHandler struct {
	discovery *DiscoveryClient
	transport httpx.Doer
	store     TokenStore
	manager   *TokenLifecycleManager
	logger    *slog.Logger
}

// NewRevocationHandler wires a revocation handler. store and manager are
// optional: when set, a successful revocation deletes the persisted
// token and clears the manager's in-memory token (only if it still
// matches the revoked one). A nil transport falls back to
// http.DefaultClient; a nil logger to slog.Default().
func NewRevocationHandler(
	discovery *DiscoveryClient,
	transport httpx.Doer,
	store TokenStore,
	manager *TokenLifecycleManager,
	logger *slog.Logger,
) *RevocationHandler {
	if transport == nil {
		transport = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RevocationHandler{
		discovery: discovery,
		transport: transport,
		store:     store,
		manager:   manager,
		logger:    logger,
	}
}

// Revoke revokes the token's access token. On failure local state is
// left untouched so the app may retry.
func (h *RevocationHandler) Revoke(ctx context.Context, token *Token, config AuthConfig) error {
	return h.revoke(ctx, token, config, token.AccessToken, "")
}

// RevokeRefresh revokes the token's refresh token, invalidating the
// whole grant at servers that cascade revocation.
func (h *RevocationHandler) RevokeRefresh(ctx context.Context, token *Token, config AuthConfig) error {
	if token.RefreshToken == "" {
		return &InvalidConfigurationError{Reason: "token has no refresh token to revoke"}
	}
	return h.revoke(ctx, token, config, token.RefreshToken, "refresh_token")
}

func (h *RevocationHandler) revoke(ctx context.Context, token *Token, config AuthConfig, value, hint string) error {
	wellKnown, err := h.discovery.Discover(ctx, config.ServerURL)
	if err != nil {
		return err
	}

	if wellKnown.RevocationEndpoint == "" {
		return &InvalidConfigurationError{
			Reason: fmt.Sprintf("server %s advertises no revocation endpoint", config.ServerURL),
		}
	}

	data := url.Values{
		"token":     {value},
		"client_id": {config.ClientID},
	}
	if hint != "" {
		data.Set("token_type_hint", hint)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		wellKnown.RevocationEndpoint,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.transport.Do(req)
	if err != nil {
		return &NetworkError{URL: wellKnown.RevocationEndpoint, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return &TokenRequestError{
			Grant:      GrantRevocation,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if h.store != nil {
		if err := h.store.Delete(ctx, config.ServerURL); err != nil {
			h.logger.WarnContext(ctx, "failed to delete revoked token from store",
				"server_url", config.ServerURL, "error", err)
		}
	}

	// Clear in-memory state only when it still holds the revoked token,
	// so a concurrently refreshed token is not thrown away.
	if h.manager != nil {
		if h.manager.clearIfCurrent(token.AccessToken) {
			h.logger.DebugContext(ctx, "cleared revoked token", "server_url", config.ServerURL)
		}
	}

	return nil
}
