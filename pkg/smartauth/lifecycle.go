package smartauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fhirstack/smartauth/pkg/idx"
)

// TokenLifecycleManager owns the current token for one
// (clientID, serverURL) pair and decides when to refresh it. All mutable
// state lives behind a single mutex; concurrent callers during an
// in-flight refresh share that refresh's result instead of issuing
// duplicate token-endpoint requests.
//
// States: no token, valid, needs-refresh, invalid. Needs-refresh is
// evaluated lazily on each GetValidToken call, not by a timer. A failed
// refresh is terminal until a fresh authorization-code flow.
type TokenLifecycleManager struct {
	config        AuthConfig
	exchanger     *TokenExchanger
	store         TokenStore
	logger        *slog.Logger
	refreshWindow time.Duration
	now           func() time.Time

	mu       sync.Mutex
	current  *Token
	invalid  bool
	inflight *refreshFlight
}

// refreshFlight is one in-flight refresh, shared by every caller that
// arrives while it runs.
type refreshFlight struct {
	done  chan struct{}
	token *Token
	err   error
}

// ManagerOption configures a TokenLifecycleManager.
type ManagerOption func(*TokenLifecycleManager)

// WithTokenStore mirrors every successful exchange and refresh into the
// given store, and makes GetValidToken fall back to it when no token is
// in memory.
func WithTokenStore(store TokenStore) ManagerOption {
	return func(m *TokenLifecycleManager) { m.store = store }
}

// WithRefreshWindow overrides the DefaultRefreshWindow.
func WithRefreshWindow(window time.Duration) ManagerOption {
	return func(m *TokenLifecycleManager) { m.refreshWindow = window }
}

// WithLogger sets the logger; nil means slog.Default().
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *TokenLifecycleManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewTokenLifecycleManager creates a manager for the given configuration.
func NewTokenLifecycleManager(config AuthConfig, exchanger *TokenExchanger, opts ...ManagerOption) *TokenLifecycleManager {
	m := &TokenLifecycleManager{
		config:        config,
		exchanger:     exchanger,
		logger:        slog.Default(),
		refreshWindow: DefaultRefreshWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the manager's immutable configuration.
func (m *TokenLifecycleManager) Config() AuthConfig { return m.config }

// ExchangeAuthorizationCode completes the authorization-code flow:
// it trades the callback code for a token, persists it, and makes it the
// manager's current token.
//
// state is the value returned on the callback. It is accepted so the
// call site mirrors the flow end to end, but it is NOT compared to
// anything here: callers hold the original state and must compare it
// themselves (see InvalidStateError).
func (m *TokenLifecycleManager) ExchangeAuthorizationCode(
	ctx context.Context,
	code, state, codeVerifier string,
) (*Token, error) {
	_ = state // caller-side contract, see doc comment

	if err := m.awaitInflight(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	attempt := idx.New()
	m.logger.DebugContext(ctx, "exchanging authorization code",
		"attempt_id", attempt,
		"client_id", m.config.ClientID,
		"server_url", m.config.ServerURL,
	)

	token, err := m.exchanger.ExchangeAuthorizationCode(ctx, code, m.config.RedirectURI, m.config.ClientID, codeVerifier)
	if err != nil {
		m.logger.WarnContext(ctx, "authorization code exchange failed",
			"attempt_id", attempt, "error", err)
		return nil, err
	}

	if missing := m.config.Scopes.Missing(token.GrantedScopes()); len(missing) > 0 {
		m.logger.WarnContext(ctx, "token granted with missing scopes",
			"attempt_id", attempt,
			"missing", missing.String(),
			"granted", token.Scope,
		)
	}

	if err := m.persist(ctx, token); err != nil {
		// The token is live at the server; keep it in memory so the
		// session can continue even though persistence failed.
		m.current = token
		m.invalid = false
		return nil, err
	}

	m.current = token
	m.invalid = false
	return token, nil
}

// GetValidToken returns the current token if it is still outside the
// refresh window, refreshing it first when needed. With no token in
// memory it falls back to the TokenStore. Callers arriving during an
// in-flight refresh await and share its result.
func (m *TokenLifecycleManager) GetValidToken(ctx context.Context) (*Token, error) {
	m.mu.Lock()

	if fl := m.inflight; fl != nil {
		m.mu.Unlock()
		return awaitFlight(ctx, fl)
	}

	if m.invalid {
		m.mu.Unlock()
		return nil, &AuthorizationFailedError{Reason: "session is invalid, a new authorization-code flow is required"}
	}

	if m.current == nil {
		if err := m.loadLocked(ctx); err != nil {
			m.mu.Unlock()
			return nil, err
		}
	}

	if !m.current.NeedsRefreshAt(m.now(), m.refreshWindow) {
		token := m.current
		m.mu.Unlock()
		return token, nil
	}

	if m.current.RefreshToken == "" {
		m.invalid = true
		m.mu.Unlock()
		return nil, &AuthorizationFailedError{Reason: "token expired and no refresh token is available"}
	}

	fl := m.startRefreshLocked(ctx)
	m.mu.Unlock()
	return awaitFlight(ctx, fl)
}

// Refresh forces a refresh of the current token regardless of expiry.
// A current token without a refresh token fails with a refresh-tagged
// TokenRequestError.
func (m *TokenLifecycleManager) Refresh(ctx context.Context) (*Token, error) {
	m.mu.Lock()

	if fl := m.inflight; fl != nil {
		m.mu.Unlock()
		return awaitFlight(ctx, fl)
	}

	if m.current == nil {
		m.mu.Unlock()
		return nil, &AuthorizationFailedError{Reason: "no token to refresh"}
	}

	if m.current.RefreshToken == "" {
		m.mu.Unlock()
		return nil, &TokenRequestError{
			Grant: GrantRefreshToken,
			Cause: errors.New("token has no refresh token"),
		}
	}

	fl := m.startRefreshLocked(ctx)
	m.mu.Unlock()
	return awaitFlight(ctx, fl)
}

// CurrentToken returns the in-memory token without any validity check,
// or nil when none is held.
func (m *TokenLifecycleManager) CurrentToken() *Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// ClearToken drops the in-memory token and resets the manager to its
// no-token state. The TokenStore is not touched.
func (m *TokenLifecycleManager) ClearToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.invalid = false
}

// clearIfCurrent drops the in-memory token only when its access-token
// value matches, so a token that was concurrently refreshed survives a
// stale revocation. Reports whether the token was cleared.
func (m *TokenLifecycleManager) clearIfCurrent(accessToken string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.AccessToken != accessToken {
		return false
	}
	m.current = nil
	m.invalid = false
	return true
}

// loadLocked fills m.current from the store. Caller holds m.mu.
func (m *TokenLifecycleManager) loadLocked(ctx context.Context) error {
	if m.store == nil {
		return &AuthorizationFailedError{Reason: "no token available, authorization required"}
	}

	token, err := m.store.Load(ctx, m.config.ServerURL)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return &AuthorizationFailedError{Reason: "no token available, authorization required"}
		}
		return fmt.Errorf("failed to load token from store: %w", err)
	}

	m.logger.DebugContext(ctx, "loaded persisted token",
		"server_url", m.config.ServerURL,
		"expires_at", token.ExpiresAt,
	)
	m.current = token
	return nil
}

// startRefreshLocked registers a new refresh flight and launches it.
// Caller holds m.mu. The flight runs detached from the initiating
// caller's cancellation so waiters still get its result.
func (m *TokenLifecycleManager) startRefreshLocked(ctx context.Context) *refreshFlight {
	fl := &refreshFlight{done: make(chan struct{})}
	m.inflight = fl
	go m.runRefresh(context.WithoutCancel(ctx), fl, m.current.RefreshToken)
	return fl
}

func (m *TokenLifecycleManager) runRefresh(ctx context.Context, fl *refreshFlight, refreshToken string) {
	attempt := idx.New()
	m.logger.DebugContext(ctx, "refreshing token",
		"attempt_id", attempt,
		"client_id", m.config.ClientID,
		"server_url", m.config.ServerURL,
	)

	token, exchangeErr := m.exchanger.ExchangeRefreshToken(ctx, refreshToken, m.config.ClientID)

	var persistErr error
	if exchangeErr == nil {
		persistErr = m.persist(ctx, token)
	}

	m.mu.Lock()
	m.inflight = nil
	switch {
	case exchangeErr != nil:
		// No fallback: the session is dead until re-authorization.
		m.invalid = true
		fl.err = &AuthorizationFailedError{Reason: "token refresh failed", Cause: exchangeErr}
		m.logger.WarnContext(ctx, "token refresh failed", "attempt_id", attempt, "error", exchangeErr)
	case persistErr != nil:
		// The refreshed token is live at the server; keep it in memory
		// so it is not refreshed again, but surface the store failure.
		m.current = token
		fl.err = persistErr
	default:
		m.current = token
		fl.token = token
	}
	m.mu.Unlock()
	close(fl.done)
}

// persist saves the token before it is handed to callers, so a crash
// after persistence is recoverable on next load.
func (m *TokenLifecycleManager) persist(ctx context.Context, token *Token) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, m.config.ServerURL, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return nil
}

// awaitInflight blocks until no refresh is in flight, so at most one
// token-endpoint request for the next token is ever outstanding.
func (m *TokenLifecycleManager) awaitInflight(ctx context.Context) error {
	for {
		m.mu.Lock()
		fl := m.inflight
		m.mu.Unlock()
		if fl == nil {
			return nil
		}
		select {
		case <-fl.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// awaitFlight waits for a refresh flight, honoring the waiter's context
// without cancelling the shared refresh.
func awaitFlight(ctx context.Context, fl *refreshFlight) (*Token, error) {
	select {
	case <-fl.done:
		return fl.token, fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
