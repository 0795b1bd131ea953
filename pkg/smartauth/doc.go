/*
Package smartauth implements the OAuth2 authorization-code flow with
PKCE for SMART-on-FHIR authorization servers: building authorization
URLs, exchanging and refreshing tokens, endpoint discovery and token
revocation, with a lifecycle manager that keeps one valid token per
(client, FHIR server) pair.

# Flow

Build the authorization URL and open it in the user agent:

	cfg, err := smartauth.NewAuthConfig(
		"my-app",
		"https://app.example.com/callback",
		"https://ehr.example.com/fhir",
		wellKnown.AuthorizationEndpoint,
		wellKnown.TokenEndpoint,
		smartauth.ParseScopes("launch/patient patient/Patient.read openid offline_access"),
	)

	pkce, err := smartauth.GeneratePKCE()
	state, err := smartauth.GenerateState()

	authURL, err := smartauth.BuildAuthorizationURL(smartauth.AuthorizeRequest{
		Config: cfg,
		State:  state,
		PKCE:   pkce,
	})

After the user authorizes, parse the callback, compare state, and hand
the code to the lifecycle manager:

	code, gotState, err := smartauth.ParseAuthorizationCallback(callbackURL)
	if gotState != state {
		return &smartauth.InvalidStateError{Expected: state, Got: gotState}
	}

	manager := smartauth.NewTokenLifecycleManager(cfg,
		smartauth.NewTokenExchanger(cfg.TokenURL, nil),
		smartauth.WithTokenStore(store),
	)
	token, err := manager.ExchangeAuthorizationCode(ctx, code, gotState, pkce.Verifier)

From then on GetValidToken is the single source of truth; it refreshes
behind the scenes and concurrent callers share one refresh:

	token, err := manager.GetValidToken(ctx)

# Collaborators

The HTTP transport (httpx.Doer), the TokenStore and the random source
are capability interfaces so tests can substitute fakes. Retry, rate
limiting and timeouts belong to the transport, not this package.

ID tokens are carried opaque; Token.IDClaims extracts launch-context
claims without signature verification, which stays out of scope.
*/
package smartauth
