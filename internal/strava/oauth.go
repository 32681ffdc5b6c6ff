// Package strava implements the OAuth 2.0 token lifecycle against Strava's
// API together with a bearer-authenticated data client. It covers
// authorization URL construction, the code-for-token exchange, refresh-token
// rotation, and pass-through reads of the activity and zone endpoints.
//
// Every outbound call is a single bounded-timeout attempt. Compensating for
// upstream outages is the caller's responsibility; nothing here retries,
// caches, or persists tokens.
package strava

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/fitrelay/strava-auth-proxy/internal/config"
	"github.com/fitrelay/strava-auth-proxy/internal/util"
)

// Strava OAuth endpoints.
const (
	// AuthorizationEndpoint is the URL the athlete is redirected to for login.
	AuthorizationEndpoint = "https://www.strava.com/oauth/authorize"
	// TokenEndpoint is the URL for exchanging codes and refresh tokens.
	TokenEndpoint = "https://www.strava.com/api/v3/oauth/token"
)

// AuthorizationRequest carries the caller-supplied overrides for an
// authorization URL. Both fields are optional; empty values fall back to the
// configured defaults.
type AuthorizationRequest struct {
	// RedirectURI overrides the configured redirect URI when it is
	// syntactically a URI.
	RedirectURI string
	// Scopes overrides the default scope string. Comma-separated, order
	// preserved, duplicates allowed.
	Scopes string
}

// OAuthClient performs the server-to-server legs of the Strava OAuth flow.
// It is stateless; each method maps to exactly one outbound request.
type OAuthClient struct {
	httpClient    *http.Client
	oauthConfig   *oauth2.Config
	clientSecret  string
	redirectURI   string
	defaultScopes string
	tokenURL      string
}

// OAuthOption configures an OAuthClient.
type OAuthOption func(*OAuthClient)

// WithHTTPClient replaces the default HTTP client. Used by tests to shorten
// timeouts and point at stub servers.
func WithHTTPClient(httpClient *http.Client) OAuthOption {
	return func(o *OAuthClient) {
		o.httpClient = httpClient
	}
}

// WithTokenEndpoint overrides the token endpoint URL.
func WithTokenEndpoint(tokenURL string) OAuthOption {
	return func(o *OAuthClient) {
		o.tokenURL = tokenURL
	}
}

// NewOAuthClient creates a Strava OAuth client from the application
// configuration. The HTTP client carries the configured request timeout and
// optional outbound proxy.
func NewOAuthClient(cfg *config.Config, opts ...OAuthOption) *OAuthClient {
	o := &OAuthClient{
		httpClient: util.SetProxy(cfg.ProxyURL, &http.Client{
			Timeout: cfg.RequestTimeout(),
		}),
		oauthConfig: &oauth2.Config{
			ClientID: cfg.Credentials.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:  AuthorizationEndpoint,
				TokenURL: TokenEndpoint,
			},
		},
		clientSecret:  cfg.Credentials.ClientSecret,
		redirectURI:   cfg.Credentials.RedirectURI,
		defaultScopes: config.DefaultScopes,
		tokenURL:      TokenEndpoint,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateAuthURL builds the Strava authorization URL for the given request.
// It is a pure function of the request and configuration: no outbound call is
// made and the client secret never appears in the result.
//
// Parameters:
//   - req: Caller-supplied redirect URI and scope overrides
//
// Returns:
//   - string: The absolute authorization URL
//   - error: An error when the client ID is not configured
func (o *OAuthClient) GenerateAuthURL(req AuthorizationRequest) (string, error) {
	if o.oauthConfig.ClientID == "" {
		return "", errors.New("strava: client ID is not configured")
	}

	redirectURI := o.resolveRedirectURI(req.RedirectURI)
	scopes := strings.TrimSpace(req.Scopes)
	if scopes == "" {
		scopes = o.defaultScopes
	}

	// Strava expects a comma-separated scope string, so it is set as an
	// explicit parameter instead of through oauth2.Config.Scopes (which
	// joins with spaces).
	authURL := o.oauthConfig.AuthCodeURL("",
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
		oauth2.SetAuthURLParam("scope", scopes),
		oauth2.SetAuthURLParam("approval_prompt", "auto"),
	)
	return authURL, nil
}

// resolveRedirectURI returns the caller override when it parses as a URI,
// otherwise the configured default. No allow-list check is applied here.
func (o *OAuthClient) resolveRedirectURI(override string) string {
	override = strings.TrimSpace(override)
	if override == "" {
		return o.redirectURI
	}
	if u, err := url.Parse(override); err != nil || u.Scheme == "" {
		return o.redirectURI
	}
	return override
}

// ExchangeCode trades a single-use authorization code for a token pair.
//
// Parameters:
//   - ctx: The context for the request
//   - code: The authorization code from the OAuth callback
//
// Returns:
//   - *TokenPair: The minted tokens, with the raw upstream body preserved
//   - error: MissingCredentialError, ExchangeError, or UpstreamError
func (o *OAuthClient) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &MissingCredentialError{Field: "authorization code"}
	}

	data := url.Values{}
	data.Set("client_id", o.oauthConfig.ClientID)
	data.Set("client_secret", o.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")

	return o.requestToken(ctx, "token exchange", data)
}

// Refresh trades a refresh token for a renewed token pair. Strava rotates the
// refresh token, so the returned pair's refresh token may differ from the
// input; callers must persist the returned value.
func (o *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, &MissingCredentialError{Field: "refresh token"}
	}

	data := url.Values{}
	data.Set("client_id", o.oauthConfig.ClientID)
	data.Set("client_secret", o.clientSecret)
	data.Set("refresh_token", refreshToken)
	data.Set("grant_type", "refresh_token")

	return o.requestToken(ctx, "token refresh", data)
}

// requestToken performs exactly one POST to the token endpoint and maps the
// outcome onto the error taxonomy. There is no retry loop: a rejected code is
// spent and a rejected refresh token is revoked, so a second attempt with the
// same input cannot succeed.
func (o *OAuthClient) requestToken(ctx context.Context, op string, data url.Values) (*TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &ExchangeError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body, resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode}
	}

	pair, err := parseTokenPair(body)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}
	return pair, nil
}

// upstreamMessage extracts a human-readable message from a Strava failure
// body. Strava error payloads carry either a top-level "message" or an OAuth
// style "error"/"error_description" pair.
func upstreamMessage(body []byte, statusCode int) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
		if desc := gjson.GetBytes(body, "error_description"); desc.Exists() && desc.String() != "" {
			return desc.String()
		}
		if errField := gjson.GetBytes(body, "error"); errField.Exists() && errField.String() != "" {
			return errField.String()
		}
	}
	return http.StatusText(statusCode)
}
