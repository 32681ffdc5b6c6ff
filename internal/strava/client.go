package strava

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/fitrelay/strava-auth-proxy/internal/config"
	"github.com/fitrelay/strava-auth-proxy/internal/util"
)

// APIBase is the root of Strava's v3 REST API.
const APIBase = "https://www.strava.com/api/v3"

// Data paths proxied by this service.
const (
	// ActivitiesPath lists the authenticated athlete's activities.
	ActivitiesPath = "athlete/activities"
	// AthleteZonesPath returns the athlete's heart rate and power zones.
	AthleteZonesPath = "athlete/zones"
)

// UpstreamResponse is a Strava response relayed to the caller unchanged: no
// schema validation, no caching, no payload transformation.
type UpstreamResponse struct {
	// StatusCode is the upstream HTTP status.
	StatusCode int
	// Body is the untouched upstream response body.
	Body []byte
	// ContentType is the upstream Content-Type header.
	ContentType string
}

// APIClient forwards caller-authenticated reads to Strava. It attaches the
// caller's bearer token without inspecting, decoding, or validating it;
// whether the token is acceptable is decided solely by Strava's response.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
}

// APIOption configures an APIClient.
type APIOption func(*APIClient)

// WithAPIHTTPClient replaces the default HTTP client.
func WithAPIHTTPClient(httpClient *http.Client) APIOption {
	return func(c *APIClient) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the Strava API base URL.
func WithBaseURL(baseURL string) APIOption {
	return func(c *APIClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewAPIClient creates a Strava data client from the application
// configuration.
func NewAPIClient(cfg *config.Config, opts ...APIOption) *APIClient {
	c := &APIClient{
		httpClient: util.SetProxy(cfg.ProxyURL, &http.Client{
			Timeout: cfg.RequestTimeout(),
		}),
		baseURL: APIBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a single authenticated GET against the given Strava path.
// rawQuery is relayed verbatim, preserving parameter order, duplicates, and
// unknown keys. An empty bearer token fails before any outbound call.
//
// Upstream 401/403 map to TokenRejectedError; transport failures map to
// UpstreamError. Every other upstream status, success or not, is passed
// through unchanged for the boundary layer to relay.
func (c *APIClient) Fetch(ctx context.Context, path, bearerToken, rawQuery string) (*UpstreamResponse, error) {
	if strings.TrimSpace(bearerToken) == "" {
		return nil, &MissingCredentialError{Field: "access token"}
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch " + path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch " + path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch " + path, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &TokenRejectedError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body, resp.StatusCode),
		}
	}

	return &UpstreamResponse{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
