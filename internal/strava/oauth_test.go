package strava

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fitrelay/strava-auth-proxy/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeoutSeconds: 5,
		Credentials: config.Credentials{
			ClientID:     "12345",
			ClientSecret: "super-secret-value",
			RedirectURI:  "http://localhost:3000/exchange_token",
		},
	}
}

func TestGenerateAuthURL_Defaults(t *testing.T) {
	client := NewOAuthClient(testConfig())

	authURL, err := client.GenerateAuthURL(AuthorizationRequest{})
	if err != nil {
		t.Fatalf("generate auth url: %v", err)
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("auth url does not parse: %v", err)
	}
	if !strings.HasPrefix(authURL, AuthorizationEndpoint) {
		t.Fatalf("auth url %q not rooted at authorization endpoint", authURL)
	}

	q := parsed.Query()
	if q.Get("client_id") != "12345" {
		t.Fatalf("client_id = %q, want 12345", q.Get("client_id"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q, want code", q.Get("response_type"))
	}
	if q.Get("redirect_uri") != "http://localhost:3000/exchange_token" {
		t.Fatalf("redirect_uri = %q, want configured default", q.Get("redirect_uri"))
	}
	if q.Get("scope") != "read,activity:read_all,profile:read_all" {
		t.Fatalf("scope = %q, want default scope string in order", q.Get("scope"))
	}
	if strings.Contains(authURL, "super-secret-value") {
		t.Fatal("auth url contains the client secret")
	}
}

func TestGenerateAuthURL_Overrides(t *testing.T) {
	client := NewOAuthClient(testConfig())

	authURL, err := client.GenerateAuthURL(AuthorizationRequest{
		RedirectURI: "https://example.com/callback",
		Scopes:      "read,read,activity:read",
	})
	if err != nil {
		t.Fatalf("generate auth url: %v", err)
	}

	parsed, _ := url.Parse(authURL)
	q := parsed.Query()
	if q.Get("redirect_uri") != "https://example.com/callback" {
		t.Fatalf("redirect_uri = %q, want caller override", q.Get("redirect_uri"))
	}
	// Duplicates and order are preserved verbatim.
	if q.Get("scope") != "read,read,activity:read" {
		t.Fatalf("scope = %q, want caller scopes verbatim", q.Get("scope"))
	}
}

func TestGenerateAuthURL_MalformedRedirectFallsBack(t *testing.T) {
	client := NewOAuthClient(testConfig())

	authURL, err := client.GenerateAuthURL(AuthorizationRequest{RedirectURI: "not a uri"})
	if err != nil {
		t.Fatalf("generate auth url: %v", err)
	}

	parsed, _ := url.Parse(authURL)
	if got := parsed.Query().Get("redirect_uri"); got != "http://localhost:3000/exchange_token" {
		t.Fatalf("redirect_uri = %q, want configured default", got)
	}
}

func TestGenerateAuthURL_MissingClientID(t *testing.T) {
	cfg := testConfig()
	cfg.Credentials.ClientID = ""
	client := NewOAuthClient(cfg)

	if _, err := client.GenerateAuthURL(AuthorizationRequest{}); err == nil {
		t.Fatal("expected error for missing client id")
	}
}

func TestExchangeCode_Success(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q, want authorization_code", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("code") != "valid-code" {
			t.Errorf("code = %q, want valid-code", r.PostForm.Get("code"))
		}
		if r.PostForm.Get("client_secret") != "super-secret-value" {
			t.Errorf("client_secret missing from token request")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_at":1893456000,"expires_in":21600,"athlete":{"id":42}}`))
	}))
	defer upstream.Close()

	client := NewOAuthClient(testConfig(), WithTokenEndpoint(upstream.URL))

	pair, err := client.ExchangeCode(context.Background(), "valid-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if pair.AccessToken != "at-1" || pair.RefreshToken != "rt-1" {
		t.Fatalf("token pair = %+v, want passthrough values", pair)
	}
	if pair.ExpiresAt != 1893456000 {
		t.Fatalf("expires_at = %d, want 1893456000", pair.ExpiresAt)
	}
	// Extra upstream fields survive in the raw body.
	if !strings.Contains(string(pair.Raw()), `"athlete":{"id":42}`) {
		t.Fatalf("raw body lost upstream fields: %s", pair.Raw())
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("outbound calls = %d, want 1", got)
	}
}

func TestExchangeCode_UpstreamRejection_NoRetry(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Bad Request","errors":[{"code":"invalid","field":"code","resource":"AuthorizationCode"}]}`))
	}))
	defer upstream.Close()

	client := NewOAuthClient(testConfig(), WithTokenEndpoint(upstream.URL))

	_, err := client.ExchangeCode(context.Background(), "already-used-code")
	var exchangeErr *ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("error = %v, want ExchangeError", err)
	}
	if exchangeErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("upstream status = %d, want 400", exchangeErr.StatusCode)
	}
	if exchangeErr.Message != "Bad Request" {
		t.Fatalf("message = %q, want upstream message", exchangeErr.Message)
	}
	// Authorization codes are single-use; exactly one attempt must be made.
	if got := calls.Load(); got != 1 {
		t.Fatalf("outbound calls = %d, want 1", got)
	}
}

func TestExchangeCode_EmptyCode(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()

	client := NewOAuthClient(testConfig(), WithTokenEndpoint(upstream.URL))

	_, err := client.ExchangeCode(context.Background(), "  ")
	var missing *MissingCredentialError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingCredentialError", err)
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("outbound calls = %d, want 0", got)
	}
}

func TestRefresh_RotatesRefreshToken(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-2","refresh_token":"rt-rotated","token_type":"Bearer","expires_at":1893456000,"expires_in":21600}`))
	}))
	defer upstream.Close()

	client := NewOAuthClient(testConfig(), WithTokenEndpoint(upstream.URL))

	sent := "rt-original"
	pair, err := client.Refresh(context.Background(), sent)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	// The rotated value is what callers must persist, not the one they sent.
	if pair.RefreshToken == sent {
		t.Fatal("refresh token was not rotated by stub, test is vacuous")
	}
	if pair.RefreshToken != "rt-rotated" {
		t.Fatalf("refresh_token = %q, want rt-rotated", pair.RefreshToken)
	}
}

func TestRefresh_RevokedToken(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authorization Error"}`))
	}))
	defer upstream.Close()

	client := NewOAuthClient(testConfig(), WithTokenEndpoint(upstream.URL))

	_, err := client.Refresh(context.Background(), "revoked")
	var exchangeErr *ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("error = %v, want ExchangeError", err)
	}
	if exchangeErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("upstream status = %d, want 401", exchangeErr.StatusCode)
	}
}

func TestRequestToken_Timeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer upstream.Close()

	client := NewOAuthClient(testConfig(),
		WithTokenEndpoint(upstream.URL),
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)

	start := time.Now()
	_, err := client.ExchangeCode(context.Background(), "slow")
	elapsed := time.Since(start)

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if elapsed > 250*time.Millisecond {
		t.Fatalf("timeout took %v, want bounded by client timeout", elapsed)
	}
}

func TestRequestToken_MalformedBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":`))
	}))
	defer upstream.Close()

	client := NewOAuthClient(testConfig(), WithTokenEndpoint(upstream.URL))

	_, err := client.ExchangeCode(context.Background(), "valid-code")
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("error = %v, want UpstreamError for malformed body", err)
	}
}
