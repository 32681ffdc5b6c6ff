package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STRAVA_CLIENT_ID", "")
	t.Setenv("STRAVA_CLIENT_SECRET", "")
	t.Setenv("EXPECTED_REDIRECT_URI", "")
	os.Unsetenv("STRAVA_CLIENT_ID")
	os.Unsetenv("STRAVA_CLIENT_SECRET")
	os.Unsetenv("EXPECTED_REDIRECT_URI")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearCredentialEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 8317 {
		t.Errorf("Port = %d, want 8317", cfg.Port)
	}
	if cfg.RequestTimeoutSeconds != 10 {
		t.Errorf("RequestTimeoutSeconds = %d, want 10", cfg.RequestTimeoutSeconds)
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout())
	}
	if cfg.Credentials.RedirectURI != DefaultRedirectURI {
		t.Errorf("RedirectURI = %q, want default", cfg.Credentials.RedirectURI)
	}
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	clearCredentialEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 8317 {
		t.Errorf("Port = %d, want default 8317", cfg.Port)
	}
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	clearCredentialEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: 9090\ndebug: true\nrequest-timeout-seconds: 3\nproxy-url: \"socks5://127.0.0.1:1080\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.RequestTimeoutSeconds != 3 {
		t.Errorf("RequestTimeoutSeconds = %d, want 3", cfg.RequestTimeoutSeconds)
	}
	if cfg.ProxyURL != "socks5://127.0.0.1:1080" {
		t.Errorf("ProxyURL = %q", cfg.ProxyURL)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted malformed YAML")
	}
}

func TestLoadConfig_CredentialsFromEnvironment(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "12345")
	t.Setenv("STRAVA_CLIENT_SECRET", "super-secret-value")
	t.Setenv("EXPECTED_REDIRECT_URI", "https://app.example.com/exchange_token")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Credentials.ClientID != "12345" {
		t.Errorf("ClientID = %q", cfg.Credentials.ClientID)
	}
	if cfg.Credentials.ClientSecret != "super-secret-value" {
		t.Errorf("ClientSecret not bound")
	}
	if cfg.Credentials.RedirectURI != "https://app.example.com/exchange_token" {
		t.Errorf("RedirectURI = %q", cfg.Credentials.RedirectURI)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		secret  string
		wantErr bool
	}{
		{"both set", "12345", "secret", false},
		{"missing id", "", "secret", true},
		{"missing secret", "12345", "", true},
		{"whitespace secret", "12345", "   ", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Credentials: Credentials{ClientID: tc.id, ClientSecret: tc.secret}}
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
