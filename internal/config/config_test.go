package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(nil)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Port)
	}
	if cfg.Env != EnvDevelopment || cfg.Production() {
		t.Errorf("expected development, got %q", cfg.Env)
	}
	if cfg.WebDir != "client/build" {
		t.Errorf("expected client/build, got %q", cfg.WebDir)
	}
	if cfg.BaseURL != "http://localhost:5000" {
		t.Errorf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.SecureCookies() {
		t.Error("plain http must not use secure cookies")
	}
}

func TestLoadFrom_Env(t *testing.T) {
	cfg, err := LoadFrom([]string{
		"PORT=8080",
		"EMAILY_ENV=Production",
		"BASE_URL=https://emaily.example.com/",
		"GOOGLE_CLIENT_ID=id",
		"GOOGLE_CLIENT_SECRET=secret",
		"COOKIE_KEY=0123456789abcdef",
		"STRIPE_SECRET_KEY=sk_test_1",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Port != 8080 || cfg.Addr() != ":8080" {
		t.Errorf("unexpected port %d", cfg.Port)
	}
	if !cfg.Production() {
		t.Error("expected production")
	}
	if cfg.BaseURL != "https://emaily.example.com" || !cfg.SecureCookies() {
		t.Errorf("unexpected base url %q", cfg.BaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFrom_BadPort(t *testing.T) {
	if _, err := LoadFrom([]string{"PORT=abc"}); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFrom_KeysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.toml")
	data := `
PORT = 7000
GOOGLE_CLIENT_ID = "file-id"
GOOGLE_CLIENT_SECRET = "file-secret"
COOKIE_KEY = "file-cookie-key-0123"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom([]string{
		EnvKeysFile + "=" + path,
		"GOOGLE_CLIENT_ID=env-id",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("expected port from file, got %d", cfg.Port)
	}
	if cfg.GoogleClientID != "env-id" {
		t.Errorf("expected env to override file, got %q", cfg.GoogleClientID)
	}
	if cfg.GoogleClientSecret != "file-secret" || cfg.CookieKey != "file-cookie-key-0123" {
		t.Errorf("file keys not loaded: %+v", cfg)
	}
	if !cfg.GoogleEnabled() {
		t.Error("expected google enabled")
	}
}

func TestLoadFrom_KeysFileErrors(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested.toml")
	if err := os.WriteFile(nested, []byte("[google]\nid = \"x\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.toml"), nested} {
		if _, err := LoadFrom([]string{EnvKeysFile + "=" + path}); err == nil {
			t.Errorf("%s: expected error", filepath.Base(path))
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"dev minimal", Config{Port: 5000, Env: EnvDevelopment, CookieKey: "k"}, ""},
		{"no cookie key", Config{Port: 5000, Env: EnvDevelopment}, "COOKIE_KEY"},
		{"bad env", Config{Port: 5000, Env: "staging", CookieKey: "k"}, "EMAILY_ENV"},
		{"bad port", Config{Port: 70000, Env: EnvDevelopment, CookieKey: "k"}, "PORT"},
		{"prod without google", Config{Port: 5000, Env: EnvProduction, CookieKey: "k", StripeSecretKey: "sk"}, "GOOGLE_CLIENT_ID"},
		{"prod without stripe", Config{Port: 5000, Env: EnvProduction, CookieKey: "k", GoogleClientID: "i", GoogleClientSecret: "s"}, "STRIPE_SECRET_KEY"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
