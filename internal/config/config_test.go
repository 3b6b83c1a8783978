package config

import "testing"

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ISSUER", "https://issuer.example.com")
	t.Setenv("JWKS_URL", "https://issuer.example.com/.well-known/jwks.json")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_RequiresAuthConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/weekwise")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWKS_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when JWT config is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/weekwise")
	t.Setenv("JWT_ISSUER", "https://issuer.example.com")
	t.Setenv("JWKS_URL", "https://issuer.example.com/.well-known/jwks.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %s, want 8080", cfg.ServerPort)
	}
	if cfg.DefaultTimezone != "Asia/Kolkata" {
		t.Errorf("DefaultTimezone = %s, want Asia/Kolkata", cfg.DefaultTimezone)
	}
	if cfg.RateLimit != "10-S" {
		t.Errorf("RateLimit = %s, want 10-S", cfg.RateLimit)
	}
	if cfg.CalendarConfigured() {
		t.Error("CalendarConfigured should be false without Google credentials")
	}
}

func TestLoad_DerivesGoogleRedirect(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/weekwise")
	t.Setenv("JWT_ISSUER", "https://issuer.example.com")
	t.Setenv("JWKS_URL", "https://issuer.example.com/.well-known/jwks.json")
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GoogleRedirectURI != "https://app.example.com/calendar/callback" {
		t.Errorf("GoogleRedirectURI = %s", cfg.GoogleRedirectURI)
	}
	if !cfg.CalendarConfigured() {
		t.Error("CalendarConfigured should be true")
	}
}
