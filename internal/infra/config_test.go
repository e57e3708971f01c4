package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("POLL_INTERVAL_MS", "")
	t.Setenv("POLL_MAX_FAILURES", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("DEFAULT_LOCALE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.Jobs.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval mismatch: got %s want 2s", cfg.Jobs.PollInterval)
	}
	if cfg.Jobs.MaxFailures != 5 {
		t.Fatalf("MaxFailures mismatch: got %d want 5", cfg.Jobs.MaxFailures)
	}
	if cfg.Jobs.ProgressStep != 10 || cfg.Jobs.ProgressCap != 90 {
		t.Fatalf("progress policy mismatch: step=%d cap=%d", cfg.Jobs.ProgressStep, cfg.Jobs.ProgressCap)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.DBMaxConns != 10 || cfg.DefaultLocale != "en" {
		t.Fatalf("db/locale defaults mismatch: conns=%d locale=%q", cfg.DBMaxConns, cfg.DefaultLocale)
	}
}

func TestLoadConfigRejectsNonPositivePoolSize(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DB_MAX_CONNS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for DB_MAX_CONNS=0")
	}
}

func TestLoadConfigParsesOriginList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://wzrd.app, ,https://staging.wzrd.app ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://wzrd.app", "https://staging.wzrd.app"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: got %#v want %#v", cfg.CORSAllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestLoadJobConfigRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "0")

	if _, err := LoadJobConfig(); err == nil {
		t.Fatal("expected error for zero poll interval")
	}
}

func TestLoadJobConfigTrimsCredentials(t *testing.T) {
	t.Setenv("VIDEO_API_KEY", "  key-123 ")
	t.Setenv("SANDBOX_API_KEY", "   ")

	cfg, err := LoadJobConfig()
	if err != nil {
		t.Fatalf("LoadJobConfig returned error: %v", err)
	}
	if cfg.VideoAPIKey != "key-123" {
		t.Fatalf("VideoAPIKey mismatch: got %q", cfg.VideoAPIKey)
	}
	if cfg.SandboxAPIKey != "" {
		t.Fatalf("SandboxAPIKey should be empty, got %q", cfg.SandboxAPIKey)
	}
}
