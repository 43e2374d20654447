package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/genstudio")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.FalBaseURL != "https://queue.fal.run" {
		t.Fatalf("fal base url = %q", cfg.FalBaseURL)
	}
	if cfg.HTTPWriteTimeout != 300*time.Second {
		t.Fatalf("write timeout = %s, want 300s", cfg.HTTPWriteTimeout)
	}
	if cfg.VoucherLockAttempts != 5 {
		t.Fatalf("lock attempts = %d, want 5", cfg.VoucherLockAttempts)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/genstudio")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_READ_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("VIDEO_JOB_MAX_AGE_MINUTES", "30")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Fatalf("invalid int should fall back, got %s", cfg.HTTPReadTimeout)
	}
	if cfg.VideoJobMaxAge != 30*time.Minute {
		t.Fatalf("video job max age = %s, want 30m", cfg.VideoJobMaxAge)
	}
}
