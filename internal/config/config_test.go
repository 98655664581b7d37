package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")
	t.Setenv("TRIAL_DAYS", "")
	t.Setenv("ADMIN_EMAILS", " Boss@Example.com ,ops@example.com,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.JWTExpirationDur != 24*time.Hour {
		t.Errorf("expected 24h fallback, got %v", cfg.JWTExpirationDur)
	}
	if cfg.TrialDays != 3 {
		t.Errorf("expected default trial days 3, got %d", cfg.TrialDays)
	}
	if cfg.ProDays != 30 {
		t.Errorf("expected default pro days 30, got %d", cfg.ProDays)
	}
	if len(cfg.AdminEmails) != 2 {
		t.Fatalf("expected 2 admin emails, got %v", cfg.AdminEmails)
	}
	if !cfg.IsAdminEmail("BOSS@example.com") {
		t.Error("admin email match should be case-insensitive")
	}
	if cfg.IsAdminEmail("someone@example.com") {
		t.Error("unexpected admin match")
	}
}

func TestGetEnvIntRejectsNonPositive(t *testing.T) {
	t.Setenv("PRO_DAYS", "-5")
	if got := getEnvInt("PRO_DAYS", 30); got != 30 {
		t.Errorf("expected fallback 30, got %d", got)
	}
	t.Setenv("PRO_DAYS", "45")
	if got := getEnvInt("PRO_DAYS", 30); got != 45 {
		t.Errorf("expected 45, got %d", got)
	}
}
