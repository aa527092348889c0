package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

func TestLoadIncludesExtractionDefaults(t *testing.T) {
	t.Setenv("EXTRACTION_BACKEND", "")
	t.Setenv("EXTRACTION_TIMEOUT", "")
	t.Setenv("EXTRACTION_TEMPERATURE", "")
	t.Setenv("EXTRACTION_MAX_TOKENS", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.ExtractionBackend != BackendOllama {
		t.Fatalf("expected default backend ollama, got %q", cfg.ExtractionBackend)
	}
	if cfg.ExtractionTimeout != 90*time.Second {
		t.Fatalf("expected default extraction timeout 90s, got %s", cfg.ExtractionTimeout)
	}
	if cfg.ExtractionTemperature != 0.3 {
		t.Fatalf("expected default temperature 0.3, got %v", cfg.ExtractionTemperature)
	}
	if cfg.ExtractionMaxTokens != 4000 {
		t.Fatalf("expected default max tokens 4000, got %d", cfg.ExtractionMaxTokens)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected default upload ceiling 10MiB, got %d", cfg.MaxUploadBytes)
	}
	if cfg.NATSSubject != "claims.submissions" {
		t.Fatalf("expected default subject claims.submissions, got %q", cfg.NATSSubject)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("EXTRACTION_BACKEND", "OpenAI")
	t.Setenv("OPENAI_COMPAT_API_KEY", "sk-test")
	t.Setenv("EXTRACTION_TIMEOUT", "45s")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "false")

	cfg := Load()
	if cfg.ExtractionBackend != BackendOpenAI {
		t.Fatalf("expected backend openai, got %q", cfg.ExtractionBackend)
	}
	if cfg.ExtractionTimeout != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %s", cfg.ExtractionTimeout)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.Resilience().BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("EXTRACTION_TIMEOUT", "soon")
	t.Setenv("EXTRACTION_TEMPERATURE", "warm")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "maybe")

	cfg := Load()
	if cfg.ExtractionTimeout != 90*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.ExtractionTimeout)
	}
	if cfg.ExtractionTemperature != 0.3 {
		t.Fatalf("expected fallback temperature, got %v", cfg.ExtractionTemperature)
	}
	if !cfg.ResilienceBreakerEnabled {
		t.Fatalf("expected fallback breaker enabled")
	}
}

func TestValidateRejectsUnknownBackendAndMissingKey(t *testing.T) {
	cfg := Load()
	cfg.ExtractionBackend = "bard"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "EXTRACTION_BACKEND") {
		t.Fatalf("expected backend error, got %v", err)
	}

	cfg.ExtractionBackend = BackendOpenAI
	cfg.OpenAICompatAPIKey = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "OPENAI_COMPAT_API_KEY") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestLoadRulesDefaultsWithoutPath(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if rules.FastTrackThreshold != 25000 || len(rules.FraudKeywords) != 3 {
		t.Fatalf("unexpected default rules: %+v", rules)
	}
}

func TestLoadRulesMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "fast_track_threshold: 10000\nfraud_keywords: [fraud, inconsistent story]\ndefaults:\n  policy_number: PENDING\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if rules.FastTrackThreshold != 10000 {
		t.Fatalf("expected threshold 10000, got %v", rules.FastTrackThreshold)
	}
	if len(rules.FraudKeywords) != 2 || rules.FraudKeywords[1] != "inconsistent story" {
		t.Fatalf("unexpected keywords: %v", rules.FraudKeywords)
	}
	if rules.Defaults.PolicyNumber != "PENDING" {
		t.Fatalf("expected policy default override, got %q", rules.Defaults.PolicyNumber)
	}
	if rules.Defaults.AssetType != domain.AssetVehicle || rules.Defaults.PolicyholderName != "Unknown" {
		t.Fatalf("unset defaults must be kept: %+v", rules.Defaults)
	}
}

func TestLoadRulesRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("fast_track_threshold: -5\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatalf("expected validation error")
	}

	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
