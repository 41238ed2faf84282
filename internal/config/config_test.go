package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Tiers.MaxQuickFixAttempts != DefaultMaxGeneratorAttempts {
		t.Errorf("expected MaxQuickFixAttempts=%d, got %d", DefaultMaxGeneratorAttempts, cfg.Tiers.MaxQuickFixAttempts)
	}
	if cfg.LLM.FallbackStrategy != "none" {
		t.Errorf("expected FallbackStrategy=none, got %s", cfg.LLM.FallbackStrategy)
	}
	if cfg.Thresholds.MutationScoreThreshold != 70 {
		t.Errorf("expected MutationScoreThreshold=70, got %v", cfg.Thresholds.MutationScoreThreshold)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.MaxRetries != 3 {
		t.Errorf("expected default MaxRetries=3, got %d", cfg.LLM.MaxRetries)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := "llm:\n  llm_max_retries: 5\n  llm_fallback_strategy: retry_simplified\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.MaxRetries != 5 {
		t.Errorf("expected MaxRetries=5, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.LLM.FallbackStrategy != "retry_simplified" {
		t.Errorf("expected overridden FallbackStrategy, got %s", cfg.LLM.FallbackStrategy)
	}
	// untouched defaults survive the overlay
	if cfg.Scratchpad.MaxSessions != 10 {
		t.Errorf("expected default MaxSessions=10, got %d", cfg.Scratchpad.MaxSessions)
	}
}

func TestValidate_RejectsBadFallbackStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.FallbackStrategy = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid fallback strategy")
	}
}

func TestValidate_RejectsNegativeBudgets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tiers.MaxRestartAttempts = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative restart budget")
	}
}
