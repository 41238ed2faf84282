// Package config loads and validates the debugging engine's configuration,
// modelled on the teacher's config package: a single nested Config struct,
// YAML tags, and a DefaultConfig constructor.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TierConfig holds per-tier attempt budgets (spec.md §4.9).
type TierConfig struct {
	MaxQuickFixAttempts  int `yaml:"max_quick_fix_attempts"`
	MaxFullDebugAttempts int `yaml:"max_full_debug_attempts"`
	MaxRestartAttempts   int `yaml:"max_restart_attempts"`
}

// LLMConfig drives the LLM Fabric's retry and fallback behavior (spec.md §4.4).
type LLMConfig struct {
	DefaultTimeoutSeconds float64 `yaml:"llm_default_timeout"`
	MaxRetries            int     `yaml:"llm_max_retries"`
	InitialBackoffSeconds float64 `yaml:"llm_initial_backoff"`
	BackoffFactor         float64 `yaml:"llm_backoff_factor"`
	FallbackStrategy      string  `yaml:"llm_fallback_strategy"` // "none" | "retry_simplified"
	ExplainPromptMaxLen   int     `yaml:"llm_explain_prompt_max_len"`
	ExplainResponseMaxLen int     `yaml:"llm_explain_response_max_len"`

	// PrefixCacheTokens is the number of leading prompt tokens hashed for the
	// prefix-KV cache lookup (spec.md §3, default 50).
	PrefixCacheTokens int `yaml:"prefix_cache_tokens"`

	// CacheCapacity bounds the in-memory LRU semantic cache built by
	// llmfabric.NewSemanticCache (spec.md §3).
	CacheCapacity int `yaml:"cache_capacity"`

	// SqliteCachePath, when non-empty, makes llmfabric.NewSemanticCache return
	// a modernc.org/sqlite-backed store shared across processes (resolves the
	// locality Open Question in spec.md §9).
	SqliteCachePath string `yaml:"sqlite_cache_path"`
}

// ScratchpadConfig drives the Chain-of-Thought scratchpad (spec.md §4.3).
type ScratchpadConfig struct {
	LogDir            string `yaml:"scratchpad_log_dir"`
	MaxSessions       int    `yaml:"scratchpad_max_sessions"`
	MaxFileSizeMB     int    `yaml:"scratchpad_max_file_size_mb"`
	EnableEncryption  bool   `yaml:"scratchpad_enable_encryption"`
	EncryptionSecret  string `yaml:"scratchpad_encryption_secret"`
	RecentEntriesSize int    `yaml:"scratchpad_recent_entries_size"`
}

// ThresholdConfig holds the float thresholds spec.md §6 names.
type ThresholdConfig struct {
	ComplexityThreshold    float64 `yaml:"complexity_threshold"`
	MutationScoreThreshold float64 `yaml:"mutation_score_threshold"`
}

// LoggingConfig controls the ambient logging stack.
type LoggingConfig struct {
	DebugMode bool `yaml:"debug_mode"`
}

// Config is the single recognised configuration struct (spec.md §6).
type Config struct {
	Tiers      TierConfig       `yaml:"tiers"`
	LLM        LLMConfig        `yaml:"llm"`
	Scratchpad ScratchpadConfig `yaml:"scratchpad"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Default tier budgets per spec.md §4.9.
const (
	DefaultMaxGeneratorAttempts = 2
	DefaultMaxDebuggerAttempts  = 3
	DefaultMaxRestartAttempts   = 2
)

// DefaultConfig returns the spec's documented defaults (spec.md §4.4, §4.9).
func DefaultConfig() *Config {
	return &Config{
		Tiers: TierConfig{
			MaxQuickFixAttempts:  DefaultMaxGeneratorAttempts,
			MaxFullDebugAttempts: DefaultMaxDebuggerAttempts,
			MaxRestartAttempts:   DefaultMaxRestartAttempts,
		},
		LLM: LLMConfig{
			DefaultTimeoutSeconds: 60,
			MaxRetries:            3,
			InitialBackoffSeconds: 1,
			BackoffFactor:         2.0,
			FallbackStrategy:      "none",
			ExplainPromptMaxLen:   4000,
			ExplainResponseMaxLen: 4000,
			PrefixCacheTokens:     50,
			CacheCapacity:         512,
		},
		Scratchpad: ScratchpadConfig{
			LogDir:            ".wrenchbot/scratchpad",
			MaxSessions:       10,
			MaxFileSizeMB:     5,
			EnableEncryption:  false,
			RecentEntriesSize: 100,
		},
		Thresholds: ThresholdConfig{
			ComplexityThreshold:    0.7,
			MutationScoreThreshold: 70,
		},
		Logging: LoggingConfig{DebugMode: false},
	}
}

// Load reads a YAML configuration file, overlaying it on DefaultConfig so
// missing keys keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is in a usable range.
func (c *Config) Validate() error {
	if c.Tiers.MaxQuickFixAttempts < 0 || c.Tiers.MaxFullDebugAttempts < 0 || c.Tiers.MaxRestartAttempts < 0 {
		return fmt.Errorf("config: tier attempt budgets must be >= 0")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("config: llm_max_retries must be >= 0")
	}
	if c.LLM.FallbackStrategy != "none" && c.LLM.FallbackStrategy != "retry_simplified" {
		return fmt.Errorf("config: llm_fallback_strategy must be 'none' or 'retry_simplified'")
	}
	if c.Scratchpad.MaxSessions < 1 {
		return fmt.Errorf("config: scratchpad_max_sessions must be >= 1")
	}
	if c.Scratchpad.MaxFileSizeMB < 1 {
		return fmt.Errorf("config: scratchpad_max_file_size_mb must be >= 1")
	}
	return nil
}
