// Package config provides configuration management for Lyra.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (LYRA_*)
// 3. Project config (.lyra/config.yaml in cwd)
// 4. Home config (~/.lyra/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all Lyra configuration.
type Config struct {
	// Output controls the default output format (table, json, yaml, markdown).
	Output string `yaml:"output" json:"output"`

	// BaseDir is Lyra's data directory (default: .lyra).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Embedding settings for the Stage D classifier and its lazy-load handle.
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`

	// ResourceMonitor settings gate embedding model loads on free RAM.
	ResourceMonitor ResourceMonitorConfig `yaml:"resource_monitor" json:"resource_monitor"`

	// Reasoning settings tune the depth controller.
	Reasoning ReasoningConfig `yaml:"reasoning" json:"reasoning"`

	// Compression settings tune the conversational context compressor.
	Compression CompressionConfig `yaml:"compression" json:"compression"`

	// Orchestration settings bound the task orchestrator.
	Orchestration OrchestrationConfig `yaml:"orchestration" json:"orchestration"`

	// Ledger settings locate the audit ledger file.
	Ledger LedgerConfig `yaml:"ledger" json:"ledger"`

	// Logging settings control the zap-backed structured logger.
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Advisor settings locate the external reasoning advisor, if any.
	Advisor AdvisorConfig `yaml:"advisor" json:"advisor"`
}

// EmbeddingConfig controls the Stage D classifier's encoder.
type EmbeddingConfig struct {
	// Model names the sentence-encoder model.
	Model string `yaml:"model" json:"model"`
	// LazyLoad defers model load until the first classify call.
	LazyLoad bool `yaml:"lazy_load" json:"lazy_load"`
	// ConfidenceThreshold is the high-confidence cascade cutoff.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
	// MidConfidenceThreshold is the low-confidence cascade cutoff.
	MidConfidenceThreshold float64 `yaml:"mid_confidence_threshold" json:"mid_confidence_threshold"`
	// UnloadAfterSeconds is the idle timeout before the model is released.
	UnloadAfterSeconds int `yaml:"unload_after_seconds" json:"unload_after_seconds"`
	// Device is "cpu" or an accelerator string.
	Device string `yaml:"device" json:"device"`
}

// ResourceMonitorConfig gates embedding loads on available memory.
type ResourceMonitorConfig struct {
	// WarnThresholdGB is the minimum free RAM, in gigabytes, required to
	// permit an embedding model load.
	WarnThresholdGB float64 `yaml:"warn_threshold_gb" json:"warn_threshold_gb"`
}

// ReasoningConfig tunes the depth controller's thresholds.
type ReasoningConfig struct {
	// PlanningKeywords supplements the built-in planning-keyword set.
	PlanningKeywords []string `yaml:"planning_keywords" json:"planning_keywords"`
	// AmbiguityBoundary is the ambiguity score above which depth escalates to DEEP.
	AmbiguityBoundary float64 `yaml:"ambiguity_boundary" json:"ambiguity_boundary"`
	// TurnCountFloor is the maximum turn count still eligible for SHALLOW depth.
	TurnCountFloor int `yaml:"turn_count_floor" json:"turn_count_floor"`
}

// CompressionConfig tunes the conversational context compressor.
type CompressionConfig struct {
	// TriggerTurnCount is the turn count at which compression activates.
	TriggerTurnCount int `yaml:"trigger_turn_count" json:"trigger_turn_count"`
	// PreserveCount is how many of the most recent turns are kept verbatim.
	PreserveCount int `yaml:"preserve_count" json:"preserve_count"`
}

// OrchestrationConfig bounds the task orchestrator.
type OrchestrationConfig struct {
	// MaxSteps is the hard ceiling on an orchestrator plan's length.
	MaxSteps int `yaml:"max_steps" json:"max_steps"`
	// MaxIntentRepetitions is the loop-prevention ceiling.
	MaxIntentRepetitions int `yaml:"max_intent_repetitions" json:"max_intent_repetitions"`
	// GlobalTimeoutSeconds bounds the orchestrator's entire run.
	GlobalTimeoutSeconds int `yaml:"global_timeout_seconds" json:"global_timeout_seconds"`
}

// LedgerConfig locates the audit ledger file.
type LedgerConfig struct {
	// Path is the JSONL ledger file's location, used as given: a relative
	// path resolves against the working directory, not BaseDir.
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig controls where and how verbosely lyra logs.
type LoggingConfig struct {
	// Path is the structured log file's location, used as given: a relative
	// path resolves against the working directory, not BaseDir.
	Path string `yaml:"path" json:"path"`
	// Level is the minimum zap level: debug, info, warn, or error.
	Level string `yaml:"level" json:"level"`
}

// AdvisorConfig locates the external reasoning advisor. APIKey is left
// empty by default; app.New leaves the advisor unwired until it is set,
// since lyra ships no credentials of its own.
type AdvisorConfig struct {
	// APIKey authenticates against the advisor endpoint. Empty disables it.
	APIKey string `yaml:"api_key" json:"api_key"`
	// Model names the chat-completion model to request.
	Model string `yaml:"model" json:"model"`
	// BaseURL overrides the default endpoint for a self-hosted or proxied model.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput  = "table"
	defaultBaseDir = ".lyra"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:  defaultOutput,
		BaseDir: defaultBaseDir,
		Verbose: false,
		Embedding: EmbeddingConfig{
			Model:                  "all-MiniLM-L6-v2",
			LazyLoad:               true,
			ConfidenceThreshold:    0.75,
			MidConfidenceThreshold: 0.5,
			UnloadAfterSeconds:     600,
			Device:                 "cpu",
		},
		ResourceMonitor: ResourceMonitorConfig{
			WarnThresholdGB: 0.5,
		},
		Reasoning: ReasoningConfig{
			AmbiguityBoundary: 0.5,
			TurnCountFloor:    2,
		},
		Compression: CompressionConfig{
			TriggerTurnCount: 20,
			PreserveCount:    6,
		},
		Orchestration: OrchestrationConfig{
			MaxSteps:             6,
			MaxIntentRepetitions: 3,
			GlobalTimeoutSeconds: 10,
		},
		Ledger: LedgerConfig{
			Path: "ledger.jsonl",
		},
		Logging: LoggingConfig{
			Path:  "lyra.log",
			Level: "info",
		},
		Advisor: AdvisorConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	// Load home config
	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	// Load project config
	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	// Apply environment variables
	cfg = applyEnv(cfg)

	// Apply flag overrides
	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lyra", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("LYRA_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".lyra", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("LYRA_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LYRA_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if os.Getenv("LYRA_VERBOSE") == "true" || os.Getenv("LYRA_VERBOSE") == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("LYRA_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("LYRA_EMBEDDING_LAZY_LOAD"); v != "" {
		cfg.Embedding.LazyLoad = v == "true" || v == "1"
	}
	if v, ok := envFloat("LYRA_EMBEDDING_CONFIDENCE_THRESHOLD"); ok {
		cfg.Embedding.ConfidenceThreshold = v
	}
	if v, ok := envFloat("LYRA_EMBEDDING_MID_CONFIDENCE_THRESHOLD"); ok {
		cfg.Embedding.MidConfidenceThreshold = v
	}
	if v, ok := envInt("LYRA_EMBEDDING_UNLOAD_AFTER_SECONDS"); ok {
		cfg.Embedding.UnloadAfterSeconds = v
	}
	if v := os.Getenv("LYRA_EMBEDDING_DEVICE"); v != "" {
		cfg.Embedding.Device = v
	}
	if v, ok := envFloat("LYRA_RESOURCE_MONITOR_WARN_THRESHOLD_GB"); ok {
		cfg.ResourceMonitor.WarnThresholdGB = v
	}
	if v, ok := envFloat("LYRA_REASONING_AMBIGUITY_BOUNDARY"); ok {
		cfg.Reasoning.AmbiguityBoundary = v
	}
	if v, ok := envInt("LYRA_REASONING_TURN_COUNT_FLOOR"); ok {
		cfg.Reasoning.TurnCountFloor = v
	}
	if v, ok := envInt("LYRA_COMPRESSION_TRIGGER_TURN_COUNT"); ok {
		cfg.Compression.TriggerTurnCount = v
	}
	if v, ok := envInt("LYRA_COMPRESSION_PRESERVE_COUNT"); ok {
		cfg.Compression.PreserveCount = v
	}
	if v, ok := envInt("LYRA_ORCHESTRATION_MAX_STEPS"); ok {
		cfg.Orchestration.MaxSteps = v
	}
	if v, ok := envInt("LYRA_ORCHESTRATION_MAX_INTENT_REPETITIONS"); ok {
		cfg.Orchestration.MaxIntentRepetitions = v
	}
	if v, ok := envInt("LYRA_ORCHESTRATION_GLOBAL_TIMEOUT_SECONDS"); ok {
		cfg.Orchestration.GlobalTimeoutSeconds = v
	}
	if v := os.Getenv("LYRA_LEDGER_PATH"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("LYRA_LOGGING_PATH"); v != "" {
		cfg.Logging.Path = v
	}
	if v := os.Getenv("LYRA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LYRA_ADVISOR_API_KEY"); v != "" {
		cfg.Advisor.APIKey = v
	}
	if v := os.Getenv("LYRA_ADVISOR_MODEL"); v != "" {
		cfg.Advisor.Model = v
	}
	if v := os.Getenv("LYRA_ADVISOR_BASE_URL"); v != "" {
		cfg.Advisor.BaseURL = v
	}
	return cfg
}

func envFloat(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	if src.Output != "" {
		dst.Output = src.Output
	}
	if src.BaseDir != "" {
		dst.BaseDir = src.BaseDir
	}
	if src.Verbose {
		dst.Verbose = true
	}

	if src.Embedding.Model != "" {
		dst.Embedding.Model = src.Embedding.Model
	}
	if src.Embedding.LazyLoad {
		dst.Embedding.LazyLoad = true
	}
	if src.Embedding.ConfidenceThreshold != 0 {
		dst.Embedding.ConfidenceThreshold = src.Embedding.ConfidenceThreshold
	}
	if src.Embedding.MidConfidenceThreshold != 0 {
		dst.Embedding.MidConfidenceThreshold = src.Embedding.MidConfidenceThreshold
	}
	if src.Embedding.UnloadAfterSeconds != 0 {
		dst.Embedding.UnloadAfterSeconds = src.Embedding.UnloadAfterSeconds
	}
	if src.Embedding.Device != "" {
		dst.Embedding.Device = src.Embedding.Device
	}

	if src.ResourceMonitor.WarnThresholdGB != 0 {
		dst.ResourceMonitor.WarnThresholdGB = src.ResourceMonitor.WarnThresholdGB
	}

	if len(src.Reasoning.PlanningKeywords) > 0 {
		dst.Reasoning.PlanningKeywords = src.Reasoning.PlanningKeywords
	}
	if src.Reasoning.AmbiguityBoundary != 0 {
		dst.Reasoning.AmbiguityBoundary = src.Reasoning.AmbiguityBoundary
	}
	if src.Reasoning.TurnCountFloor != 0 {
		dst.Reasoning.TurnCountFloor = src.Reasoning.TurnCountFloor
	}

	if src.Compression.TriggerTurnCount != 0 {
		dst.Compression.TriggerTurnCount = src.Compression.TriggerTurnCount
	}
	if src.Compression.PreserveCount != 0 {
		dst.Compression.PreserveCount = src.Compression.PreserveCount
	}

	if src.Orchestration.MaxSteps != 0 {
		dst.Orchestration.MaxSteps = src.Orchestration.MaxSteps
	}
	if src.Orchestration.MaxIntentRepetitions != 0 {
		dst.Orchestration.MaxIntentRepetitions = src.Orchestration.MaxIntentRepetitions
	}
	if src.Orchestration.GlobalTimeoutSeconds != 0 {
		dst.Orchestration.GlobalTimeoutSeconds = src.Orchestration.GlobalTimeoutSeconds
	}

	if src.Ledger.Path != "" {
		dst.Ledger.Path = src.Ledger.Path
	}

	if src.Logging.Path != "" {
		dst.Logging.Path = src.Logging.Path
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}

	if src.Advisor.APIKey != "" {
		dst.Advisor.APIKey = src.Advisor.APIKey
	}
	if src.Advisor.Model != "" {
		dst.Advisor.Model = src.Advisor.Model
	}
	if src.Advisor.BaseURL != "" {
		dst.Advisor.BaseURL = src.Advisor.BaseURL
	}

	return dst
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.lyra/config.yaml"
	SourceProject Source = ".lyra/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// resolveStringField resolves a string through the precedence chain.
// Returns the resolved value and its source.
func resolveStringField(home, project, env, flag, def string) resolved {
	result := resolved{Value: def, Source: SourceDefault}
	if home != "" {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = resolved{Value: flag, Source: SourceFlag}
	}
	return result
}

// ResolvedConfig shows config values with their sources. No CLI command
// prints it; Resolve is exercised by the package's tests.
type ResolvedConfig struct {
	Output  resolved `json:"output"`
	BaseDir resolved `json:"base_dir"`
	Verbose resolved `json:"verbose"`
}

type resolved struct {
	Value  interface{} `json:"value"`
	Source Source      `json:"source"`
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
func Resolve(flagOutput, flagBaseDir string, flagVerbose bool) *ResolvedConfig {
	homeConfig, _ := loadFromPath(homeConfigPath())
	projectConfig, _ := loadFromPath(projectConfigPath())

	var homeOutput, homeBaseDir string
	var homeVerbose bool
	if homeConfig != nil {
		homeOutput = homeConfig.Output
		homeBaseDir = homeConfig.BaseDir
		homeVerbose = homeConfig.Verbose
	}

	var projectOutput, projectBaseDir string
	var projectVerbose bool
	if projectConfig != nil {
		projectOutput = projectConfig.Output
		projectBaseDir = projectConfig.BaseDir
		projectVerbose = projectConfig.Verbose
	}

	envOutput := os.Getenv("LYRA_OUTPUT")
	envBaseDir := os.Getenv("LYRA_BASE_DIR")
	envVerboseRaw := os.Getenv("LYRA_VERBOSE")
	envVerbose := envVerboseRaw == "true" || envVerboseRaw == "1"

	rc := &ResolvedConfig{
		Output:  resolveStringField(homeOutput, projectOutput, envOutput, flagOutput, defaultOutput),
		BaseDir: resolveStringField(homeBaseDir, projectBaseDir, envBaseDir, flagBaseDir, defaultBaseDir),
		Verbose: resolved{Value: false, Source: SourceDefault},
	}

	if homeVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceHome}
	}
	if projectVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceProject}
	}
	if envVerboseRaw != "" && envVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceEnv}
	}
	if flagVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceFlag}
	}

	return rc
}
