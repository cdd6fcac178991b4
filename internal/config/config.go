// Package config loads the village JSON configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rcliao/village-sim/internal/llm"
)

// Config is the root configuration.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Storage  StorageConfig  `json:"storage"`
	Memory   MemoryConfig   `json:"memory"`
	Dialogue DialogueConfig `json:"dialogue"`
	LLM      LLMConfig      `json:"llm"`
	Colors   ColorsConfig   `json:"colors"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	Day      int    `json:"day,omitempty"` // in-game day recorded on new memories
}

type StorageConfig struct {
	Driver        string `json:"driver"` // sqlite | mongo | memory
	Path          string `json:"path,omitempty"`
	MongoURI      string `json:"mongoURI,omitempty"`
	MongoDatabase string `json:"mongoDatabase,omitempty"`
	HistoryLimit  int    `json:"historyLimit,omitempty"` // sqlite superseded rows kept per key
}

type MemoryConfig struct {
	MessageCap         int `json:"messageCap"`
	ExtractionBatch    int `json:"extractionBatch"`
	MemoryCap          int `json:"memoryCap"`
	ConsolidationBatch int `json:"consolidationBatch"`
	CoreCap            int `json:"coreCap"`
	TimeoutSeconds     int `json:"timeoutSeconds"`
}

type DialogueConfig struct {
	BatchIntervalMs  int `json:"batchIntervalMs"`
	SuggestionsLimit int `json:"suggestionsLimit"`
	HistoryLimit     int `json:"historyLimit"`
}

// LLMConfig is the primary backend plus optional fallbacks, tried in order.
type LLMConfig struct {
	Provider  string              `json:"provider"`
	Model     string              `json:"model,omitempty"`
	APIKey    string              `json:"apiKey,omitempty"`
	BaseURL   string              `json:"baseURL,omitempty"`
	Fallbacks []llm.BackendConfig `json:"fallbacks,omitempty"`
}

// Chain returns the backends in failover order.
func (c LLMConfig) Chain() []llm.BackendConfig {
	var chain []llm.BackendConfig
	if c.Provider != "" {
		chain = append(chain, llm.BackendConfig{Provider: c.Provider, Model: c.Model, APIKey: c.APIKey, BaseURL: c.BaseURL})
	}
	return append(chain, c.Fallbacks...)
}

type ColorsConfig struct {
	PaletteFile string   `json:"paletteFile,omitempty"`
	SchemeFiles []string `json:"schemeFiles,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.village).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".village"
	}
	return filepath.Join(home, ".village")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads, expands and validates the config at path. Missing fields keep
// their defaults.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Storage.Path = ExpandPath(cfg.Storage.Path)
	cfg.Colors.PaletteFile = ExpandPath(cfg.Colors.PaletteFile)
	for i, f := range cfg.Colors.SchemeFiles {
		cfg.Colors.SchemeFiles[i] = ExpandPath(f)
	}

	cfg.ApplyEnv()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// providerKeyEnv names the environment variable holding each provider's key.
var providerKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// ApplyEnv fills unset API keys and the mongo URI from the environment.
func (c *Config) ApplyEnv() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(providerKeyEnv[c.LLM.Provider])
	}
	for i := range c.LLM.Fallbacks {
		fb := &c.LLM.Fallbacks[i]
		if fb.APIKey == "" {
			fb.APIKey = os.Getenv(providerKeyEnv[fb.Provider])
		}
	}
	if c.Storage.MongoURI == "" {
		c.Storage.MongoURI = os.Getenv("MONGODB_URI")
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment value. ${VAR:-default}
// uses default when VAR is unset or empty; an unset ${VAR} is left as is.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		hasDefault := groups[2] != ""
		val, ok := os.LookupEnv(groups[1])
		if !ok || val == "" {
			if hasDefault {
				return groups[2]
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has usable values.
func Validate(cfg *Config) error {
	var errs []string

	if _, err := ParseLogLevel(cfg.General.LogLevel); err != nil {
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	switch cfg.Storage.Driver {
	case "sqlite", "memory":
	case "mongo":
		if cfg.Storage.MongoURI == "" {
			errs = append(errs, "storage.mongoURI is required for the mongo driver")
		}
	default:
		errs = append(errs, "storage.driver must be one of: sqlite, mongo, memory")
	}

	m := cfg.Memory
	if m.MessageCap < 1 {
		errs = append(errs, "memory.messageCap must be >= 1")
	}
	if m.ExtractionBatch < 1 || m.ExtractionBatch > m.MessageCap {
		errs = append(errs, "memory.extractionBatch must be between 1 and memory.messageCap")
	}
	if m.MemoryCap < 1 {
		errs = append(errs, "memory.memoryCap must be >= 1")
	}
	if m.ConsolidationBatch < 1 || m.ConsolidationBatch > m.MemoryCap {
		errs = append(errs, "memory.consolidationBatch must be between 1 and memory.memoryCap")
	}
	if m.CoreCap < 1 {
		errs = append(errs, "memory.coreCap must be >= 1")
	}
	if m.TimeoutSeconds < 1 {
		errs = append(errs, "memory.timeoutSeconds must be >= 1")
	}

	if cfg.Dialogue.BatchIntervalMs < 1 {
		errs = append(errs, "dialogue.batchIntervalMs must be >= 1")
	}
	if cfg.Dialogue.SuggestionsLimit < 1 || cfg.Dialogue.SuggestionsLimit > 10 {
		errs = append(errs, "dialogue.suggestionsLimit must be between 1 and 10")
	}
	if cfg.Dialogue.HistoryLimit < 0 {
		errs = append(errs, "dialogue.historyLimit must be >= 0")
	}

	for i, bc := range cfg.LLM.Chain() {
		switch bc.Provider {
		case "openai", "gemini":
		default:
			errs = append(errs, fmt.Sprintf("llm backend %d: provider must be openai or gemini, got %q", i, bc.Provider))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ParseLogLevel maps a level name to a slog.Level. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// ExpandPath resolves a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
