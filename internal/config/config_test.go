package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults_ReturnsValidConfig(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidate_StorageDriver(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Driver = "postgres"
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "storage.driver") {
		t.Fatalf("expected storage.driver error, got %v", err)
	}

	cfg.Storage.Driver = "mongo"
	cfg.Storage.MongoURI = ""
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "mongoURI") {
		t.Fatalf("expected mongoURI error, got %v", err)
	}
}

func TestValidate_BatchLargerThanCap(t *testing.T) {
	cfg := Defaults()
	cfg.Memory.ExtractionBatch = cfg.Memory.MessageCap + 1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for extraction batch above cap")
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Fallbacks = append(cfg.LLM.Fallbacks, cfg.LLM.Chain()[0])
	cfg.LLM.Fallbacks[0].Provider = "claude"
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "claude") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "chatty"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected log level error")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("%q: got %v, %v", in, got, err)
		}
	}
}

func TestLoadSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := Defaults()
	cfg.Storage.Driver = "memory"
	cfg.Dialogue.SuggestionsLimit = 5
	cfg.Colors.SchemeFiles = []string{"/tmp/schemes.yaml"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Storage.Driver != "memory" || loaded.Dialogue.SuggestionsLimit != 5 || loaded.Colors.SchemeFiles[0] != "/tmp/schemes.yaml" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"memory": {"messageCap": 80}}`), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Memory.MessageCap != 80 || cfg.Memory.MemoryCap != 100 || cfg.Storage.Driver != "sqlite" {
		t.Errorf("unexpected config %+v", cfg.Memory)
	}
}

func TestLoad_WithEnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_VILLAGE_KEY", "sk-village")
	t.Setenv("GEMINI_API_KEY", "gm-from-env")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"llm": {
			"provider": "openai",
			"apiKey": "${TEST_VILLAGE_KEY}",
			"model": "${TEST_VILLAGE_MODEL:-gpt-4o}",
			"fallbacks": [{"provider": "gemini"}]
		}
	}`
	os.WriteFile(path, []byte(content), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	chain := cfg.LLM.Chain()
	if len(chain) != 2 {
		t.Fatalf("expected two backends, got %+v", chain)
	}
	if chain[0].APIKey != "sk-village" || chain[0].Model != "gpt-4o" {
		t.Errorf("unexpected primary %+v", chain[0])
	}
	if chain[1].APIKey != "gm-from-env" {
		t.Errorf("expected fallback key from env, got %+v", chain[1])
	}
}

func TestExpandEnvVars_UnsetVarNoDefault_KeepsOriginal(t *testing.T) {
	os.Unsetenv("TOTALLY_UNSET_VILLAGE_VAR")
	in := `"${TOTALLY_UNSET_VILLAGE_VAR}"`
	if got := ExpandEnvVars(in); got != in {
		t.Fatalf("expected %q, got %q", in, got)
	}
}

func TestExpandEnvVars_EmptyVarUsesDefault(t *testing.T) {
	t.Setenv("EMPTY_VILLAGE_VAR", "")
	if got := ExpandEnvVars(`"${EMPTY_VILLAGE_VAR:-fallback}"`); got != `"fallback"` {
		t.Fatalf("expected fallback, got %q", got)
	}
}
