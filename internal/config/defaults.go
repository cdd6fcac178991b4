package config

import (
	"path/filepath"

	"github.com/rcliao/village-sim/internal/dialogue"
	"github.com/rcliao/village-sim/internal/memory"
)

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Storage: StorageConfig{
			Driver:        "sqlite",
			Path:          filepath.Join(DefaultConfigDir(), "village.db"),
			MongoDatabase: "village",
		},
		Memory: MemoryConfig{
			MessageCap:         memory.DefaultMessageCap,
			ExtractionBatch:    memory.DefaultExtractionBatch,
			MemoryCap:          memory.DefaultMemoryCap,
			ConsolidationBatch: memory.DefaultConsolidationBatch,
			CoreCap:            memory.DefaultCoreCap,
			TimeoutSeconds:     int(memory.DefaultPromotionTimeout.Seconds()),
		},
		Dialogue: DialogueConfig{
			BatchIntervalMs:  int(dialogue.DefaultBatchInterval.Milliseconds()),
			SuggestionsLimit: dialogue.DefaultMaxSuggestions,
			HistoryLimit:     10,
		},
		LLM: LLMConfig{
			Provider: "openai",
		},
	}
}
