// Package cli implements the village CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rcliao/village-sim/internal/config"
	"github.com/rcliao/village-sim/internal/llm"
	"github.com/rcliao/village-sim/internal/memory"
	"github.com/rcliao/village-sim/internal/store"
	"github.com/rcliao/village-sim/internal/tilecolor"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	driverFlag string
	logLevel   string
	formatFlag string

	cfg    *config.Config
	logger *slog.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "village",
	Short: "Tile colors and NPC memory for a cozy village",
	Long: "Resolve tile colors across schemes, seasons and times of day, " +
		"and talk to villagers who remember you. SQLite-backed by default.",
	PersistentPreRunE: bootstrap,
	SilenceUsage:      true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $VILLAGE_DB or storage.path from config)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.village/config.json)")
	RootCmd.PersistentFlags().StringVar(&driverFlag, "storage", "", "Storage driver: sqlite, mongo or memory (default: from config)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// bootstrap loads .env, the config file and the logger before any command runs.
func bootstrap(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	var err error
	cfg, err = loadConfig()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.General.LogLevel = logLevel
	}
	if driverFlag != "" {
		cfg.Storage.Driver = driverFlag
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}
	level, err := config.ParseLogLevel(cfg.General.LogLevel)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	switch formatFlag {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q (want json or text)", formatFlag)
	}
	return nil
}

// loadConfig reads the config file. A missing default file means defaults;
// a missing file named with --config is an error.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			c := config.Defaults()
			c.ApplyEnv()
			return c, nil
		}
	}
	return config.Load(path)
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("VILLAGE_DB"); env != "" {
		return env
	}
	return cfg.Storage.Path
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Storage.Driver {
	case "mongo":
		s, err := store.NewMongoStore(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return store.NewMemStore(), nil
	default:
		s, err := store.NewSQLiteStore(getDBPath())
		if err != nil {
			return nil, err
		}
		if cfg.Storage.HistoryLimit > 0 {
			s.SetHistoryLimit(cfg.Storage.HistoryLimit)
		}
		return s, nil
	}
}

// newLLM builds the configured backend chain. ErrNoProvider is returned
// when no backend has a usable key.
func newLLM(ctx context.Context) (llm.Streamer, error) {
	return llm.New(ctx, cfg.LLM.Chain(), logger)
}

// newManager wires a memory manager over s. Promotion output is disabled
// when no LLM is configured.
func newManager(ctx context.Context, s store.Store) *memory.Manager {
	var gen llm.Generator
	if backend, err := newLLM(ctx); err == nil {
		gen = backend
	} else {
		logger.Debug("memory promotion disabled", "err", err)
	}

	mc := cfg.Memory
	var day func() int
	if cfg.General.Day > 0 {
		d := cfg.General.Day
		day = func() int { return d }
	}
	return memory.NewManager(memory.Config{
		Store:              s,
		Generator:          gen,
		Logger:             logger,
		MessageCap:         mc.MessageCap,
		ExtractionBatch:    mc.ExtractionBatch,
		MemoryCap:          mc.MemoryCap,
		ConsolidationBatch: mc.ConsolidationBatch,
		CoreCap:            mc.CoreCap,
		PromotionTimeout:   time.Duration(mc.TimeoutSeconds) * time.Second,
		Day:                day,
	})
}

// newResolver builds the palette and scheme store, layering configured
// files over the built-in defaults.
func newResolver() (*tilecolor.Resolver, *tilecolor.Palette, *tilecolor.SchemeStore, error) {
	palette := tilecolor.DefaultPalette(logger)
	schemes := tilecolor.NewDefaultSchemeStore()

	if f := cfg.Colors.PaletteFile; f != "" {
		n, err := tilecolor.LoadPaletteFile(f, palette)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Debug("palette loaded", "file", f, "colors", n)
	}
	for _, f := range cfg.Colors.SchemeFiles {
		n, err := tilecolor.LoadSchemeFile(f, schemes)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Debug("schemes loaded", "file", f, "schemes", n)
	}
	return tilecolor.NewResolver(palette, schemes, logger), palette, schemes, nil
}

// readInput returns args joined by spaces, or stdin when it is piped.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	stat, _ := os.Stdin.Stat()
	if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
