// Package memory keeps three tiers of per-NPC conversational memory: recent
// chat messages, long-term memories and consolidated core memories. Overflow
// in one tier is promoted into the next by a generation call that runs in the
// background.
//
// Tier writes replace the whole JSON array under the tier key. Overlapping
// promotions for the same NPC are not serialized, so the last write wins.
// Every write bumps the key's store version, which Epoch exposes so the
// winner can be identified.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/village-sim/internal/llm"
	"github.com/rcliao/village-sim/internal/model"
	"github.com/rcliao/village-sim/internal/store"
)

// Defaults for Config.
const (
	DefaultMessageCap         = 50
	DefaultExtractionBatch    = 20
	DefaultMemoryCap          = 100
	DefaultConsolidationBatch = 30
	DefaultCoreCap            = 100
	DefaultPromotionTimeout   = 60 * time.Second
)

// Config configures a Manager. Zero values take the defaults above.
type Config struct {
	Store     store.Store
	Generator llm.Generator // nil disables promotion output
	Logger    *slog.Logger

	MessageCap         int
	ExtractionBatch    int
	MemoryCap          int
	ConsolidationBatch int
	CoreCap            int
	PromotionTimeout   time.Duration

	// Day returns the current in-game day, recorded as a memory's source day.
	Day func() int
	Now func() time.Time
}

// Manager owns the memory tiers of every NPC.
type Manager struct {
	cfg    Config
	store  store.Store
	gen    llm.Generator
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewManager creates a Manager over cfg.Store.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MessageCap <= 0 {
		cfg.MessageCap = DefaultMessageCap
	}
	if cfg.ExtractionBatch <= 0 {
		cfg.ExtractionBatch = DefaultExtractionBatch
	}
	if cfg.MemoryCap <= 0 {
		cfg.MemoryCap = DefaultMemoryCap
	}
	if cfg.ConsolidationBatch <= 0 {
		cfg.ConsolidationBatch = DefaultConsolidationBatch
	}
	if cfg.CoreCap <= 0 {
		cfg.CoreCap = DefaultCoreCap
	}
	if cfg.PromotionTimeout <= 0 {
		cfg.PromotionTimeout = DefaultPromotionTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{cfg: cfg, store: cfg.Store, gen: cfg.Generator, logger: cfg.Logger}
}

// AppendMessage adds a chat line for npc. When the log grows past the cap the
// oldest batch is handed to a background extraction and the log is truncated
// to the most recent MessageCap lines before returning.
func (m *Manager) AppendMessage(ctx context.Context, npc string, role model.Role, content string) error {
	if npc == "" {
		return fmt.Errorf("npc id is required")
	}
	if !model.ValidRoles[role] {
		return fmt.Errorf("invalid role: %q", role)
	}

	msgs, err := m.Messages(ctx, npc)
	if err != nil {
		return err
	}
	msgs = append(msgs, model.ChatMessage{Role: role, Content: content, Timestamp: m.cfg.Now().UTC()})

	var batch []model.ChatMessage
	if len(msgs) > m.cfg.MessageCap {
		n := min(m.cfg.ExtractionBatch, len(msgs))
		batch = append([]model.ChatMessage(nil), msgs[:n]...)
		msgs = msgs[len(msgs)-m.cfg.MessageCap:]
	}

	if _, err := saveTier(ctx, m.store, TierChat, npc, msgs); err != nil {
		return err
	}

	if batch != nil {
		m.logger.Info("message log full, extracting", "npc", npc, "batch", len(batch))
		m.promote(ctx, "extraction", npc, func(ctx context.Context) {
			m.runExtraction(ctx, npc, batch)
		})
	}
	return nil
}

// AddMemory adds a long-term memory for npc, filling in the id, timestamp,
// importance and source day when unset.
func (m *Manager) AddMemory(ctx context.Context, npc string, mem model.Memory) (model.Memory, error) {
	if npc == "" {
		return mem, fmt.Errorf("npc id is required")
	}
	if !model.ValidCategories[mem.Category] {
		return mem, fmt.Errorf("invalid category: %q", mem.Category)
	}
	mem = m.fill(mem)
	return mem, m.addMemories(ctx, npc, []model.Memory{mem})
}

func (m *Manager) fill(mem model.Memory) model.Memory {
	if mem.ID == "" {
		mem.ID = ulid.Make().String()
	}
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = m.cfg.Now().UTC()
	}
	if mem.Importance == 0 {
		mem.Importance = model.DefaultImportance(mem.Category)
	}
	if mem.SourceDay == nil && m.cfg.Day != nil {
		d := m.cfg.Day()
		mem.SourceDay = &d
	}
	return mem
}

// addMemories appends to the long-term tier. On overflow the oldest records
// are removed synchronously, at least ConsolidationBatch of them, and handed
// to a background consolidation.
func (m *Manager) addMemories(ctx context.Context, npc string, add []model.Memory) error {
	mems, err := m.Memories(ctx, npc)
	if err != nil {
		return err
	}
	mems = append(mems, add...)

	var batch []model.Memory
	if len(mems) > m.cfg.MemoryCap {
		n := min(max(m.cfg.ConsolidationBatch, len(mems)-m.cfg.MemoryCap), len(mems))
		batch = append([]model.Memory(nil), mems[:n]...)
		mems = mems[n:]
	}

	if _, err := saveTier(ctx, m.store, TierMemory, npc, mems); err != nil {
		return err
	}

	if batch != nil {
		m.logger.Info("memory tier full, consolidating", "npc", npc, "batch", len(batch))
		m.promote(ctx, "consolidation", npc, func(ctx context.Context) {
			m.runConsolidation(ctx, npc, batch)
		})
	}
	return nil
}

// promote runs fn in the background. It outlives the caller's context but is
// bounded by PromotionTimeout.
func (m *Manager) promote(parent context.Context, kind, npc string, fn func(context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), m.cfg.PromotionTimeout)
		defer cancel()
		start := time.Now()
		fn(ctx)
		m.logger.Debug("promotion finished", "kind", kind, "npc", npc, "elapsed", time.Since(start))
	}()
}

// Wait blocks until every in-flight promotion has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Messages returns the recent chat log of npc, oldest first.
func (m *Manager) Messages(ctx context.Context, npc string) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	_, err := loadTier(ctx, m.store, TierChat, npc, &out)
	return out, err
}

// Memories returns the long-term memories of npc, oldest first.
func (m *Manager) Memories(ctx context.Context, npc string) ([]model.Memory, error) {
	var out []model.Memory
	_, err := loadTier(ctx, m.store, TierMemory, npc, &out)
	return out, err
}

// CoreMemories returns the core memories of npc, oldest first.
func (m *Manager) CoreMemories(ctx context.Context, npc string) ([]model.CoreMemory, error) {
	var out []model.CoreMemory
	_, err := loadTier(ctx, m.store, TierCore, npc, &out)
	return out, err
}

// Epoch returns the write version of one tier of npc; 0 if never written.
func (m *Manager) Epoch(ctx context.Context, npc string, tier Tier) (int, error) {
	e, err := m.store.Get(ctx, tier.Key(npc))
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", tier.Key(npc), err)
	}
	return e.Version, nil
}

// Forget clears all three tiers of npc.
func (m *Manager) Forget(ctx context.Context, npc string) error {
	for _, t := range Tiers {
		if err := m.store.Delete(ctx, t.Key(npc)); err != nil {
			return fmt.Errorf("delete %s: %w", t.Key(npc), err)
		}
	}
	m.logger.Info("forgot npc", "npc", npc)
	return nil
}
