package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/village-sim/internal/llm"
	"github.com/rcliao/village-sim/internal/model"
)

// parseTheme maps a [THEME] tag to a core memory theme, in any case.
func parseTheme(tag string) (model.Theme, bool) {
	theme := model.Theme(strings.ToLower(tag))
	return theme, model.ValidThemes[theme]
}

const consolidationPrompt = `You curate the core memories of %s, a villager in a cozy farming village.
Core memories are the few things that define %s's relationship with the player.

Read the older memories below and distill the ones that matter into core memories.
Do not repeat anything already in the existing core memories.

Write one core memory per line in the form:
[THEME] one sentence

THEME is one of:
BOND - closeness and affection
MILESTONE - a turning point in the relationship
TRUST - trust gained or broken
CONFLICT - a disagreement or hurt
IDENTITY - who the player is to %s
SHARED - an experience they shared

If there is nothing new, reply with exactly: nothing new`

func consolidationInput(existing []model.CoreMemory, batch []model.Memory) string {
	var b strings.Builder
	b.WriteString("Existing core memories:\n")
	if len(existing) == 0 {
		b.WriteString("(none)\n")
	}
	for _, c := range existing {
		fmt.Fprintf(&b, "- [%s] %s\n", strings.ToUpper(string(c.Theme)), c.Content)
	}
	b.WriteString("\nMemories to consolidate:\n")
	for _, mem := range batch {
		fmt.Fprintf(&b, "- (%s, importance %d) %s\n", mem.Category, mem.Importance, mem.Content)
	}
	return b.String()
}

// consolidate turns a memory batch into core memories, given the current
// core tier for dedup context.
func (m *Manager) consolidate(ctx context.Context, npc string, existing []model.CoreMemory, batch []model.Memory) []model.CoreMemory {
	if m.gen == nil {
		m.logger.Warn("no generator configured, dropping consolidated memories", "npc", npc, "memories", len(batch))
		return nil
	}

	text, err := m.gen.Generate(ctx, llm.Request{
		System: fmt.Sprintf(consolidationPrompt, npc, npc, npc),
		User:   consolidationInput(existing, batch),
	})
	if err != nil {
		m.logger.Error("memory consolidation failed, evicted memories are lost", "npc", npc, "memories", len(batch), "err", err)
		return nil
	}
	if isSentinel(text, SentinelNothingNew) {
		m.logger.Info("consolidation found nothing new", "npc", npc, "memories", len(batch))
		return nil
	}

	from := make([]string, len(batch))
	for i, mem := range batch {
		from[i] = mem.ID
	}

	records, skipped := parseTagged(text)
	var out []model.CoreMemory
	for _, r := range records {
		theme, ok := parseTheme(r.tag)
		if !ok {
			skipped++
			continue
		}
		out = append(out, model.CoreMemory{
			ID:               ulid.Make().String(),
			Content:          r.content,
			Theme:            theme,
			CreatedAt:        m.cfg.Now().UTC(),
			ConsolidatedFrom: append([]string(nil), from...),
		})
	}
	if skipped > 0 {
		m.logger.Debug("skipped malformed consolidation lines", "npc", npc, "skipped", skipped)
	}
	return out
}

// runConsolidation promotes batch into the core tier. A full core tier skips
// the generation call; output beyond the cap is dropped.
func (m *Manager) runConsolidation(ctx context.Context, npc string, batch []model.Memory) {
	core, err := m.CoreMemories(ctx, npc)
	if err != nil {
		m.logger.Error("load core memories", "npc", npc, "err", err)
		return
	}
	if len(core) >= m.cfg.CoreCap {
		m.logger.Info("core memory full, dropping consolidation batch", "npc", npc, "memories", len(batch), "cap", m.cfg.CoreCap)
		return
	}

	added := m.consolidate(ctx, npc, core, batch)
	if len(added) == 0 {
		return
	}

	// Re-read: another promotion may have written while we were generating.
	core, err = m.CoreMemories(ctx, npc)
	if err != nil {
		m.logger.Error("load core memories", "npc", npc, "err", err)
		return
	}
	room := max(m.cfg.CoreCap-len(core), 0)
	if len(added) > room {
		m.logger.Info("core memory full, dropping consolidation output", "npc", npc, "dropped", len(added)-room, "cap", m.cfg.CoreCap)
		added = added[:room]
	}
	if len(added) == 0 {
		return
	}

	core = append(core, added...)
	version, err := saveTier(ctx, m.store, TierCore, npc, core)
	if err != nil {
		m.logger.Error("save core memories", "npc", npc, "err", err)
		return
	}
	m.logger.Info("consolidated core memories", "npc", npc, "memories", len(batch), "core", len(added), "version", version)
}
