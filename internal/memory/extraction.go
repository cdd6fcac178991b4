package memory

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rcliao/village-sim/internal/llm"
	"github.com/rcliao/village-sim/internal/model"
)

// Sentinels the model returns when a batch yields nothing.
const (
	SentinelNothingOfNote = "nothing of note"
	SentinelNothingNew    = "nothing new"
)

// categoryCodes maps extraction codes to categories. Full names are accepted
// as well since models drift.
var categoryCodes = map[string]model.Category{
	"FACT":         model.CategoryFact,
	"PREF":         model.CategoryPreference,
	"PREFERENCE":   model.CategoryPreference,
	"EVENT":        model.CategoryEvent,
	"PROMISE":      model.CategoryPromise,
	"FEEL":         model.CategoryFeeling,
	"FEELING":      model.CategoryFeeling,
	"REL":          model.CategoryRelationship,
	"RELATIONSHIP": model.CategoryRelationship,
}

const extractionPrompt = `You maintain the long-term memory of %s, a villager in a cozy farming village.
Read the conversation between %s and the player and write down anything worth remembering about the player or their relationship.

Write one memory per line in the form:
[CODE] short memory in third person

CODE is one of:
FACT - a fact about the player
PREF - something the player likes or dislikes
EVENT - something that happened
PROMISE - a promise either side made
FEEL - how the player or %s felt
REL - how the relationship changed

If nothing is worth remembering, reply with exactly: nothing of note`

// taggedLine matches "[CODE] content", optionally behind a list bullet.
var taggedLine = regexp.MustCompile(`^\s*(?:[-*]\s*)?\[([A-Za-z_]+)\]\s*(.+?)\s*$`)

type taggedRecord struct {
	tag     string
	content string
}

// parseTagged returns the well-formed lines of a generation response.
// Malformed lines are skipped; skipped counts them.
func parseTagged(text string) (records []taggedRecord, skipped int) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := taggedLine.FindStringSubmatch(line)
		if m == nil {
			skipped++
			continue
		}
		records = append(records, taggedRecord{tag: strings.ToUpper(m[1]), content: m[2]})
	}
	return records, skipped
}

// isSentinel reports whether text is exactly the given sentinel, ignoring
// case, underscores for spaces, surrounding quotes and a trailing period.
func isSentinel(text, sentinel string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.ReplaceAll(t, "_", " ")
	t = strings.Trim(t, "\"'`. ")
	return t == sentinel
}

func transcript(npc string, msgs []model.ChatMessage) string {
	var b strings.Builder
	for _, msg := range msgs {
		speaker := "Player"
		if msg.Role == model.RoleAssistant {
			speaker = npc
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Content)
	}
	return b.String()
}

// extractMemories turns a message batch into memories. Generation failures
// are logged and produce no records.
func (m *Manager) extractMemories(ctx context.Context, npc string, batch []model.ChatMessage) []model.Memory {
	if m.gen == nil {
		m.logger.Warn("no generator configured, dropping evicted messages", "npc", npc, "messages", len(batch))
		return nil
	}

	text, err := m.gen.Generate(ctx, llm.Request{
		System: fmt.Sprintf(extractionPrompt, npc, npc, npc),
		User:   transcript(npc, batch),
	})
	if err != nil {
		m.logger.Error("memory extraction failed, evicted messages are lost", "npc", npc, "messages", len(batch), "err", err)
		return nil
	}
	if isSentinel(text, SentinelNothingOfNote) || isSentinel(text, "nothing to extract") {
		m.logger.Info("extraction found nothing of note", "npc", npc, "messages", len(batch))
		return nil
	}

	records, skipped := parseTagged(text)
	var out []model.Memory
	for _, r := range records {
		cat, ok := categoryCodes[r.tag]
		if !ok {
			skipped++
			continue
		}
		out = append(out, m.fill(model.Memory{Content: r.content, Category: cat}))
	}
	if skipped > 0 {
		m.logger.Debug("skipped malformed extraction lines", "npc", npc, "skipped", skipped)
	}
	m.logger.Info("extracted memories", "npc", npc, "messages", len(batch), "memories", len(out))
	return out
}

func (m *Manager) runExtraction(ctx context.Context, npc string, batch []model.ChatMessage) {
	mems := m.extractMemories(ctx, npc, batch)
	if len(mems) == 0 {
		return
	}
	if err := m.addMemories(ctx, npc, mems); err != nil {
		m.logger.Error("save extracted memories", "npc", npc, "err", err)
	}
}
