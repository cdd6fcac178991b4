package memory

import (
	"context"
	"strings"

	"github.com/rcliao/village-sim/internal/model"
)

var categoryHeaders = map[model.Category]string{
	model.CategoryRelationship: "Your relationship",
	model.CategoryPromise:      "Promises",
	model.CategoryFact:         "Facts about them",
	model.CategoryPreference:   "Their likes and dislikes",
	model.CategoryEvent:        "Things that happened",
	model.CategoryFeeling:      "Feelings",
}

// FormatForPrompt renders what npc remembers for a system prompt: core
// memories first, then long-term memories grouped by category. It returns ""
// when both tiers are empty.
func (m *Manager) FormatForPrompt(ctx context.Context, npc string) (string, error) {
	core, err := m.CoreMemories(ctx, npc)
	if err != nil {
		return "", err
	}
	mems, err := m.Memories(ctx, npc)
	if err != nil {
		return "", err
	}
	return formatMemories(core, mems), nil
}

func formatMemories(core []model.CoreMemory, mems []model.Memory) string {
	if len(core) == 0 && len(mems) == 0 {
		return ""
	}

	var b strings.Builder
	if len(core) > 0 {
		b.WriteString("## Core memories\n")
		for _, c := range core {
			b.WriteString("- ")
			b.WriteString(c.Content)
			b.WriteString("\n")
		}
	}

	if len(mems) > 0 {
		grouped := map[model.Category][]model.Memory{}
		for _, mem := range mems {
			grouped[mem.Category] = append(grouped[mem.Category], mem)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## What you remember\n")
		for _, cat := range model.Categories {
			group := grouped[cat]
			if len(group) == 0 {
				continue
			}
			b.WriteString("\n### ")
			b.WriteString(categoryHeaders[cat])
			b.WriteString("\n")
			for _, mem := range group {
				b.WriteString("- ")
				b.WriteString(mem.Content)
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
