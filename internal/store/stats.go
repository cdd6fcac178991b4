package store

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// Stats holds storage statistics.
type Stats struct {
	DBPath       string     `json:"db_path,omitempty"`
	DBSizeBytes  int64      `json:"db_size_bytes,omitempty"`
	TotalEntries int        `json:"total_entries"`
	NPCs         []NPCStats `json:"npcs"`
}

// NPCStats holds per-NPC tier sizes.
type NPCStats struct {
	NPC      string `json:"npc"`
	Messages int    `json:"messages"`
	Memories int    `json:"memories"`
	Core     int    `json:"core"`
}

// Collect gathers statistics from any Store. Keys are expected to look like
// "<tier>:<npc>" with JSON array values; other keys only count toward the total.
func Collect(ctx context.Context, s Store, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if dbPath != "" {
		if info, err := os.Stat(dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}

	entries, err := s.List(ctx, "")
	if err != nil {
		return st, err
	}
	st.TotalEntries = len(entries)

	byNPC := map[string]*NPCStats{}
	for _, e := range entries {
		tier, npc, ok := strings.Cut(e.Key, ":")
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(e.Value), &items); err != nil {
			continue
		}
		ns := byNPC[npc]
		if ns == nil {
			ns = &NPCStats{NPC: npc}
			byNPC[npc] = ns
		}
		switch tier {
		case "chat":
			ns.Messages = len(items)
		case "memory":
			ns.Memories = len(items)
		case "core":
			ns.Core = len(items)
		}
	}

	for _, ns := range byNPC {
		st.NPCs = append(st.NPCs, *ns)
	}
	sort.Slice(st.NPCs, func(i, j int) bool { return st.NPCs[i].NPC < st.NPCs[j].NPC })

	return st, nil
}
