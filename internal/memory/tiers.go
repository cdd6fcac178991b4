package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/village-sim/internal/store"
)

// Tier names one of the three per-NPC stores. It is also the key prefix.
type Tier string

const (
	TierChat   Tier = "chat"
	TierMemory Tier = "memory"
	TierCore   Tier = "core"
)

// Tiers lists the tiers in promotion order.
var Tiers = []Tier{TierChat, TierMemory, TierCore}

// Key returns the store key of this tier for npc, e.g. "memory:mira".
func (t Tier) Key(npc string) string {
	return string(t) + ":" + npc
}

func loadTier(ctx context.Context, s store.Store, t Tier, npc string, out any) (int, error) {
	e, err := s.Get(ctx, t.Key(npc))
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", t.Key(npc), err)
	}
	if err := json.Unmarshal([]byte(e.Value), out); err != nil {
		return e.Version, fmt.Errorf("decode %s: %w", t.Key(npc), err)
	}
	return e.Version, nil
}

func saveTier[T any](ctx context.Context, s store.Store, t Tier, npc string, items []T) (int, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", t.Key(npc), err)
	}
	e, err := s.Put(ctx, t.Key(npc), string(data))
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", t.Key(npc), err)
	}
	return e.Version, nil
}

// NPCs returns the ids of every NPC with at least one stored tier, sorted.
func (m *Manager) NPCs(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	for _, t := range Tiers {
		entries, err := m.store.List(ctx, string(t)+":")
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", t, err)
		}
		for _, e := range entries {
			seen[strings.TrimPrefix(e.Key, string(t)+":")] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
