package cli

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/rcliao/village-sim/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "npcs",
		Short: "List NPCs with stored memories",
		Run:   runNPCs,
	}

	cmd.Flags().StringP("match", "m", "", "Glob filter on NPC ids, e.g. 'farm*'")

	RootCmd.AddCommand(cmd)
}

// matchNPCs keeps the ids matching pattern. An empty pattern keeps all.
func matchNPCs(ids []string, pattern string) ([]string, error) {
	if pattern == "" {
		return ids, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	var out []string
	for _, id := range ids {
		if g.Match(id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func runNPCs(cmd *cobra.Command, args []string) {
	pattern, _ := cmd.Flags().GetString("match")

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ids, err := newManager(ctx, s).NPCs(ctx)
	if err != nil {
		exitErr("npcs", err)
	}
	ids, err = matchNPCs(ids, pattern)
	if err != nil {
		exitErr("npcs", err)
	}

	if formatFlag == "text" {
		stats, err := store.Collect(ctx, s, "")
		if err != nil {
			exitErr("npcs", err)
		}
		keep := map[string]bool{}
		for _, id := range ids {
			keep[id] = true
		}
		for _, ns := range stats.NPCs {
			if keep[ns.NPC] {
				fmt.Printf("%-16s chat=%d memories=%d core=%d\n", nameStyle.Render(ns.NPC), ns.Messages, ns.Memories, ns.Core)
			}
		}
		return
	}
	if ids == nil {
		ids = []string{}
	}
	printJSON(ids)
}
