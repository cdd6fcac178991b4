package cli

import (
	"errors"

	"github.com/rcliao/village-sim/internal/memory"
	"github.com/rcliao/village-sim/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored tiers as JSON",
		Long:  "Export the latest value of every stored key as JSON. Filter to one NPC with -n.",
		Run:   runExport,
	}

	cmd.Flags().StringP("npc", "n", "", "Only export this NPC's tiers")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	npc, _ := cmd.Flags().GetString("npc")

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var entries []store.Entry
	if npc == "" {
		if entries, err = store.ExportAll(ctx, s, ""); err != nil {
			exitErr("export", err)
		}
	} else {
		for _, t := range memory.Tiers {
			e, err := s.Get(ctx, t.Key(npc))
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				exitErr("export", err)
			}
			entries = append(entries, *e)
		}
	}
	if entries == nil {
		entries = []store.Entry{}
	}

	printJSON(entries)
}
