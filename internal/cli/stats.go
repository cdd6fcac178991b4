package cli

import (
	"github.com/rcliao/village-sim/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show storage statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	path := ""
	if cfg.Storage.Driver == "sqlite" {
		path = getDBPath()
	}
	stats, err := store.Collect(ctx, s, path)
	if err != nil {
		exitErr("stats", err)
	}

	printJSON(stats)
}
