package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rcliao/village-sim/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tiers from JSON",
		Long:  "Import entries from JSON on stdin. Expects the format produced by export.",
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var entries []store.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		exitErr("parse json", err)
	}

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := store.Import(ctx, s, entries)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}
