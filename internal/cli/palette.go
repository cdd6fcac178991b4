package cli

import (
	"fmt"
	"strings"

	"github.com/rcliao/village-sim/internal/tilecolor"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "palette [name...]",
		Short: "Show palette colors",
		Run:   runPalette,
	}

	cmd.Flags().StringArray("set", nil, "Override a color for this run: name=#rrggbb")

	RootCmd.AddCommand(cmd)
}

type paletteEntry struct {
	Name string `json:"name"`
	tilecolor.Color
}

func runPalette(cmd *cobra.Command, args []string) {
	sets, _ := cmd.Flags().GetStringArray("set")

	_, palette, _, err := newResolver()
	if err != nil {
		exitErr("load colors", err)
	}
	for _, s := range sets {
		name, hex, ok := cutAssign(s)
		if !ok {
			exitErr("palette", fmt.Errorf("bad --set %q (want name=#rrggbb)", s))
		}
		if err := palette.SetColor(name, hex); err != nil {
			exitErr("palette", err)
		}
	}

	entries := palette.Entries()
	names := args
	if len(names) == 0 {
		names = palette.Names()
	}

	var out []paletteEntry
	for _, n := range names {
		c, ok := entries[n]
		if !ok {
			exitErr("palette", fmt.Errorf("unknown color %q", n))
		}
		out = append(out, paletteEntry{Name: n, Color: c})
	}

	if formatFlag == "text" {
		for _, e := range out {
			fmt.Println(swatchLine(e.Name, e.Hex, e.Description))
		}
		return
	}
	printJSON(out)
}

// cutAssign splits "name=value", trimming both sides.
func cutAssign(s string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(s, "=")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	return name, value, ok && name != "" && value != ""
}
