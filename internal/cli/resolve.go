package cli

import (
	"fmt"

	"github.com/rcliao/village-sim/internal/tilecolor"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "resolve [tile...]",
		Short: "Resolve tile colors",
		Long: "Resolve the display color of tiles for a scheme, season and time of day. " +
			"With no tiles, every tile type is resolved.",
		Run: runResolve,
	}

	cmd.Flags().StringP("scheme", "s", "", "Color scheme (empty: intrinsic tile colors)")
	cmd.Flags().String("season", "", "Season: spring, summer, autumn, winter")
	cmd.Flags().StringP("time", "t", "", "Time of day: day or night")
	cmd.Flags().Bool("trace", false, "Show every layer considered")
	cmd.Flags().Bool("hex", false, "Print only the display hex of each tile")

	RootCmd.AddCommand(cmd)
}

type resolvedTile struct {
	Tile  string           `json:"tile"`
	Color string           `json:"color"`
	Hex   string           `json:"hex"`
	Trace *tilecolor.Trace `json:"trace,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) {
	scheme, _ := cmd.Flags().GetString("scheme")
	season, _ := cmd.Flags().GetString("season")
	tod, _ := cmd.Flags().GetString("time")
	withTrace, _ := cmd.Flags().GetBool("trace")
	hexOnly, _ := cmd.Flags().GetBool("hex")

	ctx := tilecolor.Context{Scheme: scheme, Season: tilecolor.Season(season), TimeOfDay: tilecolor.TimeOfDay(tod)}
	if season != "" && !ctx.Season.Valid() {
		exitErr("resolve", fmt.Errorf("unknown season %q", season))
	}
	if tod != "" && !ctx.TimeOfDay.Valid() {
		exitErr("resolve", fmt.Errorf("unknown time of day %q", tod))
	}

	tiles := tilecolor.TileTypes()
	if len(args) > 0 {
		tiles = tiles[:0]
		for _, a := range args {
			t, err := tilecolor.ParseTileType(a)
			if err != nil {
				exitErr("resolve", err)
			}
			tiles = append(tiles, t)
		}
	}

	r, palette, schemes, err := newResolver()
	if err != nil {
		exitErr("load colors", err)
	}
	if scheme != "" {
		if _, ok := schemes.Get(scheme); !ok {
			logger.Warn("unknown scheme, using intrinsic colors", "scheme", scheme)
		}
	}

	var out []resolvedTile
	for _, t := range tiles {
		tr := r.ResolveWithTrace(t, ctx)
		rt := resolvedTile{Tile: t.String(), Color: tr.FinalColor, Hex: r.ToDisplayValue(tr.FinalColor)}
		if withTrace {
			rt.Trace = &tr
		}
		out = append(out, rt)
	}

	if hexOnly {
		for _, rt := range out {
			fmt.Println(rt.Hex)
		}
		return
	}

	if formatFlag == "text" {
		for _, rt := range out {
			note := rt.Color
			if desc := palette.Describe(rt.Color); desc != "" {
				note += " (" + desc + ")"
			}
			if rt.Trace != nil {
				note = fmt.Sprintf("%s via %s", note, rt.Trace.Source)
			}
			fmt.Println(swatchLine(rt.Tile, rt.Hex, note))
			if rt.Trace != nil {
				for _, l := range rt.Trace.Layers {
					mark := " "
					if l.Applied {
						mark = "*"
					}
					fmt.Println(mutedStyle.Render(fmt.Sprintf("    %s %-8s %s", mark, l.Layer, l.Candidate)))
				}
			}
		}
		return
	}
	printJSON(out)
}
