package cli

import (
	"fmt"
	"os"

	"github.com/rcliao/village-sim/internal/tilecolor"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "scheme",
		Short: "Inspect and check color schemes",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered schemes",
		Run:   runSchemeList,
	}

	export := &cobra.Command{
		Use:   "export [name...]",
		Short: "Write schemes as YAML",
		Long:  "Write schemes as a multi-document YAML stream, ready to edit and load via colors.schemeFiles.",
		Run:   runSchemeExport,
	}

	check := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a YAML scheme file",
		Args:  cobra.ExactArgs(1),
		Run:   runSchemeCheck,
	}

	cmd.AddCommand(list, export, check)
	RootCmd.AddCommand(cmd)
}

type schemeSummary struct {
	Name          string   `json:"name"`
	Seasons       int      `json:"seasons"`
	TimesOfDay    int      `json:"times_of_day"`
	MissingColors []string `json:"missing_colors,omitempty"`
}

func summarize(schemes []*tilecolor.ColorScheme, palette *tilecolor.Palette) []schemeSummary {
	out := make([]schemeSummary, 0, len(schemes))
	for _, s := range schemes {
		out = append(out, schemeSummary{
			Name:          s.Name,
			Seasons:       len(s.Seasonal),
			TimesOfDay:    len(s.TimeOfDay),
			MissingColors: s.MissingColors(palette),
		})
	}
	return out
}

func printSummaries(summaries []schemeSummary) {
	if formatFlag == "text" {
		for _, s := range summaries {
			line := fmt.Sprintf("%-16s seasons=%d times=%d", nameStyle.Render(s.Name), s.Seasons, s.TimesOfDay)
			if len(s.MissingColors) > 0 {
				line += "  " + errStyle.Render(fmt.Sprintf("missing: %v", s.MissingColors))
			}
			fmt.Println(line)
		}
		return
	}
	printJSON(summaries)
}

func runSchemeList(cmd *cobra.Command, args []string) {
	_, palette, store, err := newResolver()
	if err != nil {
		exitErr("load colors", err)
	}
	var schemes []*tilecolor.ColorScheme
	for _, n := range store.Names() {
		s, _ := store.Get(n)
		schemes = append(schemes, s)
	}
	printSummaries(summarize(schemes, palette))
}

func runSchemeExport(cmd *cobra.Command, args []string) {
	_, _, store, err := newResolver()
	if err != nil {
		exitErr("load colors", err)
	}
	names := args
	if len(names) == 0 {
		names = store.Names()
	}
	var schemes []*tilecolor.ColorScheme
	for _, n := range names {
		s, ok := store.Get(n)
		if !ok {
			exitErr("export", fmt.Errorf("unknown scheme %q", n))
		}
		schemes = append(schemes, s)
	}
	if err := tilecolor.EncodeSchemes(os.Stdout, schemes); err != nil {
		exitErr("export", err)
	}
}

func runSchemeCheck(cmd *cobra.Command, args []string) {
	_, palette, _, err := newResolver()
	if err != nil {
		exitErr("load colors", err)
	}
	f, err := os.Open(args[0])
	if err != nil {
		exitErr("open", err)
	}
	defer f.Close()

	schemes, err := tilecolor.DecodeSchemes(f)
	if err != nil {
		exitErr("check", err)
	}
	summaries := summarize(schemes, palette)
	printSummaries(summaries)
	for _, s := range summaries {
		if len(s.MissingColors) > 0 {
			os.Exit(1)
		}
	}
}
