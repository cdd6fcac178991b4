package cli

import (
	"fmt"

	"github.com/rcliao/village-sim/internal/dialogue"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "envelope [raw]",
		Short: "Parse a raw reply envelope",
		Long: "Parse a raw LLM reply (header, dialogue, suggestions) the way streamed replies are parsed. " +
			"Use --chunk to feed it in fixed-size pieces.",
		Run: runEnvelope,
	}

	cmd.Flags().Int("chunk", 0, "Feed the input in chunks of this many bytes (0: all at once)")

	RootCmd.AddCommand(cmd)
}

// chunks splits s into pieces of at most n bytes.
func chunks(s string, n int) []string {
	if n <= 0 || len(s) <= n {
		return []string{s}
	}
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func runEnvelope(cmd *cobra.Command, args []string) {
	size, _ := cmd.Flags().GetInt("chunk")

	raw, err := readInput(args)
	if err != nil {
		exitErr("read stdin", err)
	}

	p := dialogue.NewParser(dialogue.ParserConfig{MaxSuggestions: cfg.Dialogue.SuggestionsLimit})
	for _, c := range chunks(raw, size) {
		p.Feed(c)
	}
	p.Close()

	reply := dialogue.Reply{Metadata: p.Metadata(), Dialogue: p.Dialogue(), Suggestions: p.Suggestions()}
	if formatFlag == "text" {
		md := reply.Metadata
		fmt.Println(mutedStyle.Render(fmt.Sprintf("[%s%s] moderation=%d bed=%v", md.Emotion, actionNote(md.Action), md.ModerationScore, md.ShouldSendToBed)))
		fmt.Println(reply.Dialogue)
		for i, s := range reply.Suggestions {
			fmt.Printf("  %d. %s\n", i+1, s)
		}
		return
	}
	printJSON(reply)
}
