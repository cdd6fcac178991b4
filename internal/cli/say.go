package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/village-sim/internal/dialogue"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "say [text]",
		Short: "Talk to an NPC",
		Long: "Send a line to an NPC and stream the reply. The NPC sees its memories of you, " +
			"and both lines are added to its chat log. Text can be a positional arg or piped via stdin.",
		Run: runSay,
	}

	cmd.Flags().StringP("npc", "n", "", "NPC id (required)")
	cmd.Flags().String("name", "", "Display name (default: the NPC id)")
	cmd.Flags().StringP("persona", "p", "", "Personality description added to the prompt")

	cmd.MarkFlagRequired("npc")

	RootCmd.AddCommand(cmd)
}

// streamPrinter writes newly visible dialogue text as it arrives.
type streamPrinter struct {
	mu      sync.Mutex
	printed string
}

func (p *streamPrinter) update(s dialogue.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(s.DialogueText) <= len(p.printed) || !strings.HasPrefix(s.DialogueText, p.printed) {
		return
	}
	fmt.Print(s.DialogueText[len(p.printed):])
	p.printed = s.DialogueText
}

func runSay(cmd *cobra.Command, args []string) {
	npc, _ := cmd.Flags().GetString("npc")
	name, _ := cmd.Flags().GetString("name")
	persona, _ := cmd.Flags().GetString("persona")

	text, err := readInput(args)
	if err != nil {
		exitErr("read stdin", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		exitErr("say", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	ctx := cmd.Context()
	backend, err := newLLM(ctx)
	if err != nil {
		exitErr("llm", err)
	}

	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mgr := newManager(ctx, s)
	defer mgr.Wait()

	machine := dialogue.NewMachine(dialogue.MachineConfig{
		BatchInterval: time.Duration(cfg.Dialogue.BatchIntervalMs) * time.Millisecond,
		Logger:        logger,
	})
	if formatFlag == "text" {
		printer := &streamPrinter{}
		machine.OnUpdate(printer.update)
	}

	talker := dialogue.NewTalker(dialogue.TalkerConfig{
		LLM:            backend,
		Memory:         mgr,
		Machine:        machine,
		Logger:         logger,
		MaxSuggestions: cfg.Dialogue.SuggestionsLimit,
		HistoryLimit:   cfg.Dialogue.HistoryLimit,
	})

	reply, err := talker.Talk(ctx, dialogue.Persona{ID: npc, Name: name, Personality: persona}, text)
	if errors.Is(err, dialogue.ErrGenerationFailed) {
		fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
		mgr.Wait()
		os.Exit(1)
	}
	if err != nil {
		exitErr("say", err)
	}

	if formatFlag == "text" {
		fmt.Println()
		st := machine.State()
		fmt.Println(mutedStyle.Render(fmt.Sprintf("[%s%s]", st.Emotion, actionNote(st.Action))))
		if st.ShouldSendToBed {
			fmt.Println(errStyle.Render("(that went too far, time for bed)"))
		}
		for i, sug := range st.Suggestions {
			fmt.Printf("  %d. %s\n", i+1, sug)
		}
		return
	}
	printJSON(reply)
}

func actionNote(action string) string {
	if action == "" {
		return ""
	}
	return ", " + action
}
