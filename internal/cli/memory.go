package cli

import (
	"fmt"
	"strings"

	"github.com/rcliao/village-sim/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and edit what NPCs remember",
	}

	add := &cobra.Command{
		Use:   "add [content]",
		Short: "Record a long-term memory",
		Long:  "Record a long-term memory directly. Overflow triggers consolidation into core memories.",
		Run:   runMemoryAdd,
	}
	add.Flags().StringP("npc", "n", "", "NPC id (required)")
	add.Flags().StringP("category", "k", string(model.CategoryFact), "Category: fact, preference, event, promise, feeling, relationship")
	add.Flags().IntP("importance", "i", 0, "Importance 1-10 (default: by category)")
	add.MarkFlagRequired("npc")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show every tier for an NPC",
		Run:   runMemoryShow,
	}
	show.Flags().StringP("npc", "n", "", "NPC id (required)")
	show.MarkFlagRequired("npc")

	prompt := &cobra.Command{
		Use:   "prompt",
		Short: "Print the memory block sent to the LLM",
		Run:   runMemoryPrompt,
	}
	prompt.Flags().StringP("npc", "n", "", "NPC id (required)")
	prompt.MarkFlagRequired("npc")

	forget := &cobra.Command{
		Use:   "forget",
		Short: "Erase every tier for an NPC",
		Run:   runMemoryForget,
	}
	forget.Flags().StringP("npc", "n", "", "NPC id (required)")
	forget.MarkFlagRequired("npc")

	cmd.AddCommand(add, show, prompt, forget)
	RootCmd.AddCommand(cmd)
}

type tierView struct {
	NPC      string              `json:"npc"`
	Messages []model.ChatMessage `json:"messages"`
	Memories []model.Memory      `json:"memories"`
	Core     []model.CoreMemory  `json:"core"`
}

func runMemoryAdd(cmd *cobra.Command, args []string) {
	npc, _ := cmd.Flags().GetString("npc")
	category, _ := cmd.Flags().GetString("category")
	importance, _ := cmd.Flags().GetInt("importance")

	content, err := readInput(args)
	if err != nil {
		exitErr("read stdin", err)
	}
	if strings.TrimSpace(content) == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}
	if importance < 0 || importance > 10 {
		exitErr("add", fmt.Errorf("importance must be between 1 and 10"))
	}

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mgr := newManager(ctx, s)
	defer mgr.Wait()

	mem, err := mgr.AddMemory(ctx, npc, model.Memory{
		Content:    strings.TrimSpace(content),
		Category:   model.Category(category),
		Importance: importance,
	})
	if err != nil {
		exitErr("add", err)
	}
	printJSON(mem)
}

func runMemoryShow(cmd *cobra.Command, args []string) {
	npc, _ := cmd.Flags().GetString("npc")

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mgr := newManager(ctx, s)
	v := tierView{NPC: npc}
	if v.Messages, err = mgr.Messages(ctx, npc); err != nil {
		exitErr("show", err)
	}
	if v.Memories, err = mgr.Memories(ctx, npc); err != nil {
		exitErr("show", err)
	}
	if v.Core, err = mgr.CoreMemories(ctx, npc); err != nil {
		exitErr("show", err)
	}

	if formatFlag == "text" {
		fmt.Println(nameStyle.Render(npc))
		fmt.Printf("  chat lines: %d\n", len(v.Messages))
		fmt.Printf("  memories:   %d\n", len(v.Memories))
		for _, m := range v.Memories {
			fmt.Printf("    [%s %d] %s\n", m.Category, m.Importance, m.Content)
		}
		fmt.Printf("  core:       %d\n", len(v.Core))
		for _, c := range v.Core {
			fmt.Printf("    [%s] %s\n", c.Theme, c.Content)
		}
		return
	}
	printJSON(v)
}

func runMemoryPrompt(cmd *cobra.Command, args []string) {
	npc, _ := cmd.Flags().GetString("npc")

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	out, err := newManager(ctx, s).FormatForPrompt(ctx, npc)
	if err != nil {
		exitErr("prompt", err)
	}
	fmt.Println(out)
}

func runMemoryForget(cmd *cobra.Command, args []string) {
	npc, _ := cmd.Flags().GetString("npc")

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := newManager(ctx, s).Forget(ctx, npc); err != nil {
		exitErr("forget", err)
	}
	fmt.Printf(`{"ok":true,"forgot":%q}`+"\n", npc)
}
