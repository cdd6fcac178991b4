package cli

import (
	"fmt"
	"strings"

	"github.com/rcliao/village-sim/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Read or append to an NPC's chat log",
	}

	appendCmd := &cobra.Command{
		Use:   "append [content]",
		Short: "Append a chat line",
		Long:  "Append a chat line without generating a reply. Overflow triggers memory extraction.",
		Run:   runChatAppend,
	}
	appendCmd.Flags().StringP("npc", "n", "", "NPC id (required)")
	appendCmd.Flags().StringP("role", "r", "user", "Role: user or assistant")
	appendCmd.MarkFlagRequired("npc")

	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Show the recent chat log",
		Run:   runChatLog,
	}
	logCmd.Flags().StringP("npc", "n", "", "NPC id (required)")
	logCmd.MarkFlagRequired("npc")

	cmd.AddCommand(appendCmd, logCmd)
	RootCmd.AddCommand(cmd)
}

func runChatAppend(cmd *cobra.Command, args []string) {
	npc, _ := cmd.Flags().GetString("npc")
	role, _ := cmd.Flags().GetString("role")

	content, err := readInput(args)
	if err != nil {
		exitErr("read stdin", err)
	}
	if strings.TrimSpace(content) == "" {
		exitErr("append", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mgr := newManager(ctx, s)
	defer mgr.Wait()

	if err := mgr.AppendMessage(ctx, npc, model.Role(role), strings.TrimSpace(content)); err != nil {
		exitErr("append", err)
	}
	msgs, err := mgr.Messages(ctx, npc)
	if err != nil {
		exitErr("append", err)
	}
	fmt.Printf(`{"ok":true,"npc":%q,"messages":%d}`+"\n", npc, len(msgs))
}

func runChatLog(cmd *cobra.Command, args []string) {
	npc, _ := cmd.Flags().GetString("npc")

	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	msgs, err := newManager(ctx, s).Messages(ctx, npc)
	if err != nil {
		exitErr("log", err)
	}
	if formatFlag == "text" {
		for _, m := range msgs {
			who := npc
			if m.Role == model.RoleUser {
				who = "Player"
			}
			fmt.Printf("%s %s: %s\n", mutedStyle.Render(m.Timestamp.Format("15:04")), nameStyle.Render(who), m.Content)
		}
		return
	}
	printJSON(msgs)
}
