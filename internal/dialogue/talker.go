package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rcliao/village-sim/internal/llm"
	"github.com/rcliao/village-sim/internal/memory"
	"github.com/rcliao/village-sim/internal/model"
)

// ErrGenerationFailed is what the player sees when a reply cannot be
// generated. The underlying error is only logged.
var ErrGenerationFailed = errors.New("they seem lost in thought, try again in a moment")

// ErrAbandoned is returned when the machine was reset or restarted while the
// reply was streaming. Nothing is saved for an abandoned reply.
var ErrAbandoned = errors.New("dialogue abandoned")

// Persona describes the NPC being talked to.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Personality string `json:"personality,omitempty"`
}

// Reply is the finished result of one Talk.
type Reply struct {
	Metadata    Metadata `json:"metadata"`
	Dialogue    string   `json:"dialogue"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// TalkerConfig configures a Talker. Memory is optional.
type TalkerConfig struct {
	LLM            llm.Streamer
	Memory         *memory.Manager
	Machine        *Machine
	Logger         *slog.Logger
	MaxSuggestions int
	HistoryLimit   int // recent chat lines sent as history; 0 sends none
}

// Talker runs one NPC reply end to end: prompt, stream, parse, persist.
type Talker struct {
	cfg    TalkerConfig
	logger *slog.Logger
}

// NewTalker creates a Talker. A nil Machine gets a default one.
func NewTalker(cfg TalkerConfig) *Talker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Machine == nil {
		cfg.Machine = NewMachine(MachineConfig{Logger: cfg.Logger})
	}
	return &Talker{cfg: cfg, logger: cfg.Logger}
}

// Machine returns the state machine the Talker drives.
func (t *Talker) Machine() *Machine { return t.cfg.Machine }

const envelopeInstructions = `Always answer in exactly this format:
[META:emotion=<emotion>,action=<action or none>,moderation=<0-10>]
<what you say, in character, a few sentences at most>
[SUGGESTIONS]
<up to %d short things the player might say next, one per line>
[/SUGGESTIONS]

emotion is one of: %s.
moderation rates how inappropriate the player's message was, 0 for harmless and 10 for abusive.`

// SystemPrompt builds the system prompt for p with the given remembered context.
func SystemPrompt(p Persona, remembered string, maxSuggestions int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a villager in a cozy farming village.\n", p.Name)
	if p.Personality != "" {
		b.WriteString(p.Personality)
		b.WriteString("\n")
	}
	if remembered != "" {
		b.WriteString("\nWhat you remember about the player:\n")
		b.WriteString(remembered)
		b.WriteString("\n")
	}

	names := make([]string, len(Emotions))
	for i, e := range Emotions {
		names[i] = string(e)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, envelopeInstructions, maxSuggestions, strings.Join(names, ", "))
	return b.String()
}

// Talk streams p's reply to userText into the machine. On success both lines
// are appended to p's chat log. On generation failure the machine ends in
// the error phase with the partial text kept, and ErrGenerationFailed is
// returned along with whatever was parsed. If the machine moves on to
// another reply (Reset or Start) mid-stream, the rest of the stream is
// ignored and ErrAbandoned is returned.
func (t *Talker) Talk(ctx context.Context, p Persona, userText string) (*Reply, error) {
	if t.cfg.LLM == nil {
		return nil, llm.ErrNoProvider
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	maxSuggestions := t.cfg.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}

	req := llm.Request{User: userText}
	var remembered string
	if t.cfg.Memory != nil {
		var err error
		remembered, err = t.cfg.Memory.FormatForPrompt(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("load memories: %w", err)
		}
		if req.History, err = t.history(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	req.System = SystemPrompt(p, remembered, maxSuggestions)

	stream := t.cfg.Machine.Start()
	parser := NewParser(ParserConfig{
		OnMetadata:     stream.OnMetadata,
		OnDialogue:     stream.OnDialogueChunk,
		OnSuggestions:  stream.OnSuggestions,
		MaxSuggestions: maxSuggestions,
	})

	err := t.cfg.LLM.Stream(ctx, req, func(chunk string) {
		if stream.Active() {
			parser.Feed(chunk)
		}
	})
	parser.Close()
	reply := &Reply{
		Metadata:    parser.Metadata(),
		Dialogue:    parser.Dialogue(),
		Suggestions: parser.Suggestions(),
	}
	if !stream.Active() {
		t.logger.Info("dialogue abandoned", "npc", p.ID, "err", err)
		return reply, ErrAbandoned
	}
	if err != nil {
		t.logger.Error("dialogue generation failed", "npc", p.ID, "provider", t.cfg.LLM.Name(), "err", err)
		stream.Fail(ErrGenerationFailed)
		return reply, ErrGenerationFailed
	}
	stream.Complete()

	if t.cfg.Memory != nil {
		if err := t.cfg.Memory.AppendMessage(ctx, p.ID, model.RoleUser, userText); err != nil {
			return reply, fmt.Errorf("save player line: %w", err)
		}
		if reply.Dialogue != "" {
			if err := t.cfg.Memory.AppendMessage(ctx, p.ID, model.RoleAssistant, reply.Dialogue); err != nil {
				return reply, fmt.Errorf("save npc line: %w", err)
			}
		}
	}
	return reply, nil
}

func (t *Talker) history(ctx context.Context, npc string) ([]llm.Message, error) {
	if t.cfg.HistoryLimit <= 0 {
		return nil, nil
	}
	msgs, err := t.cfg.Memory.Messages(ctx, npc)
	if err != nil {
		return nil, fmt.Errorf("load chat log: %w", err)
	}
	if len(msgs) > t.cfg.HistoryLimit {
		msgs = msgs[len(msgs)-t.cfg.HistoryLimit:]
	}
	out := make([]llm.Message, len(msgs))
	for i, msg := range msgs {
		role := llm.RoleUser
		if msg.Role == model.RoleAssistant {
			role = llm.RoleAssistant
		}
		out[i] = llm.Message{Role: role, Content: msg.Content}
	}
	return out, nil
}
