package dialogue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rcliao/village-sim/internal/llm"
	"github.com/rcliao/village-sim/internal/memory"
	"github.com/rcliao/village-sim/internal/model"
	"github.com/rcliao/village-sim/internal/store"
)

type fakeStreamer struct {
	chunks []string
	err    error
	req    llm.Request
	after  func(i int) // called after chunk i is delivered
}

func (f *fakeStreamer) Name() string { return "fake" }

func (f *fakeStreamer) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.req = req
	return strings.Join(f.chunks, ""), f.err
}

func (f *fakeStreamer) Stream(ctx context.Context, req llm.Request, onChunk func(string)) error {
	f.req = req
	for i, c := range f.chunks {
		onChunk(c)
		if f.after != nil {
			f.after(i)
		}
	}
	return f.err
}

func newTestTalker(t *testing.T, s *fakeStreamer) (*Talker, *memory.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := memory.NewManager(memory.Config{Store: store.NewMemStore(), Logger: logger})
	m, _ := newTestMachine()
	return NewTalker(TalkerConfig{
		LLM:          s,
		Memory:       mem,
		Machine:      m,
		Logger:       logger,
		HistoryLimit: 10,
	}), mem
}

func TestTalk(t *testing.T) {
	ctx := context.Background()
	s := &fakeStreamer{chunks: []string{
		"[META:emotion=ha", "ppy,action=wave,moderation=1]",
		"Morning! The bees ", "are busy today.",
		"\n[SUGGESTIONS]\nAsk about honey\nWave back\n[/SUGGESTIONS]",
	}}
	talker, mem := newTestTalker(t, s)
	mem.AddMemory(ctx, "mira", model.Memory{Content: "The player keeps bees", Category: model.CategoryFact})
	mem.AppendMessage(ctx, "mira", model.RoleUser, "Hi yesterday")

	reply, err := talker.Talk(ctx, Persona{ID: "mira", Name: "Mira", Personality: "Mira runs the bakery."}, "Good morning!")
	if err != nil {
		t.Fatalf("talk: %v", err)
	}
	if reply.Dialogue != "Morning! The bees are busy today." || reply.Metadata.Emotion != EmotionHappy || reply.Metadata.Action != "wave" {
		t.Errorf("unexpected reply %+v", reply)
	}
	if len(reply.Suggestions) != 2 {
		t.Errorf("unexpected suggestions %q", reply.Suggestions)
	}

	if !strings.Contains(s.req.System, "You are Mira") || !strings.Contains(s.req.System, "The player keeps bees") || !strings.Contains(s.req.System, "[META:") {
		t.Errorf("system prompt missing persona, memories or format:\n%s", s.req.System)
	}
	if s.req.User != "Good morning!" || len(s.req.History) != 1 || s.req.History[0].Content != "Hi yesterday" {
		t.Errorf("unexpected request %+v", s.req)
	}

	st := talker.Machine().State()
	if st.DialogueText != reply.Dialogue || st.IsStreaming || !st.ShowSuggestions {
		t.Errorf("unexpected machine state %+v", st)
	}

	msgs, _ := mem.Messages(ctx, "mira")
	if len(msgs) != 3 || msgs[1].Content != "Good morning!" || msgs[2].Role != model.RoleAssistant || msgs[2].Content != reply.Dialogue {
		t.Errorf("unexpected chat log %+v", msgs)
	}
}

func TestTalkGenerationFailure(t *testing.T) {
	ctx := context.Background()
	s := &fakeStreamer{
		chunks: []string{"[META:emotion=happy,action=none,moderation=0]", "Well, I think"},
		err:    errors.New("upstream 503: overloaded"),
	}
	talker, mem := newTestTalker(t, s)

	reply, err := talker.Talk(ctx, Persona{ID: "otto"}, "Any news?")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if reply == nil || reply.Dialogue != "Well, I think" {
		t.Errorf("expected partial reply, got %+v", reply)
	}

	m := talker.Machine()
	st := m.State()
	if m.Phase() != PhaseError || st.DialogueText != "Well, I think" {
		t.Errorf("unexpected machine %s %+v", m.Phase(), st)
	}
	if strings.Contains(st.Error, "503") || st.Error != ErrGenerationFailed.Error() {
		t.Errorf("raw error leaked to state: %q", st.Error)
	}

	msgs, _ := mem.Messages(ctx, "otto")
	if len(msgs) != 0 {
		t.Errorf("failed replies should not be saved, got %+v", msgs)
	}
}

func TestTalkResetMidStream(t *testing.T) {
	ctx := context.Background()
	s := &fakeStreamer{chunks: []string{
		"[META:emotion=happy,action=none,moderation=0]",
		"Hel",
		"lo there\n[SUGGESTIONS]\nBye\n[/SUGGESTIONS]",
	}}
	talker, mem := newTestTalker(t, s)
	m := talker.Machine()
	s.after = func(i int) {
		if i == 1 {
			m.Reset()
		}
	}

	reply, err := talker.Talk(ctx, Persona{ID: "mira"}, "hi")
	if !errors.Is(err, ErrAbandoned) {
		t.Fatalf("expected ErrAbandoned, got %v", err)
	}
	if reply.Dialogue != "Hel" || len(reply.Suggestions) != 0 {
		t.Errorf("chunks after the reset should be ignored, got %+v", reply)
	}

	st := m.State()
	if m.Phase() != PhaseIdle || st.DialogueText != "" || st.IsStreaming {
		t.Errorf("abandoned reply changed the machine: %s %+v", m.Phase(), st)
	}

	msgs, _ := mem.Messages(ctx, "mira")
	if len(msgs) != 0 {
		t.Errorf("abandoned reply should not be saved, got %+v", msgs)
	}
}

func TestTalkRestartedByNewReply(t *testing.T) {
	ctx := context.Background()
	s := &fakeStreamer{chunks: []string{"[META:emotion=sad,action=none,moderation=0]", "Oh, well"}}
	talker, mem := newTestTalker(t, s)
	m := talker.Machine()
	s.after = func(i int) {
		if i == 0 {
			m.Start()
		}
	}

	if _, err := talker.Talk(ctx, Persona{ID: "otto"}, "bye"); !errors.Is(err, ErrAbandoned) {
		t.Fatalf("expected ErrAbandoned, got %v", err)
	}
	if st := m.State(); st.Emotion != EmotionNeutral || !st.IsStreaming {
		t.Errorf("stale reply touched the new one: %+v", st)
	}
	if msgs, _ := mem.Messages(ctx, "otto"); len(msgs) != 0 {
		t.Errorf("abandoned reply should not be saved, got %+v", msgs)
	}
}

func TestTalkWithoutProvider(t *testing.T) {
	talker := NewTalker(TalkerConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if _, err := talker.Talk(context.Background(), Persona{ID: "mira"}, "hi"); !errors.Is(err, llm.ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
}

func TestSystemPromptWithoutMemories(t *testing.T) {
	p := SystemPrompt(Persona{Name: "Otto"}, "", 3)
	if strings.Contains(p, "What you remember") {
		t.Errorf("empty memories should not add a section:\n%s", p)
	}
	if !strings.Contains(p, "up to 3 short things") || !strings.Contains(p, "thoughtful") {
		t.Errorf("missing envelope instructions:\n%s", p)
	}
}
