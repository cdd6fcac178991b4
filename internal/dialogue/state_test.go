package dialogue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) schedule(d time.Duration, f func()) Timer {
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

// fire runs timer i unless it was stopped.
func (c *fakeClock) fire(i int) {
	t := c.timers[i]
	if t.stopped || t.fired {
		return
	}
	t.fired = true
	t.f()
}

// fireLate runs timer i even if it was stopped, like a timer that had
// already fired when Stop was called.
func (c *fakeClock) fireLate(i int) {
	c.timers[i].fired = true
	c.timers[i].f()
}

func newTestMachine() (*Machine, *fakeClock) {
	clock := &fakeClock{}
	return NewMachine(MachineConfig{Schedule: clock.schedule}), clock
}

func TestStartResets(t *testing.T) {
	m, _ := newTestMachine()
	if m.Phase() != PhaseIdle || m.State().Emotion != EmotionNeutral {
		t.Fatalf("unexpected initial state %s %+v", m.Phase(), m.State())
	}

	s := m.Start()
	s.OnMetadata(NewMetadata(EmotionAngry, "stomp", 9))
	s.OnSuggestions([]string{"Sorry"})
	s.Complete()

	m.Start()
	st := m.State()
	if !st.IsStreaming || st.Emotion != EmotionNeutral || st.ShouldSendToBed || st.ShowSuggestions || len(st.Suggestions) != 0 {
		t.Errorf("expected fresh streaming state, got %+v", st)
	}
	if m.Phase() != PhaseStreaming {
		t.Errorf("expected streaming, got %s", m.Phase())
	}
}

func TestChunksAreBatched(t *testing.T) {
	m, clock := newTestMachine()
	flushes := 0
	last := ""
	m.OnUpdate(func(s State) {
		if s.DialogueText != last {
			flushes++
			last = s.DialogueText
		}
	})

	s := m.Start()
	full := ""
	for i := 0; i < 10; i++ {
		full += fmt.Sprintf("w%d ", i)
		s.OnDialogueChunk(full)
	}

	if len(clock.timers) != 1 {
		t.Fatalf("expected one scheduled flush, got %d", len(clock.timers))
	}
	if clock.delays[0] != DefaultBatchInterval {
		t.Errorf("expected %s batching, got %s", DefaultBatchInterval, clock.delays[0])
	}
	if flushes != 0 || m.State().DialogueText != "" {
		t.Fatalf("text became visible before the window elapsed: %d flushes", flushes)
	}

	clock.fire(0)
	if flushes != 1 || m.State().DialogueText != full {
		t.Fatalf("expected one flush with the latest text, got %d flushes, %q", flushes, m.State().DialogueText)
	}

	s.OnDialogueChunk(full + "end")
	if len(clock.timers) != 2 {
		t.Fatalf("expected a new window after the flush, got %d timers", len(clock.timers))
	}
	s.Complete()
	if !clock.timers[1].stopped {
		t.Error("complete should cancel the pending flush")
	}
	if flushes != 2 || m.State().DialogueText != full+"end" {
		t.Errorf("expected the final flush on complete, got %d flushes, %q", flushes, m.State().DialogueText)
	}
	if m.State().IsStreaming || m.Phase() != PhaseComplete {
		t.Errorf("expected complete, got %s %+v", m.Phase(), m.State())
	}
}

func TestMetadataIsImmediate(t *testing.T) {
	m, clock := newTestMachine()
	s := m.Start()
	s.OnMetadata(NewMetadata(EmotionWorried, "", 15))

	st := m.State()
	if st.Emotion != EmotionWorried || st.ModerationScore != 10 || !st.ShouldSendToBed {
		t.Errorf("unexpected state %+v", st)
	}
	if len(clock.timers) != 0 {
		t.Errorf("metadata should not schedule a flush")
	}
}

func TestSuggestionsShown(t *testing.T) {
	m, _ := newTestMachine()
	s := m.Start()
	list := []string{"Ask about fish", "Leave"}
	s.OnSuggestions(list)
	list[0] = "mutated"

	st := m.State()
	if !st.ShowSuggestions || st.Suggestions[0] != "Ask about fish" {
		t.Errorf("unexpected suggestions %+v", st)
	}
}

func TestFailKeepsText(t *testing.T) {
	m, clock := newTestMachine()
	s := m.Start()
	s.OnDialogueChunk("I was just about to")
	clock.fire(0)
	s.OnDialogueChunk("I was just about to say")

	s.Fail(errors.New("stream reset"))

	st := m.State()
	if st.DialogueText != "I was just about to say" {
		t.Errorf("expected partial text kept, got %q", st.DialogueText)
	}
	if st.IsStreaming || st.Error != "stream reset" || m.Phase() != PhaseError {
		t.Errorf("unexpected state %s %+v", m.Phase(), st)
	}
	if !clock.timers[1].stopped {
		t.Error("fail should cancel the pending flush")
	}
}

func TestStaleStreamIsNoop(t *testing.T) {
	m, clock := newTestMachine()
	old := m.Start()
	old.OnDialogueChunk("old reply")

	cur := m.Start()
	if !clock.timers[0].stopped {
		t.Error("start should cancel the previous stream's timer")
	}

	clock.fireLate(0)
	old.OnMetadata(NewMetadata(EmotionAngry, "", 9))
	old.OnDialogueChunk("old reply, longer")
	old.OnSuggestions([]string{"x"})
	old.Complete()

	st := m.State()
	if st.DialogueText != "" || st.Emotion != EmotionNeutral || st.ShowSuggestions || !st.IsStreaming {
		t.Errorf("stale stream changed state: %+v", st)
	}
	if m.Phase() != PhaseStreaming || old.Active() || !cur.Active() {
		t.Errorf("unexpected phase %s (old active %v, cur active %v)", m.Phase(), old.Active(), cur.Active())
	}
	if len(clock.timers) != 1 {
		t.Errorf("stale chunk should not schedule, got %d timers", len(clock.timers))
	}
}

func TestReset(t *testing.T) {
	m, clock := newTestMachine()
	s := m.Start()
	s.OnDialogueChunk("half a sent")

	m.Reset()
	clock.fireLate(0)
	s.Complete()

	st := m.State()
	if m.Phase() != PhaseIdle || st.IsStreaming || st.DialogueText != "" {
		t.Errorf("expected idle after reset, got %s %+v", m.Phase(), st)
	}
}

func TestCallsAfterCompleteIgnored(t *testing.T) {
	m, _ := newTestMachine()
	s := m.Start()
	s.OnDialogueChunk("done")
	s.Complete()
	s.OnDialogueChunk("done and more")
	s.Fail(errors.New("late"))

	if m.State().DialogueText != "done" || m.Phase() != PhaseComplete {
		t.Errorf("unexpected state %s %+v", m.Phase(), m.State())
	}
}

func TestRealTimerFlushes(t *testing.T) {
	m := NewMachine(MachineConfig{BatchInterval: time.Millisecond})
	done := make(chan string, 1)
	m.OnUpdate(func(s State) {
		if strings.HasPrefix(s.DialogueText, "hello") {
			select {
			case done <- s.DialogueText:
			default:
			}
		}
	})

	s := m.Start()
	s.OnDialogueChunk("hello")
	select {
	case got := <-done:
		if got != "hello" {
			t.Errorf("unexpected text %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer never flushed")
	}
	s.Complete()
}
