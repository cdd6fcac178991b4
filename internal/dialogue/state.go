package dialogue

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultBatchInterval bounds how often streamed text reaches visible state.
const DefaultBatchInterval = 50 * time.Millisecond

// Phase is the lifecycle position of the machine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStreaming Phase = "streaming"
	PhaseComplete  Phase = "complete"
	PhaseError     Phase = "error"
)

// State is the UI-facing view of the current reply.
type State struct {
	IsStreaming     bool     `json:"is_streaming"`
	DialogueText    string   `json:"dialogue_text"`
	Emotion         Emotion  `json:"emotion"`
	Action          string   `json:"action,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
	ShowSuggestions bool     `json:"show_suggestions"`
	ModerationScore int      `json:"moderation_score"`
	ShouldSendToBed bool     `json:"should_send_to_bed"`
	Error           string   `json:"error,omitempty"`
}

func idleState() State {
	return State{Emotion: EmotionNeutral}
}

// Timer is a pending single-shot callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. f must not be called before Scheduler returns.
type Scheduler func(d time.Duration, f func()) Timer

// AfterFunc schedules with time.AfterFunc.
func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// MachineConfig configures a Machine.
type MachineConfig struct {
	BatchInterval time.Duration
	Schedule      Scheduler
	Logger        *slog.Logger
}

// Machine holds the state of one NPC reply at a time.
//
// Each Start bumps an epoch. Stream handles and flush timers carry the epoch
// they were created under and do nothing once it is stale, so a late callback
// from an abandoned reply cannot touch a newer one.
type Machine struct {
	cfg    MachineConfig
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	phase      Phase
	epoch      uint64
	pending    string
	hasPending bool
	timer      Timer
	listeners  []func(State)
}

// NewMachine returns an idle machine.
func NewMachine(cfg MachineConfig) *Machine {
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = DefaultBatchInterval
	}
	if cfg.Schedule == nil {
		cfg.Schedule = AfterFunc
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Machine{cfg: cfg, logger: cfg.Logger, state: idleState(), phase: PhaseIdle}
}

// OnUpdate registers fn to receive every visible state change.
func (m *Machine) OnUpdate(fn func(State)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// State returns a copy of the visible state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Phase returns the lifecycle phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Machine) snapshot() State {
	s := m.state
	s.Suggestions = append([]string(nil), m.state.Suggestions...)
	return s
}

// update applies fn under the lock and notifies listeners after unlocking.
// fn returns false to skip notification.
func (m *Machine) update(fn func() bool) {
	m.mu.Lock()
	if !fn() {
		m.mu.Unlock()
		return
	}
	s := m.snapshot()
	listeners := append([]func(State){}, m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}

func (m *Machine) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Machine) clear() {
	m.stopTimer()
	m.state = idleState()
	m.pending, m.hasPending = "", false
}

// Start begins a new reply, abandoning any previous one.
func (m *Machine) Start() *Stream {
	var epoch uint64
	m.update(func() bool {
		m.clear()
		m.epoch++
		epoch = m.epoch
		m.state.IsStreaming = true
		m.phase = PhaseStreaming
		return true
	})
	return &Stream{m: m, epoch: epoch}
}

// Reset abandons the current reply and returns to idle. In-flight callbacks
// from the abandoned stream become no-ops.
func (m *Machine) Reset() {
	m.update(func() bool {
		m.clear()
		m.epoch++
		m.phase = PhaseIdle
		return true
	})
}

// flushLocked copies pending text into visible state.
func (m *Machine) flushLocked() bool {
	if !m.hasPending {
		return false
	}
	m.state.DialogueText = m.pending
	m.hasPending = false
	return true
}

// Stream is the handle of one reply. Its methods are no-ops once the machine
// has been restarted or reset, or the reply has finished.
type Stream struct {
	m     *Machine
	epoch uint64
}

func (s *Stream) live() bool {
	return s.m.epoch == s.epoch && s.m.phase == PhaseStreaming
}

// Active reports whether this stream is still the current, unfinished reply.
func (s *Stream) Active() bool {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.live()
}

// OnMetadata applies the reply header immediately.
func (s *Stream) OnMetadata(md Metadata) {
	s.m.update(func() bool {
		if !s.live() {
			return false
		}
		st := &s.m.state
		st.Emotion = md.Emotion
		st.Action = md.Action
		st.ModerationScore = md.ModerationScore
		st.ShouldSendToBed = md.ShouldSendToBed
		return true
	})
}

// OnDialogueChunk records the full text so far. Visible state catches up at
// most once per batch interval.
func (s *Stream) OnDialogueChunk(fullText string) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if !s.live() {
		return
	}
	m.pending, m.hasPending = fullText, true
	if m.timer != nil {
		return
	}
	epoch := s.epoch
	m.timer = m.cfg.Schedule(m.cfg.BatchInterval, func() {
		m.update(func() bool {
			if m.epoch != epoch {
				return false
			}
			m.timer = nil
			return m.flushLocked()
		})
	})
}

// OnSuggestions shows the reply's suggestions.
func (s *Stream) OnSuggestions(list []string) {
	s.m.update(func() bool {
		if !s.live() {
			return false
		}
		s.m.state.Suggestions = append([]string(nil), list...)
		s.m.state.ShowSuggestions = true
		return true
	})
}

// Complete cancels the pending flush, flushes once more and ends the reply.
func (s *Stream) Complete() {
	s.m.update(func() bool {
		if !s.live() {
			return false
		}
		s.m.stopTimer()
		s.m.flushLocked()
		s.m.state.IsStreaming = false
		s.m.phase = PhaseComplete
		return true
	})
}

// Fail ends the reply with err. Text streamed so far stays visible.
func (s *Stream) Fail(err error) {
	s.m.update(func() bool {
		if !s.live() {
			return false
		}
		s.m.stopTimer()
		s.m.flushLocked()
		s.m.state.IsStreaming = false
		s.m.state.Error = err.Error()
		s.m.phase = PhaseError
		s.m.logger.Debug("dialogue stream failed", "err", err)
		return true
	})
}
