package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeBackend struct {
	name   string
	reply  string
	chunks []string
	err    error
	calls  int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(ctx context.Context, req Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeBackend) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	f.calls++
	for _, c := range f.chunks {
		onChunk(c)
	}
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFailoverUsesFirstBackend(t *testing.T) {
	a := &fakeBackend{name: "a", reply: "from-a"}
	b := &fakeBackend{name: "b", reply: "from-b"}
	f := NewFailover([]Streamer{a, b}, testLogger())

	got, err := f.Generate(context.Background(), Request{User: "hi"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "from-a" || b.calls != 0 {
		t.Errorf("expected from-a without calling b, got %q (b calls %d)", got, b.calls)
	}
}

func TestFailoverFallsBack(t *testing.T) {
	a := &fakeBackend{name: "a", err: errors.New("rate limited")}
	b := &fakeBackend{name: "b", reply: "from-b"}
	f := NewFailover([]Streamer{a, b}, testLogger())

	got, err := f.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "from-b" {
		t.Errorf("expected from-b, got %q", got)
	}
}

func TestFailoverAllFail(t *testing.T) {
	last := errors.New("fail 2")
	f := NewFailover([]Streamer{
		&fakeBackend{name: "a", err: errors.New("fail 1")},
		&fakeBackend{name: "b", err: last},
	}, testLogger())

	_, err := f.Generate(context.Background(), Request{})
	if !errors.Is(err, last) {
		t.Errorf("expected wrapped last error, got %v", err)
	}
}

func TestFailoverEmpty(t *testing.T) {
	f := NewFailover(nil, testLogger())
	if _, err := f.Generate(context.Background(), Request{}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
	if err := f.Stream(context.Background(), Request{}, func(string) {}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
}

func TestFailoverStreamFallsBackBeforeOutput(t *testing.T) {
	a := &fakeBackend{name: "a", err: errors.New("connect refused")}
	b := &fakeBackend{name: "b", chunks: []string{"hel", "lo"}}
	f := NewFailover([]Streamer{a, b}, testLogger())

	var sb strings.Builder
	if err := f.Stream(context.Background(), Request{}, func(s string) { sb.WriteString(s) }); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sb.String() != "hello" {
		t.Errorf("expected hello, got %q", sb.String())
	}
}

func TestFailoverStreamStopsAfterOutput(t *testing.T) {
	cut := errors.New("connection reset")
	a := &fakeBackend{name: "a", chunks: []string{"par"}, err: cut}
	b := &fakeBackend{name: "b", chunks: []string{"other"}}
	f := NewFailover([]Streamer{a, b}, testLogger())

	var sb strings.Builder
	err := f.Stream(context.Background(), Request{}, func(s string) { sb.WriteString(s) })
	if !errors.Is(err, cut) {
		t.Errorf("expected mid-stream error, got %v", err)
	}
	if sb.String() != "par" || b.calls != 0 {
		t.Errorf("expected only partial output from a, got %q (b calls %d)", sb.String(), b.calls)
	}
}

func TestFailoverName(t *testing.T) {
	f := NewFailover([]Streamer{&fakeBackend{name: "a"}, &fakeBackend{name: "b"}}, testLogger())
	if f.Name() != "failover(a→b)" {
		t.Errorf("unexpected name %q", f.Name())
	}
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(context.Background(), nil, testLogger()); !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
	_, err := New(context.Background(), []BackendConfig{{Provider: "openai"}, {Provider: "carrier-pigeon"}}, testLogger())
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider when every backend is invalid, got %v", err)
	}
}

func TestNewSingleBackend(t *testing.T) {
	s, err := New(context.Background(), []BackendConfig{{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o"}}, testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Name() != "openai:gpt-4o" {
		t.Errorf("unexpected backend %q", s.Name())
	}
}
