// Package llm is the text generation boundary used by NPC memory promotion
// and dialogue. Backends wrap the OpenAI and Gemini SDKs.
package llm

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no backend is configured.
var ErrNoProvider = errors.New("no llm provider configured")

// Role is the speaker of a history message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior turn sent as context.
type Message struct {
	Role    Role
	Content string
}

// Request is a single generation call: a system prompt, prior turns and the
// new user text.
type Request struct {
	System  string
	History []Message
	User    string
}

// Generator produces a complete reply.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Streamer additionally delivers the reply incrementally. onChunk is called
// on the calling goroutine, in order.
type Streamer interface {
	Generator
	Stream(ctx context.Context, req Request, onChunk func(string)) error
}
