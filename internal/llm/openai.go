package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when OpenAIConfig.Model is empty.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, for compatible servers
	Model   string
	Logger  *slog.Logger
}

// OpenAI talks to the Chat Completions API.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI backend. The API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

func (o *OpenAI) Name() string { return "openai:" + o.model }

func (o *OpenAI) params(req Request) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(req.User))
	return openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    openai.ChatModel(o.model),
	}
}

// Generate returns the full completion text.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, o.params(req))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty response")
	}
	o.logger.Debug("openai completion", "model", o.model, "prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}

// Stream delivers content deltas as they arrive.
func (o *OpenAI) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(req))
	defer stream.Close()

	chunks := 0
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			chunks++
			onChunk(delta)
		}
	}
	if err := stream.Err(); err != nil {
		o.logger.Warn("openai stream interrupted", "model", o.model, "chunks", chunks, "err", err)
		return fmt.Errorf("openai stream: %w", err)
	}
	o.logger.Debug("openai stream finished", "model", o.model, "chunks", chunks)
	return nil
}
