package llm

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when GeminiConfig.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string
	Model  string
	Logger *slog.Logger
}

// Gemini talks to the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model, logger: cfg.Logger}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

func (g *Gemini) contents(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.User, genai.RoleUser))

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}
	return contents, cfg
}

// Generate returns the full response text.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	contents, cfg := g.contents(req)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp.UsageMetadata != nil {
		g.logger.Debug("gemini completion", "model", g.model, "prompt_tokens", resp.UsageMetadata.PromptTokenCount, "completion_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}
	return resp.Text(), nil
}

// Stream delivers response text as it arrives.
func (g *Gemini) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	contents, cfg := g.contents(req)
	chunks := 0
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
		if err != nil {
			g.logger.Warn("gemini stream interrupted", "model", g.model, "chunks", chunks, "err", err)
			return fmt.Errorf("gemini stream: %w", err)
		}
		if text := resp.Text(); text != "" {
			chunks++
			onChunk(text)
		}
	}
	g.logger.Debug("gemini stream finished", "model", g.model, "chunks", chunks)
	return nil
}
