package reasoner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"retirebot/internal/domain"
)

// Gemini reasons through the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

type GeminiConfig struct {
	APIKey string
	Model  string
	Logger *slog.Logger
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-lite"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Gemini{client: client, model: cfg.Model, logger: cfg.Logger}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := g.client.Models.Get(ctx, g.model, nil)
	if err != nil {
		return fmt.Errorf("gemini not reachable: %w", err)
	}
	return nil
}

func (g *Gemini) Reason(ctx context.Context, req domain.ReasonRequest) (*domain.ReasonResponse, error) {
	start := time.Now()

	system := req.System
	if req.Knowledge != "" {
		system += "\n\nUse the following verified reference information to answer:\n" + req.Knowledge
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		var role genai.Role = genai.RoleUser
		if t.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Input, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		cfg.Temperature = &temp
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini: empty response")
	}

	g.logger.Debug("gemini reply", "model", g.model, "latency_ms", time.Since(start).Milliseconds())
	return &domain.ReasonResponse{
		Text:      text,
		Model:     g.model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}
