package llm

import (
	"context"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig covers any OpenAI-compatible completion API. Setting
// BaseURL points it at Groq or a self-hosted gateway.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type OpenAIGenerator struct {
	cfg    OpenAIConfig
	client *openai.Client
	logger *slog.Logger
}

func NewOpenAIGenerator(cfg OpenAIConfig, logger *slog.Logger) *OpenAIGenerator {
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instant"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 600
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger,
	}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Available(ctx context.Context) bool {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return false
	}
	_, err := g.client.ListModels(ctx)
	if err != nil {
		g.logger.Debug("openai availability probe failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) string {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: float32(g.cfg.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		g.logger.Warn("generation failed", slog.String("error", err.Error()))
		return Apology
	}
	if len(resp.Choices) == 0 {
		g.logger.Warn("generation returned no choices")
		return Apology
	}
	return CleanOutput(resp.Choices[0].Message.Content)
}

var _ Generator = (*OpenAIGenerator)(nil)
