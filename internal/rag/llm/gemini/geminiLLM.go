package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/customHttpClient"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/internal/rag/providers"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

var logger = logger_i.NewLogger("llm_gemini")

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewGeminiClient(ctx context.Context, opts Options) (llm.Provider, error) {
	if opts.Model == "" {
		opts.Model = config.GeminiModelName
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  customHttpClient.NewClient(0),
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	logger.Info("Gemini client created", "model", opts.Model)
	return &llmClient{client: c, modelName: opts.Model, temperature: config.ModelTemperature}, nil
}

func (c *llmClient) Generate(ctx context.Context, prompt string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: config.ModelContext}}},
		Temperature:       &c.temperature,
	}
	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), contentConfig)
	if err != nil {
		log.Error("Gemini generate failed", "error", err)
		return "", providers.Wrap("gemini", "generate", err)
	}

	answer := result.Text()
	if answer == "" {
		return "", providers.Wrap("gemini", "generate", errors.New("model returned no text"))
	}
	return answer, nil
}
