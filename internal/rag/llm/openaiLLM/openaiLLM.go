package openaiLLM

import (
	"context"
	"errors"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/customHttpClient"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/internal/rag/providers"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("llm_openai")

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

type llmClient struct {
	api   openai.Client
	model string
}

func NewOpenAIClient(opts Options) llm.Provider {
	if opts.Model == "" {
		opts.Model = config.OpenAIChatModel
	}
	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(customHttpClient.NewClient(0)),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(opts.BaseURL))
	}
	logger.Info("OpenAI chat client created", "model", opts.Model)
	return &llmClient{api: openai.NewClient(requestOptions...), model: opts.Model}
}

func (c *llmClient) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(config.ModelContext),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(config.ModelTemperature),
	})
	if err != nil {
		logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).Error("OpenAI completion failed", "error", err)
		return "", providers.Wrap("openai", "generate", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", providers.Wrap("openai", "generate", errors.New("model returned no text"))
	}
	return completion.Choices[0].Message.Content, nil
}
