package googleEmbedding

import (
	"context"
	"fmt"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/customHttpClient"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/internal/rag/providers"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"google.golang.org/genai"
)

const providerName = "gemini"

var logger = logger_i.NewLogger("google_embedding")

type Options struct {
	APIKey string
	Model  string
	// Dimensions asks the model for shorter vectors. Zero keeps the model default.
	Dimensions int32
	// BaseURL overrides the Gemini endpoint.
	BaseURL string
}

type client struct {
	genAi      *genai.Client
	model      string
	dimensions *int32
}

func NewGoogleEmbedder(ctx context.Context, opts Options) (embedding.Embedder, error) {
	if opts.Model == "" {
		opts.Model = config.GoogleEmbeddingModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  customHttpClient.NewClient(0),
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return nil, fmt.Errorf("creating gemini embedding client: %w", err)
	}
	logger.Info("Google Embedding client created", "model", opts.Model)

	embedder := &client{genAi: c, model: opts.Model}
	if opts.Dimensions > 0 {
		embedder.dimensions = &opts.Dimensions
	}
	return embedder, nil
}

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	res, err := c.doCall(ctx, getContent([]string{text}), taskQuery)
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err)
		return nil, providers.Wrap(providerName, "embed_query", err)
	}
	vectors, err := toVectors(res, 1)
	if err != nil {
		return nil, providers.Wrap(providerName, "embed_query", err)
	}
	return vectors[0], nil
}

// EmbedDocuments sends all texts in one request; batching is the caller's job.
func (c *client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "texts", len(texts))

	res, err := c.doCall(ctx, getContent(texts), taskDocument)
	if err != nil {
		log.Error("Error getting document embeddings from Google", "error", err)
		return nil, providers.Wrap(providerName, "embed_documents", err)
	}
	vectors, err := toVectors(res, len(texts))
	if err != nil {
		log.Error("Malformed embedding response", "error", err)
		return nil, providers.Wrap(providerName, "embed_documents", err)
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, task string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: c.dimensions,
		TaskType:             task,
	})
}
