package openaiEmbedding

import (
	"context"
	"fmt"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/customHttpClient"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/internal/rag/providers"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerName = "openai"

var logger = logger_i.NewLogger("openai_embedding")

type Options struct {
	APIKey     string
	Model      string
	Dimensions int64
	BaseURL    string
}

type client struct {
	api        openai.Client
	model      string
	dimensions int64
}

func NewOpenAIEmbedder(opts Options) embedding.Embedder {
	if opts.Model == "" {
		opts.Model = config.OpenAIEmbeddingModel
	}
	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(customHttpClient.NewClient(0)),
		// retries belong to the job layer
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(opts.BaseURL))
	}
	logger.Info("OpenAI Embedding client created", "model", opts.Model)
	return &client{api: openai.NewClient(requestOptions...), model: opts.Model, dimensions: opts.Dimensions}
}

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, providers.Wrap(providerName, "embed_query", err)
	}
	return vectors[0], nil
}

func (c *client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := c.embed(ctx, texts)
	if err != nil {
		logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).Error("Error getting embeddings from OpenAI", "error", err)
		return nil, providers.Wrap(providerName, "embed_documents", err)
	}
	return vectors, nil
}

func (c *client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: c.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	if c.dimensions > 0 {
		params.Dimensions = openai.Int(c.dimensions)
	}

	res, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(res.Data), len(texts))
	}

	// the api reports each vector's input position, do not trust response order
	vectors := make([][]float32, len(texts))
	for _, d := range res.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("bad embedding index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		vectors[d.Index] = v
	}
	return vectors, nil
}
