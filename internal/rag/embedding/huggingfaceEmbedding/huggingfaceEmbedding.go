package huggingfaceEmbedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/customHttpClient"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/internal/rag/providers"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/tidwall/gjson"
)

const providerName = "huggingface"

// error bodies are cut to this many bytes
const maxErrorBody = 512

var logger = logger_i.NewLogger("huggingface_embedding")

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

type client struct {
	http     *http.Client
	endpoint string
	apiKey   string
}

// NewHuggingFaceEmbedder calls the hosted feature-extraction pipeline of a sentence-transformers model.
func NewHuggingFaceEmbedder(opts Options) embedding.Embedder {
	if opts.Model == "" {
		opts.Model = config.HuggingFaceEmbeddingModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = config.HuggingFaceBaseURL
	}
	endpoint := strings.TrimSuffix(opts.BaseURL, "/") + "/" + opts.Model + "/pipeline/feature-extraction"
	logger.Info("HuggingFace Embedding client created", "model", opts.Model)
	return &client{http: customHttpClient.NewClient(0), endpoint: endpoint, apiKey: opts.APIKey}
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
		logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).Error("Error getting embeddings from HuggingFace", "error", err)
		return nil, providers.Wrap(providerName, "embed_documents", err)
	}
	return vectors, nil
}

func (c *client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(map[string]any{
		"inputs":  texts,
		"options": map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, &providers.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return parseVectors(raw, len(texts))
}

// parseVectors accepts sentence level output ([[f...]...]) and token level output
// ([[[f...]...]...]), which is mean pooled into one vector per input.
func parseVectors(raw []byte, want int) ([][]float32, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("response is not json")
	}
	result := gjson.ParseBytes(raw)
	if !result.IsArray() {
		return nil, fmt.Errorf("unexpected response %s", result.Raw)
	}

	items := result.Array()
	if len(items) != want {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(items), want)
	}
	vectors := make([][]float32, 0, want)
	for i, item := range items {
		values := item.Array()
		if len(values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		if values[0].IsArray() {
			vectors = append(vectors, meanPool(values))
			continue
		}
		v := make([]float32, len(values))
		for j, f := range values {
			v[j] = float32(f.Float())
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func meanPool(tokens []gjson.Result) []float32 {
	var sum []float64
	for _, token := range tokens {
		values := token.Array()
		if sum == nil {
			sum = make([]float64, len(values))
		}
		for j := 0; j < len(values) && j < len(sum); j++ {
			sum[j] += values[j].Float()
		}
	}
	out := make([]float32, len(sum))
	for j := range sum {
		out[j] = float32(sum[j] / float64(len(tokens)))
	}
	return out
}
