package rag_test

import (
	"context"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/rag/ingest"
)

// MockIndex implements vectorDB.Index
type MockIndex struct {
	OnSearch func(ctx context.Context, collection string, query []float32, k int, metric commonModels.DistanceMetric) ([]commonModels.ScoredEntry, error)
}

func (m *MockIndex) EnsureCollection(ctx context.Context, spec commonModels.CollectionSpec) error {
	return nil
}
func (m *MockIndex) Stage(ctx context.Context, collection string, entries []commonModels.VectorEntry) error {
	return nil
}
func (m *MockIndex) Publish(ctx context.Context, collection string, ids []string) error { return nil }
func (m *MockIndex) Discard(ctx context.Context, collection string, ids []string) error { return nil }

func (m *MockIndex) SimilaritySearch(ctx context.Context, collection string, query []float32, k int, metric commonModels.DistanceMetric) ([]commonModels.ScoredEntry, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, collection, query, k, metric)
	}
	return nil, nil
}

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{0.1, 0.2}, nil
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = m.EmbedQuery(ctx, t)
	}
	return out, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, prompt string) (string, error)
	Prompts    []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt)
	}
	return "mocked llm response", nil
}

// MockIngestor implements rag.Ingestor
type MockIngestor struct {
	OnIngest func(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error)
}

func (m *MockIngestor) Ingest(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error) {
	if m.OnIngest != nil {
		return m.OnIngest(ctx, req, observe)
	}
	return ingest.Result{}, nil
}
