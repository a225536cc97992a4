package embedding

import "context"

// Embedder turns text into vectors. Every vector one Embedder produces has the same
// dimensionality; callers infer it from the first vector instead of configuring it.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
