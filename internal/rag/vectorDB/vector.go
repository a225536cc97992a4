package vectorDB

import (
	"context"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

// Index is a named-collection vector store with a two phase write: staged entries are
// stored but invisible to SimilaritySearch until they are published.
type Index interface {
	// EnsureCollection creates the collection or checks that the existing one has the
	// same dimension and metric. A mismatch is ErrDimensionMismatch / ErrMetricMismatch.
	EnsureCollection(ctx context.Context, spec commonModels.CollectionSpec) error
	Stage(ctx context.Context, collection string, entries []commonModels.VectorEntry) error
	Publish(ctx context.Context, collection string, ids []string) error
	Discard(ctx context.Context, collection string, ids []string) error
	// SimilaritySearch returns at most k published entries, nearest first.
	SimilaritySearch(ctx context.Context, collection string, query []float32, k int, metric commonModels.DistanceMetric) ([]commonModels.ScoredEntry, error)
}
