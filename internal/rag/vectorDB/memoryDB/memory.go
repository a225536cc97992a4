package memoryDB

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
)

// Index is an exact, brute force vector index kept in process memory.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	spec    commonModels.CollectionSpec
	entries map[string]*stored
	nextSeq int
}

type stored struct {
	entry   commonModels.VectorEntry
	visible bool
	seq     int
}

func New() *Index {
	return &Index{collections: make(map[string]*collection)}
}

func (idx *Index) EnsureCollection(ctx context.Context, spec commonModels.CollectionSpec) error {
	if spec.Name == "" || spec.Dimension <= 0 || !spec.Metric.Valid() {
		return ragErrors.InvalidArgument("bad collection spec %+v", spec)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	existing, ok := idx.collections[spec.Name]
	if !ok {
		idx.collections[spec.Name] = &collection{spec: spec, entries: make(map[string]*stored)}
		return nil
	}
	return checkSpec(existing.spec, spec)
}

func checkSpec(have, want commonModels.CollectionSpec) error {
	if have.Dimension != want.Dimension {
		return fmt.Errorf("%w: collection %q stores %d dimensions, got %d", ragErrors.ErrDimensionMismatch, have.Name, have.Dimension, want.Dimension)
	}
	if have.Metric != want.Metric {
		return fmt.Errorf("%w: collection %q uses %s, got %s", ragErrors.ErrMetricMismatch, have.Name, have.Metric, want.Metric)
	}
	return nil
}

func (idx *Index) Stage(ctx context.Context, name string, entries []commonModels.VectorEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	c, ok := idx.collections[name]
	if !ok {
		return ragErrors.NotFound("collection", name)
	}
	for _, e := range entries {
		if len(e.Vector) != c.spec.Dimension {
			return fmt.Errorf("%w: entry %s has %d dimensions, collection %q stores %d", ragErrors.ErrDimensionMismatch, e.Id, len(e.Vector), name, c.spec.Dimension)
		}
	}
	for _, e := range entries {
		e.Vector = append([]float32(nil), e.Vector...)
		c.entries[e.Id] = &stored{entry: e, seq: c.nextSeq}
		c.nextSeq++
	}
	return nil
}

func (idx *Index) Publish(ctx context.Context, name string, ids []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	c, ok := idx.collections[name]
	if !ok {
		return ragErrors.NotFound("collection", name)
	}
	for _, id := range ids {
		if _, ok := c.entries[id]; !ok {
			return ragErrors.NotFound("vector entry", id)
		}
	}
	for _, id := range ids {
		c.entries[id].visible = true
	}
	return nil
}

func (idx *Index) Discard(ctx context.Context, name string, ids []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	c, ok := idx.collections[name]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(c.entries, id)
	}
	return nil
}

func (idx *Index) SimilaritySearch(ctx context.Context, name string, query []float32, k int, metric commonModels.DistanceMetric) ([]commonModels.ScoredEntry, error) {
	if k < 1 {
		return nil, ragErrors.InvalidArgument("k must be positive, got %d", k)
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, ok := idx.collections[name]
	if !ok {
		return nil, ragErrors.NotFound("collection", name)
	}
	if err := checkSpec(c.spec, commonModels.CollectionSpec{Name: name, Dimension: len(query), Metric: metric}); err != nil {
		return nil, err
	}

	type hit struct {
		scored commonModels.ScoredEntry
		seq    int
	}
	hits := make([]hit, 0, len(c.entries))
	for _, s := range c.entries {
		if !s.visible {
			continue
		}
		hits = append(hits, hit{
			scored: commonModels.ScoredEntry{Entry: s.entry, Score: vectorDB.Score(metric, query, s.entry.Vector)},
			seq:    s.seq,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].scored.Score != hits[j].scored.Score {
			return vectorDB.Nearer(metric, hits[i].scored.Score, hits[j].scored.Score)
		}
		return hits[i].seq < hits[j].seq
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]commonModels.ScoredEntry, len(hits))
	for i, h := range hits {
		out[i] = h.scored
	}
	return out, nil
}

// Len counts entries in a collection, staged ones included.
func (idx *Index) Len(name string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if c, ok := idx.collections[name]; ok {
		return len(c.entries)
	}
	return 0
}
