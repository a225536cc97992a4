package pgvectorDB

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var logger = logger_i.NewLogger("PgVector")

type collectionRow struct {
	Name      string `gorm:"primaryKey;size:128"`
	Dimension int    `gorm:"not null"`
	Metric    string `gorm:"size:16;not null"`
	CreatedAt time.Time
}

func (collectionRow) TableName() string { return "vector_collections" }

// entryRow.Seq breaks score ties in insertion order.
type entryRow struct {
	ID         string          `gorm:"primaryKey;type:uuid"`
	Collection string          `gorm:"size:128;index:idx_vector_entries_visible,priority:1;not null"`
	Visible    bool            `gorm:"index:idx_vector_entries_visible,priority:2;not null;default:false"`
	DocumentID string          `gorm:"type:uuid;index"`
	ChunkIndex int             `gorm:"not null"`
	Content    string          `gorm:"type:text;not null"`
	Metadata   datatypes.JSON  `gorm:"type:jsonb"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	Seq        int64           `gorm:"autoIncrement;not null"`
}

func (entryRow) TableName() string { return "vector_entries" }

// Index stores vectors next to the relational data. It shares the gorm handle of the
// relational store but is written outside its transactions, like any other index.
type Index struct {
	db *gorm.DB
}

func NewPgVectorIndex(db *gorm.DB) *Index {
	return &Index{db: db}
}

func (idx *Index) Migrate(ctx context.Context) error {
	db := idx.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	if err := db.AutoMigrate(&collectionRow{}, &entryRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (idx *Index) EnsureCollection(ctx context.Context, spec commonModels.CollectionSpec) error {
	if spec.Name == "" || spec.Dimension <= 0 || !spec.Metric.Valid() {
		return ragErrors.InvalidArgument("bad collection spec %+v", spec)
	}
	row := collectionRow{Name: spec.Name, Dimension: spec.Dimension, Metric: string(spec.Metric), CreatedAt: time.Now().UTC()}
	created := idx.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if created.Error != nil {
		return fmt.Errorf("creating collection %q: %w", spec.Name, created.Error)
	}
	if created.RowsAffected == 1 {
		logger.Info("Created collection", "collection", spec.Name, "dimension", spec.Dimension, "metric", spec.Metric)
		return nil
	}

	existing, err := idx.describe(ctx, spec.Name)
	if err != nil {
		return err
	}
	return compareSpec(existing, spec)
}

func (idx *Index) describe(ctx context.Context, name string) (commonModels.CollectionSpec, error) {
	var row collectionRow
	err := idx.db.WithContext(ctx).Where("name = ?", name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return commonModels.CollectionSpec{}, ragErrors.NotFound("collection", name)
	}
	if err != nil {
		return commonModels.CollectionSpec{}, err
	}
	return commonModels.CollectionSpec{Name: row.Name, Dimension: row.Dimension, Metric: commonModels.DistanceMetric(row.Metric)}, nil
}

func compareSpec(have, want commonModels.CollectionSpec) error {
	if have.Dimension != want.Dimension {
		return fmt.Errorf("%w: collection %q stores %d dimensions, got %d", ragErrors.ErrDimensionMismatch, have.Name, have.Dimension, want.Dimension)
	}
	if have.Metric != want.Metric {
		return fmt.Errorf("%w: collection %q uses %s, got %s", ragErrors.ErrMetricMismatch, have.Name, have.Metric, want.Metric)
	}
	return nil
}

func (idx *Index) Stage(ctx context.Context, collection string, entries []commonModels.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}
	spec, err := idx.describe(ctx, collection)
	if err != nil {
		return err
	}

	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector) != spec.Dimension {
			return fmt.Errorf("%w: entry %s has %d dimensions, collection %q stores %d", ragErrors.ErrDimensionMismatch, e.Id, len(e.Vector), collection, spec.Dimension)
		}
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		rows = append(rows, entryRow{
			ID:         e.Id,
			Collection: collection,
			DocumentID: e.DocumentId,
			ChunkIndex: e.ChunkIndex,
			Content:    e.Content,
			Metadata:   datatypes.JSON(meta),
			Embedding:  pgvector.NewVector(e.Vector),
		})
	}
	return idx.db.WithContext(ctx).Omit("Seq").CreateInBatches(&rows, config.EmbeddingBatchSize).Error
}

func (idx *Index) Publish(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	res := idx.db.WithContext(ctx).Model(&entryRow{}).
		Where("collection = ? AND id IN ?", collection, ids).
		Update("visible", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return ragErrors.NotFound("vector entries", fmt.Sprintf("%d of %d in %s", int64(len(ids))-res.RowsAffected, len(ids), collection))
	}
	return nil
}

func (idx *Index) Discard(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return idx.db.WithContext(ctx).Where("collection = ? AND id IN ?", collection, ids).Delete(&entryRow{}).Error
}

type hitRow struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Content    string
	Metadata   datatypes.JSON
	Distance   float64
}

func operator(metric commonModels.DistanceMetric) string {
	if metric == commonModels.Euclidean {
		return "<->"
	}
	return "<=>"
}

func (idx *Index) SimilaritySearch(ctx context.Context, collection string, query []float32, k int, metric commonModels.DistanceMetric) ([]commonModels.ScoredEntry, error) {
	if k < 1 {
		return nil, ragErrors.InvalidArgument("k must be positive, got %d", k)
	}
	spec, err := idx.describe(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := compareSpec(spec, commonModels.CollectionSpec{Name: collection, Dimension: len(query), Metric: metric}); err != nil {
		return nil, err
	}

	var rows []hitRow
	sql := fmt.Sprintf(`SELECT id, document_id, chunk_index, content, metadata, embedding %s ? AS distance
		FROM vector_entries WHERE collection = ? AND visible = true
		ORDER BY distance ASC, seq ASC LIMIT ?`, operator(metric))
	if err := idx.db.WithContext(ctx).Raw(sql, pgvector.NewVector(query), collection, k).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgvector query failed: %w", err)
	}

	hits := make([]commonModels.ScoredEntry, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, commonModels.ScoredEntry{
			Entry: commonModels.VectorEntry{
				Id:         r.ID,
				DocumentId: r.DocumentID,
				ChunkIndex: r.ChunkIndex,
				Content:    r.Content,
				Metadata:   decodeMetadata(collection, r.ID, r.Metadata),
			},
			Score: score(metric, r.Distance),
		})
	}
	return hits, nil
}

// decodeMetadata keeps a hit with unreadable metadata instead of failing the whole search.
func decodeMetadata(collection string, id string, raw datatypes.JSON) commonModels.SegmentMetadata {
	var meta commonModels.SegmentMetadata
	if len(raw) == 0 || string(raw) == "null" {
		return meta
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		logger.Warn("Unreadable entry metadata, returning hit without it", "collection", collection, "id", id, "error", err)
		return commonModels.SegmentMetadata{}
	}
	return meta
}

// score turns pgvector's cosine distance back into a similarity.
func score(metric commonModels.DistanceMetric, distance float64) float64 {
	if metric == commonModels.Euclidean {
		return distance
	}
	return 1 - distance
}
