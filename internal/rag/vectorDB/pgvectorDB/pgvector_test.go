package pgvectorDB

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockIndex(t *testing.T) (*Index, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return NewPgVectorIndex(db), mock
}

func expectCollection(mock sqlmock.Sqlmock, dimension int, metric string) {
	mock.ExpectQuery(`SELECT \* FROM "vector_collections"`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "dimension", "metric"}).AddRow("HR", dimension, metric))
}

func TestSimilaritySearch_CosineScores(t *testing.T) {
	idx, mock := newMockIndex(t)
	expectCollection(mock, 2, "cosine")
	mock.ExpectQuery(`embedding <=> .* FROM vector_entries WHERE collection = .* AND visible = true\s+ORDER BY distance ASC, seq ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "chunk_index", "content", "metadata", "distance"}).
			AddRow("e1", "d1", 0, "Annual leave is 25 days", []byte(`{"source":"s","filename":"handbook.pdf","page":2}`), 0.25).
			AddRow("e2", "d1", 1, "Sick leave", []byte(`{"source":"s","filename":"handbook.pdf","page":3}`), 0.5))

	hits, err := idx.SimilaritySearch(context.Background(), "HR", []float32{1, 0}, 3, commonModels.Cosine)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 || hits[0].Entry.Id != "e1" {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if hits[0].Score != 0.75 {
		t.Errorf("cosine distance 0.25 should score 0.75, got %v", hits[0].Score)
	}
	if p := hits[1].Entry.Metadata.Page; p == nil || *p != 3 {
		t.Errorf("page lost: %v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSimilaritySearch_UnreadableMetadata(t *testing.T) {
	idx, mock := newMockIndex(t)
	expectCollection(mock, 2, "cosine")
	mock.ExpectQuery(`FROM vector_entries WHERE collection = .* AND visible = true`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "chunk_index", "content", "metadata", "distance"}).
			AddRow("e1", "d1", 0, "Annual leave is 25 days", []byte(`{"page":`), 0.1).
			AddRow("e2", "d1", 1, "Sick leave", nil, 0.2).
			AddRow("e3", "d1", 2, "Parental leave", []byte(`{"filename":"handbook.pdf","page":4}`), 0.3))

	hits, err := idx.SimilaritySearch(context.Background(), "HR", []float32{1, 0}, 3, commonModels.Cosine)
	if err != nil {
		t.Fatalf("one bad row must not fail the search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	tests := []struct {
		id       string
		filename string
		page     int
	}{
		{id: "e1"},
		{id: "e2"},
		{id: "e3", filename: "handbook.pdf", page: 4},
	}
	for i, tt := range tests {
		meta := hits[i].Entry.Metadata
		if hits[i].Entry.Id != tt.id || meta.Filename != tt.filename {
			t.Errorf("hit %d: unexpected entry %+v", i, hits[i].Entry)
		}
		if tt.page == 0 && meta.Page != nil {
			t.Errorf("hit %d: page should be empty, got %d", i, *meta.Page)
		}
		if tt.page != 0 && (meta.Page == nil || *meta.Page != tt.page) {
			t.Errorf("hit %d: page lost", i)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSimilaritySearch_Rejects(t *testing.T) {
	idx, mock := newMockIndex(t)

	if _, err := idx.SimilaritySearch(context.Background(), "HR", []float32{1}, 0, commonModels.Cosine); !errors.Is(err, ragErrors.ErrInvalidArgument) {
		t.Errorf("k=0: %v", err)
	}

	expectCollection(mock, 2, "cosine")
	if _, err := idx.SimilaritySearch(context.Background(), "HR", []float32{1, 0}, 1, commonModels.Euclidean); !errors.Is(err, ragErrors.ErrMetricMismatch) {
		t.Errorf("metric: %v", err)
	}

	mock.ExpectQuery(`SELECT \* FROM "vector_collections"`).WillReturnRows(sqlmock.NewRows([]string{"name"}))
	if _, err := idx.SimilaritySearch(context.Background(), "Legal", []float32{1, 0}, 1, commonModels.Cosine); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("missing collection: %v", err)
	}
}

func TestPublish_ReportsMissingEntries(t *testing.T) {
	idx, mock := newMockIndex(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "vector_entries" SET "visible"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := idx.Publish(context.Background(), "HR", []string{"a", "b"})
	if !errors.Is(err, ragErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEnsureCollection_ExistingMismatch(t *testing.T) {
	idx, mock := newMockIndex(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "vector_collections" .* ON CONFLICT DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	expectCollection(mock, 768, "cosine")

	err := idx.EnsureCollection(context.Background(), commonModels.CollectionSpec{Name: "HR", Dimension: 384, Metric: commonModels.Cosine})
	if !errors.Is(err, ragErrors.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}
