package relationalStore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
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
	return NewGormStore(db, time.Second), mock
}

func TestGormStore_TransactionRollsBackOnChunkFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "documents"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "document_chunks"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.WithinTransaction(context.Background(), func(tx commonModels.DocumentTx) error {
		doc := &commonModels.Document{Id: "4d4b4cf8-0000-0000-0000-000000000001", Title: "a.txt", FilePath: "a.txt", FileType: "txt", UploadedBy: "u1"}
		if err := tx.CreateDocument(context.Background(), doc); err != nil {
			return err
		}
		return tx.InsertChunks(context.Background(), doc.Id, []commonModels.DocumentChunk{
			{Id: "4d4b4cf8-0000-0000-0000-000000000002", ChunkText: "hello", ChunkIndex: 0, Embedding: []float32{1, 0}},
		})
	})

	if err == nil {
		t.Fatal("expected the chunk insert failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGormStore_TransactionCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "documents"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "document_chunks"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := s.WithinTransaction(context.Background(), func(tx commonModels.DocumentTx) error {
		doc := &commonModels.Document{Id: "doc-1", Title: "a.txt", FilePath: "a.txt", FileType: "txt", UploadedBy: "u1"}
		if err := tx.CreateDocument(context.Background(), doc); err != nil {
			return err
		}
		return tx.InsertChunks(context.Background(), doc.Id, []commonModels.DocumentChunk{
			{Id: "c-0", ChunkText: "hello", ChunkIndex: 0, Embedding: []float32{1, 0}},
			{Id: "c-1", ChunkText: "world", ChunkIndex: 1, Embedding: []float32{0, 1}},
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGormStore_GetDocumentNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "documents"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetDocument(context.Background(), "missing")
	if !errors.Is(err, ragErrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGormStore_SetTitleIfEmptyOnlyOnce(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "chats" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	written, err := s.SetTitleIfEmpty(context.Background(), "chat-1", "second title")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written {
		t.Error("no row matched the empty-title guard, nothing should be reported as written")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGormStore_DeleteDocument(t *testing.T) {
	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		wantIds []string
		wantErr error
	}{
		{
			name: "removes chunks and document in one transaction",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT \* FROM "documents"`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "title", "uploaded_by", "collection"}).AddRow("doc-1", "a.txt", "u1", "HR"))
				mock.ExpectQuery(`SELECT "id" FROM "document_chunks"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c-0").AddRow("c-1"))
				mock.ExpectExec(`DELETE FROM "document_chunks"`).WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectExec(`DELETE FROM "documents"`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantIds: []string{"c-0", "c-1"},
		},
		{
			name: "unknown document rolls back",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT \* FROM "documents"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectRollback()
			},
			wantErr: ragErrors.ErrNotFound,
		},
		{
			name: "failed document delete keeps the chunks",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT \* FROM "documents"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
				mock.ExpectQuery(`SELECT "id" FROM "document_chunks"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c-0"))
				mock.ExpectExec(`DELETE FROM "document_chunks"`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`DELETE FROM "documents"`).WillReturnError(errors.New("lock timeout"))
				mock.ExpectRollback()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.expect(mock)

			ids, err := s.DeleteDocument(context.Background(), "doc-1")
			switch {
			case tt.wantIds != nil:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(ids) != len(tt.wantIds) || ids[0] != tt.wantIds[0] || ids[1] != tt.wantIds[1] {
					t.Errorf("ids = %v, want %v", ids, tt.wantIds)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			default:
				if err == nil || ids != nil {
					t.Errorf("expected a failure and no ids, got %v %v", ids, err)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestGormStore_FindDocument(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "documents" WHERE uploaded_by = \$1 AND collection = \$2 AND title = \$3`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "uploaded_by", "collection"}).AddRow("doc-1", "a.txt", "u1", "HR"))
	mock.ExpectQuery(`SELECT \* FROM "documents"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	doc, err := s.FindDocument(context.Background(), "u1", "HR", "a.txt")
	if err != nil || doc.Id != "doc-1" {
		t.Fatalf("unexpected result %+v %v", doc, err)
	}
	if _, err := s.FindDocument(context.Background(), "u1", "HR", "b.txt"); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
