package relationalStore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/chatModel"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore is the postgres-backed document and chat store.
type GormStore struct {
	db      *gorm.DB
	timeout time.Duration
	logger  *logger_i.Logger
}

func Open(dsn string, timeout time.Duration) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)

	return NewGormStore(db, timeout), nil
}

func NewGormStore(db *gorm.DB, timeout time.Duration) *GormStore {
	if timeout <= 0 {
		timeout = config.DBTimeout
	}
	return &GormStore{db: db, timeout: timeout, logger: logger_i.NewLogger("RelationalStore")}
}

// DB exposes the handle so the pgvector index can share the connection pool.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates the vector extension and all tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	if err := db.AutoMigrate(&documentRow{}, &chunkRow{}, &chatRow{}, &chatMessageRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.logger.Info("Database migrated")
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) withTimeout(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	c, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(c), cancel
}

// documents -------------------------------------------------

type gormTx struct {
	tx *gorm.DB
}

func (t *gormTx) CreateDocument(ctx context.Context, doc *commonModels.Document) error {
	if doc.Id == "" {
		doc.Id = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	row := toDocumentRow(*doc)
	return t.tx.WithContext(ctx).Omit(clause.Associations).Create(&row).Error
}

func (t *gormTx) InsertChunks(ctx context.Context, documentId string, chunks []commonModels.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]chunkRow, 0, len(chunks))
	for _, c := range chunks {
		row, err := toChunkRow(documentId, c)
		if err != nil {
			return fmt.Errorf("encoding chunk %d metadata: %w", c.ChunkIndex, err)
		}
		rows = append(rows, row)
	}
	return t.tx.WithContext(ctx).Omit(clause.Associations).Create(&rows).Error
}

func (s *GormStore) WithinTransaction(ctx context.Context, fn func(tx commonModels.DocumentTx) error) error {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{tx: tx})
	})
}

func (s *GormStore) GetDocument(ctx context.Context, id string) (commonModels.Document, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var row documentRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return commonModels.Document{}, notFound(err, "document", id)
	}
	return row.toModel(), nil
}

func (s *GormStore) ListDocuments(ctx context.Context, uploadedBy string) ([]commonModels.Document, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var rows []documentRow
	if err := db.Where("uploaded_by = ?", uploadedBy).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]commonModels.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.toModel())
	}
	return docs, nil
}

func (s *GormStore) CountChunks(ctx context.Context, documentId string) (int64, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var count int64
	err := db.Model(&chunkRow{}).Where("document_id = ?", documentId).Count(&count).Error
	return count, err
}

func (s *GormStore) ListChunks(ctx context.Context, documentId string) ([]commonModels.DocumentChunk, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var rows []chunkRow
	if err := db.Where("document_id = ?", documentId).Order("chunk_index ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	chunks := make([]commonModels.DocumentChunk, 0, len(rows))
	for _, r := range rows {
		chunks = append(chunks, r.toModel())
	}
	return chunks, nil
}

func (s *GormStore) FindDocument(ctx context.Context, uploadedBy string, collection string, title string) (commonModels.Document, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var row documentRow
	err := db.Where("uploaded_by = ? AND collection = ? AND title = ?", uploadedBy, collection, title).
		First(&row).Error
	if err != nil {
		return commonModels.Document{}, notFound(err, "document", title)
	}
	return row.toModel(), nil
}

func (s *GormStore) DeleteDocument(ctx context.Context, id string) ([]string, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var ids []string
	err := db.Transaction(func(tx *gorm.DB) error {
		var row documentRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return notFound(err, "document", id)
		}
		if err := tx.Model(&chunkRow{}).Where("document_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&chunkRow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&documentRow{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// chats -----------------------------------------------------

func (s *GormStore) CreateChat(ctx context.Context, chat *chatModel.Chat) error {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	now := time.Now().UTC()
	chat.CreatedAt, chat.UpdatedAt = now, now
	row := chatRow{ID: chat.Id, UserID: chat.UserId, Title: chat.Title, CreatedAt: now, UpdatedAt: now}
	return db.Create(&row).Error
}

func (s *GormStore) GetChat(ctx context.Context, chatId string, userId string) (chatModel.Chat, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var row chatRow
	if err := db.First(&row, "id = ? AND user_id = ?", chatId, userId).Error; err != nil {
		return chatModel.Chat{}, notFound(err, "chat", chatId)
	}
	return row.toModel(), nil
}

func (s *GormStore) ListChats(ctx context.Context, userId string) ([]chatModel.ChatSummary, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var rows []chatSummaryRow
	err := db.Table("chats").
		Select("chats.id, chats.user_id, chats.title, chats.created_at, chats.updated_at, COUNT(chat_messages.id) AS message_count").
		Joins("LEFT JOIN chat_messages ON chat_messages.chat_id = chats.id").
		Where("chats.user_id = ?", userId).
		Group("chats.id").
		Order("chats.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]chatModel.ChatSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, chatModel.ChatSummary{
			Chat:         chatModel.Chat{Id: r.ID, UserId: r.UserID, Title: r.Title, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
			MessageCount: r.MessageCount,
		})
	}
	return out, nil
}

func (s *GormStore) SetTitleIfEmpty(ctx context.Context, chatId string, title string) (bool, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	res := db.Model(&chatRow{}).
		Where("id = ? AND (title = '' OR title IS NULL)", chatId).
		Updates(map[string]any{"title": title, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) UpdateTitle(ctx context.Context, chatId string, userId string, title string) error {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	res := db.Model(&chatRow{}).
		Where("id = ? AND user_id = ?", chatId, userId).
		Updates(map[string]any{"title": title, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ragErrors.NotFound("chat", chatId)
	}
	return nil
}

func (s *GormStore) DeleteChat(ctx context.Context, chatId string, userId string) error {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	return db.Transaction(func(tx *gorm.DB) error {
		var row chatRow
		if err := tx.First(&row, "id = ? AND user_id = ?", chatId, userId).Error; err != nil {
			return notFound(err, "chat", chatId)
		}
		if err := tx.Where("chat_id = ?", chatId).Delete(&chatMessageRow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&chatRow{}, "id = ?", chatId).Error
	})
}

func (s *GormStore) AppendMessage(ctx context.Context, msg *chatModel.ChatMessage) error {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	row, err := toMessageRow(*msg)
	if err != nil {
		return fmt.Errorf("encoding citations: %w", err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&chatRow{}).Where("id = ?", msg.ChatId).Update("updated_at", msg.CreatedAt).Error
	})
}

func (s *GormStore) ListMessages(ctx context.Context, chatId string) ([]chatModel.ChatMessage, error) {
	db, cancel := s.withTimeout(ctx)
	defer cancel()
	var rows []chatMessageRow
	if err := db.Where("chat_id = ?", chatId).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]chatModel.ChatMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ragErrors.NotFound(what, id)
	}
	return err
}
