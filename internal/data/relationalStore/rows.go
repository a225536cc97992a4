package relationalStore

import (
	"encoding/json"
	"time"

	"github.com/akolanti/DocChat/internal/domain/chatModel"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type documentRow struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	Title      string `gorm:"size:512;not null"`
	FilePath   string `gorm:"size:1024;not null"`
	FileType   string `gorm:"size:16;not null"`
	UploadedBy string `gorm:"size:128;index;not null"`
	Collection string `gorm:"size:128;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

type chunkRow struct {
	ID         string          `gorm:"primaryKey;type:uuid"`
	DocumentID string          `gorm:"type:uuid;index;not null"`
	Document   *documentRow    `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	ChunkText  string          `gorm:"type:text;not null"`
	ChunkIndex int             `gorm:"not null"`
	PageNumber *int            ``
	Metadata   datatypes.JSON  `gorm:"type:jsonb"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	CreatedAt  time.Time
}

func (chunkRow) TableName() string { return "document_chunks" }

type chatRow struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	UserID    string `gorm:"size:128;index;not null"`
	Title     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (chatRow) TableName() string { return "chats" }

type chatMessageRow struct {
	ID        string         `gorm:"primaryKey;type:uuid"`
	ChatID    string         `gorm:"type:uuid;index;not null"`
	Chat      *chatRow       `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
	Query     string         `gorm:"type:text;not null"`
	Answer    string         `gorm:"type:text;not null"`
	Citations datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (chatMessageRow) TableName() string { return "chat_messages" }

type chatSummaryRow struct {
	ID           string
	UserID       string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int64
}

func toDocumentRow(d commonModels.Document) documentRow {
	return documentRow{
		ID:         d.Id,
		Title:      d.Title,
		FilePath:   d.FilePath,
		FileType:   d.FileType,
		UploadedBy: d.UploadedBy,
		Collection: d.Collection,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r documentRow) toModel() commonModels.Document {
	return commonModels.Document{
		Id:         r.ID,
		Title:      r.Title,
		FilePath:   r.FilePath,
		FileType:   r.FileType,
		UploadedBy: r.UploadedBy,
		Collection: r.Collection,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toChunkRow(documentId string, c commonModels.DocumentChunk) (chunkRow, error) {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return chunkRow{}, err
	}
	if c.Id == "" {
		c.Id = uuid.NewString()
	}
	return chunkRow{
		ID:         c.Id,
		DocumentID: documentId,
		ChunkText:  c.ChunkText,
		ChunkIndex: c.ChunkIndex,
		PageNumber: c.PageNumber,
		Metadata:   datatypes.JSON(meta),
		Embedding:  pgvector.NewVector(c.Embedding),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (r chunkRow) toModel() commonModels.DocumentChunk {
	var meta commonModels.SegmentMetadata
	_ = json.Unmarshal(r.Metadata, &meta)
	return commonModels.DocumentChunk{
		Id:         r.ID,
		DocumentId: r.DocumentID,
		ChunkText:  r.ChunkText,
		ChunkIndex: r.ChunkIndex,
		PageNumber: r.PageNumber,
		Metadata:   meta,
		Embedding:  r.Embedding.Slice(),
	}
}

func (r chatRow) toModel() chatModel.Chat {
	return chatModel.Chat{Id: r.ID, UserId: r.UserID, Title: r.Title, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func toMessageRow(m chatModel.ChatMessage) (chatMessageRow, error) {
	citations := m.Citations
	if citations == nil {
		citations = []commonModels.Citation{}
	}
	raw, err := json.Marshal(citations)
	if err != nil {
		return chatMessageRow{}, err
	}
	return chatMessageRow{ID: m.Id, ChatID: m.ChatId, Query: m.Query, Answer: m.Answer, Citations: datatypes.JSON(raw), CreatedAt: m.CreatedAt}, nil
}

func (r chatMessageRow) toModel() chatModel.ChatMessage {
	citations := []commonModels.Citation{}
	_ = json.Unmarshal(r.Citations, &citations)
	return chatModel.ChatMessage{Id: r.ID, ChatId: r.ChatID, Query: r.Query, Answer: r.Answer, Citations: citations, CreatedAt: r.CreatedAt}
}
