package relationalStore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/DocChat/internal/domain/chatModel"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/google/uuid"
)

// MemoryStore is the in-process document and chat store used for local runs and tests.
// Transactions buffer their writes and apply them atomically on commit.
type MemoryStore struct {
	lock      sync.RWMutex
	documents map[string]commonModels.Document
	chunks    map[string][]commonModels.DocumentChunk
	chats     map[string]chatModel.Chat
	messages  map[string][]chatModel.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]commonModels.Document),
		chunks:    make(map[string][]commonModels.DocumentChunk),
		chats:     make(map[string]chatModel.Chat),
		messages:  make(map[string][]chatModel.ChatMessage),
	}
}

type memoryTx struct {
	documents []commonModels.Document
	chunks    map[string][]commonModels.DocumentChunk
}

func (t *memoryTx) CreateDocument(ctx context.Context, doc *commonModels.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Id == "" {
		doc.Id = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	t.documents = append(t.documents, *doc)
	return nil
}

func (t *memoryTx) InsertChunks(ctx context.Context, documentId string, chunks []commonModels.DocumentChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, c := range chunks {
		if c.Id == "" {
			c.Id = uuid.NewString()
		}
		c.DocumentId = documentId
		t.chunks[documentId] = append(t.chunks[documentId], c)
	}
	return nil
}

func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(tx commonModels.DocumentTx) error) error {
	tx := &memoryTx{chunks: make(map[string][]commonModels.DocumentChunk)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, d := range tx.documents {
		s.documents[d.Id] = d
	}
	for id, c := range tx.chunks {
		s.chunks[id] = append(s.chunks[id], c...)
	}
	return nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id string) (commonModels.Document, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return commonModels.Document{}, ragErrors.NotFound("document", id)
	}
	return d, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, uploadedBy string) ([]commonModels.Document, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	docs := []commonModels.Document{}
	for _, d := range s.documents {
		if d.UploadedBy == uploadedBy {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (s *MemoryStore) CountChunks(ctx context.Context, documentId string) (int64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return int64(len(s.chunks[documentId])), nil
}

func (s *MemoryStore) ListChunks(ctx context.Context, documentId string) ([]commonModels.DocumentChunk, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := append([]commonModels.DocumentChunk(nil), s.chunks[documentId]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (s *MemoryStore) FindDocument(ctx context.Context, uploadedBy string, collection string, title string) (commonModels.Document, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for _, d := range s.documents {
		if d.UploadedBy == uploadedBy && d.Collection == collection && d.Title == title {
			return d, nil
		}
	}
	return commonModels.Document{}, ragErrors.NotFound("document", title)
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, id string) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.documents[id]; !ok {
		return nil, ragErrors.NotFound("document", id)
	}
	ids := make([]string, 0, len(s.chunks[id]))
	for _, c := range s.chunks[id] {
		ids = append(ids, c.Id)
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return ids, nil
}

func (s *MemoryStore) CreateChat(ctx context.Context, chat *chatModel.Chat) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := time.Now().UTC()
	chat.CreatedAt, chat.UpdatedAt = now, now
	s.chats[chat.Id] = *chat
	return nil
}

func (s *MemoryStore) GetChat(ctx context.Context, chatId string, userId string) (chatModel.Chat, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	c, ok := s.chats[chatId]
	if !ok || c.UserId != userId {
		return chatModel.Chat{}, ragErrors.NotFound("chat", chatId)
	}
	return c, nil
}

func (s *MemoryStore) ListChats(ctx context.Context, userId string) ([]chatModel.ChatSummary, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := []chatModel.ChatSummary{}
	for _, c := range s.chats {
		if c.UserId == userId {
			out = append(out, chatModel.ChatSummary{Chat: c, MessageCount: int64(len(s.messages[c.Id]))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) SetTitleIfEmpty(ctx context.Context, chatId string, title string) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.chats[chatId]
	if !ok || c.Title != "" {
		return false, nil
	}
	c.Title = title
	c.UpdatedAt = time.Now().UTC()
	s.chats[chatId] = c
	return true, nil
}

func (s *MemoryStore) UpdateTitle(ctx context.Context, chatId string, userId string, title string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.chats[chatId]
	if !ok || c.UserId != userId {
		return ragErrors.NotFound("chat", chatId)
	}
	c.Title = title
	c.UpdatedAt = time.Now().UTC()
	s.chats[chatId] = c
	return nil
}

func (s *MemoryStore) DeleteChat(ctx context.Context, chatId string, userId string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.chats[chatId]
	if !ok || c.UserId != userId {
		return ragErrors.NotFound("chat", chatId)
	}
	delete(s.chats, chatId)
	delete(s.messages, chatId)
	return nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, msg *chatModel.ChatMessage) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.chats[msg.ChatId]
	if !ok {
		return ragErrors.NotFound("chat", msg.ChatId)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	stored := *msg
	stored.Citations = append([]commonModels.Citation(nil), msg.Citations...)
	s.messages[msg.ChatId] = append(s.messages[msg.ChatId], stored)
	c.UpdatedAt = msg.CreatedAt
	s.chats[msg.ChatId] = c
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, chatId string) ([]chatModel.ChatMessage, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]chatModel.ChatMessage{}, s.messages[chatId]...), nil
}
