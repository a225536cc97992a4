package relationalStore

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/DocChat/internal/domain/chatModel"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
)

func TestMemoryStore_TransactionIsAtomic(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.WithinTransaction(ctx, func(tx commonModels.DocumentTx) error {
		doc := &commonModels.Document{Id: "doc-1", UploadedBy: "u1"}
		if err := tx.CreateDocument(ctx, doc); err != nil {
			return err
		}
		return errors.New("chunk insert failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.GetDocument(ctx, "doc-1"); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("rolled back document must not be visible, got %v", err)
	}

	err = s.WithinTransaction(ctx, func(tx commonModels.DocumentTx) error {
		doc := &commonModels.Document{Id: "doc-2", UploadedBy: "u1"}
		if err := tx.CreateDocument(ctx, doc); err != nil {
			return err
		}
		return tx.InsertChunks(ctx, doc.Id, []commonModels.DocumentChunk{
			{Id: "b", ChunkIndex: 1},
			{Id: "a", ChunkIndex: 0},
		})
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	count, _ := s.CountChunks(ctx, "doc-2")
	if count != 2 {
		t.Errorf("expected 2 chunks, got %d", count)
	}
	chunks, _ := s.ListChunks(ctx, "doc-2")
	if chunks[0].Id != "a" || chunks[0].DocumentId != "doc-2" {
		t.Errorf("chunks should be ordered by index and linked to the document: %+v", chunks)
	}
	docs, _ := s.ListDocuments(ctx, "u1")
	if len(docs) != 1 {
		t.Errorf("expected one document for u1, got %d", len(docs))
	}
}

func TestMemoryStore_Chats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	chat := &chatModel.Chat{Id: "c1", UserId: "alice"}
	if err := s.CreateChat(ctx, chat); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetChat(ctx, "c1", "bob"); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("another user's chat should be not found, got %v", err)
	}

	written, _ := s.SetTitleIfEmpty(ctx, "c1", "first")
	again, _ := s.SetTitleIfEmpty(ctx, "c1", "second")
	if !written || again {
		t.Errorf("title should be written exactly once (first=%v second=%v)", written, again)
	}

	msg := &chatModel.ChatMessage{Id: "m1", ChatId: "c1", Query: "q", Answer: "a", Citations: []commonModels.Citation{{Filename: "f.pdf"}}}
	if err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}
	msg.Citations[0].Filename = "mutated"

	msgs, _ := s.ListMessages(ctx, "c1")
	if len(msgs) != 1 || msgs[0].Citations[0].Filename != "f.pdf" {
		t.Errorf("stored citations must be a snapshot: %+v", msgs)
	}

	summaries, _ := s.ListChats(ctx, "alice")
	if len(summaries) != 1 || summaries[0].MessageCount != 1 || summaries[0].Title != "first" {
		t.Errorf("unexpected summaries %+v", summaries)
	}

	if err := s.UpdateTitle(ctx, "c1", "alice", "renamed"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteChat(ctx, "c1", "bob"); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("bob must not delete alice's chat, got %v", err)
	}
	if err := s.DeleteChat(ctx, "c1", "alice"); err != nil {
		t.Fatal(err)
	}
	if msgs, _ := s.ListMessages(ctx, "c1"); len(msgs) != 0 {
		t.Error("messages should be removed with the chat")
	}
}

func TestMemoryStore_FindAndDeleteDocument(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	err := s.WithinTransaction(ctx, func(tx commonModels.DocumentTx) error {
		doc := &commonModels.Document{Id: "doc-1", Title: "handbook.pdf", UploadedBy: "u1", Collection: "HR"}
		if err := tx.CreateDocument(ctx, doc); err != nil {
			return err
		}
		return tx.InsertChunks(ctx, doc.Id, []commonModels.DocumentChunk{{Id: "c-0"}, {Id: "c-1", ChunkIndex: 1}})
	})
	if err != nil {
		t.Fatal(err)
	}

	lookups := []struct {
		name                    string
		user, collection, title string
		found                   bool
	}{
		{"same owner collection and title", "u1", "HR", "handbook.pdf", true},
		{"other collection", "u1", "Finance", "handbook.pdf", false},
		{"other owner", "u2", "HR", "handbook.pdf", false},
		{"other title", "u1", "HR", "policy.pdf", false},
	}
	for _, tt := range lookups {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := s.FindDocument(ctx, tt.user, tt.collection, tt.title)
			if tt.found && (err != nil || doc.Id != "doc-1") {
				t.Errorf("expected doc-1, got %+v %v", doc, err)
			}
			if !tt.found && !errors.Is(err, ragErrors.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}

	ids, err := s.DeleteDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(ids) != 2 || ids[0] != "c-0" || ids[1] != "c-1" {
		t.Errorf("expected the chunk ids back, got %v", ids)
	}
	if _, err := s.GetDocument(ctx, "doc-1"); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("document still visible: %v", err)
	}
	if n, _ := s.CountChunks(ctx, "doc-1"); n != 0 {
		t.Errorf("%d chunks left behind", n)
	}
	if _, err := s.DeleteDocument(ctx, "doc-1"); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}
