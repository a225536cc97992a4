package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akolanti/DocChat/internal/data/relationalStore"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/internal/rag/ingest"
)

type mockRag struct {
	OnAnswer    func(ctx context.Context, query, collection string) (rag.Answer, error)
	collections []string
}

func (m *mockRag) Answer(ctx context.Context, query, collection string) (rag.Answer, error) {
	m.collections = append(m.collections, collection)
	if m.OnAnswer != nil {
		return m.OnAnswer(ctx, query, collection)
	}
	return rag.Answer{
		Text:      "answer to " + query,
		Citations: []commonModels.Citation{{Filename: "policy.pdf", FileType: "pdf", Page: commonModels.IntPtr(1)}},
	}, nil
}

func (m *mockRag) Retrieve(ctx context.Context, query, collection string, k int) ([]commonModels.ScoredEntry, error) {
	return nil, nil
}

func (m *mockRag) IngestDocument(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error) {
	return ingest.Result{}, nil
}

func newTestService() (Service, *mockRag) {
	r := &mockRag{}
	return NewService(relationalStore.NewMemoryStore(), r, "HR"), r
}

func TestSendMessage_TitleIsSetOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	chat, err := svc.NewChat(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}

	long := strings.Repeat("q", 60)
	if _, err := svc.SendMessage(ctx, "alice", chat.Id, long, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SendMessage(ctx, "alice", chat.Id, "Second question", ""); err != nil {
		t.Fatal(err)
	}

	h, err := svc.HistoryOne(ctx, "alice", chat.Id)
	if err != nil {
		t.Fatal(err)
	}
	if h.Title != strings.Repeat("q", 47)+"..." {
		t.Errorf("title = %q", h.Title)
	}
	if len(h.Messages) != 2 || h.Messages[1].Query != "Second question" {
		t.Fatalf("unexpected messages %+v", h.Messages)
	}
	if len(h.Messages[0].Citations) != 1 || h.Messages[0].Citations[0].Filename != "policy.pdf" {
		t.Errorf("citations were not stored: %+v", h.Messages[0].Citations)
	}
}

func TestSendMessage_Collection(t *testing.T) {
	ctx := context.Background()
	svc, r := newTestService()
	chat, _ := svc.NewChat(ctx, "alice")

	_, _ = svc.SendMessage(ctx, "alice", chat.Id, "hi", "")
	_, _ = svc.SendMessage(ctx, "alice", chat.Id, "hi", "Finance")

	if len(r.collections) != 2 || r.collections[0] != "HR" || r.collections[1] != "Finance" {
		t.Errorf("collections = %v", r.collections)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	ctx := context.Background()
	providerDown := ragErrors.NewProviderError("gemini", "generate", true, errors.New("503"))

	tests := []struct {
		name    string
		user    string
		query   string
		answer  error
		wantErr error
	}{
		{name: "blank message", user: "alice", query: "  ", wantErr: ragErrors.ErrInvalidArgument},
		{name: "someone else's chat", user: "mallory", query: "hi", wantErr: ragErrors.ErrNotFound},
		{name: "llm failure", user: "alice", query: "hi", answer: providerDown, wantErr: ragErrors.ErrProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockRag{OnAnswer: func(context.Context, string, string) (rag.Answer, error) {
				return rag.Answer{Text: "ok"}, tt.answer
			}}
			store := relationalStore.NewMemoryStore()
			svc := NewService(store, r, "HR")
			chat, _ := svc.NewChat(ctx, "alice")

			_, err := svc.SendMessage(ctx, tt.user, chat.Id, tt.query, "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			h, _ := svc.HistoryOne(ctx, "alice", chat.Id)
			if len(h.Messages) != 0 || h.Title != "" {
				t.Errorf("failed turn must not be recorded: %+v", h)
			}
		})
	}
}

func TestRenameDeleteAndList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	first, _ := svc.NewChat(ctx, "alice")
	second, _ := svc.NewChat(ctx, "alice")
	_, _ = svc.NewChat(ctx, "bob")
	_, _ = svc.SendMessage(ctx, "alice", second.Id, "hello", "")

	renamed, err := svc.Rename(ctx, "alice", first.Id, "  Leave policy  ")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.Title != "Leave policy" {
		t.Errorf("title = %q", renamed.Title)
	}
	if _, err := svc.Rename(ctx, "alice", first.Id, " "); !errors.Is(err, ragErrors.ErrInvalidArgument) {
		t.Errorf("blank rename: %v", err)
	}
	if _, err := svc.Rename(ctx, "bob", first.Id, "mine"); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("foreign rename: %v", err)
	}

	all, err := svc.ListAll(ctx, "alice")
	if err != nil || len(all) != 2 {
		t.Fatalf("got %d chats, %v", len(all), err)
	}
	counts := map[string]int64{}
	for _, c := range all {
		counts[c.Id] = c.MessageCount
	}
	if counts[second.Id] != 1 || counts[first.Id] != 0 {
		t.Errorf("message counts %v", counts)
	}

	if err := svc.Delete(ctx, "bob", second.Id); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("foreign delete: %v", err)
	}
	if err := svc.Delete(ctx, "alice", second.Id); err != nil {
		t.Fatal(err)
	}
	history, _ := svc.History(ctx, "alice")
	if len(history) != 1 || history[0].Id != first.Id {
		t.Errorf("history after delete %+v", history)
	}
	if _, err := svc.HistoryOne(ctx, "alice", second.Id); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("deleted chat: %v", err)
	}
}
