package mcpServer

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mockRag struct {
	OnRetrieve func(ctx context.Context, query, collection string, k int) ([]commonModels.ScoredEntry, error)
	OnAnswer   func(ctx context.Context, query, collection string) (rag.Answer, error)
}

func (m *mockRag) Answer(ctx context.Context, query, collection string) (rag.Answer, error) {
	if m.OnAnswer != nil {
		return m.OnAnswer(ctx, query, collection)
	}
	return rag.Answer{Text: "answer"}, nil
}

func (m *mockRag) Retrieve(ctx context.Context, query, collection string, k int) ([]commonModels.ScoredEntry, error) {
	if m.OnRetrieve != nil {
		return m.OnRetrieve(ctx, query, collection, k)
	}
	return nil, nil
}

func (m *mockRag) IngestDocument(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error) {
	return ingest.Result{}, nil
}

func TestServer_handleSearch(t *testing.T) {
	hit := commonModels.ScoredEntry{
		Entry: commonModels.VectorEntry{
			DocumentId: "doc-1",
			ChunkIndex: 4,
			Content:    "Annual leave is 25 days.",
			Metadata:   commonModels.SegmentMetadata{Filename: "handbook.pdf", Page: commonModels.IntPtr(3)},
		},
		Score: 0.92,
	}

	tests := []struct {
		name           string
		input          SearchInput
		retrieveErr    error
		wantK          int
		wantCollection string
		wantErr        error
	}{
		{name: "defaults", input: SearchInput{Query: "leave"}, wantK: 3, wantCollection: "HR"},
		{name: "explicit limit and collection", input: SearchInput{Query: "leave", Limit: 7, Collection: "Finance"}, wantK: 7, wantCollection: "Finance"},
		{name: "limit is capped", input: SearchInput{Query: "leave", Limit: 500}, wantK: maxSearchResults, wantCollection: "HR"},
		{name: "empty query", input: SearchInput{}, wantErr: ragErrors.ErrInvalidArgument},
		{name: "retrieval error surfaces", input: SearchInput{Query: "leave"}, retrieveErr: ragErrors.NotFound("collection", "HR"), wantErr: ragErrors.ErrNotFound, wantK: 3, wantCollection: "HR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotK int
			var gotCollection string
			m := &mockRag{OnRetrieve: func(ctx context.Context, query, collection string, k int) ([]commonModels.ScoredEntry, error) {
				gotK, gotCollection = k, collection
				if tt.retrieveErr != nil {
					return nil, tt.retrieveErr
				}
				return []commonModels.ScoredEntry{hit}, nil
			}}
			s := NewServer(m, "HR", 3)

			_, out, err := s.handleSearch(context.Background(), nil, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatal(err)
				}
				if out.Count != 1 || out.Results[0].DocumentID != "doc-1" || *out.Results[0].Page != 3 || out.Results[0].Score != 0.92 {
					t.Errorf("unexpected output %+v", out)
				}
			}
			if gotK != tt.wantK || gotCollection != tt.wantCollection {
				t.Errorf("retrieve called with k=%d collection=%q", gotK, gotCollection)
			}
		})
	}
}

func TestServer_handleAsk(t *testing.T) {
	m := &mockRag{OnAnswer: func(ctx context.Context, query, collection string) (rag.Answer, error) {
		if collection != "HR" {
			t.Errorf("collection %q", collection)
		}
		return rag.Answer{Text: "25 days", Citations: []commonModels.Citation{{Filename: "handbook.pdf", FileType: "pdf"}}}, nil
	}}
	s := NewServer(m, "HR", 3)

	_, out, err := s.handleAsk(context.Background(), nil, AskInput{Question: "How much leave?"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Answer != "25 days" || len(out.Citations) != 1 {
		t.Errorf("unexpected output %+v", out)
	}

	m.OnAnswer = func(context.Context, string, string) (rag.Answer, error) {
		return rag.Answer{}, ragErrors.NewProviderError("gemini", "generate", true, errors.New("503"))
	}
	if _, _, err := s.handleAsk(context.Background(), nil, AskInput{Question: "x"}); !errors.Is(err, ragErrors.ErrProvider) {
		t.Errorf("got %v", err)
	}
}

func TestServer_ToolsOverTransport(t *testing.T) {
	ctx := context.Background()
	s := NewServer(&mockRag{}, "HR", 3)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	if !names["search_documents"] || !names["ask_documents"] {
		t.Errorf("registered tools %v", names)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "ask_documents", Arguments: map[string]any{"question": "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool reported an error: %+v", res.Content)
	}
	structured, ok := res.StructuredContent.(map[string]any)
	if !ok || structured["answer"] != "answer" {
		t.Errorf("structured content %#v", res.StructuredContent)
	}
}
