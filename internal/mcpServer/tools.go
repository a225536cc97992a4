package mcpServer

import (
	"context"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxSearchResults = 20

type SearchInput struct {
	Query      string `json:"query" jsonschema:"the text to find similar document passages for"`
	Collection string `json:"collection,omitempty" jsonschema:"vector collection to search, defaults to the server collection"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return"`
}

type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Filename   string  `json:"filename"`
	Page       *int    `json:"page,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the uploaded documents"`
	Collection string `json:"collection,omitempty" jsonschema:"vector collection to answer from, defaults to the server collection"`
}

type AskOutput struct {
	Answer    string                  `json:"answer"`
	Citations []commonModels.Citation `json:"citations"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Find the document passages nearest to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question from the uploaded documents, with citations",
	}, s.handleAsk)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, ragErrors.InvalidArgument("query is empty")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = s.topK
	}
	limit = min(limit, maxSearchResults)

	hits, err := s.rag.Retrieve(ctx, input.Query, s.collection(input.Collection), limit)
	if err != nil {
		s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).Warn("Search tool failed", "error", err)
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]SearchResultOutput, len(hits)), Count: len(hits)}
	for i, h := range hits {
		output.Results[i] = SearchResultOutput{
			DocumentID: h.Entry.DocumentId,
			ChunkIndex: h.Entry.ChunkIndex,
			Filename:   h.Entry.Metadata.Filename,
			Page:       h.Entry.Metadata.Page,
			Score:      h.Score,
			Content:    h.Entry.Content,
		}
	}
	return nil, output, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.rag.Answer(ctx, input.Question, s.collection(input.Collection))
	if err != nil {
		return nil, AskOutput{}, err
	}
	citations := answer.Citations
	if citations == nil {
		citations = []commonModels.Citation{}
	}
	return nil, AskOutput{Answer: answer.Text, Citations: citations}, nil
}

func (s *Server) collection(requested string) string {
	if requested == "" {
		return s.defaultCollection
	}
	return requested
}
