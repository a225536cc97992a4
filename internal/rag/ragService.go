package rag

import (
	"context"
	"strings"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

/*
The worker, the chat service and the MCP tools only see Service. The private
struct holds the index, the llm and the embedder; NewService wires them so tests
can swap any of them for fakes.
*/

// Service is the retrieval-augmented answering entry point.
type Service interface {
	// Answer never fails because retrieval failed: embedding or search errors
	// degrade to an empty context. Only the llm call can fail the answer.
	Answer(ctx context.Context, query string, collection string) (Answer, error)
	// Retrieve returns the k nearest published chunks and surfaces every error.
	Retrieve(ctx context.Context, query string, collection string, k int) ([]commonModels.ScoredEntry, error)
	IngestDocument(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error)
}

type Answer struct {
	Text      string                  `json:"answer"`
	Citations []commonModels.Citation `json:"citations"`
}

// Ingestor is satisfied by *ingest.Orchestrator.
type Ingestor interface {
	Ingest(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error)
}

type Deps struct {
	Index    vectorDB.Index
	LLM      llm.Provider
	Embedder embedding.Embedder
	Ingestor Ingestor

	TopK             int
	Metric           commonModels.DistanceMetric
	EmbeddingTimeout time.Duration
	VectorTimeout    time.Duration
	LLMTimeout       time.Duration
}

type service struct {
	deps   Deps
	logger *logger_i.Logger
}

func NewService(deps Deps) Service {
	if deps.TopK < 1 {
		deps.TopK = config.DefaultTopK
	}
	if deps.Metric == "" {
		deps.Metric = commonModels.Cosine
	}
	if deps.EmbeddingTimeout <= 0 {
		deps.EmbeddingTimeout = config.EmbeddingTimeout
	}
	if deps.VectorTimeout <= 0 {
		deps.VectorTimeout = config.VectorTimeout
	}
	if deps.LLMTimeout <= 0 {
		deps.LLMTimeout = config.LLMTimeout
	}
	return &service{deps: deps, logger: logger_i.NewLogger("RAG Service")}
}

func (s *service) Answer(ctx context.Context, query string, collection string) (Answer, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "collection", collection)
	if strings.TrimSpace(query) == "" {
		return Answer{}, ragErrors.InvalidArgument("query is empty")
	}

	hits, err := s.Retrieve(ctx, query, collection, s.deps.TopK)
	if err != nil {
		log.Warn("Retrieval failed, answering without context", "error", err)
		hits = nil
	}

	contents := make([]string, len(hits))
	for i, h := range hits {
		contents[i] = h.Entry.Content
	}
	prompt := BuildPrompt(strings.Join(contents, "\n\n"), query)

	text, err := s.executeLLMStep(ctx, prompt)
	if err != nil {
		log.Error("LLM generation failed", "error", err)
		return Answer{}, err
	}
	log.Debug("Answered", "chunks", len(hits))
	return Answer{Text: text, Citations: BuildCitations(hits)}, nil
}

func (s *service) Retrieve(ctx context.Context, query string, collection string, k int) ([]commonModels.ScoredEntry, error) {
	if collection == "" {
		return nil, ragErrors.InvalidArgument("collection name is required")
	}
	vector, err := s.executeEmbeddingStep(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.executeVectorSearchStep(ctx, collection, vector, k)
}

func (s *service) IngestDocument(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error) {
	if s.deps.Ingestor == nil {
		return ingest.Result{}, ragErrors.InvalidArgument("ingestion is not configured")
	}
	return s.deps.Ingestor.Ingest(ctx, req, observe)
}
