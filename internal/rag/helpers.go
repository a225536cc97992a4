package rag

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/metrics"
)

const promptTemplate = "Based on the following context from the documents, please answer the question. " +
	"If the answer cannot be found in the context, say so.\n\n" +
	"Context:\n%s\n\n" +
	"Question: %s\n\n" +
	"Please provide your answer and cite the sources used."

// BuildPrompt renders the single grounded prompt sent to the llm.
func BuildPrompt(contextText string, query string) string {
	return fmt.Sprintf(promptTemplate, contextText, query)
}

// BuildCitations snapshots each hit, in rank order.
func BuildCitations(hits []commonModels.ScoredEntry) []commonModels.Citation {
	citations := make([]commonModels.Citation, 0, len(hits))
	for _, h := range hits {
		meta := h.Entry.Metadata
		citations = append(citations, commonModels.Citation{
			Filename: meta.Filename,
			Source:   meta.Source,
			Content:  h.Entry.Content,
			FileType: commonModels.FileExtension(meta.Filename),
			Page:     meta.Page,
		})
	}
	return citations
}

// ChatTitle derives a chat title from its first message: trimmed, and cut to
// 47 characters plus "..." when longer than 50.
func ChatTitle(message string) string {
	title := strings.TrimSpace(message)
	if utf8.RuneCountInString(title) <= config.ChatTitleMaxLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:config.ChatTitleTruncateAfter]) + "..."
}

func (s *service) executeEmbeddingStep(ctx context.Context, query string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	c, cancel := context.WithTimeout(ctx, s.deps.EmbeddingTimeout)
	defer cancel()
	return s.deps.Embedder.EmbedQuery(c, query)
}

func (s *service) executeVectorSearchStep(ctx context.Context, collection string, vector []float32, k int) ([]commonModels.ScoredEntry, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	c, cancel := context.WithTimeout(ctx, s.deps.VectorTimeout)
	defer cancel()
	return s.deps.Index.SimilaritySearch(c, collection, vector, k, s.deps.Metric)
}

func (s *service) executeLLMStep(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	c, cancel := context.WithTimeout(ctx, s.deps.LLMTimeout)
	defer cancel()
	return s.deps.LLM.Generate(c, prompt)
}
