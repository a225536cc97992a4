package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/google/uuid"
)

var logger = logger_i.NewLogger("Document Ingestion")

// StepObserver is told about every state the ingestion passes through.
type StepObserver func(step jobModel.InternalStatus)

type Request struct {
	Path       string // local file to read
	FileName   string // original upload name, decides the format
	Source     string // where the original lives (blob key or path), recorded on chunks
	UploadedBy string
	Collection string
}

type Result struct {
	DocumentId   string
	ChunkCount   int
	Dimension    int
	EntryIds     []string
	IndexPending bool
}

type Config struct {
	Splitter         *Splitter
	Embedder         embedding.Embedder
	Index            vectorDB.Index
	Store            commonModels.DocumentStore
	Outbox           jobModel.OutboxStore
	Metric           commonModels.DistanceMetric
	EmbeddingTimeout time.Duration
	VectorTimeout    time.Duration
}

// Orchestrator runs Extracting -> Chunking -> Embedding -> Persisting -> Done.
// Persisting stages vectors invisibly, commits the relational rows in one transaction,
// then publishes the vectors. A failed commit discards the staged vectors; a failed
// publish is handed to the outbox and reported as a consistency gap.
type Orchestrator struct {
	cfg Config
}

func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Metric == "" {
		cfg.Metric = commonModels.Cosine
	}
	if cfg.EmbeddingTimeout <= 0 {
		cfg.EmbeddingTimeout = config.EmbeddingTimeout
	}
	if cfg.VectorTimeout <= 0 {
		cfg.VectorTimeout = config.VectorTimeout
	}
	return &Orchestrator{cfg: cfg}
}

func (o *Orchestrator) Ingest(ctx context.Context, req Request, observe StepObserver) (result Result, err error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "file", req.FileName, "collection", req.Collection)
	if observe == nil {
		observe = func(jobModel.InternalStatus) {}
	}
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start))
		metrics.IncrementIngestOutcome(outcomeLabel(err))
		if err != nil && !errors.Is(err, ragErrors.ErrConsistencyGap) {
			observe(jobModel.Failed)
			log.Error("Ingestion failed", "error", err)
		}
	}()

	if req.Collection == "" {
		return result, ragErrors.InvalidArgument("collection name is required")
	}
	if err = o.ensureNewDocument(ctx, req); err != nil {
		return result, err
	}

	observe(jobModel.Extracting)
	segments, err := o.executeExtractStep(ctx, req)
	if err != nil {
		return result, err
	}
	log.Debug("Extracted", "segments", len(segments))

	observe(jobModel.Chunking)
	chunks := o.cfg.Splitter.ChunkSegments(segments)
	if len(chunks) == 0 {
		return result, ragErrors.ErrEmptyDocument
	}
	log.Debug("Chunked", "chunks", len(chunks))

	observe(jobModel.Embedding)
	dimension, err := o.executeEmbeddingStep(ctx, chunks)
	if err != nil {
		return result, err
	}
	log.Debug("Embedded", "dimension", dimension)

	observe(jobModel.Persisting)
	result, err = o.executePersistStep(ctx, req, chunks, dimension, log)
	if err != nil {
		return result, err
	}

	observe(jobModel.Done)
	log.Info("Document ingested", "documentId", result.DocumentId, "chunks", result.ChunkCount)
	return result, nil
}

// ensureNewDocument rejects a second upload of the same file name by the same user into one collection.
func (o *Orchestrator) ensureNewDocument(ctx context.Context, req Request) error {
	existing, err := o.cfg.Store.FindDocument(ctx, req.UploadedBy, req.Collection, req.FileName)
	switch {
	case err == nil:
		return ragErrors.AlreadyExists("document", existing.Title)
	case errors.Is(err, ragErrors.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("checking for an existing document: %w", err)
	}
}

// DeleteDocument removes the document rows in one transaction, then its vectors.
// The rows stay deleted when the vector delete fails; the outbox finishes it.
func (o *Orchestrator) DeleteDocument(ctx context.Context, doc commonModels.Document) error {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id, "collection", doc.Collection)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_delete", time.Since(start)) }()

	ids, err := o.cfg.Store.DeleteDocument(ctx, doc.Id)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		o.compensate(ctx, doc.Collection, doc.Id, ids, log)
	}
	log.Info("Document deleted", "chunks", len(ids))
	return nil
}

func (o *Orchestrator) executeExtractStep(ctx context.Context, req Request) ([]commonModels.Segment, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("extraction", time.Since(start)) }()

	return ExtractSegments(ctx, req.Path, commonModels.SegmentMetadata{Source: req.Source, Filename: req.FileName})
}

// executeEmbeddingStep fills chunk.Embedding in batches and returns the shared dimension.
func (o *Orchestrator) executeEmbeddingStep(ctx context.Context, chunks []commonModels.DocumentChunk) (int, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	dimension := 0
	for i := 0; i < len(chunks); i += config.EmbeddingBatchSize {
		end := min(i+config.EmbeddingBatchSize, len(chunks))

		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.ChunkText)
		}

		vectors, err := o.embedBatch(ctx, texts)
		if err != nil {
			return 0, err
		}
		if len(vectors) != len(texts) {
			return 0, ragErrors.NewProviderError("embedding", "embed_documents", false,
				fmt.Errorf("got %d vectors for %d texts", len(vectors), len(texts)))
		}

		for j, v := range vectors {
			if dimension == 0 {
				dimension = len(v)
				if dimension == 0 {
					return 0, ragErrors.NewProviderError("embedding", "embed_documents", false, errors.New("empty vector"))
				}
			}
			if len(v) != dimension {
				return 0, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d", ragErrors.ErrDimensionMismatch, i+j, len(v), dimension)
			}
			chunks[i+j].Embedding = v
		}
	}
	return dimension, nil
}

func (o *Orchestrator) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, o.cfg.EmbeddingTimeout)
	defer cancel()
	return o.cfg.Embedder.EmbedDocuments(embedCtx, texts)
}

func (o *Orchestrator) executePersistStep(ctx context.Context, req Request, chunks []commonModels.DocumentChunk, dimension int, log *logger_i.Logger) (Result, error) {
	collection := req.Collection
	spec := commonModels.CollectionSpec{Name: collection, Dimension: dimension, Metric: o.cfg.Metric}
	if err := o.vectorCall(ctx, "vector_ensure_collection", func(c context.Context) error {
		return o.cfg.Index.EnsureCollection(c, spec)
	}); err != nil {
		return Result{}, fmt.Errorf("preparing collection %q: %w", collection, err)
	}

	documentId := uuid.NewString()
	ids := make([]string, len(chunks))
	entries := make([]commonModels.VectorEntry, len(chunks))
	for i := range chunks {
		ids[i] = uuid.NewString()
		chunks[i].Id = ids[i]
		chunks[i].DocumentId = documentId
		entries[i] = commonModels.VectorEntry{
			Id:         ids[i],
			DocumentId: documentId,
			ChunkIndex: chunks[i].ChunkIndex,
			Content:    chunks[i].ChunkText,
			Metadata:   chunks[i].Metadata,
			Vector:     chunks[i].Embedding,
		}
	}

	if err := o.vectorCall(ctx, "vector_stage", func(c context.Context) error {
		return o.cfg.Index.Stage(c, collection, entries)
	}); err != nil {
		o.compensate(ctx, collection, documentId, ids, log)
		return Result{}, fmt.Errorf("staging vectors: %w", err)
	}

	doc := &commonModels.Document{
		Id:         documentId,
		Title:      req.FileName,
		FilePath:   req.Source,
		FileType:   commonModels.FileExtension(req.FileName),
		UploadedBy: req.UploadedBy,
		Collection: collection,
	}
	if err := o.executeCommitStep(ctx, doc, chunks); err != nil {
		o.compensate(ctx, collection, documentId, ids, log)
		return Result{}, fmt.Errorf("committing document: %w", err)
	}

	result := Result{DocumentId: documentId, ChunkCount: len(chunks), Dimension: dimension, EntryIds: ids}

	if err := o.vectorCall(ctx, "vector_publish", func(c context.Context) error {
		return o.cfg.Index.Publish(c, collection, ids)
	}); err != nil {
		result.IndexPending = true
		metrics.IncrementConsistencyGap()
		log.Error("Publishing vectors failed, deferring to reconciler", "documentId", documentId, "error", err)
		o.enqueue(ctx, jobModel.OutboxRecord{Op: jobModel.OutboxPublish, Collection: collection, DocumentId: documentId, EntryIds: ids, LastError: err.Error()}, log)
		return result, &ragErrors.ConsistencyGapError{DocumentID: documentId, Collection: collection, EntryIDs: ids, Err: err}
	}
	return result, nil
}

func (o *Orchestrator) executeCommitStep(ctx context.Context, doc *commonModels.Document, chunks []commonModels.DocumentChunk) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("relational_commit", time.Since(start)) }()

	return o.cfg.Store.WithinTransaction(ctx, func(tx commonModels.DocumentTx) error {
		if err := tx.CreateDocument(ctx, doc); err != nil {
			return err
		}
		return tx.InsertChunks(ctx, doc.Id, chunks)
	})
}

func (o *Orchestrator) vectorCall(ctx context.Context, label string, fn func(context.Context) error) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics(label, time.Since(start)) }()

	c, cancel := context.WithTimeout(ctx, o.cfg.VectorTimeout)
	defer cancel()
	return fn(c)
}

// compensate removes vectors whose rows are gone or were never committed. A failed
// discard is handed to the outbox.
func (o *Orchestrator) compensate(ctx context.Context, collection, documentId string, ids []string, log *logger_i.Logger) {
	err := o.vectorCall(context.WithoutCancel(ctx), "vector_discard", func(c context.Context) error {
		return o.cfg.Index.Discard(c, collection, ids)
	})
	if err == nil {
		return
	}
	log.Warn("Discarding vectors failed", "documentId", documentId, "error", err)
	o.enqueue(ctx, jobModel.OutboxRecord{Op: jobModel.OutboxDiscard, Collection: collection, DocumentId: documentId, EntryIds: ids, LastError: err.Error()}, log)
}

func (o *Orchestrator) enqueue(ctx context.Context, record jobModel.OutboxRecord, log *logger_i.Logger) {
	if o.cfg.Outbox == nil {
		log.Error("No outbox configured, vector index write is lost", "op", record.Op, "documentId", record.DocumentId)
		return
	}
	record.Id = uuid.NewString()
	record.CreatedTime = time.Now().UTC()
	if err := o.cfg.Outbox.Enqueue(context.WithoutCancel(ctx), record); err != nil {
		log.Error("Writing outbox record failed", "op", record.Op, "documentId", record.DocumentId, "error", err)
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "done"
	case errors.Is(err, ragErrors.ErrConsistencyGap):
		return "index_pending"
	case errors.Is(err, ragErrors.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ragErrors.ErrAlreadyExists):
		return "duplicate"
	case errors.Is(err, ragErrors.ErrProvider):
		return "provider_error"
	default:
		return "failed"
	}
}
