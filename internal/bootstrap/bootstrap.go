package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/DocChat/internal/auth"
	"github.com/akolanti/DocChat/internal/chat"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/blobStore"
	"github.com/akolanti/DocChat/internal/data/redisStore"
	"github.com/akolanti/DocChat/internal/data/relationalStore"
	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/domain/chatModel"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/handlers"
	"github.com/akolanti/DocChat/internal/job"
	"github.com/akolanti/DocChat/internal/mcpServer"
	"github.com/akolanti/DocChat/internal/middleware"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/DocChat/internal/rag/embedding/huggingfaceEmbedding"
	"github.com/akolanti/DocChat/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/internal/rag/llm/gemini"
	"github.com/akolanti/DocChat/internal/rag/llm/openaiLLM"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/DocChat/internal/rag/vectorDB/pgvectorDB"
	"github.com/akolanti/DocChat/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/DocChat/internal/worker"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"golang.org/x/time/rate"
)

var logger = logger_i.NewLogger("Bootstrap")

type relational interface {
	commonModels.DocumentStore
	chatModel.ChatStore
}

// App holds every long-lived dependency. Both binaries build one and take what they need.
type App struct {
	Settings config.Settings

	Documents commonModels.DocumentStore
	Chats     chatModel.ChatStore
	Index     vectorDB.Index
	Embedder  embedding.Embedder
	LLM       llm.Provider
	Blobs     blobStore.BlobStore
	JobStore  jobModel.JobStore
	Outbox    jobModel.OutboxStore

	Orchestrator *ingest.Orchestrator
	Rag          rag.Service
	Chat         chat.Service
	Jobs         *job.Service
	Pool         *worker.Pool
	Reconciler   *worker.Reconciler

	closers []func() error
}

// Build wires the application. ctx bounds the lifetime of shared connections (redis
// closes its clients when ctx is done); call Close for everything else.
func Build(ctx context.Context, s config.Settings) (*App, error) {
	app := &App{Settings: s}
	if err := app.build(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	s := a.Settings
	metric := commonModels.DistanceMetric(s.DistanceStrategy)

	gormStore, err := a.openRelational(ctx)
	if err != nil {
		return err
	}

	if err := a.openIndex(ctx, gormStore); err != nil {
		return err
	}
	if err := a.openProviders(ctx); err != nil {
		return err
	}
	if err := a.openBlobs(ctx); err != nil {
		return err
	}
	if err := a.openQueues(ctx); err != nil {
		return err
	}

	splitter, err := ingest.NewSplitter(s.ChunkSize, s.ChunkOverlap)
	if err != nil {
		return err
	}
	a.Orchestrator = ingest.NewOrchestrator(ingest.Config{
		Splitter:         splitter,
		Embedder:         a.Embedder,
		Index:            a.Index,
		Store:            a.Documents,
		Outbox:           a.Outbox,
		Metric:           metric,
		EmbeddingTimeout: s.EmbeddingTimeout,
		VectorTimeout:    s.VectorTimeout,
	})
	a.Rag = rag.NewService(rag.Deps{
		Index:            a.Index,
		LLM:              a.LLM,
		Embedder:         a.Embedder,
		Ingestor:         a.Orchestrator,
		TopK:             s.TopK,
		Metric:           metric,
		EmbeddingTimeout: s.EmbeddingTimeout,
		VectorTimeout:    s.VectorTimeout,
		LLMTimeout:       s.LLMTimeout,
	})
	a.Chat = chat.NewService(a.Chats, a.Rag, s.CollectionName)
	a.Jobs = job.InitJobService(job.ServiceConfig{JobStore: a.JobStore})
	a.Pool = worker.NewPool(worker.PoolConfig{
		JobService: a.Jobs,
		RagService: a.Rag,
		Blobs:      a.Blobs,
	})
	a.Reconciler = worker.NewReconciler(a.Index, a.Outbox, s.ReconcileInterval)
	return nil
}

// openRelational returns the gorm store when postgres is configured so pgvector can share it.
func (a *App) openRelational(ctx context.Context) (*relationalStore.GormStore, error) {
	s := a.Settings
	var rel relational
	var gormStore *relationalStore.GormStore

	switch s.RelationalBackend {
	case "memory":
		logger.Warn("Using in-memory relational store, nothing survives a restart")
		rel = relationalStore.NewMemoryStore()
	default:
		var err error
		gormStore, err = relationalStore.Open(s.DatabaseURL, s.DBTimeout)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gormStore.Close)
		if err := gormStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrating relational store: %w", err)
		}
		rel = gormStore
	}
	a.Documents = rel
	a.Chats = rel
	return gormStore, nil
}

func (a *App) openIndex(ctx context.Context, gormStore *relationalStore.GormStore) error {
	s := a.Settings
	switch s.VectorBackend {
	case "memory":
		logger.Warn("Using in-memory vector index")
		a.Index = memoryDB.New()
	case "pgvector":
		if gormStore == nil {
			return errors.New("pgvector index needs RELATIONAL_BACKEND=postgres")
		}
		idx := pgvectorDB.NewPgVectorIndex(gormStore.DB())
		if err := idx.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating pgvector tables: %w", err)
		}
		a.Index = idx
	default:
		idx, err := qdrantDB.NewQdrantIndex(qdrantDB.Options{
			Host:   s.QdrantHost,
			Port:   s.QdrantPort,
			APIKey: s.QdrantAPIKey,
			UseTLS: s.QdrantUseTLS,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, idx.Close)
		a.Index = idx
	}
	logger.Info("Vector index ready", "backend", s.VectorBackend)
	return nil
}

func (a *App) openProviders(ctx context.Context) error {
	s := a.Settings
	var err error

	switch s.EmbeddingProvider {
	case "openai":
		a.Embedder = openaiEmbedding.NewOpenAIEmbedder(openaiEmbedding.Options{
			APIKey:     s.OpenAIAPIKey,
			Model:      s.EmbeddingModelName(),
			Dimensions: int64(s.EmbeddingDimensions),
		})
	case "huggingface":
		a.Embedder = huggingfaceEmbedding.NewHuggingFaceEmbedder(huggingfaceEmbedding.Options{
			APIKey:  s.HuggingFaceAPIKey,
			Model:   s.EmbeddingModelName(),
			BaseURL: s.HuggingFaceBaseURL,
		})
	default:
		a.Embedder, err = googleEmbedding.NewGoogleEmbedder(ctx, googleEmbedding.Options{
			APIKey:     s.GeminiAPIKey,
			Model:      s.EmbeddingModelName(),
			Dimensions: int32(s.EmbeddingDimensions),
		})
		if err != nil {
			return err
		}
	}

	switch s.LLMProvider {
	case "openai":
		a.LLM = openaiLLM.NewOpenAIClient(openaiLLM.Options{APIKey: s.OpenAIAPIKey, Model: s.LLMModelName()})
	default:
		a.LLM, err = gemini.NewGeminiClient(ctx, gemini.Options{APIKey: s.GeminiAPIKey, Model: s.LLMModelName()})
		if err != nil {
			return err
		}
	}
	logger.Info("Providers ready", "embedding", s.EmbeddingProvider, "embeddingModel", s.EmbeddingModelName(), "llm", s.LLMProvider, "llmModel", s.LLMModelName())
	return nil
}

func (a *App) openBlobs(ctx context.Context) error {
	s := a.Settings
	if s.BlobBackend == "minio" {
		m, err := blobStore.NewMinioStore(ctx, blobStore.MinioConfig{
			Endpoint:  s.MinioEndpoint,
			AccessKey: s.MinioAccessKey,
			SecretKey: s.MinioSecretKey,
			Bucket:    s.MinioBucket,
			UseSSL:    s.MinioUseSSL,
		})
		if err != nil {
			return err
		}
		a.Blobs = m
		return nil
	}
	local, err := blobStore.NewLocalStore(s.UploadDir)
	if err != nil {
		return err
	}
	a.Blobs = local
	return nil
}

func (a *App) openQueues(ctx context.Context) error {
	opts := redisStore.Options{Addr: a.Settings.RedisAddr, Password: a.Settings.RedisPassword}

	if jobs := store.GetRedisJobStore(ctx, opts); jobs != nil {
		a.JobStore = jobs
	}
	if outbox := store.GetRedisOutboxStore(ctx, opts); outbox != nil {
		a.Outbox = outbox
	}
	if a.JobStore != nil && a.Outbox != nil {
		return nil
	}
	if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
		return errors.New("redis stores are offline")
	}
	logger.Warn("Redis stores are offline, falling back to in-memory stores")
	if a.JobStore == nil {
		a.JobStore = store.InitInMemoryJobStore()
	}
	if a.Outbox == nil {
		a.Outbox = store.InitInMemoryOutboxStore()
	}
	return nil
}

// HTTP builds the request handlers, the middleware and the MCP server on top of the app.
func (a *App) HTTP() (*handlers.Handler, *middleware.Middleware, *middleware.IPRateLimiter, *mcpServer.Server) {
	s := a.Settings
	h := handlers.New(handlers.Deps{
		Chats:             a.Chat,
		Jobs:              a.Jobs,
		Blobs:             a.Blobs,
		Documents:         a.Documents,
		Remover:           a.Orchestrator,
		MaxFileSize:       s.MaxFileSize,
		DefaultCollection: s.CollectionName,
	})
	limiter := middleware.NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)
	verifier := auth.NewVerifier(s.JWTSecret, s.AuthDisabled)
	if verifier.Disabled() {
		logger.Warn("Authentication is disabled, every request acts as " + auth.DevUser)
	}
	mw := middleware.New(verifier, limiter)
	return h, mw, limiter, mcpServer.NewServer(a.Rag, s.CollectionName, s.TopK)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
