package bootstrap

import (
	"context"
	"testing"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/rag/vectorDB/memoryDB"
)

func memorySettings(t *testing.T) config.Settings {
	return config.Settings{
		LogLevel:            "error",
		ListenAddr:          ":0",
		AuthDisabled:        true,
		RelationalBackend:   "memory",
		VectorBackend:       "memory",
		CollectionName:      "HR",
		DistanceStrategy:    "cosine",
		EmbeddingProvider:   "huggingface",
		HuggingFaceBaseURL:  "http://127.0.0.1:1",
		LLMProvider:         "openai",
		OpenAIAPIKey:        "test",
		ChunkSize:           1000,
		ChunkOverlap:        200,
		TopK:                3,
		RedisAddr:           "127.0.0.1:1",
		BlobBackend:         "local",
		UploadDir:           t.TempDir(),
		MaxFileSize:         1 << 20,
		EmbeddingDimensions: 0,
	}
}

func TestBuild_InMemory(t *testing.T) {
	app, err := Build(context.Background(), memorySettings(t))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if _, ok := app.Index.(*memoryDB.Index); !ok {
		t.Errorf("index is %T", app.Index)
	}
	if _, ok := app.JobStore.(*store.InMemoryJobStore); !ok {
		t.Errorf("job store did not fall back, got %T", app.JobStore)
	}
	if _, ok := app.Outbox.(*store.InMemoryOutboxStore); !ok {
		t.Errorf("outbox did not fall back, got %T", app.Outbox)
	}
	if app.Rag == nil || app.Chat == nil || app.Pool == nil || app.Reconciler == nil || app.Orchestrator == nil {
		t.Fatalf("app is incomplete: %+v", app)
	}

	h, mw, limiter, mcp := app.HTTP()
	if h == nil || mw == nil || limiter == nil || mcp == nil {
		t.Error("HTTP wiring returned nil")
	}
}

func TestBuild_PgvectorNeedsPostgres(t *testing.T) {
	s := memorySettings(t)
	s.VectorBackend = "pgvector"
	if _, err := Build(context.Background(), s); err == nil {
		t.Fatal("expected an error")
	}
}

func TestBuild_BadChunking(t *testing.T) {
	s := memorySettings(t)
	s.ChunkOverlap = s.ChunkSize
	if _, err := Build(context.Background(), s); err == nil {
		t.Fatal("expected an error")
	}
}

func TestClose_RunsInReverse(t *testing.T) {
	var order []int
	app := &App{}
	app.closers = append(app.closers,
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	)
	if err := app.Close(); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("close order %v", order)
	}
}
