package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/DocChat/internal/data/blobStore"
	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/job"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/internal/rag/ingest"
)

// MockRagService records ingest requests and replays the configured outcome.
type MockRagService struct {
	mu       sync.Mutex
	requests []ingest.Request
	OnIngest func(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error)
}

func (m *MockRagService) Answer(ctx context.Context, query, collection string) (rag.Answer, error) {
	return rag.Answer{}, nil
}

func (m *MockRagService) Retrieve(ctx context.Context, query, collection string, k int) ([]commonModels.ScoredEntry, error) {
	return nil, nil
}

func (m *MockRagService) IngestDocument(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.OnIngest != nil {
		return m.OnIngest(ctx, req, observe)
	}
	observe(jobModel.Extracting)
	observe(jobModel.Done)
	return ingest.Result{DocumentId: "doc-1", ChunkCount: 3, Dimension: 4}, nil
}

func (m *MockRagService) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// stepRecorder keeps every state a job is saved with.
type stepRecorder struct {
	*store.InMemoryJobStore
	mu    sync.Mutex
	steps []jobModel.InternalStatus
}

func (s *stepRecorder) SaveJob(ctx context.Context, j jobModel.Job) error {
	s.mu.Lock()
	s.steps = append(s.steps, j.CurrentStep)
	s.mu.Unlock()
	return s.InMemoryJobStore.SaveJob(ctx, j)
}

type harness struct {
	jobs  *job.Service
	store *stepRecorder
	blobs *blobStore.LocalStore
	rag   *MockRagService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	blobs, err := blobStore.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := &stepRecorder{InMemoryJobStore: store.InitInMemoryJobStore()}
	return &harness{
		jobs:  job.InitJobService(job.ServiceConfig{JobStore: rec}),
		store: rec,
		blobs: blobs,
		rag:   &MockRagService{},
	}
}

func (h *harness) pool(cfg PoolConfig) *Pool {
	cfg.JobService = h.jobs
	cfg.RagService = h.rag
	cfg.Blobs = h.blobs
	return NewPool(cfg)
}

func (h *harness) upload(t *testing.T, name string) jobModel.JobPayload {
	t.Helper()
	key := blobStore.NewKey(name)
	if err := h.blobs.Put(context.Background(), key, strings.NewReader("some text"), 9, "text/plain"); err != nil {
		t.Fatal(err)
	}
	return jobModel.JobPayload{FileName: name, BlobKey: key, UploadedBy: "alice", Collection: "HR"}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWorkerPool_Flow(t *testing.T) {
	h := newHarness(t)
	p := h.pool(PoolConfig{MinWorkers: 1, MaxWorkers: 3})
	p.Start()
	defer p.Stop()
	ctx := context.Background()

	t.Run("Worker processes a job", func(t *testing.T) {
		queued, err := h.jobs.Submit(ctx, h.upload(t, "notes.txt"))
		if err != nil {
			t.Fatal(err)
		}
		waitFor(t, "job completion", func() bool {
			j, _ := h.jobs.Status(ctx, queued.Id)
			return j.Status == jobModel.JobStatusComplete
		})

		done, _ := h.jobs.Status(ctx, queued.Id)
		if done.JobPayload.DocumentId != "doc-1" || done.JobPayload.ChunkCount != 3 || done.EndTime.IsZero() {
			t.Errorf("unexpected finished job %+v", done)
		}
		h.rag.mu.Lock()
		req := h.rag.requests[0]
		h.rag.mu.Unlock()
		if req.FileName != "notes.txt" || req.Source != queued.JobPayload.BlobKey || req.UploadedBy != "alice" || req.Collection != "HR" {
			t.Errorf("unexpected ingest request %+v", req)
		}
		if !strings.HasSuffix(req.Path, "notes.txt") {
			t.Errorf("worker should pass the fetched local file, got %s", req.Path)
		}
	})

	t.Run("Dispatcher grows the pool up to the max", func(t *testing.T) {
		for range 5 {
			h.jobs.DispatcherChannel <- true
		}
		waitFor(t, "pool growth", func() bool { return p.WorkerCount() == 3 })
		time.Sleep(20 * time.Millisecond)
		if got := p.WorkerCount(); got != 3 {
			t.Errorf("pool grew past the max: %d", got)
		}
	})

	t.Run("Observer steps are saved", func(t *testing.T) {
		h.store.mu.Lock()
		defer h.store.mu.Unlock()
		joined := make([]string, len(h.store.steps))
		for i, s := range h.store.steps {
			joined[i] = string(s)
		}
		if !strings.Contains(strings.Join(joined, ","), "Extracting,Done") {
			t.Errorf("steps %v", joined)
		}
	})
}

func TestWorkerPool_StopRetiresWorkers(t *testing.T) {
	h := newHarness(t)
	p := h.pool(PoolConfig{MinWorkers: 2, MaxWorkers: 2})
	p.Start()

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Workers did not stop within timeout")
	}
	if p.WorkerCount() != 0 {
		t.Errorf("worker count after stop: %d", p.WorkerCount())
	}
}

func TestWorker_IdleTimeout(t *testing.T) {
	h := newHarness(t)
	p := h.pool(PoolConfig{MinWorkers: 1, MaxWorkers: 4, IdleTimeout: 150 * time.Millisecond})
	p.Start()
	defer p.Stop()

	h.jobs.DispatcherChannel <- true
	h.jobs.DispatcherChannel <- true
	waitFor(t, "extra workers", func() bool { return p.WorkerCount() == 3 })

	waitFor(t, "idle workers to retire", func() bool { return p.WorkerCount() == 1 })
	time.Sleep(300 * time.Millisecond)
	if got := p.WorkerCount(); got != 1 {
		t.Errorf("pool shrank below its minimum: %d", got)
	}
}

func TestFinishJob(t *testing.T) {
	gap := &ragErrors.ConsistencyGapError{DocumentID: "doc-9", Collection: "HR", EntryIDs: []string{"a"}, Err: errors.New("qdrant down")}
	tests := []struct {
		name     string
		result   ingest.Result
		err      error
		status   jobModel.JobStatus
		code     int
		retry    bool
		hasDocId bool
	}{
		{name: "success", result: ingest.Result{DocumentId: "doc-1", ChunkCount: 2}, status: jobModel.JobStatusComplete, hasDocId: true},
		{name: "index pending", result: ingest.Result{DocumentId: "doc-9", IndexPending: true}, err: gap, status: jobModel.JobStatusPartial, code: 202, hasDocId: true},
		{name: "unsupported", err: ragErrors.ErrUnsupportedFormat, status: jobModel.JobStatusError, code: 400},
		{name: "retryable provider", err: ragErrors.NewProviderError("gemini", "embed_documents", true, errors.New("429")), status: jobModel.JobStatusError, code: 502, retry: true},
		{name: "dimension conflict", err: ragErrors.ErrDimensionMismatch, status: jobModel.JobStatusError, code: 409},
		{name: "missing blob", err: errors.New("stat: no such file"), status: jobModel.JobStatusError, code: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := finishJob(jobModel.Job{Id: "j"}, tt.result, tt.err)
			if got.Status != tt.status || got.Error.Code != tt.code || got.Error.Retry != tt.retry {
				t.Errorf("got status %s error %+v", got.Status, got.Error)
			}
			if (got.JobPayload.DocumentId != "") != tt.hasDocId {
				t.Errorf("document id %q", got.JobPayload.DocumentId)
			}
			if tt.status == jobModel.JobStatusError && got.CurrentStep != jobModel.Failed {
				t.Errorf("failed job should end in Failed, got %s", got.CurrentStep)
			}
		})
	}
}

func TestExecuteJob_MissingBlobFails(t *testing.T) {
	h := newHarness(t)
	p := h.pool(PoolConfig{})
	j := jobModel.Job{Id: "j1", JobPayload: jobModel.JobPayload{FileName: "gone.txt", BlobKey: "2026/01/01/gone.txt"}}

	p.executeJob(j)

	got, found := h.jobs.Status(context.Background(), "j1")
	if !found || got.Status != jobModel.JobStatusError {
		t.Fatalf("got %+v", got)
	}
	if h.rag.count() != 0 {
		t.Error("ingestion should not start without the upload")
	}
}
