package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/akolanti/DocChat/internal/bootstrap"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/akolanti/DocChat/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/DocChat/internal/worker"
)

type fakeRag struct {
	lastCollection string
	lastK          int
	ingestErr      error
	lastRequest    ingest.Request
}

func (f *fakeRag) Answer(ctx context.Context, query, collection string) (rag.Answer, error) {
	f.lastCollection = collection
	return rag.Answer{
		Text:      "25 days of annual leave.",
		Citations: []commonModels.Citation{{Filename: "handbook.pdf", FileType: "pdf", Page: commonModels.IntPtr(2)}},
	}, nil
}

func (f *fakeRag) Retrieve(ctx context.Context, query, collection string, k int) ([]commonModels.ScoredEntry, error) {
	f.lastCollection, f.lastK = collection, k
	return []commonModels.ScoredEntry{{
		Entry: commonModels.VectorEntry{DocumentId: "doc-1", ChunkIndex: 0, Content: "Annual leave\nis 25 days.", Metadata: commonModels.SegmentMetadata{Filename: "handbook.pdf"}},
		Score: 0.5,
	}}, nil
}

func (f *fakeRag) IngestDocument(ctx context.Context, req ingest.Request, observe ingest.StepObserver) (ingest.Result, error) {
	f.lastRequest = req
	observe(jobModel.Extracting)
	observe(jobModel.Done)
	result := ingest.Result{DocumentId: "doc-9", ChunkCount: 2, Dimension: 4}
	if f.ingestErr != nil {
		result.IndexPending = errors.Is(f.ingestErr, ragErrors.ErrConsistencyGap)
	}
	return result, f.ingestErr
}

func run(t *testing.T, fake *fakeRag, args ...string) (string, error) {
	t.Helper()
	c := &cli{
		load: func() (config.Settings, error) {
			return config.Settings{LogLevel: "error", CollectionName: "HR", TopK: 3}, nil
		},
		build: func(ctx context.Context, s config.Settings) (*bootstrap.App, error) {
			return &bootstrap.App{
				Settings:   s,
				Rag:        fake,
				Reconciler: worker.NewReconciler(memoryDB.New(), store.InitInMemoryOutboxStore(), 0),
			}, nil
		},
	}
	cmd := newRootCmd(c)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	c.close()
	return out.String(), err
}

func TestSearchCmd(t *testing.T) {
	fake := &fakeRag{}
	out, err := run(t, fake, "search", "leave")
	if err != nil {
		t.Fatal(err)
	}
	if fake.lastCollection != "HR" || fake.lastK != 3 {
		t.Errorf("retrieve called with %q k=%d", fake.lastCollection, fake.lastK)
	}
	if !strings.Contains(out, "[1] handbook.pdf (0.5000)") || !strings.Contains(out, "Annual leave is 25 days.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, fake, "search", "leave", "-k", "5", "-c", "Finance", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var hits []searchHit
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("not json: %v\n%s", err, out)
	}
	if len(hits) != 1 || hits[0].DocumentId != "doc-1" || fake.lastK != 5 || fake.lastCollection != "Finance" {
		t.Errorf("unexpected result %+v", hits)
	}
}

func TestAskCmd(t *testing.T) {
	out, err := run(t, &fakeRag{}, "ask", "How much leave?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "25 days of annual leave.") || !strings.Contains(out, "handbook.pdf (page 2)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestIngestCmd(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
		want    string
	}{
		{name: "done", want: "Document doc-9: 2 chunks, 4 dimensions"},
		{name: "index pending is not a failure", err: &ragErrors.ConsistencyGapError{DocumentID: "doc-9", Err: errors.New("down")}, want: "ragctl reconcile"},
		{name: "unsupported format", err: ragErrors.ErrUnsupportedFormat, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRag{ingestErr: tt.err}
			out, err := run(t, fake, "ingest", "/data/Handbook.pdf", "--user", "alice")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr {
				return
			}
			if !strings.Contains(out, tt.want) || !strings.Contains(out, "Extracting") {
				t.Errorf("unexpected output:\n%s", out)
			}
			req := fake.lastRequest
			if req.FileName != "Handbook.pdf" || req.Collection != "HR" || req.UploadedBy != "alice" || req.Source != "/data/Handbook.pdf" {
				t.Errorf("unexpected request %+v", req)
			}
		})
	}
}

func TestReconcileCmd(t *testing.T) {
	out, err := run(t, &fakeRag{}, "reconcile")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "replayed=0 dropped=0 failed=0 dead_lettered=0 deferred=0 pending=0") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("a\n\nb   c", 10); got != "a b c" {
		t.Errorf("got %q", got)
	}
	if got := snippet("ééééé", 3); got != "ééé..." {
		t.Errorf("got %q", got)
	}
}
