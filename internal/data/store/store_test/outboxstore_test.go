package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
)

func TestOutboxStores(t *testing.T) {
	stores := outboxStores(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, outbox := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			newer := jobModel.OutboxRecord{Id: "r2", Op: jobModel.OutboxDiscard, Collection: "HR", EntryIds: []string{"c"}, CreatedTime: base.Add(time.Minute)}
			older := jobModel.OutboxRecord{Id: "r1", Op: jobModel.OutboxPublish, Collection: "HR", DocumentId: "doc-1", EntryIds: []string{"a", "b"}, CreatedTime: base}

			if err := outbox.Enqueue(ctx, newer); err != nil {
				t.Fatalf("enqueue: %v", err)
			}
			if err := outbox.Enqueue(ctx, older); err != nil {
				t.Fatalf("enqueue: %v", err)
			}

			pending, err := outbox.Pending(ctx, 10)
			if err != nil {
				t.Fatalf("pending: %v", err)
			}
			if len(pending) != 2 || pending[0].Id != "r1" || pending[1].Id != "r2" {
				t.Fatalf("expected oldest first among equally retried, got %+v", pending)
			}
			if len(pending[0].EntryIds) != 2 || pending[0].DocumentId != "doc-1" {
				t.Errorf("record fields lost: %+v", pending[0])
			}

			limited, _ := outbox.Pending(ctx, 1)
			if len(limited) != 1 {
				t.Errorf("limit ignored: %d records", len(limited))
			}

			older.Attempts = 3
			older.LastError = "still down"
			if err := outbox.Update(ctx, older); err != nil {
				t.Fatalf("update: %v", err)
			}
			if err := outbox.Remove(ctx, "r2"); err != nil {
				t.Fatalf("remove: %v", err)
			}

			pending, _ = outbox.Pending(ctx, 0)
			if len(pending) != 1 || pending[0].Attempts != 3 || pending[0].LastError != "still down" {
				t.Errorf("unexpected state after update/remove: %+v", pending)
			}
		})
	}
}

func TestOutboxStores_RetriedRecordsSortLast(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, outbox := range outboxStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			records := []jobModel.OutboxRecord{
				{Id: "old-retried", Op: jobModel.OutboxPublish, Collection: "HR", EntryIds: []string{"a"}, Attempts: 4, CreatedTime: base},
				{Id: "old-once", Op: jobModel.OutboxPublish, Collection: "HR", EntryIds: []string{"b"}, Attempts: 1, CreatedTime: base.Add(time.Second)},
				{Id: "fresh", Op: jobModel.OutboxPublish, Collection: "HR", EntryIds: []string{"c"}, CreatedTime: base.Add(time.Hour)},
			}
			for _, r := range records {
				if err := outbox.Enqueue(ctx, r); err != nil {
					t.Fatalf("enqueue: %v", err)
				}
			}

			pending, err := outbox.Pending(ctx, 0)
			if err != nil {
				t.Fatalf("pending: %v", err)
			}
			want := []string{"fresh", "old-once", "old-retried"}
			if len(pending) != len(want) {
				t.Fatalf("expected %d records, got %+v", len(want), pending)
			}
			for i, id := range want {
				if pending[i].Id != id {
					t.Errorf("position %d: got %s, want %s", i, pending[i].Id, id)
				}
			}
		})
	}
}

func TestOutboxStores_DeadLetter(t *testing.T) {
	for name, outbox := range outboxStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			record := jobModel.OutboxRecord{Id: "r1", Op: jobModel.OutboxDiscard, Collection: "HR", EntryIds: []string{"a"}, CreatedTime: time.Now().UTC()}
			if err := outbox.Enqueue(ctx, record); err != nil {
				t.Fatalf("enqueue: %v", err)
			}

			record.Attempts = 10
			record.LastError = "gone for good"
			if err := outbox.DeadLetter(ctx, record); err != nil {
				t.Fatalf("dead letter: %v", err)
			}

			pending, _ := outbox.Pending(ctx, 0)
			if len(pending) != 0 {
				t.Errorf("dead letter still pending: %+v", pending)
			}
			dead, err := outbox.DeadLetters(ctx)
			if err != nil {
				t.Fatalf("dead letters: %v", err)
			}
			if len(dead) != 1 || dead[0].Id != "r1" || dead[0].Attempts != 10 || dead[0].LastError != "gone for good" {
				t.Errorf("unexpected dead letters %+v", dead)
			}
		})
	}
}

func outboxStores(t *testing.T) map[string]jobModel.OutboxStore {
	t.Helper()
	_, internalStore := newMiniRedisStore(t)
	return map[string]jobModel.OutboxStore{
		"redis":  store.NewRedisOutboxStore(internalStore),
		"memory": store.InitInMemoryOutboxStore(),
	}
}
