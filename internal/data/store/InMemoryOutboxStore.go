package store

import (
	"context"
	"sync"

	"github.com/akolanti/DocChat/internal/domain/jobModel"
)

// InMemoryOutboxStore is the process-local fallback for RedisOutboxStore.
type InMemoryOutboxStore struct {
	lock    sync.Mutex
	records map[string]jobModel.OutboxRecord
	dead    map[string]jobModel.OutboxRecord
}

func InitInMemoryOutboxStore() *InMemoryOutboxStore {
	return &InMemoryOutboxStore{
		records: make(map[string]jobModel.OutboxRecord),
		dead:    make(map[string]jobModel.OutboxRecord),
	}
}

func (store *InMemoryOutboxStore) Enqueue(ctx context.Context, record jobModel.OutboxRecord) error {
	return store.Update(ctx, record)
}

func (store *InMemoryOutboxStore) Update(ctx context.Context, record jobModel.OutboxRecord) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	record.EntryIds = append([]string(nil), record.EntryIds...)
	store.records[record.Id] = record
	return nil
}

func (store *InMemoryOutboxStore) Pending(ctx context.Context, limit int) ([]jobModel.OutboxRecord, error) {
	store.lock.Lock()
	records := make([]jobModel.OutboxRecord, 0, len(store.records))
	for _, r := range store.records {
		records = append(records, r)
	}
	store.lock.Unlock()
	return leastRetriedFirst(records, limit), nil
}

func (store *InMemoryOutboxStore) Remove(ctx context.Context, id string) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	delete(store.records, id)
	return nil
}

func (store *InMemoryOutboxStore) DeadLetter(ctx context.Context, record jobModel.OutboxRecord) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	record.EntryIds = append([]string(nil), record.EntryIds...)
	delete(store.records, record.Id)
	store.dead[record.Id] = record
	return nil
}

func (store *InMemoryOutboxStore) DeadLetters(ctx context.Context) ([]jobModel.OutboxRecord, error) {
	store.lock.Lock()
	records := make([]jobModel.OutboxRecord, 0, len(store.dead))
	for _, r := range store.dead {
		records = append(records, r)
	}
	store.lock.Unlock()
	return leastRetriedFirst(records, 0), nil
}
