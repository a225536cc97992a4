package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/redisStore"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

const (
	outboxKey     = "vector:outbox"
	deadLetterKey = "vector:outbox:dead"
)

// RedisOutboxStore keeps pending vector index writes in a single hash, one field per record.
// Records have no TTL: they stay until the reconciler replays or dead-letters them.
type RedisOutboxStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisOutboxStore(ctx context.Context, opts redisStore.Options) *RedisOutboxStore {
	s := redisStore.GetRedisStore(ctx, opts, config.RedisOutboxStore)
	if s == nil {
		return nil
	}
	return NewRedisOutboxStore(s)
}

func NewRedisOutboxStore(store *redisStore.Store) *RedisOutboxStore {
	return &RedisOutboxStore{
		store:  store,
		logger: logger_i.NewLogger("OutboxStore"),
	}
}

func (s *RedisOutboxStore) Enqueue(ctx context.Context, record jobModel.OutboxRecord) error {
	return s.Update(ctx, record)
}

func (s *RedisOutboxStore) Update(ctx context.Context, record jobModel.OutboxRecord) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "record", record.Id)
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err = s.store.HashSet(ctx, outboxKey, record.Id, data); err != nil {
		log.Error("Error writing outbox record", "error", err)
		return err
	}
	log.Debug("Outbox record saved", "op", record.Op, "attempts", record.Attempts)
	return nil
}

func (s *RedisOutboxStore) Pending(ctx context.Context, limit int) ([]jobModel.OutboxRecord, error) {
	records, err := s.readHash(ctx, outboxKey)
	if err != nil {
		return nil, fmt.Errorf("reading outbox: %w", err)
	}
	return leastRetriedFirst(records, limit), nil
}

func (s *RedisOutboxStore) Remove(ctx context.Context, id string) error {
	return s.store.HashDel(ctx, outboxKey, id)
}

// DeadLetter moves the record out of the pending hash so it is never replayed again.
func (s *RedisOutboxStore) DeadLetter(ctx context.Context, record jobModel.OutboxRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.store.HashMove(ctx, outboxKey, deadLetterKey, record.Id, data); err != nil {
		s.logger.Error("Error dead-lettering outbox record", "record", record.Id, "error", err)
		return err
	}
	return nil
}

func (s *RedisOutboxStore) DeadLetters(ctx context.Context) ([]jobModel.OutboxRecord, error) {
	records, err := s.readHash(ctx, deadLetterKey)
	if err != nil {
		return nil, fmt.Errorf("reading dead letters: %w", err)
	}
	return leastRetriedFirst(records, 0), nil
}

func (s *RedisOutboxStore) readHash(ctx context.Context, key string) ([]jobModel.OutboxRecord, error) {
	raw, err := s.store.HashGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	records := make([]jobModel.OutboxRecord, 0, len(raw))
	for field, value := range raw {
		var r jobModel.OutboxRecord
		if err := json.Unmarshal([]byte(value), &r); err != nil {
			s.logger.Error("Dropping unreadable outbox record", "key", key, "field", field, "error", err)
			_ = s.store.HashDel(ctx, key, field)
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// leastRetriedFirst orders by attempts, then age, then id.
func leastRetriedFirst(records []jobModel.OutboxRecord, limit int) []jobModel.OutboxRecord {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Attempts != b.Attempts {
			return a.Attempts < b.Attempts
		}
		if !a.CreatedTime.Equal(b.CreatedTime) {
			return a.CreatedTime.Before(b.CreatedTime)
		}
		return a.Id < b.Id
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
