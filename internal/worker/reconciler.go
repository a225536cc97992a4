package worker

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

// Reconciler replays vector index writes that ingestion could not finish:
// publishes for committed documents and discards of orphaned staged vectors.
// A failing record backs off exponentially and is dead-lettered after maxAttempts.
type Reconciler struct {
	index       vectorDB.Index
	outbox      jobModel.OutboxStore
	interval    time.Duration
	batchSize   int
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	now         func() time.Time
	logger      *logger_i.Logger
}

type ReconcileReport struct {
	Replayed     int `json:"replayed"`
	Dropped      int `json:"dropped"`
	Failed       int `json:"failed"`
	DeadLettered int `json:"dead_lettered"`
	Deferred     int `json:"deferred"`
	Pending      int `json:"pending"`
}

func NewReconciler(index vectorDB.Index, outbox jobModel.OutboxStore, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = config.ReconcileInterval
	}
	return &Reconciler{
		index:       index,
		outbox:      outbox,
		interval:    interval,
		batchSize:   config.OutboxBatchSize,
		timeout:     config.VectorTimeout,
		maxAttempts: config.OutboxMaxAttempts,
		backoff:     config.OutboxBackoff,
		maxBackoff:  config.OutboxMaxBackoff,
		now:         time.Now,
		logger:      logger_i.NewLogger("Reconciler"),
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("Reconciler started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("Outbox sweep failed", "error", err)
			}
		}
	}
}

// Sweep replays one batch of due outbox records, least retried first.
func (r *Reconciler) Sweep(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	all, err := r.outbox.Pending(ctx, 0)
	if err != nil {
		return report, err
	}
	now := r.now()
	due := make([]jobModel.OutboxRecord, 0, len(all))
	for _, record := range all {
		if record.Due(now) {
			due = append(due, record)
		}
	}
	report.Deferred = len(all) - len(due)
	if len(due) > r.batchSize {
		due = due[:r.batchSize]
	}

	for _, record := range due {
		log := r.logger.With("record", record.Id, "op", record.Op, "documentId", record.DocumentId)
		err := r.replay(ctx, record)
		switch {
		case err == nil:
			report.Replayed++
			log.Info("Outbox record replayed")
			if err := r.outbox.Remove(ctx, record.Id); err != nil {
				log.Error("Removing outbox record failed", "error", err)
			}
		case record.Op == jobModel.OutboxPublish && errors.Is(err, ragErrors.ErrNotFound):
			// the staged entries are gone, nothing can ever be published
			report.Dropped++
			log.Error("Dropping publish for missing vectors", "error", err)
			if err := r.outbox.Remove(ctx, record.Id); err != nil {
				log.Error("Removing outbox record failed", "error", err)
			}
		default:
			record.Attempts++
			record.LastError = err.Error()
			if record.Attempts >= r.maxAttempts {
				report.DeadLettered++
				log.Error("Outbox record exhausted its attempts", "attempts", record.Attempts, "error", err)
				metrics.IncrementOutboxDeadLetter()
				if err := r.outbox.DeadLetter(ctx, record); err != nil {
					log.Error("Dead-lettering outbox record failed", "error", err)
				}
				continue
			}
			report.Failed++
			record.NextAttemptAt = now.Add(r.retryDelay(record.Attempts))
			log.Warn("Outbox replay failed", "attempts", record.Attempts, "nextAttemptAt", record.NextAttemptAt, "error", err)
			if err := r.outbox.Update(ctx, record); err != nil {
				log.Error("Updating outbox record failed", "error", err)
			}
		}
	}

	remaining, err := r.outbox.Pending(ctx, 0)
	if err != nil {
		return report, err
	}
	report.Pending = len(remaining)
	metrics.SetOutboxDepth(report.Pending)
	return report, nil
}

// retryDelay doubles the base backoff per attempt up to maxBackoff.
func (r *Reconciler) retryDelay(attempts int) time.Duration {
	delay := r.backoff
	for i := 1; i < attempts && delay < r.maxBackoff; i++ {
		delay *= 2
	}
	return min(delay, r.maxBackoff)
}

func (r *Reconciler) replay(ctx context.Context, record jobModel.OutboxRecord) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_reconcile", time.Since(start)) }()

	c, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	switch record.Op {
	case jobModel.OutboxPublish:
		return r.index.Publish(c, record.Collection, record.EntryIds)
	case jobModel.OutboxDiscard:
		return r.index.Discard(c, record.Collection, record.EntryIds)
	default:
		return ragErrors.InvalidArgument("unknown outbox op %q", record.Op)
	}
}
