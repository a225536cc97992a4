package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/google/uuid"
)

// Service owns the ingest job queue. Handlers submit, the worker pool drains JobChannel.
type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.JobChannel == nil {
		cfg.JobChannel = make(chan jobModel.Job, config.BufferLimit)
	}
	if cfg.DispatcherChannel == nil {
		cfg.DispatcherChannel = make(chan bool, config.BufferLimit)
	}
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("JobService"),
	}
}

// Submit records a queued ingest job and hands it to the workers. The send blocks
// while the queue is full so uploads cannot outrun ingestion.
func (s *Service) Submit(ctx context.Context, payload jobModel.JobPayload) (jobModel.Job, error) {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	newJob := jobModel.Job{
		Id:          uuid.NewString(),
		TraceId:     traceId,
		JobType:     jobModel.JobTypeIngest,
		JobPayload:  payload,
		CreatedTime: time.Now().UTC(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
	}
	log := s.logger.With("traceId", traceId, "jobId", newJob.Id)

	if err := s.JobStore.SaveJob(ctx, newJob); err != nil {
		log.Error("Saving queued job failed", "error", err)
		return jobModel.Job{}, err
	}

	select {
	case s.JobChannel <- newJob:
	case <-ctx.Done():
		s.JobStore.DeleteJob(context.WithoutCancel(ctx), newJob.Id)
		return jobModel.Job{}, ctx.Err()
	}
	metrics.IncrementJobsInQueue()
	log.Info("Queued ingest job", "file", payload.FileName, "collection", payload.Collection)

	// every ingest job may spawn a worker, extraction and embedding are slow
	atomic.AddInt64(&s.RequestCount, 1)
	select {
	case s.DispatcherChannel <- true:
		metrics.StartDispatcherSignalCount()
	default:
	}
	return newJob, nil
}

func (s *Service) Status(ctx context.Context, id string) (jobModel.Job, bool) {
	return s.JobStore.GetJob(ctx, id)
}
