package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/DocChat/internal/adapter"
	"github.com/akolanti/DocChat/internal/config"
	jobmodel "github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

func (p *Pool) executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, p.jobTimeout)
	defer cancel()
	log := p.logger.With("traceId", job.TraceId, "jobId", job.Id)
	log.Debug("Processing job")

	job.Status = jobmodel.JobStatusRunning
	p.saveJobState(ctx, job, log)

	result, err := p.ingestDocument(ctx, &job, log)
	job = finishJob(job, result, err)
	job.EndTime = time.Now().UTC()
	p.saveJobState(ctx, job, log)
	log.Info("Job finished", "status", job.Status, "documentId", job.JobPayload.DocumentId)
}

func (p *Pool) ingestDocument(ctx context.Context, job *jobmodel.Job, log *logger_i.Logger) (ingest.Result, error) {
	payload := job.JobPayload
	localPath, cleanup, err := p.fetchBlob(ctx, payload.BlobKey)
	if err != nil {
		log.Error("Fetching upload failed", "blobKey", payload.BlobKey, "error", err)
		return ingest.Result{}, err
	}
	defer cleanup()

	observe := func(step jobmodel.InternalStatus) {
		job.CurrentStep = step
		p.saveJobState(ctx, *job, log)
	}
	return p.ragService.IngestDocument(ctx, ingest.Request{
		Path:       localPath,
		FileName:   payload.FileName,
		Source:     payload.BlobKey,
		UploadedBy: payload.UploadedBy,
		Collection: payload.Collection,
	}, observe)
}

func (p *Pool) fetchBlob(ctx context.Context, key string) (string, func(), error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("blob_fetch", time.Since(start)) }()

	blobCtx, cancel := context.WithTimeout(ctx, config.BlobTimeout)
	defer cancel()
	return p.blobs.Fetch(blobCtx, key)
}

// finishJob maps the ingestion outcome onto the job. A consistency gap still
// produced a document, so the job completes with its vectors pending.
func finishJob(job jobmodel.Job, result ingest.Result, err error) jobmodel.Job {
	job.JobPayload.DocumentId = result.DocumentId
	job.JobPayload.ChunkCount = result.ChunkCount
	job.JobPayload.Dimension = result.Dimension

	switch {
	case err == nil:
		job.Status = jobmodel.JobStatusComplete
	case errors.Is(err, ragErrors.ErrConsistencyGap):
		job.Status = jobmodel.JobStatusPartial
		job.Error = jobmodel.JobError{Code: http.StatusAccepted, Message: err.Error(), Retry: false}
	default:
		job.Status = jobmodel.JobStatusError
		job.CurrentStep = jobmodel.Failed
		job.Error = jobmodel.JobError{
			Code:    adapter.ErrorStatus(err),
			Message: adapter.ErrorMessage(err),
			Retry:   ragErrors.IsRetryable(err),
		}
	}
	return job
}

func (p *Pool) saveJobState(ctx context.Context, job jobmodel.Job, log *logger_i.Logger) {
	if err := p.jobService.JobStore.SaveJob(context.WithoutCancel(ctx), job); err != nil {
		log.Error("Failed to update job status", "error", err)
	}
}
