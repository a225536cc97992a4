package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	// JobStatusPartial means the document is stored but its vectors are still waiting on the reconciler.
	JobStatusPartial JobStatus = "COMPLETE_INDEX_PENDING"
	JobStatusError   JobStatus = "Error"

	// ingestion state machine
	IngestInit InternalStatus = "IngestInit"
	Extracting InternalStatus = "Extracting"
	Chunking   InternalStatus = "Chunking"
	Embedding  InternalStatus = "Embedding"
	Persisting InternalStatus = "Persisting"
	Done       InternalStatus = "Done"
	Failed     InternalStatus = "Failed"

	JobTypeIngest JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	FileName   string `json:"file_name"`
	BlobKey    string `json:"blob_key"`
	UploadedBy string `json:"uploaded_by"`
	Collection string `json:"collection"`

	DocumentId string `json:"document_id,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Dimension  int    `json:"dimension,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

type OutboxOp string

const (
	OutboxPublish OutboxOp = "publish"
	OutboxDiscard OutboxOp = "discard"
)

// OutboxRecord is a vector index write that has to be replayed until it succeeds
// or runs out of attempts.
type OutboxRecord struct {
	Id            string    `json:"id"`
	Op            OutboxOp  `json:"op"`
	Collection    string    `json:"collection"`
	DocumentId    string    `json:"document_id,omitempty"`
	EntryIds      []string  `json:"entry_ids"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
	CreatedTime   time.Time `json:"created_time"`
	NextAttemptAt time.Time `json:"next_attempt_at,omitempty"`
}

// Due reports whether the record's backoff has elapsed at now.
func (r OutboxRecord) Due(now time.Time) bool {
	return !r.NextAttemptAt.After(now)
}

// OutboxStore holds pending records and the dead letters that exhausted their attempts.
// Pending orders the least retried records first, then the oldest.
type OutboxStore interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	Pending(ctx context.Context, limit int) ([]OutboxRecord, error)
	Update(ctx context.Context, record OutboxRecord) error
	Remove(ctx context.Context, id string) error
	DeadLetter(ctx context.Context, record OutboxRecord) error
	DeadLetters(ctx context.Context) ([]OutboxRecord, error)
}
