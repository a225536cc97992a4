package api

import (
	"time"

	"github.com/akolanti/DocChat/internal/domain/chatModel"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id          string            `json:"id" example:"3f1c2a9e-7b7d-4c55-9d0e-1f9a2b3c4d5e"`
	Status      string            `json:"status" example:"COMPLETE"`
	CurrentStep string            `json:"current_step" example:"Done"`
	FileName    string            `json:"file_name,omitempty" example:"handbook.pdf"`
	Collection  string            `json:"collection,omitempty" example:"HR"`
	DocumentId  string            `json:"document_id,omitempty"`
	ChunkCount  int               `json:"chunk_count,omitempty" example:"42"`
	Error       *JobOutgoingError `json:"error,omitempty"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type ErrorResponse struct {
	Id    string           `json:"id,omitempty"`
	Error JobOutgoingError `json:"error"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type NewChatResponse struct {
	Id string `json:"id"`
}

type ChatAnswerResponse struct {
	Answer    string                  `json:"answer"`
	Citations []commonModels.Citation `json:"citations"`
}

type ChatResponse struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatSummaryResponse struct {
	ChatResponse
	MessageCount int64 `json:"message_count"`
}

type ChatHistoryResponse = chatModel.ChatHistory

type DocumentResponse struct {
	commonModels.Document
	ChunkCount int64 `json:"chunk_count"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// requests---------------------

type ChatRequest struct {
	Message        string `json:"message" validate:"required"`
	CollectionName string `json:"collection_name,omitempty" validate:"omitempty,max=128"`
}

type RenameChatRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}
