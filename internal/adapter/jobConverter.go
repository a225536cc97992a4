package adapter

import (
	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/domain/chatModel"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: "/api/status/" + id,
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	res := api.JobResponse{
		Id:          job.Id,
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
		FileName:    job.JobPayload.FileName,
		Collection:  job.JobPayload.Collection,
		DocumentId:  job.JobPayload.DocumentId,
		ChunkCount:  job.JobPayload.ChunkCount,
		Error:       errorPtr,
		StartTime:   job.CreatedTime,
	}
	if !job.EndTime.IsZero() {
		end := job.EndTime
		res.EndTime = &end
	}
	return res
}

func BadRequest(id string, error string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Id: id,
		Error: api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

// FromError builds the error body for a service failure.
func FromError(id string, err error) (int, api.ErrorResponse) {
	code := ErrorStatus(err)
	res := BadRequest(id, ErrorMessage(err), code)
	res.Error.Retry = ragErrors.IsRetryable(err)
	return code, res
}

func ToChatResponse(chat chatModel.Chat) api.ChatResponse {
	return api.ChatResponse{Id: chat.Id, Title: chat.Title, CreatedAt: chat.CreatedAt, UpdatedAt: chat.UpdatedAt}
}

func ToChatSummaries(chats []chatModel.ChatSummary) []api.ChatSummaryResponse {
	out := make([]api.ChatSummaryResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, api.ChatSummaryResponse{ChatResponse: ToChatResponse(c.Chat), MessageCount: c.MessageCount})
	}
	return out
}

func ToDocumentResponse(doc commonModels.Document, chunkCount int64) api.DocumentResponse {
	return api.DocumentResponse{Document: doc, ChunkCount: chunkCount}
}
