package handlers

import (
	"context"
	"net/http"

	"github.com/akolanti/DocChat/internal/adapter"
	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/chat"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/blobStore"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/job"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/go-playground/validator/v10"
)

// Handler serves the /api routes. Every route expects the middleware to have put
// the trace id and the authenticated user id on the request context.
type Handler struct {
	chats             chat.Service
	jobs              *job.Service
	blobs             blobStore.BlobStore
	documents         commonModels.DocumentStore
	remover           DocumentRemover
	validate          *validator.Validate
	maxFileSize       int64
	defaultCollection string
	logger            *logger_i.Logger
}

// DocumentRemover deletes a document's rows and its vectors.
type DocumentRemover interface {
	DeleteDocument(ctx context.Context, doc commonModels.Document) error
}

type Deps struct {
	Chats             chat.Service
	Jobs              *job.Service
	Blobs             blobStore.BlobStore
	Documents         commonModels.DocumentStore
	Remover           DocumentRemover
	MaxFileSize       int64
	DefaultCollection string
}

func New(deps Deps) *Handler {
	return &Handler{
		chats:             deps.Chats,
		jobs:              deps.Jobs,
		blobs:             deps.Blobs,
		documents:         deps.Documents,
		remover:           deps.Remover,
		validate:          validator.New(),
		maxFileSize:       deps.MaxFileSize,
		defaultCollection: deps.DefaultCollection,
		logger:            logger_i.NewLogger("RequestHandler"),
	}
}

// HealthHandler godoc
// @Summary      Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// NewChatHandler godoc
// @Summary      Start a new chat
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  api.NewChatResponse
// @Failure      401  {object}  api.ErrorResponse
// @Router       /api/chat/new [post]
func (h *Handler) NewChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	created, err := h.chats.NewChat(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, api.NewChatResponse{Id: created.Id})
}

// SendMessageHandler godoc
// @Summary      Ask a question in a chat
// @Description  Retrieves the nearest document chunks from the collection, asks the llm and stores the turn with its citations.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        chatId   path      string           true  "Chat ID"
// @Param        request  body      api.ChatRequest  true  "Message and optional collection"
// @Success      200      {object}  api.ChatAnswerResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse  "Chat not found"
// @Failure      502      {object}  api.ErrorResponse  "LLM provider failure"
// @Router       /api/chat/{chatId}/message [post]
func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	chatId := utils.GetChiURLParam(r, "chatId")
	var requestData api.ChatRequest
	if err := h.decodeAndValidate(r.Body, &requestData); err != nil {
		h.logger.Warn("Bad chat request", "traceId", r.Context().Value(config.TRACE_ID_KEY), "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, chatId, "Bad Request")
		return
	}

	answer, err := h.chats.SendMessage(r.Context(), userFromContext(r.Context()), chatId, requestData.Message, requestData.CollectionName)
	if err != nil {
		writeServiceError(w, r, chatId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ChatAnswerResponse{Answer: answer.Text, Citations: answer.Citations})
}

// ListChatsHandler godoc
// @Summary      List chats
// @Description  All chats of the caller with their message count, most recently updated first.
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  api.ChatSummaryResponse
// @Router       /api/chat/all [get]
func (h *Handler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chats.ListAll(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatSummaries(chats))
}

// HistoryHandler godoc
// @Summary      Full chat history
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  api.ChatHistoryResponse
// @Router       /api/chat/history [get]
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := h.chats.History(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, history)
}

// HistoryOneHandler godoc
// @Summary      History of one chat
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        chatId  path      string  true  "Chat ID"
// @Success      200     {object}  api.ChatHistoryResponse
// @Failure      404     {object}  api.ErrorResponse
// @Router       /api/chat/history/{chatId} [get]
func (h *Handler) HistoryOneHandler(w http.ResponseWriter, r *http.Request) {
	chatId := utils.GetChiURLParam(r, "chatId")
	history, err := h.chats.HistoryOne(r.Context(), userFromContext(r.Context()), chatId)
	if err != nil {
		writeServiceError(w, r, chatId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, history)
}

// RenameChatHandler godoc
// @Summary      Rename a chat
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        chatId   path      string                 true  "Chat ID"
// @Param        request  body      api.RenameChatRequest  true  "New title"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /api/chat/{chatId}/title [patch]
func (h *Handler) RenameChatHandler(w http.ResponseWriter, r *http.Request) {
	chatId := utils.GetChiURLParam(r, "chatId")
	var requestData api.RenameChatRequest
	if err := h.decodeAndValidate(r.Body, &requestData); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, chatId, "Bad Request")
		return
	}
	renamed, err := h.chats.Rename(r.Context(), userFromContext(r.Context()), chatId, requestData.Title)
	if err != nil {
		writeServiceError(w, r, chatId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(renamed))
}

// DeleteChatHandler godoc
// @Summary      Delete a chat and its messages
// @Tags         Chat
// @Security     BearerAuth
// @Param        chatId  path  string  true  "Chat ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /api/chat/{chatId} [delete]
func (h *Handler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	chatId := utils.GetChiURLParam(r, "chatId")
	if err := h.chats.Delete(r.Context(), userFromContext(r.Context()), chatId); err != nil {
		writeServiceError(w, r, chatId, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
