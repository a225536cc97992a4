package chat

import (
	"context"
	"strings"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/chatModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/google/uuid"
)

type Service interface {
	NewChat(ctx context.Context, userId string) (chatModel.Chat, error)
	// SendMessage answers query against collection and records the turn. The first
	// message of a chat also names it.
	SendMessage(ctx context.Context, userId, chatId, query, collection string) (rag.Answer, error)
	ListAll(ctx context.Context, userId string) ([]chatModel.ChatSummary, error)
	History(ctx context.Context, userId string) ([]chatModel.ChatHistory, error)
	HistoryOne(ctx context.Context, userId, chatId string) (chatModel.ChatHistory, error)
	Rename(ctx context.Context, userId, chatId, title string) (chatModel.Chat, error)
	Delete(ctx context.Context, userId, chatId string) error
}

type service struct {
	store             chatModel.ChatStore
	rag               rag.Service
	defaultCollection string
	logger            *logger_i.Logger
}

func NewService(store chatModel.ChatStore, ragService rag.Service, defaultCollection string) Service {
	if defaultCollection == "" {
		defaultCollection = config.DefaultCollectionName
	}
	return &service{
		store:             store,
		rag:               ragService,
		defaultCollection: defaultCollection,
		logger:            logger_i.NewLogger("Chat Service"),
	}
}

func (s *service) NewChat(ctx context.Context, userId string) (chatModel.Chat, error) {
	chat := chatModel.Chat{Id: uuid.NewString(), UserId: userId}
	if err := s.store.CreateChat(ctx, &chat); err != nil {
		return chatModel.Chat{}, err
	}
	s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).Debug("Chat created", "chatId", chat.Id)
	return chat, nil
}

func (s *service) SendMessage(ctx context.Context, userId, chatId, query, collection string) (rag.Answer, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", chatId)
	query = strings.TrimSpace(query)
	if query == "" {
		return rag.Answer{}, ragErrors.InvalidArgument("message is empty")
	}
	if collection == "" {
		collection = s.defaultCollection
	}

	chat, err := s.store.GetChat(ctx, chatId, userId)
	if err != nil {
		return rag.Answer{}, err
	}

	answer, err := s.rag.Answer(ctx, query, collection)
	if err != nil {
		return rag.Answer{}, err
	}
	metrics.IncrementChatTurn(len(answer.Citations) > 0)

	if chat.Title == "" {
		if _, err := s.store.SetTitleIfEmpty(ctx, chatId, rag.ChatTitle(query)); err != nil {
			log.Warn("Setting chat title failed", "error", err)
		}
	}

	msg := chatModel.ChatMessage{
		Id:        uuid.NewString(),
		ChatId:    chatId,
		Query:     query,
		Answer:    answer.Text,
		Citations: answer.Citations,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, &msg); err != nil {
		log.Error("Saving chat message failed", "error", err)
		return rag.Answer{}, err
	}
	return answer, nil
}

func (s *service) ListAll(ctx context.Context, userId string) ([]chatModel.ChatSummary, error) {
	return s.store.ListChats(ctx, userId)
}

func (s *service) History(ctx context.Context, userId string) ([]chatModel.ChatHistory, error) {
	chats, err := s.store.ListChats(ctx, userId)
	if err != nil {
		return nil, err
	}
	out := make([]chatModel.ChatHistory, 0, len(chats))
	for _, c := range chats {
		h, err := s.history(ctx, c.Chat)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *service) HistoryOne(ctx context.Context, userId, chatId string) (chatModel.ChatHistory, error) {
	chat, err := s.store.GetChat(ctx, chatId, userId)
	if err != nil {
		return chatModel.ChatHistory{}, err
	}
	return s.history(ctx, chat)
}

func (s *service) history(ctx context.Context, chat chatModel.Chat) (chatModel.ChatHistory, error) {
	messages, err := s.store.ListMessages(ctx, chat.Id)
	if err != nil {
		return chatModel.ChatHistory{}, err
	}
	return chatModel.ChatHistory{
		Id:        chat.Id,
		Title:     chat.Title,
		Messages:  messages,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}, nil
}

func (s *service) Rename(ctx context.Context, userId, chatId, title string) (chatModel.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return chatModel.Chat{}, ragErrors.InvalidArgument("title is empty")
	}
	if err := s.store.UpdateTitle(ctx, chatId, userId, title); err != nil {
		return chatModel.Chat{}, err
	}
	return s.store.GetChat(ctx, chatId, userId)
}

func (s *service) Delete(ctx context.Context, userId, chatId string) error {
	if err := s.store.DeleteChat(ctx, chatId, userId); err != nil {
		return err
	}
	s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY)).Info("Chat deleted", "chatId", chatId)
	return nil
}
