package chatModel

import (
	"context"
	"time"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

type Chat struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one question/answer turn. Citations are a snapshot taken when
// the answer was produced; later document changes do not rewrite them.
type ChatMessage struct {
	Id        string                  `json:"id"`
	ChatId    string                  `json:"chat_id"`
	Query     string                  `json:"query"`
	Answer    string                  `json:"answer"`
	Citations []commonModels.Citation `json:"citations"`
	CreatedAt time.Time               `json:"created_at"`
}

type ChatSummary struct {
	Chat
	MessageCount int64 `json:"message_count"`
}

// ChatStore persists chats. Lookups are scoped by owner; a chat owned by
// someone else is reported as not found.
type ChatStore interface {
	CreateChat(ctx context.Context, chat *Chat) error
	GetChat(ctx context.Context, chatId string, userId string) (Chat, error)
	ListChats(ctx context.Context, userId string) ([]ChatSummary, error)
	// SetTitleIfEmpty reports whether the title was written.
	SetTitleIfEmpty(ctx context.Context, chatId string, title string) (bool, error)
	UpdateTitle(ctx context.Context, chatId string, userId string, title string) error
	DeleteChat(ctx context.Context, chatId string, userId string) error
	AppendMessage(ctx context.Context, msg *ChatMessage) error
	ListMessages(ctx context.Context, chatId string) ([]ChatMessage, error)
}

type ChatHistory struct {
	Id        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
