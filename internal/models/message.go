package models

import "time"

// Message сообщение между двумя пользователями.
// ConversationID вычисляется из пары идентификаторов и не хранится отдельной сущностью.
type Message struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	ConversationID string    `json:"conversationId"`
	Text           string    `json:"text"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MessageInput тело запроса на отправку сообщения.
type MessageInput struct {
	ReceiverID string `json:"receiverId" validate:"required,len=24,hexadecimal"`
	Text       string `json:"text" validate:"required,max=2000"`
}

// Conversation сводка по диалогу для списка диалогов пользователя.
type Conversation struct {
	ConversationID string         `json:"conversationId"`
	LastMessage    *Message       `json:"lastMessage"`
	UnreadCount    int64          `json:"unreadCount"`
	Participant    *PublicProfile `json:"participant,omitempty"`
}

// MessagePage страница сообщений диалога.
type MessagePage struct {
	Messages   []*Message `json:"messages"`
	Pagination Pagination `json:"pagination"`
}
