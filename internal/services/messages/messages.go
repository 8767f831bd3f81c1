// Package services реализует личные сообщения между пользователями.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
	"github.com/magabrotheeeer/campus-market/internal/policy"
)

// Repository определяет методы хранилища сообщений.
type Repository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateMessage(ctx context.Context, m *models.Message) (*models.Message, error)
	ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error)
	ListThread(ctx context.Context, conversationID string, page models.Page) ([]*models.Message, int64, error)
	MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// MessagesService реализует операции с сообщениями.
type MessagesService struct {
	repo Repository
	log  *slog.Logger
}

// NewMessagesService создает новый экземпляр MessagesService.
func NewMessagesService(repo Repository, log *slog.Logger) *MessagesService {
	return &MessagesService{
		repo: repo,
		log:  log,
	}
}

// Send отправляет сообщение существующему пользователю.
func (s *MessagesService) Send(ctx context.Context, sender models.Caller, in models.MessageInput) (*models.Message, error) {
	const op = "services.MessagesService.Send"
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w: empty message", op, models.ErrInvalidInput)
	}
	if in.ReceiverID == sender.ID {
		return nil, fmt.Errorf("%s: %w: cannot message yourself", op, models.ErrInvalidInput)
	}
	if _, err := s.repo.GetUser(ctx, in.ReceiverID); err != nil {
		return nil, fmt.Errorf("%s: receiver: %w", op, err)
	}
	msg, err := s.repo.CreateMessage(ctx, &models.Message{
		SenderID:       sender.ID,
		ReceiverID:     in.ReceiverID,
		ConversationID: policy.ConversationID(sender.ID, in.ReceiverID),
		Text:           text,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return msg, nil
}

// Conversations возвращает диалоги пользователя.
func (s *MessagesService) Conversations(ctx context.Context, caller models.Caller) ([]*models.Conversation, error) {
	const op = "services.MessagesService.Conversations"
	convs, err := s.repo.ListConversations(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return convs, nil
}

// Thread возвращает страницу сообщений диалога и отмечает входящие прочитанными.
func (s *MessagesService) Thread(ctx context.Context, caller models.Caller, conversationID string, page models.Page) (*models.MessagePage, error) {
	const op = "services.MessagesService.Thread"
	if !policy.IsParticipant(conversationID, caller.ID) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	msgs, total, err := s.repo.ListThread(ctx, conversationID, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	n, err := s.repo.MarkConversationRead(ctx, conversationID, caller.ID)
	if err != nil {
		s.log.Warn("failed to mark conversation read",
			slog.String("op", op),
			slog.String("conversation_id", conversationID),
			sl.Err(err))
	}
	if n > 0 {
		for _, m := range msgs {
			if m.ReceiverID == caller.ID {
				m.Read = true
			}
		}
	}
	return &models.MessagePage{
		Messages:   msgs,
		Pagination: models.NewPagination(page, total),
	}, nil
}

// UnreadCount возвращает число непрочитанных сообщений.
func (s *MessagesService) UnreadCount(ctx context.Context, caller models.Caller) (int64, error) {
	const op = "services.MessagesService.UnreadCount"
	n, err := s.repo.CountUnread(ctx, caller.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
