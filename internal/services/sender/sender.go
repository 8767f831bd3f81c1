// Package services превращает уведомления из очередей в письма пользователям.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

const dateLayout = "02.01.2006"

// Mailer отправляет письмо одному получателю.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SenderService обрабатывает сообщения очередей уведомлений.
type SenderService struct {
	mailer      Mailer
	frontendURL string
	log         *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(mailer Mailer, frontendURL string, log *slog.Logger) *SenderService {
	return &SenderService{
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

func (s *SenderService) decode(body []byte) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return n, fmt.Errorf("error unmarshalling message: %w", err)
	}
	if n.Email == "" {
		return n, fmt.Errorf("%w: notification without email", models.ErrInvalidInput)
	}
	return n, nil
}

// HandleSubscription обрабатывает очередь уведомлений о подписке.
func (s *SenderService) HandleSubscription(ctx context.Context, body []byte) error {
	n, err := s.decode(body)
	if err != nil {
		return err
	}

	var subject, text string
	switch n.Kind {
	case models.NotificationSubscriptionExpiring:
		subject = "Подписка продавца скоро закончится"
		text = fmt.Sprintf("Здравствуйте, %s!\n\nВаша подписка продавца заканчивается %s.\n"+
			"После этого ваши товары перестанут показываться покупателям.\n\n%s",
			n.Name, formatDate(n), s.frontendURL)
	case models.NotificationSubscriptionExpired:
		subject = "Подписка продавца закончилась"
		text = fmt.Sprintf("Здравствуйте, %s!\n\nСрок вашей подписки продавца истёк %s, товары скрыты из каталога.\n"+
			"Чтобы снова продавать, отправьте заявку на реактивацию в личном кабинете: %s",
			n.Name, formatDate(n), s.frontendURL)
	default:
		s.log.Warn("unexpected notification kind", slog.String("kind", n.Kind))
		return fmt.Errorf("%w: unexpected kind %q", models.ErrInvalidInput, n.Kind)
	}
	return s.mailer.Send(ctx, n.Email, subject, text)
}

// HandleRequests обрабатывает очередь уведомлений о решениях по заявкам.
func (s *SenderService) HandleRequests(ctx context.Context, body []byte) error {
	n, err := s.decode(body)
	if err != nil {
		return err
	}
	if n.Kind != models.NotificationRequestProcessed {
		s.log.Warn("unexpected notification kind", slog.String("kind", n.Kind))
		return fmt.Errorf("%w: unexpected kind %q", models.ErrInvalidInput, n.Kind)
	}

	what := "реактивацию подписки"
	if n.RequestKind == models.RequestKindVerification {
		what = "верификацию"
	}
	var subject, text string
	if n.Status == models.RequestApproved {
		subject = "Заявка одобрена"
		text = fmt.Sprintf("Здравствуйте, %s!\n\nВаша заявка на %s одобрена.", n.Name, what)
		if n.RequestKind == models.RequestKindReactivation && n.EndDate != nil {
			text += fmt.Sprintf(" Подписка действует до %s.", formatDate(n))
		}
	} else {
		subject = "Заявка отклонена"
		text = fmt.Sprintf("Здравствуйте, %s!\n\nВаша заявка на %s отклонена.", n.Name, what)
	}
	if n.AdminNote != "" {
		text += "\n\nКомментарий администратора: " + n.AdminNote
	}
	return s.mailer.Send(ctx, n.Email, subject, text)
}

func formatDate(n models.Notification) string {
	if n.EndDate == nil {
		return "в ближайшее время"
	}
	return n.EndDate.Format(dateLayout)
}
