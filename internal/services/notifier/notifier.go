// Package services публикует уведомления пользователей в брокер сообщений.
// Без брокера уведомления только пишутся в лог.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/campus-market/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// Publisher публикует сообщение с ключом маршрутизации.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Notifier отправляет уведомления в очередь или, если брокер не настроен, в лог.
type Notifier struct {
	publisher Publisher
	log       *slog.Logger
}

// NewNotifier создаёт Notifier. При publisher == nil уведомления только логируются.
func NewNotifier(publisher Publisher, log *slog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		log:       log,
	}
}

// RoutingKey выбирает очередь по виду уведомления.
func RoutingKey(kind string) (string, error) {
	switch kind {
	case models.NotificationSubscriptionExpired, models.NotificationSubscriptionExpiring:
		return rabbitmq.RoutingKeySubscription, nil
	case models.NotificationRequestProcessed:
		return rabbitmq.RoutingKeyRequests, nil
	default:
		return "", fmt.Errorf("%w: unknown notification kind %q", models.ErrInvalidInput, kind)
	}
}

// Notify публикует уведомление.
func (n *Notifier) Notify(ctx context.Context, msg models.Notification) error {
	const op = "notifier.Notify"
	key, err := RoutingKey(msg.Kind)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log := n.log.With(
		slog.String("op", op),
		slog.String("kind", msg.Kind),
		slog.String("user_id", msg.UserID),
	)
	if n.publisher == nil {
		log.Info("notification broker disabled, notification logged only")
		return nil
	}
	if err := n.publisher.Publish(ctx, key, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Debug("notification published", slog.String("routing_key", key))
	return nil
}
