// Package services реализует проверку подписки продавца: ленивое понижение
// продавца с истёкшей подпиской и решение, пропускать ли запрос дальше.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
	"github.com/magabrotheeeer/campus-market/internal/policy"
)

// UserRepository определяет методы хранилища, нужные для проверки подписки.
type UserRepository interface {
	// GetUser возвращает пользователя по идентификатору.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// DemoteSeller применяет патч, только если подписка продавца на момент now всё ещё истекла.
	DemoteSeller(ctx context.Context, id string, now time.Time, patch models.UserPatch) (bool, error)
}

// Notifier публикует уведомления пользователям.
type Notifier interface {
	Notify(ctx context.Context, msg models.Notification) error
}

// Metrics учитывает понижения продавцов.
type Metrics interface {
	IncDemotions()
}

// SubscriptionService проверяет подписку и приводит документ пользователя
// в соответствие с ней.
type SubscriptionService struct {
	repo     UserRepository
	notifier Notifier
	metrics  Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo UserRepository, notifier Notifier, metrics Metrics, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Check загружает пользователя и проверяет его подписку перед платным действием.
// Истёкшая подписка продавца понижает его до customer и возвращает
// models.ErrSubscriptionExpired; отсутствие подписки, models.ErrSubscriptionRequired.
// Пользователь возвращается и вместе с ошибкой подписки.
func (s *SubscriptionService) Check(ctx context.Context, userID string) (*models.User, error) {
	const op = "services.SubscriptionService.Check"
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch policy.CheckSubscription(u, s.now()) {
	case policy.Allow:
		return u, nil
	case policy.Expired:
		demoted, err := s.Refresh(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return demoted, fmt.Errorf("%s: %w", op, models.ErrSubscriptionExpired)
	default:
		return u, fmt.Errorf("%s: %w", op, models.ErrSubscriptionRequired)
	}
}

// Refresh понижает продавца с истёкшей подпиской и возвращает актуальный профиль.
// Для остальных пользователей профиль возвращается без изменений.
func (s *SubscriptionService) Refresh(ctx context.Context, u *models.User) (*models.User, error) {
	const op = "services.SubscriptionService.Refresh"
	if !policy.NeedsDemotion(u, s.now()) {
		return u, nil
	}
	if _, err := s.Demote(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	demoted := policy.Demotion().Apply(*u)
	return &demoted, nil
}

// Demote записывает понижение продавца. Если пользователя уже понизил
// параллельный запрос, возвращает false и не шлёт повторное уведомление.
func (s *SubscriptionService) Demote(ctx context.Context, u *models.User) (bool, error) {
	const op = "services.SubscriptionService.Demote"
	log := s.log.With(slog.String("op", op), slog.String("user_id", u.ID))

	changed, err := s.repo.DemoteSeller(ctx, u.ID, s.now().UTC(), policy.Demotion())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		return false, nil
	}
	log.Info("seller demoted, subscription expired")
	s.metrics.IncDemotions()

	err = s.notifier.Notify(ctx, models.Notification{
		Kind:      models.NotificationSubscriptionExpired,
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		EndDate:   u.SubscriptionEndDate,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		log.Warn("failed to publish expiry notification", sl.Err(err))
	}
	return true, nil
}
