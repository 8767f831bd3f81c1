// Package services реализует фоновые задачи по подпискам продавцов:
// понижение продавцов с истёкшей подпиской и напоминания о скором окончании.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// ReminderInterval период рассылки напоминаний, ReminderWindow, за сколько до окончания напоминать.
const (
	ReminderInterval = 12 * time.Hour
	ReminderWindow   = 24 * time.Hour
)

// SellerRepository ищет продавцов по сроку окончания подписки.
type SellerRepository interface {
	FindLapsedSellers(ctx context.Context, now time.Time) ([]*models.User, error)
	FindSellersExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
}

// Demoter понижает продавца и уведомляет его.
type Demoter interface {
	Demote(ctx context.Context, u *models.User) (bool, error)
}

// Notifier публикует уведомления пользователям.
type Notifier interface {
	Notify(ctx context.Context, msg models.Notification) error
}

// SchedulerService выполняет периодические задачи.
type SchedulerService struct {
	repo     SellerRepository
	demoter  Demoter
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SellerRepository, demoter Demoter, notifier Notifier, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:     repo,
		demoter:  demoter,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// SweepExpired понижает всех продавцов, чья подписка истекла, и возвращает их число.
func (s *SchedulerService) SweepExpired(ctx context.Context) (int, error) {
	const op = "services.SchedulerService.SweepExpired"
	sellers, err := s.repo.FindLapsedSellers(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	demoted := 0
	for _, u := range sellers {
		changed, err := s.demoter.Demote(ctx, u)
		if err != nil {
			s.log.Error("failed to demote seller", slog.String("op", op), slog.String("user_id", u.ID), sl.Err(err))
			continue
		}
		if changed {
			demoted++
		}
	}
	return demoted, nil
}

// RemindExpiring уведомляет продавцов, чья подписка закончится в ближайшие сутки.
func (s *SchedulerService) RemindExpiring(ctx context.Context) (int, error) {
	const op = "services.SchedulerService.RemindExpiring"
	now := s.now().UTC()
	sellers, err := s.repo.FindSellersExpiringBetween(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	sent := 0
	for _, u := range sellers {
		err := s.notifier.Notify(ctx, models.Notification{
			Kind:      models.NotificationSubscriptionExpiring,
			UserID:    u.ID,
			Email:     u.Email,
			Name:      u.Name,
			EndDate:   u.SubscriptionEndDate,
			CreatedAt: now,
		})
		if err != nil {
			s.log.Error("failed to publish message", slog.String("op", op), slog.String("user_id", u.ID), sl.Err(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// RunSweep выполняет SweepExpired сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) RunSweep(ctx context.Context, interval time.Duration) {
	s.loop(ctx, interval, "sweep", s.SweepExpired)
}

// RunReminders выполняет RemindExpiring сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) RunReminders(ctx context.Context, interval time.Duration) {
	s.loop(ctx, interval, "reminders", s.RemindExpiring)
}

func (s *SchedulerService) loop(ctx context.Context, interval time.Duration, name string, job func(context.Context) (int, error)) {
	log := s.log.With(slog.String("job", name))
	run := func() {
		log.Info("starting job")
		n, err := job(ctx)
		if err != nil {
			log.Error("job failed", sl.Err(err))
			return
		}
		log.Info("job finished", slog.Int("count", n))
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("job stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
