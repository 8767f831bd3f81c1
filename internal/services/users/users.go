// Package services реализует операции с профилями пользователей:
// собственный профиль, публичный профиль, оформление подписки и администрирование.
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

// UserRepository определяет методы хранилища пользователей.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) ([]*models.User, int64, error)
	DeleteUser(ctx context.Context, id string) error
	// RefreshSellerSnapshot обновляет снимок профиля продавца в его товарах.
	RefreshSellerSnapshot(ctx context.Context, u *models.User) error
}

// Subscriptions применяет ленивую проверку подписки.
type Subscriptions interface {
	Refresh(ctx context.Context, u *models.User) (*models.User, error)
}

// UsersService реализует операции над профилями.
type UsersService struct {
	repo UserRepository
	subs Subscriptions
	log  *slog.Logger
	now  func() time.Time
}

// NewUsersService создает новый экземпляр UsersService.
func NewUsersService(repo UserRepository, subs Subscriptions, log *slog.Logger) *UsersService {
	return &UsersService{
		repo: repo,
		subs: subs,
		log:  log,
		now:  time.Now,
	}
}

// Me возвращает профиль вызывающего пользователя после ленивой проверки подписки.
func (s *UsersService) Me(ctx context.Context, caller models.Caller) (*models.User, error) {
	const op = "services.UsersService.Me"
	u, err := s.repo.GetUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u, err = s.subs.Refresh(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// Profile возвращает публичный профиль пользователя.
func (s *UsersService) Profile(ctx context.Context, id string) (*models.PublicProfile, error) {
	const op = "services.UsersService.Profile"
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u, err = s.subs.Refresh(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p := u.Public()
	return &p, nil
}

// Upgrade оформляет подписку продавца. Сам пользователь может сделать это, только
// если подписки у него ещё не было; администратор, всегда.
func (s *UsersService) Upgrade(ctx context.Context, caller models.Caller, subjectID, kind string) (*models.User, error) {
	const op = "services.UsersService.Upgrade"
	if !policy.CanActOn(subjectID, caller.ID, caller.Type) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	subject, err := s.repo.GetUser(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now().UTC()
	if err := policy.CanUpgrade(subject, caller.IsAdmin(), now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if kind == "" {
		kind = models.SubscriptionMonthly
	}
	patch, err := policy.ApplyApproval(kind, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// администратор остаётся администратором
	if policy.IsAdmin(subject.Type) {
		patch.Type = nil
	}

	updated, err := s.repo.UpdateUser(ctx, subjectID, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RefreshSellerSnapshot(ctx, updated); err != nil {
		s.log.Warn("failed to refresh seller snapshot", slog.String("op", op), slog.String("user_id", subjectID), sl.Err(err))
	}
	s.log.Info("subscription activated",
		slog.String("op", op),
		slog.String("user_id", subjectID),
		slog.String("subscription_type", kind),
		slog.String("by", caller.ID))
	return updated, nil
}

// List возвращает страницу пользователей для администратора.
func (s *UsersService) List(ctx context.Context, f models.UserFilter) ([]*models.User, models.Pagination, error) {
	const op = "services.UsersService.List"
	users, total, err := s.repo.ListUsers(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("%s: %w", op, err)
	}
	return users, models.NewPagination(f.Page, total), nil
}

// AdminUpdate применяет изменения профиля, внесённые администратором.
func (s *UsersService) AdminUpdate(ctx context.Context, id string, in models.AdminUserUpdate) (*models.User, error) {
	const op = "services.UsersService.AdminUpdate"
	patch := adminPatch(in, s.now().UTC())
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%s: %w: nothing to update", op, models.ErrInvalidInput)
	}
	u, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if patch.Name != nil || patch.Campus != nil || patch.WhatsApp != nil {
		if err := s.repo.RefreshSellerSnapshot(ctx, u); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return u, nil
}

func adminPatch(in models.AdminUserUpdate, now time.Time) models.UserPatch {
	patch := models.UserPatch{
		Name:                in.Name,
		Campus:              in.Campus,
		WhatsApp:            in.WhatsApp,
		Type:                in.Type,
		Subscribed:          in.Subscribed,
		SubscriptionEndDate: in.SubscriptionEndDate,
	}
	if in.Subscribed != nil {
		status := models.SubscriptionExpired
		if *in.Subscribed {
			status = models.SubscriptionActive
		}
		patch.SubscriptionStatus = &status
	}
	if in.Verified != nil {
		patch.Verified = in.Verified
		if *in.Verified {
			patch.VerifiedAt = &now
		}
	}
	return patch
}

// Delete удаляет пользователя вместе с его товарами и заявками.
func (s *UsersService) Delete(ctx context.Context, caller models.Caller, id string) error {
	const op = "services.UsersService.Delete"
	if caller.ID == id {
		return fmt.Errorf("%s: %w: admins cannot delete themselves", op, models.ErrForbidden)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.String("op", op), slog.String("user_id", id), slog.String("by", caller.ID))
	return nil
}
