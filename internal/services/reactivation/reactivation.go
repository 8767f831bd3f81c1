// Package services реализует жизненный цикл заявок на реактивацию подписки:
// создание пользователем и обработку администратором.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
	"github.com/magabrotheeeer/campus-market/internal/policy"
)

// Repository определяет методы хранилища, нужные для заявок на реактивацию.
type Repository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	HasPendingRequest(ctx context.Context, kind, userID string) (bool, error)
	CreateReactivationRequest(ctx context.Context, r *models.ReactivationRequest) (*models.ReactivationRequest, error)
	GetReactivationRequest(ctx context.Context, id string) (*models.ReactivationRequest, error)
	ListUserReactivationRequests(ctx context.Context, userID string) ([]*models.ReactivationRequest, error)
	ListReactivationRequests(ctx context.Context, f models.RequestFilter) ([]*models.ReactivationRequest, models.RequestCounts, error)
	// ProcessReactivationRequest атомарно фиксирует решение и изменение пользователя.
	ProcessReactivationRequest(ctx context.Context, d models.RequestDecision) (*models.ReactivationRequest, *models.User, error)
}

// Notifier публикует уведомления пользователям.
type Notifier interface {
	Notify(ctx context.Context, msg models.Notification) error
}

// Metrics учитывает обработанные заявки.
type Metrics interface {
	IncProcessed(kind, action string)
}

// ReactivationService управляет заявками на реактивацию.
type ReactivationService struct {
	repo     Repository
	notifier Notifier
	metrics  Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewReactivationService создает новый экземпляр ReactivationService.
func NewReactivationService(repo Repository, notifier Notifier, metrics Metrics, log *slog.Logger) *ReactivationService {
	return &ReactivationService{
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Create создаёт заявку на реактивацию от имени пользователя subjectID.
// Заявку может подать сам пользователь или администратор.
func (s *ReactivationService) Create(ctx context.Context, caller models.Caller, subjectID, note string) (*models.ReactivationRequest, error) {
	const op = "services.ReactivationService.Create"
	if !policy.CanActOn(subjectID, caller.ID, caller.Type) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	subject, err := s.repo.GetUser(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now().UTC()
	if err := policy.CanRequestReactivation(subject, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pending, err := s.repo.HasPendingRequest(ctx, models.RequestKindReactivation, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if pending {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPendingExists)
	}

	// уникальный частичный индекс ловит гонку между проверкой и вставкой
	req, err := s.repo.CreateReactivationRequest(ctx, &models.ReactivationRequest{
		UserID:      subjectID,
		Note:        strings.TrimSpace(note),
		Status:      models.RequestPending,
		RequestedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("reactivation request created",
		slog.String("op", op),
		slog.String("request_id", req.ID),
		slog.String("user_id", subjectID))
	return req, nil
}

// ListForUser возвращает историю заявок пользователя.
func (s *ReactivationService) ListForUser(ctx context.Context, caller models.Caller, subjectID string) ([]*models.ReactivationRequest, error) {
	const op = "services.ReactivationService.ListForUser"
	if !policy.CanActOn(subjectID, caller.ID, caller.Type) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	reqs, err := s.repo.ListUserReactivationRequests(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reqs, nil
}

// List возвращает заявки для администратора со счётчиками по статусам.
func (s *ReactivationService) List(ctx context.Context, f models.RequestFilter) ([]*models.ReactivationRequest, models.RequestCounts, error) {
	const op = "services.ReactivationService.List"
	reqs, counts, err := s.repo.ListReactivationRequests(ctx, f)
	if err != nil {
		return nil, models.RequestCounts{}, fmt.Errorf("%s: %w", op, err)
	}
	return reqs, counts, nil
}

// Process применяет решение администратора. При одобрении пользователь
// становится продавцом с окном подписки, начинающимся в момент одобрения.
func (s *ReactivationService) Process(ctx context.Context, admin models.Caller, requestID string, in models.ProcessInput) (*models.ReactivationRequest, error) {
	const op = "services.ReactivationService.Process"
	log := s.log.With(slog.String("op", op), slog.String("reactivation_id", requestID))

	status, err := policy.DecisionStatus(in.Action)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := s.repo.GetReactivationRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := policy.CanProcessRequest(req.Status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	decision := models.RequestDecision{
		RequestID:   requestID,
		UserID:      req.UserID,
		AdminID:     admin.ID,
		Status:      status,
		AdminNote:   strings.TrimSpace(in.AdminNote),
		ProcessedAt: now,
	}
	if status == models.RequestApproved {
		kind := in.SubscriptionType
		if kind == "" {
			kind = models.SubscriptionMonthly
		}
		patch, err := policy.ApplyApproval(kind, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		decision.SubscriptionType = kind
		decision.UserPatch = patch
	}

	processed, user, err := s.repo.ProcessReactivationRequest(ctx, decision)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.IncProcessed(models.RequestKindReactivation, in.Action)
	log.Info("reactivation request processed",
		slog.String("status", status),
		slog.String("user_id", processed.UserID),
		slog.String("admin_id", admin.ID))

	if user == nil {
		user, err = s.repo.GetUser(ctx, processed.UserID)
		if err != nil {
			log.Warn("failed to load user for notification", sl.Err(err))
			return processed, nil
		}
	}
	err = s.notifier.Notify(ctx, models.Notification{
		Kind:        models.NotificationRequestProcessed,
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		RequestKind: models.RequestKindReactivation,
		Status:      status,
		AdminNote:   processed.AdminNote,
		EndDate:     user.SubscriptionEndDate,
		CreatedAt:   now,
	})
	if err != nil {
		log.Warn("failed to publish notification", sl.Err(err))
	}
	return processed, nil
}
