// Package services реализует верификацию продавцов по фотографии:
// загрузку изображения, выдачу статуса и обработку заявки администратором.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
	"github.com/magabrotheeeer/campus-market/internal/policy"
	"github.com/magabrotheeeer/campus-market/internal/storage/images"
)

// MaxImageSize максимальный размер фотографии для верификации.
const MaxImageSize = 5 << 20

// Repository определяет методы хранилища, нужные для заявок на верификацию.
type Repository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	HasPendingRequest(ctx context.Context, kind, userID string) (bool, error)
	CreateVerificationRequest(ctx context.Context, r *models.VerificationRequest) (*models.VerificationRequest, error)
	GetVerificationRequest(ctx context.Context, id string) (*models.VerificationRequest, error)
	LatestVerificationRequest(ctx context.Context, userID string) (*models.VerificationRequest, error)
	FindVerificationByImage(ctx context.Context, imageID string) (*models.VerificationRequest, error)
	ListVerificationRequests(ctx context.Context, f models.RequestFilter) ([]*models.VerificationRequest, models.RequestCounts, error)
	ProcessVerificationRequest(ctx context.Context, d models.RequestDecision) (*models.VerificationRequest, *models.User, error)
}

// Notifier публикует уведомления пользователям.
type Notifier interface {
	Notify(ctx context.Context, msg models.Notification) error
}

// Metrics учитывает обработанные заявки.
type Metrics interface {
	IncProcessed(kind, action string)
}

// Upload загружаемая фотография.
type Upload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// VerificationService управляет заявками на верификацию.
type VerificationService struct {
	repo     Repository
	images   images.Store
	notifier Notifier
	metrics  Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewVerificationService создает новый экземпляр VerificationService.
func NewVerificationService(repo Repository, store images.Store, notifier Notifier, metrics Metrics, log *slog.Logger) *VerificationService {
	return &VerificationService{
		repo:     repo,
		images:   store,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Create сохраняет фотографию и создаёт заявку на верификацию.
// Если заявку создать не удалось, сохранённое изображение удаляется.
func (s *VerificationService) Create(ctx context.Context, caller models.Caller, subjectID string, up Upload) (*models.VerificationRequest, error) {
	const op = "services.VerificationService.Create"
	log := s.log.With(slog.String("op", op), slog.String("user_id", subjectID))

	if !policy.CanActOn(subjectID, caller.ID, caller.Type) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if !strings.HasPrefix(up.ContentType, "image/") {
		return nil, fmt.Errorf("%s: %w: only images are accepted", op, models.ErrInvalidInput)
	}
	if up.Size > MaxImageSize {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPayloadTooLarge)
	}

	subject, err := s.repo.GetUser(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := policy.CanRequestVerification(subject); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pending, err := s.repo.HasPendingRequest(ctx, models.RequestKindVerification, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if pending {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPendingExists)
	}

	imageID, err := s.images.Save(ctx, subjectID, up.ContentType, io.LimitReader(up.Body, MaxImageSize+1), up.Size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := s.repo.CreateVerificationRequest(ctx, &models.VerificationRequest{
		UserID:      subjectID,
		ImageID:     imageID,
		Status:      models.RequestPending,
		RequestedAt: s.now().UTC(),
	})
	if err != nil {
		if delErr := s.images.Delete(context.WithoutCancel(ctx), imageID); delErr != nil {
			log.Error("failed to delete orphaned image", slog.String("image_id", imageID), sl.Err(delErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("verification request created", slog.String("request_id", req.ID))
	return req, nil
}

// Status возвращает последнюю заявку пользователя на верификацию.
func (s *VerificationService) Status(ctx context.Context, caller models.Caller, subjectID string) (*models.VerificationRequest, error) {
	const op = "services.VerificationService.Status"
	if !policy.CanActOn(subjectID, caller.ID, caller.Type) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	req, err := s.repo.LatestVerificationRequest(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return req, nil
}

// Image открывает фотографию заявки. Доступ есть у администратора и у загрузившего её пользователя.
// Вызывающий обязан закрыть Body.
func (s *VerificationService) Image(ctx context.Context, caller models.Caller, imageID string) (*images.Image, error) {
	const op = "services.VerificationService.Image"
	req, err := s.repo.FindVerificationByImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !policy.CanActOn(req.UserID, caller.ID, caller.Type) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	img, err := s.images.Open(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}

// List возвращает заявки для администратора со счётчиками по статусам.
func (s *VerificationService) List(ctx context.Context, f models.RequestFilter) ([]*models.VerificationRequest, models.RequestCounts, error) {
	const op = "services.VerificationService.List"
	reqs, counts, err := s.repo.ListVerificationRequests(ctx, f)
	if err != nil {
		return nil, models.RequestCounts{}, fmt.Errorf("%s: %w", op, err)
	}
	return reqs, counts, nil
}

// Process применяет решение администратора по заявке на верификацию.
func (s *VerificationService) Process(ctx context.Context, admin models.Caller, requestID string, in models.ProcessInput) (*models.VerificationRequest, error) {
	const op = "services.VerificationService.Process"
	log := s.log.With(slog.String("op", op), slog.String("verification_id", requestID))

	status, err := policy.DecisionStatus(in.Action)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := s.repo.GetVerificationRequest(ctx, requestID)
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
		decision.UserPatch = policy.ApplyVerification(now)
	}

	processed, user, err := s.repo.ProcessVerificationRequest(ctx, decision)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.IncProcessed(models.RequestKindVerification, in.Action)
	log.Info("verification request processed",
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
		RequestKind: models.RequestKindVerification,
		Status:      status,
		AdminNote:   processed.AdminNote,
		CreatedAt:   now,
	})
	if err != nil {
		log.Warn("failed to publish notification", sl.Err(err))
	}
	return processed, nil
}
