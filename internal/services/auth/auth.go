// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/campus-market/internal/lib/jwt"
	"github.com/magabrotheeeer/campus-market/internal/lib/password"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя.
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)

	// GetUserByEmail возвращает пользователя по email или models.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUser возвращает пользователя по id или models.ErrNotFound.
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Subscriptions приводит профиль в соответствие с подпиской перед выдачей токена.
type Subscriptions interface {
	Refresh(ctx context.Context, u *models.User) (*models.User, error)
}

// TokenStore хранит отозванные токены.
type TokenStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users      UserRepository
	subs       Subscriptions
	jwtMaker   jwt.Maker
	tokens     TokenStore
	bcryptCost int
	log        *slog.Logger
	now        func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, subs Subscriptions, jwtMaker jwt.Maker, tokens TokenStore, bcryptCost int, log *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		subs:       subs,
		jwtMaker:   jwtMaker,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        log,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает нового пользователя с хэшированием пароля и выдаёт ему токен.
// Продавец регистрируется без подписки и оформляет её отдельно.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	const op = "services.AuthService.Register"
	hashed, err := password.GetHash(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	userType := req.Type
	if userType == "" {
		userType = models.UserTypeBuyer
	}
	user, err := s.users.CreateUser(ctx, &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashed,
		Type:         userType,
		Campus:       strings.TrimSpace(req.Campus),
		WhatsApp:     strings.TrimSpace(req.WhatsApp),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AuthResult{User: user, Token: token}, nil
}

// Login проверяет пароль пользователя, применяет ленивую проверку подписки и выдаёт JWT.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.AuthResult, error) {
	const op = "services.AuthService.Login"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		s.log.Warn("password mismatch", slog.String("op", op), slog.String("user_id", user.ID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}

	user, err = s.subs.Refresh(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AuthResult{User: user, Token: token}, nil
}

// ValidateToken проверяет подпись, срок действия и отзыв токена.
// Тип пользователя берётся из базы: смена роли администратором действует
// сразу, а токен удалённого пользователя считается недействительным.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "services.AuthService.ValidateToken"
	claims, err := s.parse(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w: user not found", op, models.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Type != claims.Type {
		s.log.Debug("token type is stale", slog.String("user_id", user.ID),
			slog.String("token_type", claims.Type), slog.String("type", user.Type))
	}
	claims.Type = user.Type
	claims.Email = user.Email
	return claims, nil
}

func (s *AuthService) parse(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTokenInvalid, err)
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", models.ErrTokenInvalid)
	}
	return claims, nil
}

// Logout отзывает токен до окончания срока его действия.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	const op = "services.AuthService.Logout"
	claims, err := s.parse(ctx, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("token revoked", slog.String("user_id", claims.UserID))
	return nil
}
