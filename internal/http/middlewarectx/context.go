// Package middlewarectx содержит HTTP middleware маркетплейса: проверку JWT,
// проверку подписки продавца, доступ администратора, ограничение частоты
// запросов и сбор метрик. Данные аутентификации передаются через контекст запроса.
package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// CallerKey ключ аутентифицированного пользователя из токена.
	CallerKey Key = "caller"
	// UserKey ключ профиля, загруженного проверкой подписки.
	UserKey Key = "user"
)

// WithCaller кладёт пользователя из токена в контекст.
func WithCaller(ctx context.Context, c models.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, c)
}

// CallerFrom достаёт пользователя из токена.
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	c, ok := ctx.Value(CallerKey).(models.Caller)
	return c, ok && c.ID != ""
}

// WithUser кладёт загруженный профиль в контекст.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// UserFrom достаёт профиль, загруженный SubscriptionGate.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(UserKey).(*models.User)
	return u, ok && u != nil
}
