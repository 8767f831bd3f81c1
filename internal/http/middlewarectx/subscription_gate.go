package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// SubscriptionChecker загружает пользователя и проверяет его подписку.
type SubscriptionChecker interface {
	Check(ctx context.Context, userID string) (*models.User, error)
}

// SubscriptionGate пропускает дальше только продавцов с действующей подпиской
// и администраторов. Загруженный профиль кладётся в контекст.
// Должен стоять после JWTMiddleware.
func SubscriptionGate(subs SubscriptionChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SubscriptionGate"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			caller, ok := CallerFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				response.Fail(w, r, http.StatusUnauthorized,
					response.Error(response.CodeTokenRequired, "user identification missing"))
				return
			}

			user, err := subs.Check(r.Context(), caller.ID)
			if err != nil {
				switch {
				case errors.Is(err, models.ErrSubscriptionExpired), errors.Is(err, models.ErrSubscriptionRequired):
					log.Info("subscription check rejected", slog.String("user_id", caller.ID), sl.Err(err))
				default:
					log.Error("failed to check subscription", slog.String("user_id", caller.ID), sl.Err(err))
				}
				response.RenderError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// AdminOnly пропускает только администраторов. Должен стоять после JWTMiddleware.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFrom(r.Context())
			if !ok || !caller.IsAdmin() {
				log.Warn("admin access denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_id", caller.ID))
				response.Fail(w, r, http.StatusForbidden,
					response.Error(response.CodeForbidden, "admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
