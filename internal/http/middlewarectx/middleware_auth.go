package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/jwt"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// TokenValidator проверяет JWT и его отзыв.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// BearerToken извлекает токен из заголовка Authorization.
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Отсутствующий или некорректный заголовок, 401 TOKEN_REQUIRED,
// недействительный, истёкший или отозванный токен, 403 TOKEN_INVALID.
func JWTMiddleware(auth TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return authenticate(auth, log, true)
}

// OptionalJWTMiddleware пропускает анонимные запросы, но проверяет токен, если он передан.
func OptionalJWTMiddleware(auth TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return authenticate(auth, log, false)
}

func authenticate(auth TokenValidator, log *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := BearerToken(r)
			if !ok {
				if !required && r.Header.Get("Authorization") == "" {
					next.ServeHTTP(w, r)
					return
				}
				log.Warn("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized,
					response.Error(response.CodeTokenRequired, "missing or invalid authorization header"))
				return
			}

			claims, err := auth.ValidateToken(r.Context(), token)
			if err != nil {
				log.Warn("token rejected", sl.Err(err))
				response.RenderError(w, r, err)
				return
			}
			ctx := WithCaller(r.Context(), models.Caller{
				ID:    claims.UserID,
				Email: claims.Email,
				Type:  claims.Type,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
