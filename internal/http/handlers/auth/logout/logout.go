// Package logout реализует HTTP-обработчик выхода: предъявленный токен отзывается
// до истечения срока его действия.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
)

// Handler обрабатывает запросы на выход.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service отзывает токен.
type Service interface {
	Logout(ctx context.Context, token string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Отзывает текущий JWT. Повторное использование токена вернёт TOKEN_INVALID.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Токен не передан"
// @Failure 403 {object} response.ErrorResponse "Токен недействителен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token, ok := middlewarectx.BearerToken(r)
	if !ok {
		log.Warn("missing authorization header")
		response.Fail(w, r, http.StatusUnauthorized,
			response.Error(response.CodeTokenRequired, "missing or invalid authorization header"))
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		log.Error("failed to revoke token", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	caller, _ := middlewarectx.CallerFrom(r.Context())
	log.Info("logged out", slog.String("user_id", caller.ID))
	response.OK(w, r, http.StatusOK, map[string]any{
		"message": "logged out",
	})
}
