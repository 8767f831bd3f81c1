// Package userupdate реализует HTTP-обработчик изменения пользователя администратором.
//
// Передаются только изменяемые поля. Флаг subscribed управляет статусом подписки,
// verified=true проставляет дату верификации.
package userupdate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/campus-market/internal/http/request"
	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	AdminUpdate(ctx context.Context, id string, in models.AdminUserUpdate) (*models.User, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменение пользователя
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body models.AdminUserUpdate true "Изменяемые поля"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var in models.AdminUserUpdate
	if err := request.DecodeJSON(r, &in); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.Error(response.CodeValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(in); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id := chi.URLParam(r, "id")
	user, err := h.service.AdminUpdate(r.Context(), id, in)
	if err != nil {
		log.Error("failed to update user", slog.String("user_id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user updated", slog.String("user_id", id))
	response.OK(w, r, http.StatusOK, map[string]any{
		"user": user,
	})
}
