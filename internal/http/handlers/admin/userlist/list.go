// Package userlist реализует HTTP-обработчик списка пользователей для администратора.
package userlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/request"
	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

var userTypes = map[string]bool{
	"":                      true,
	models.UserTypeBuyer:    true,
	models.UserTypeCustomer: true,
	models.UserTypeSeller:   true,
	models.UserTypeAdmin:    true,
}

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	List(ctx context.Context, f models.UserFilter) ([]*models.User, models.Pagination, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Пользователи
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param type query string false "buyer, customer, seller или admin"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userType := r.URL.Query().Get("type")
	if !userTypes[userType] {
		log.Warn("unknown user type", slog.String("type", userType))
		response.Fail(w, r, http.StatusBadRequest, response.Error(response.CodeValidation, "unknown user type"))
		return
	}

	users, pagination, err := h.service.List(r.Context(), models.UserFilter{Type: userType, Page: request.Page(r)})
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("users listed", slog.Int("count", len(users)))
	response.OK(w, r, http.StatusOK, map[string]any{
		"users":      users,
		"pagination": pagination,
	})
}
