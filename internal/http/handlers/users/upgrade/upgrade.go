// Package upgrade реализует HTTP-обработчик оформления подписки продавца.
//
// Пользователь может оформить подписку себе только один раз; повторно статус
// восстанавливается через заявку на реактивацию. Администратор может оформить
// подписку любому пользователю.
package upgrade

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
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
	Upgrade(ctx context.Context, caller models.Caller, subjectID, kind string) (*models.User, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оформление подписки продавца
// @Description Делает пользователя продавцом с активной подпиской (monthly по умолчанию).
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body models.UpgradeRequest false "Тип подписки"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Подписка активна или уже использовалась"
// @Router /users/{id}/upgrade [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.upgrade"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.Fail(w, r, http.StatusUnauthorized, response.Error(response.CodeTokenRequired, "unauthorized"))
		return
	}

	var req models.UpgradeRequest
	if err := request.DecodeOptionalJSON(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.Error(response.CodeValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	subjectID := chi.URLParam(r, "id")
	user, err := h.service.Upgrade(r.Context(), caller, subjectID, req.SubscriptionType)
	if err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrForbidden) {
			log.Info("upgrade rejected", slog.String("subject_id", subjectID), sl.Err(err))
		} else {
			log.Error("failed to upgrade user", slog.String("subject_id", subjectID), sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}

	log.Info("user upgraded", slog.String("subject_id", subjectID), slog.String("by", caller.ID))
	response.OK(w, r, http.StatusOK, map[string]any{
		"user": user,
	})
}
