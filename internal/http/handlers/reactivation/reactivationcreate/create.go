// Package reactivationcreate реализует HTTP-обработчик создания заявки на реактивацию
// статуса продавца. У пользователя может быть не больше одной заявки в ожидании.
package reactivationcreate

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

// Handler обрабатывает запросы на создание заявки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает создание заявки на реактивацию.
type Service interface {
	Create(ctx context.Context, caller models.Caller, subjectID, note string) (*models.ReactivationRequest, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Заявка на реактивацию
// @Description Создаёт заявку на восстановление статуса продавца. Доступно самому пользователю и администратору.
// @Tags Reactivation
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body models.ReactivationInput false "Комментарий к заявке"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Подписка активна или заявка уже ожидает решения"
// @Router /users/{id}/reactivate-request [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reactivation.create"

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

	var in models.ReactivationInput
	if err := request.DecodeOptionalJSON(r, &in); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.Error(response.CodeValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(in); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	subjectID := chi.URLParam(r, "id")
	req, err := h.service.Create(r.Context(), caller, subjectID, in.Note)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			log.Info("reactivation request rejected", slog.String("subject_id", subjectID), sl.Err(err))
		} else {
			log.Error("failed to create reactivation request", slog.String("subject_id", subjectID), sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}

	log.Info("reactivation request created", slog.String("request_id", req.ID), slog.String("subject_id", subjectID))
	response.OK(w, r, http.StatusCreated, map[string]any{
		"request": req,
	})
}
