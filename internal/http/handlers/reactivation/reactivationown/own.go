// Package reactivationown реализует HTTP-обработчик истории заявок пользователя на реактивацию.
package reactivationown

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ListForUser(ctx context.Context, caller models.Caller, subjectID string) ([]*models.ReactivationRequest, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заявки пользователя на реактивацию
// @Tags Reactivation
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /users/{id}/reactivation-requests [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reactivation.own"

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

	subjectID := chi.URLParam(r, "id")
	res, err := h.service.ListForUser(r.Context(), caller, subjectID)
	if err != nil {
		log.Error("failed to list reactivation requests", slog.String("subject_id", subjectID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	response.OK(w, r, http.StatusOK, map[string]any{
		"requests": res,
	})
}
