// Package verificationlist реализует HTTP-обработчик списка заявок на верификацию для администратора.
package verificationlist

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

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	List(ctx context.Context, f models.RequestFilter) ([]*models.VerificationRequest, models.RequestCounts, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заявки на верификацию
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param status query string false "pending, approved или rejected"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/verification-requests [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.verification.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := request.RequestFilter(r)
	if err != nil {
		log.Warn("invalid filter", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	res, counts, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list verification requests", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	response.OK(w, r, http.StatusOK, map[string]any{
		"requests": res,
		"counts":   counts,
	})
}
