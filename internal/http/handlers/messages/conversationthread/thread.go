// Package conversationthread реализует HTTP-обработчик сообщений диалога.
// Читать диалог может только его участник; входящие сообщения отмечаются прочитанными.
package conversationthread

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
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
	Thread(ctx context.Context, caller models.Caller, conversationID string, page models.Page) (*models.MessagePage, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сообщения диалога
// @Tags Messages
// @Produce  json
// @Security BearerAuth
// @Param conversationId path string true "ID диалога"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Не участник диалога"
// @Router /messages/conversations/{conversationId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.messages.thread"

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

	conversationID := chi.URLParam(r, "conversationId")
	res, err := h.service.Thread(r.Context(), caller, conversationID, request.Page(r))
	if err != nil {
		log.Warn("failed to read conversation", slog.String("conversation_id", conversationID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	response.OK(w, r, http.StatusOK, res)
}
