// Package conversationlist реализует HTTP-обработчик списка диалогов пользователя.
package conversationlist

import (
	"context"
	"log/slog"
	"net/http"

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
	Conversations(ctx context.Context, caller models.Caller) ([]*models.Conversation, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Диалоги
// @Description Последнее сообщение, число непрочитанных и профиль собеседника по каждому диалогу.
// @Tags Messages
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /messages/conversations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.messages.conversations"

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

	convs, err := h.service.Conversations(r.Context(), caller)
	if err != nil {
		log.Error("failed to list conversations", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	response.OK(w, r, http.StatusOK, map[string]any{
		"conversations": convs,
	})
}
