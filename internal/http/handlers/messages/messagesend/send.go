// Package messagesend реализует HTTP-обработчик отправки личного сообщения.
package messagesend

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/http/request"
	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

// Handler обрабатывает отправку сообщений.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает отправку сообщения.
type Service interface {
	Send(ctx context.Context, sender models.Caller, in models.MessageInput) (*models.Message, error)
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
// @Summary Отправка сообщения
// @Tags Messages
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.MessageInput true "Сообщение"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Получатель не найден"
// @Failure 429 {object} response.ErrorResponse
// @Router /messages [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.messages.send"

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

	var in models.MessageInput
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

	msg, err := h.service.Send(r.Context(), caller, in)
	if err != nil {
		log.Warn("failed to send message", slog.String("receiver_id", in.ReceiverID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("message sent", slog.String("conversation_id", msg.ConversationID))
	response.OK(w, r, http.StatusCreated, map[string]any{
		"message": msg,
	})
}
