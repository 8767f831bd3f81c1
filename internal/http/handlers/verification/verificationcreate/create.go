// Package verificationcreate реализует HTTP-обработчик загрузки фотографии для верификации продавца.
//
// Фотография передаётся в multipart-поле "image", размер не больше 5 МиБ,
// тип содержимого image/*. В ответ возвращается идентификатор заявки.
package verificationcreate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
	services "github.com/magabrotheeeer/campus-market/internal/services/verification"
)

// FormField имя multipart-поля с фотографией.
const FormField = "image"

// Запас на заголовки и границы multipart поверх размера файла.
const multipartOverhead = 1 << 20

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Create(ctx context.Context, caller models.Caller, subjectID string, up services.Upload) (*models.VerificationRequest, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заявка на верификацию
// @Description Загружает фотографию и создаёт заявку на верификацию продавца.
// @Tags Verification
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param userId path string true "ID пользователя"
// @Param image formData file true "Фотография (image/*, до 5 МиБ)"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Уже верифицирован или заявка ожидает решения"
// @Failure 413 {object} response.ErrorResponse "Файл слишком большой"
// @Router /verification/{userId} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.verification.create"

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

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+multipartOverhead)
	file, header, err := r.FormFile(FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("upload exceeds limit", slog.Int64("limit", tooLarge.Limit))
			response.RenderError(w, r, models.ErrPayloadTooLarge)
			return
		}
		log.Warn("image field missing", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.Error(response.CodeValidation, "field image is required"))
		return
	}
	defer file.Close()

	subjectID := chi.URLParam(r, "userId")
	req, err := h.service.Create(r.Context(), caller, subjectID, services.Upload{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		log.Warn("verification request rejected", slog.String("subject_id", subjectID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("verification request created", slog.String("verification_id", req.ID), slog.String("subject_id", subjectID))
	response.OK(w, r, http.StatusCreated, map[string]any{
		"requestId": req.ID,
	})
}
