// Package verificationimage реализует HTTP-обработчик выдачи фотографии из заявки на верификацию.
// Фотографию видят только администратор и автор заявки.
package verificationimage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
	"github.com/magabrotheeeer/campus-market/internal/storage/images"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Image(ctx context.Context, caller models.Caller, imageID string) (*images.Image, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Фотография верификации
// @Tags Verification
// @Produce  image/jpeg
// @Produce  image/png
// @Security BearerAuth
// @Param imageId path string true "ID изображения"
// @Success 200 {file} binary
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /verification/image/{imageId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.verification.image"

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

	imageID := chi.URLParam(r, "imageId")
	img, err := h.service.Image(r.Context(), caller, imageID)
	if err != nil {
		log.Warn("failed to open image", slog.String("image_id", imageID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	defer img.Body.Close()

	w.Header().Set("Content-Type", img.ContentType)
	if img.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(img.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, img.Body); err != nil {
		log.Error("failed to stream image", slog.String("image_id", imageID), sl.Err(err))
	}
}
