// Package sharepage реализует HTTP-обработчик страницы товара для соцсетей и мессенджеров.
//
// Страница содержит теги Open Graph и сразу перенаправляет браузер во фронтенд.
// Если товар скрыт или не существует, клиент получает 302 на фронтенд.
package sharepage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ProductPage(ctx context.Context, productID string) (string, error)
	RedirectURL(productID string) string
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Страница товара с Open Graph
// @Tags Share
// @Produce  html
// @Param id path string true "ID товара"
// @Success 200 {string} string "HTML"
// @Success 302 {string} string "Перенаправление во фронтенд"
// @Router /p/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.page"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	page, err := h.service.ProductPage(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("shared product not visible", slog.String("product_id", id))
			http.Redirect(w, r, h.service.RedirectURL(id), http.StatusFound)
			return
		}
		log.Error("failed to render product page", slog.String("product_id", id), sl.Err(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, page); err != nil {
		log.Error("failed to write page", sl.Err(err))
	}
}
