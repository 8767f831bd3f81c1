// Package productwhatsapp реализует HTTP-обработчик перехода к продавцу в WhatsApp.
// Обработчик учитывает переход и возвращает ссылку wa.me с текстом о товаре.
package productwhatsapp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/campus-market/internal/http/response"
	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	WhatsApp(ctx context.Context, id string) (string, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Ссылка на WhatsApp продавца
// @Tags Products
// @Produce  json
// @Param id path string true "ID товара"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /products/{id}/whatsapp [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.whatsapp"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	link, err := h.service.WhatsApp(r.Context(), id)
	if err != nil {
		log.Warn("whatsapp redirect failed", slog.String("product_id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	response.OK(w, r, http.StatusOK, map[string]any{
		"url": link,
	})
}
