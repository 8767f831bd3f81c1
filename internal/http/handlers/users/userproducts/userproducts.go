// Package userproducts реализует HTTP-обработчик списка товаров продавца.
// Владелец и администратор видят товары во всех статусах, остальные только видимые.
package userproducts

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
	SellerProducts(ctx context.Context, caller models.Caller, sellerID string, page models.Page) (*models.ProductPage, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Товары продавца
// @Tags Users
// @Produce  json
// @Param id path string true "ID продавца"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /users/{id}/products [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.products"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// Анонимный запрос получает пустого Caller и видит только видимые товары.
	caller, _ := middlewarectx.CallerFrom(r.Context())
	sellerID := chi.URLParam(r, "id")

	res, err := h.service.SellerProducts(r.Context(), caller, sellerID, request.Page(r))
	if err != nil {
		log.Error("failed to list seller products", slog.String("seller_id", sellerID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("seller products listed", slog.String("seller_id", sellerID), slog.Int("count", len(res.Products)))
	response.OK(w, r, http.StatusOK, res)
}
