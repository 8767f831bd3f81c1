// Package productcreate реализует HTTP-обработчик публикации товара.
//
// Обработчик стоит за SubscriptionGate: профиль продавца берётся из контекста
// и копируется в товар как снимок (имя, кампус, WhatsApp).
package productcreate

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

// Handler обрабатывает запросы на создание товара.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис каталога товаров
	validate *validator.Validate // Валидатор входных данных
}

// Service описывает создание товара.
type Service interface {
	Create(ctx context.Context, seller *models.User, in models.ProductInput) (*models.Product, error)
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
// @Summary Публикация товара
// @Description Доступно продавцам с действующей подпиской и администраторам.
// @Tags Products
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ProductInput true "Товар"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "SUBSCRIPTION_REQUIRED или SUBSCRIPTION_EXPIRED"
// @Router /products [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	seller, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		log.Error("seller profile missing in context")
		response.Fail(w, r, http.StatusUnauthorized, response.Error(response.CodeTokenRequired, "unauthorized"))
		return
	}

	var in models.ProductInput
	if err := request.DecodeJSON(r, &in); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.Error(response.CodeValidation, "invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("title", in.Title), slog.String("category", in.Category))

	if err := h.validate.Struct(in); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	product, err := h.service.Create(r.Context(), seller, in)
	if err != nil {
		log.Error("failed to create product", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("product created", slog.String("product_id", product.ID), slog.String("seller_id", seller.ID))
	response.OK(w, r, http.StatusCreated, map[string]any{
		"product": product,
	})
}
