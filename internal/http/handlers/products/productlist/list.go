// Package productlist реализует HTTP-обработчик публичной выдачи товаров.
//
// В выдачу попадают только активные товары продавцов с действующей подпиской.
// Поддерживаются фильтры category и campus, поиск search по названию и описанию
// и пагинация page/limit.
package productlist

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

// Handler обрабатывает запросы публичной выдачи.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис каталога товаров
}

// Service описывает выдачу товаров.
type Service interface {
	List(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Каталог товаров
// @Tags Products
// @Produce  json
// @Param category query string false "Категория"
// @Param campus query string false "Кампус продавца"
// @Param search query string false "Поиск по названию и описанию"
// @Param page query int false "Номер страницы (с 1)"
// @Param limit query int false "Размер страницы (до 100)"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /products [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	filter := models.ProductFilter{
		Category: q.Get("category"),
		Campus:   q.Get("campus"),
		Search:   q.Get("search"),
		Page:     request.Page(r),
	}

	res, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("products listed", slog.Int("count", len(res.Products)), slog.Int64("total", res.Pagination.Total))
	response.OK(w, r, http.StatusOK, res)
}
