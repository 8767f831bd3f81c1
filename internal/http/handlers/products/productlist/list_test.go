package productlist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error) {
	args := m.Called(ctx, f)
	p, _ := args.Get(0).(*models.ProductPage)
	return p, args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("passes filters and pagination", func(t *testing.T) {
		svc := new(MockService)
		page := models.Page{Number: 2, Limit: 5}
		filter := models.ProductFilter{Category: "books", Campus: "North", Search: "calc", Page: page}
		svc.On("List", mock.Anything, filter).Return(&models.ProductPage{
			Products:   []*models.Product{{ID: "p1", Title: "Calculus"}},
			Pagination: models.NewPagination(page, 6),
		}, nil).Once()

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/api/products?category=books&campus=North&search=calc&page=2&limit=5", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Status string             `json:"status"`
			Data   models.ProductPage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "OK", resp.Status)
		assert.Len(t, resp.Data.Products, 1)
		assert.Equal(t, models.Pagination{Page: 2, Limit: 5, Total: 6, Pages: 2}, resp.Data.Pagination)
		svc.AssertExpectations(t)
	})

	t.Run("defaults", func(t *testing.T) {
		svc := new(MockService)
		svc.On("List", mock.Anything, models.ProductFilter{Page: models.Page{Number: 1, Limit: models.DefaultPageLimit}}).
			Return(&models.ProductPage{Products: []*models.Product{}}, nil).Once()

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"products":[]`)
	})

	t.Run("storage error", func(t *testing.T) {
		svc := new(MockService)
		svc.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("aggregate failed")).Once()

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "aggregate failed")
	})
}
