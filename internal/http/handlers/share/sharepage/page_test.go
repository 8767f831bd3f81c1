package sharepage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ProductPage(ctx context.Context, productID string) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

func (m *MockService) RedirectURL(productID string) string {
	return "http://front.test/?product=" + productID
}

func serve(svc *MockService) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p/p1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "p1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)
	return w
}

func TestPageHandler(t *testing.T) {
	t.Run("renders html", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ProductPage", mock.Anything, "p1").Return(`<html><meta property="og:title" content="Lamp"></html>`, nil)

		w := serve(svc)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), `og:title`)
	})

	t.Run("hidden product redirects", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ProductPage", mock.Anything, "p1").Return("", models.ErrNotFound)

		w := serve(svc)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "http://front.test/?product=p1", w.Header().Get("Location"))
	})

	t.Run("render failure", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ProductPage", mock.Anything, "p1").Return("", errors.New("template"))

		w := serve(svc)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
