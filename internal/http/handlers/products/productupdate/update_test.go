package productupdate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, caller models.Caller, id string, in models.ProductInput) (*models.Product, error) {
	args := m.Called(ctx, caller, id, in)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func TestUpdateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	caller := models.Caller{ID: "s2", Type: models.UserTypeSeller}
	body := `{"title":"Desk lamp","description":"Warm","price":450,"category":"home"}`
	in := models.ProductInput{Title: "Desk lamp", Description: "Warm", Price: 450, Category: "home"}

	tests := []struct {
		name       string
		err        error
		product    *models.Product
		wantStatus int
		wantBody   string
	}{
		{name: "owner", product: &models.Product{ID: "p1", Price: 450}, wantStatus: http.StatusOK, wantBody: `"price":450`},
		{name: "not owner", err: models.ErrForbidden, wantStatus: http.StatusForbidden, wantBody: `"code":"FORBIDDEN"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Update", mock.Anything, caller, "p1", in).Return(tt.product, tt.err).Once()

			req := httptest.NewRequest(http.MethodPut, "/api/products/p1", strings.NewReader(body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, caller))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
