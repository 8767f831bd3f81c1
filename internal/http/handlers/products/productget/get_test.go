package productget

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

	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func TestGetHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		product    *models.Product
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "visible product",
			product:    &models.Product{ID: "p1", Title: "Lamp", Views: 4},
			wantStatus: http.StatusOK,
			wantBody:   `"views":4`,
		},
		{
			name:       "hidden after seller lapse",
			err:        models.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   `"code":"NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Get", mock.Anything, "p1").Return(tt.product, tt.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/products/p1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
