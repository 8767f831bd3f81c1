package productremove

import (
	"context"
	"errors"
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

// MockService реализует интерфейс productremove.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Delete(ctx context.Context, caller models.Caller, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		caller         models.Caller
		mockErr        error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "владелец удаляет товар",
			caller:         models.Caller{ID: "s1", Type: models.UserTypeSeller},
			expectedStatus: http.StatusOK,
			expectedBody:   `"deleted":"p1"`,
		},
		{
			name:           "администратор удаляет чужой товар",
			caller:         models.Caller{ID: "a1", Type: models.UserTypeAdmin},
			expectedStatus: http.StatusOK,
			expectedBody:   `"deleted":"p1"`,
		},
		{
			name:           "чужой товар",
			caller:         models.Caller{ID: "s2", Type: models.UserTypeSeller},
			mockErr:        models.ErrForbidden,
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"code":"FORBIDDEN"`,
		},
		{
			name:           "ошибка хранилища",
			caller:         models.Caller{ID: "s1", Type: models.UserTypeSeller},
			mockErr:        errors.New("db error"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"code":"INTERNAL_ERROR"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Delete", mock.Anything, tt.caller, "p1").Return(tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodDelete, "/api/products/p1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, tt.caller))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
