package userremove

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

func (m *MockService) Delete(ctx context.Context, caller models.Caller, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := models.Caller{ID: "a1", Type: models.UserTypeAdmin}

	tests := []struct {
		name       string
		id         string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "deleted", id: "u1", wantStatus: http.StatusOK, wantBody: `"deleted":"u1"`},
		{name: "self", id: "a1", err: models.ErrForbidden, wantStatus: http.StatusForbidden, wantBody: `"code":"FORBIDDEN"`},
		{name: "missing", id: "u9", err: models.ErrNotFound, wantStatus: http.StatusNotFound, wantBody: `"code":"NOT_FOUND"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Delete", mock.Anything, admin, tt.id).Return(tt.err).Once()

			req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, admin))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
