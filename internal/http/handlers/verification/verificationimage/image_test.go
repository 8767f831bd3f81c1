package verificationimage

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
	"github.com/magabrotheeeer/campus-market/internal/storage/images"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Image(ctx context.Context, caller models.Caller, imageID string) (*images.Image, error) {
	args := m.Called(ctx, caller, imageID)
	img, _ := args.Get(0).(*images.Image)
	return img, args.Error(1)
}

func TestImageHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := models.Caller{ID: "a1", Type: models.UserTypeAdmin}

	tests := []struct {
		name            string
		setupMock       func(*MockService)
		wantStatus      int
		wantBody        string
		wantContentType string
	}{
		{
			name: "streams stored content type",
			setupMock: func(m *MockService) {
				m.On("Image", mock.Anything, admin, "img1").Return(&images.Image{
					Body:        io.NopCloser(strings.NewReader("PNGDATA")),
					ContentType: "image/png",
					Size:        7,
				}, nil)
			},
			wantStatus:      http.StatusOK,
			wantBody:        "PNGDATA",
			wantContentType: "image/png",
		},
		{
			name: "missing image",
			setupMock: func(m *MockService) {
				m.On("Image", mock.Anything, admin, "img1").Return(nil, models.ErrNotFound)
			},
			wantStatus:      http.StatusNotFound,
			wantBody:        `"code":"NOT_FOUND"`,
			wantContentType: "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/verification/image/img1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("imageId", "img1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, admin))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), tt.wantContentType))
			svc.AssertExpectations(t)
		})
	}
}
