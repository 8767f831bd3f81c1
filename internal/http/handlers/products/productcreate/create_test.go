package productcreate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, seller *models.User, in models.ProductInput) (*models.Product, error) {
	args := m.Called(ctx, seller, in)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seller := &models.User{ID: "s1", Name: "Aida", Campus: "North", WhatsApp: "+79000000000", Type: models.UserTypeSeller}
	valid := models.ProductInput{Title: "Desk lamp", Description: "Warm light", Price: 500, Category: "home"}

	tests := []struct {
		name        string
		requestBody any
		withSeller  bool
		setupMock   func(*MockService)
		wantStatus  int
		wantBody    string
	}{
		{
			name:        "created with seller snapshot",
			requestBody: valid,
			withSeller:  true,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, seller, valid).Return(&models.Product{
					ID: "p1", Title: valid.Title, SellerID: "s1", SellerName: "Aida", SellerCampus: "North", Status: models.ProductActive,
				}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"sellerCampus":"North"`,
		},
		{
			name:        "gate not applied",
			requestBody: valid,
			setupMock:   func(_ *MockService) {},
			wantStatus:  http.StatusUnauthorized,
			wantBody:    `"code":"TOKEN_REQUIRED"`,
		},
		{
			name:        "title too short",
			requestBody: models.ProductInput{Title: "ab", Description: "x", Category: "home"},
			withSeller:  true,
			setupMock:   func(_ *MockService) {},
			wantStatus:  http.StatusBadRequest,
			wantBody:    `field Title must satisfy min=3`,
		},
		{
			name:        "negative price",
			requestBody: models.ProductInput{Title: "Desk lamp", Description: "x", Category: "home", Price: -1},
			withSeller:  true,
			setupMock:   func(_ *MockService) {},
			wantStatus:  http.StatusBadRequest,
			wantBody:    `field Price must be at least 0`,
		},
		{
			name:        "invalid json",
			requestBody: "{",
			withSeller:  true,
			setupMock:   func(_ *MockService) {},
			wantStatus:  http.StatusBadRequest,
			wantBody:    `"error":"invalid request body"`,
		},
		{
			name:        "storage error",
			requestBody: valid,
			withSeller:  true,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, seller, valid).Return(nil, errors.New("insert failed"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"error":"internal server error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.withSeller {
				ctx = middlewarectx.WithUser(ctx, seller)
			}
			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
