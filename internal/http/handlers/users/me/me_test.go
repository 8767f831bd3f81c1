package me

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/campus-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/campus-market/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Me(ctx context.Context, caller models.Caller) (*models.User, error) {
	args := m.Called(ctx, caller)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func TestMeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	caller := models.Caller{ID: "u1", Type: models.UserTypeSeller}

	tests := []struct {
		name       string
		withCaller bool
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "lapsed seller sees customer type",
			withCaller: true,
			setupMock: func(m *MockService) {
				m.On("Me", mock.Anything, caller).Return(&models.User{ID: "u1", Type: models.UserTypeCustomer}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"type":"customer"`,
		},
		{
			name:       "no caller",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"code":"TOKEN_REQUIRED"`,
		},
		{
			name:       "deleted user",
			withCaller: true,
			setupMock: func(m *MockService) {
				m.On("Me", mock.Anything, caller).Return(nil, models.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"code":"NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.withCaller {
				req = req.WithContext(middlewarectx.WithCaller(req.Context(), caller))
			}
			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
