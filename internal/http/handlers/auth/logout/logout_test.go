package logout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func TestLogoutHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		header     string
		setupMock  func(*ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "revoked",
			header: "Bearer tok",
			setupMock: func(m *ServiceMock) {
				m.On("Logout", mock.Anything, "tok").Return(nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"message":"logged out"`,
		},
		{
			name:       "no token",
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"code":"TOKEN_REQUIRED"`,
		},
		{
			name:   "redis unavailable",
			header: "Bearer tok",
			setupMock: func(m *ServiceMock) {
				m.On("Logout", mock.Anything, "tok").Return(errors.New("dial tcp: refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"code":"INTERNAL_ERROR"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
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
